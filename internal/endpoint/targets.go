package endpoint

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// target is an item of the target list.
// Address is empty on public level.
type target struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Enabled bool   `json:"enabled"`
}

func listTargets(b Backend) []target {
	rs := b.Snapshot().Records()

	ts := make([]target, len(rs))
	for i, r := range rs {
		ts[i] = target{
			ID:      r.ID,
			Name:    r.Name,
			Address: r.Address(),
			Enabled: r.Enabled,
		}
	}
	return ts
}

// TargetsTextEndpoint replies target list in text.
// Each line is tab separated ID, name, and address if known.
func TargetsTextEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")

		for _, t := range listTargets(b) {
			if t.Address != "" {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Address)
			} else {
				fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
			}
		}
	}
}

// TargetsJSONEndpoint replies target list in json format.
func TargetsJSONEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		enc := json.NewEncoder(w)

		handleError(b, "targets.json", enc.EncodeContext(r.Context(), listTargets(b)))
	}
}
