package endpoint

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/lib-ssdash"
)

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// CheckEndpoint asks the checker server to check the endpoint of the "id" query.
//
// It replies 403 if the dashboard is not logged in.
// A request from the HTML form is redirected to the status page.
func CheckEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSONError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}

		id := r.URL.Query().Get("id")

		result, err := b.TriggerCheck(r.Context(), id)
		switch {
		case errors.Is(err, ssdash.ErrUnauthorized):
			writeJSONError(w, http.StatusForbidden, err)
			return
		case errors.Is(err, ssdash.ErrInvalidEndpoint):
			writeJSONError(w, http.StatusBadRequest, err)
			return
		case errors.Is(err, ssdash.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, err)
			return
		case err != nil:
			writeJSONError(w, http.StatusBadGateway, err)
			return
		}

		if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			http.Redirect(w, r, "/status.html#"+id, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		handleError(b, "check", json.NewEncoder(w).EncodeContext(r.Context(), result))
	}
}
