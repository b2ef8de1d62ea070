package endpoint

import (
	_ "embed"
	"net/http"
	textTemplate "text/template"
	"time"

	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/internal/reconcile"
	"github.com/macrat/ssdash/internal/view"
	"github.com/macrat/ssdash/lib-ssdash"
)

// statusCount is a row of the status summary.
type statusCount struct {
	Status view.Status `json:"status"`
	Count  int         `json:"count"`
}

var summaryOrder = []view.Status{
	view.StatusUp,
	view.StatusDegraded,
	view.StatusDown,
	view.StatusPending,
	view.StatusDisabled,
}

// StatusReport is the content of the status pages.
type StatusReport struct {
	Name        string              `json:"name"`
	Level       ssdash.AuthLevel    `json:"level"`
	State       reconcile.ConnState `json:"stream"`
	GeneratedAt time.Time           `json:"generated_at"`
	Summary     []statusCount       `json:"summary"`
	Endpoints   []view.Record       `json:"endpoints"`
}

// MakeStatusReport projects a snapshot for the status pages.
func MakeStatusReport(s reconcile.Snapshot, now time.Time) StatusReport {
	r := StatusReport{
		Name:        s.Name,
		Level:       s.Level,
		State:       s.State,
		GeneratedAt: now,
		Summary:     []statusCount{},
		Endpoints:   s.Records(),
	}

	counts := make(map[view.Status]int)
	for _, e := range r.Endpoints {
		counts[e.Status]++
	}
	for _, st := range summaryOrder {
		if c := counts[st]; c > 0 {
			r.Summary = append(r.Summary, statusCount{st, c})
		}
	}

	return r
}

//go:embed templates/status.html
var statusHTMLTemplate string

func StatusHTMLEndpoint(b Backend) http.HandlerFunc {
	tmpl := loadHTMLTemplate(statusHTMLTemplate)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")

		report := MakeStatusReport(b.Snapshot(), time.Now())
		handleError(b, "status.html", tmpl.Execute(newFlushWriter(w), report))
	}
}

//go:embed templates/status.txt
var statusTextTemplate string

// StatusTextTemplate renders a StatusReport as a plain text table.
var StatusTextTemplate = textTemplate.Must(textTemplate.New("status.txt").Funcs(templateFuncs).Parse(statusTextTemplate))

func StatusTextEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")

		report := MakeStatusReport(b.Snapshot(), time.Now())
		handleError(b, "status.txt", StatusTextTemplate.Execute(newFlushWriter(w), report))
	}
}

// StatusJSONEndpoint replies the status report in JSON.
// Only the public level report can be read from other origins.
func StatusJSONEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := MakeStatusReport(b.Snapshot(), time.Now())

		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		if report.Level == ssdash.AuthPublic {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET")
		}

		enc := json.NewEncoder(newFlushWriter(w))
		handleError(b, "status.json", enc.EncodeContext(r.Context(), report))
	}
}
