// Package endpoint implements the HTTP surface of the local dashboard.
package endpoint

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
)

// New creates the handler of the dashboard.
//
// userinfo is the "username:password" that the dashboard requires.
// If userinfo is empty, the dashboard is open to anyone who can reach it, so it shows only public level information even if the checker server is logged in.
func New(b Backend, userinfo string) http.Handler {
	if userinfo == "" {
		b = publicBackend{b}
	}

	m := http.NewServeMux()

	m.Handle("/status", http.RedirectHandler("/status.html", http.StatusMovedPermanently))
	m.HandleFunc("/status.txt", StatusTextEndpoint(b))
	m.HandleFunc("/status.html", StatusHTMLEndpoint(b))
	m.HandleFunc("/status.json", StatusJSONEndpoint(b))

	m.Handle("/targets", http.RedirectHandler("/targets.txt", http.StatusMovedPermanently))
	m.HandleFunc("/targets.txt", TargetsTextEndpoint(b))
	m.HandleFunc("/targets.json", TargetsJSONEndpoint(b))

	m.HandleFunc("/check", CheckEndpoint(b))

	m.HandleFunc("/metrics", MetricsEndpoint(b))
	m.HandleFunc("/healthz", HealthzEndpoint(b))

	m.Handle("/mcp", MCPHandler(b))

	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/status.html", http.StatusFound)
		} else {
			http.NotFound(w, r)
		}
	})

	// Browsers send the basic auth credentials with cross-site form posts too.
	h := http.NewCrossOriginProtection().Handler(m)

	return WithBasicAuth(gziphandler.GzipHandler(h), userinfo)
}

func handleError(b Backend, scope string, err error) {
	if err != nil {
		b.ReportInternalError("endpoint:"+scope, err.Error())
	}
}
