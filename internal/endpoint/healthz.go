package endpoint

import (
	"fmt"
	"net/http"
)

// HealthzEndpoint is the http.HandlerFunc for /healthz page.
//
// It replies FAILURE if the dashboard failed to reach the checker server last time.
func HealthzEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")

		healthy, messages := b.Errors()

		if healthy {
			fmt.Fprintln(w, "HEALTHY")
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintln(w, "FAILURE")
		}

		for _, msg := range messages {
			fmt.Fprintln(w, msg)
		}
	}
}
