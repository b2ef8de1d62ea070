package endpoint

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/macrat/ssdash/internal/reconcile"
	"github.com/macrat/ssdash/internal/view"
)

var labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)

// metricInfo is a metric point of an endpoint for /metrics endpoint.
type metricInfo struct {
	Labels    string
	Timestamp string
	Record    view.Record
}

func newMetricInfo(r view.Record) metricInfo {
	m := metricInfo{
		Labels: fmt.Sprintf(`id="%s",name="%s"`, labelEscaper.Replace(r.ID), labelEscaper.Replace(r.Name)),
		Record: r,
	}
	if r.LastChecked != nil {
		m.Timestamp = fmt.Sprintf(" %d", r.LastChecked.UnixMilli())
	}
	return m
}

func boolMetric(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MetricsEndpoint implements Prometheus metrics endpoint.
// This endpoint follows both of Prometheus specification and OpenMetrics specification.
//
// Endpoints that have never been checked, and disabled endpoints, have no up or latency metrics.
func MetricsEndpoint(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		snap := b.Snapshot()
		records := snap.Records()

		metrics := make([]metricInfo, len(records))
		for i, rec := range records {
			metrics[i] = newMetricInfo(rec)
		}

		fmt.Fprintln(w, "# HELP ssdash_endpoint_up Whether the latest check of the endpoint passed both of TCP and protocol.")
		fmt.Fprintln(w, "# TYPE ssdash_endpoint_up gauge")
		for _, m := range metrics {
			if m.Record.LastChecked != nil && m.Record.Enabled {
				fmt.Fprintf(w, "ssdash_endpoint_up{%s} %d%s\n", m.Labels, boolMetric(m.Record.Status == view.StatusUp), m.Timestamp)
			}
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "# HELP ssdash_endpoint_uptime_ratio The ratio of reachable checks in the recent history.")
		fmt.Fprintln(w, "# TYPE ssdash_endpoint_uptime_ratio gauge")
		for _, m := range metrics {
			if m.Record.HistoryLen > 0 {
				fmt.Fprintf(w, "ssdash_endpoint_uptime_ratio{%s} %v%s\n", m.Labels, m.Record.UptimePct/100, m.Timestamp)
			}
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "# HELP ssdash_endpoint_latency_seconds The TCP latency of the latest check.")
		fmt.Fprintln(w, "# TYPE ssdash_endpoint_latency_seconds gauge")
		fmt.Fprintln(w, "# UNIT ssdash_endpoint_latency_seconds seconds")
		for _, m := range metrics {
			if l := m.Record.TCPLatencyMs; l != nil && m.Record.Enabled {
				fmt.Fprintf(w, "ssdash_endpoint_latency_seconds{%s} %f%s\n", m.Labels, *l/1000, m.Timestamp)
			}
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "# HELP ssdash_endpoint_checks_total The number of checks that the dashboard has seen.")
		fmt.Fprintln(w, "# TYPE ssdash_endpoint_checks_total counter")
		for _, m := range metrics {
			fmt.Fprintf(w, "ssdash_endpoint_checks_total{%s} %d\n", m.Labels, m.Record.TotalChecks)
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "# HELP ssdash_stream_connected Whether the push stream from the checker server is open.")
		fmt.Fprintln(w, "# TYPE ssdash_stream_connected gauge")
		fmt.Fprintf(w, "ssdash_stream_connected %d\n", boolMetric(snap.State == reconcile.Connected))
		fmt.Fprintln(w)

		healthy, _ := b.Errors()
		fmt.Fprintln(w, "# HELP ssdash_healthy Whether the last refetch from the checker server succeeded.")
		fmt.Fprintln(w, "# TYPE ssdash_healthy gauge")
		fmt.Fprintf(w, "ssdash_healthy %d\n", boolMetric(healthy))
	}
}
