package history

import (
	"github.com/macrat/ssdash/lib-ssdash"
)

// UptimePercent returns the percentage of TCP reachable results in records.
// It returns 0 if records is empty.
func UptimePercent(records []ssdash.CheckResult) float64 {
	if len(records) == 0 {
		return 0
	}

	up := 0
	for _, r := range records {
		if r.TCP.Reachable {
			up++
		}
	}

	return float64(up) / float64(len(records)) * 100
}

// AverageLatency returns the mean of TCP latencies in milliseconds.
// Results without latency are skipped, and ok is false if no result has it.
func AverageLatency(records []ssdash.CheckResult) (avg float64, ok bool) {
	var sum float64
	n := 0

	for _, r := range records {
		if r.TCP.LatencyMs == nil {
			continue
		}
		sum += *r.TCP.LatencyMs
		n++
	}

	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Metrics is the set of derived values of a history.
type Metrics struct {
	UptimePct    float64
	AvgLatencyMs *float64
}

// Compute recalculates Metrics from the whole records.
func Compute(records []ssdash.CheckResult) Metrics {
	m := Metrics{
		UptimePct: UptimePercent(records),
	}
	if avg, ok := AverageLatency(records); ok {
		m.AvgLatencyMs = &avg
	}
	return m
}
