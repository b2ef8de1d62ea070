package view

import (
	"github.com/macrat/ssdash/lib-ssdash"
)

// SparklineLength is the number of bars in a sparkline.
const SparklineLength = 20

// MinBarHeight is the minimal height of a bar in percent.
const MinBarHeight = 4

// Bar is a bar of the latency sparkline.
type Bar struct {
	// Height is the bar height in percent of the highest latency.
	Height int `json:"height"`

	// Class is "up", "slow", or "down".
	Class string `json:"class"`

	LatencyMs *float64 `json:"latency_ms"`
}

// Sparkline makes latency bars from newest-first history.
// The result is oldest first, and has at most SparklineLength bars.
// Unreachable results are full height "down" bars.
func Sparkline(rs []ssdash.CheckResult) []Bar {
	if len(rs) > SparklineLength {
		rs = rs[:SparklineLength]
	}

	maxLatency := 1.0
	for _, r := range rs {
		if r.TCP.LatencyMs != nil && *r.TCP.LatencyMs > maxLatency {
			maxLatency = *r.TCP.LatencyMs
		}
	}

	bars := make([]Bar, len(rs))
	for i, r := range rs {
		b := &bars[len(rs)-i-1]

		if !r.TCP.Reachable {
			*b = Bar{Height: 100, Class: "down"}
			continue
		}

		var ms float64
		if r.TCP.LatencyMs != nil {
			ms = *r.TCP.LatencyMs
			v := ms
			b.LatencyMs = &v
		}

		b.Height = int(ms / maxLatency * 100)
		if b.Height < MinBarHeight {
			b.Height = MinBarHeight
		}

		switch LatencyClass(&ms) {
		case ClassGood:
			b.Class = "up"
		case ClassWarn:
			b.Class = "slow"
		default:
			b.Class = "down"
		}
	}

	return bars
}
