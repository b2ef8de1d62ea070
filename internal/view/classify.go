package view

import (
	"github.com/macrat/ssdash/lib-ssdash"
)

// Status is the badge status of an endpoint.
type Status string

const (
	StatusDisabled Status = "disabled"
	StatusPending  Status = "pending"
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Classify decides the badge status from the latest result.
//
// An endpoint is degraded if TCP is reachable but the protocol check failed or was not run.
func Classify(s ssdash.EndpointStatus) Status {
	switch {
	case !s.Endpoint.Enabled:
		return StatusDisabled
	case s.Latest == nil:
		return StatusPending
	default:
		return ClassifyResult(*s.Latest)
	}
}

// ClassifyResult decides the status of a single check result.
// The result is one of StatusUp, StatusDegraded, or StatusDown.
func ClassifyResult(r ssdash.CheckResult) Status {
	switch {
	case !r.TCP.Reachable:
		return StatusDown
	case r.Protocol != nil && r.Protocol.Success:
		return StatusUp
	default:
		return StatusDegraded
	}
}

// Class is the colour class of a metric value.
type Class string

const (
	ClassNA   Class = "na"
	ClassGood Class = "good"
	ClassWarn Class = "warn"
	ClassBad  Class = "bad"
)

const (
	GoodLatencyMs = 200
	WarnLatencyMs = 500

	GoodUptimePct = 95
	WarnUptimePct = 80
)

// LatencyClass classifies a latency in milliseconds.
func LatencyClass(ms *float64) Class {
	switch {
	case ms == nil:
		return ClassNA
	case *ms < GoodLatencyMs:
		return ClassGood
	case *ms < WarnLatencyMs:
		return ClassWarn
	default:
		return ClassBad
	}
}

// UptimeClass classifies an uptime percentage.
// An empty history is ClassNA, not ClassBad.
func UptimeClass(pct float64, historyLen int) Class {
	switch {
	case historyLen == 0:
		return ClassNA
	case pct >= GoodUptimePct:
		return ClassGood
	case pct >= WarnUptimePct:
		return ClassWarn
	default:
		return ClassBad
	}
}
