package ssdash

import (
	"time"
)

// CheckResult is a single observation that the checker server made for an endpoint.
type CheckResult struct {
	EndpointID string    `json:"server_id"`
	Timestamp  time.Time `json:"timestamp"`

	TCP TCPCheck `json:"tcp_check"`

	// Protocol is nil if the checker did not run the protocol-level check.
	Protocol *ProtocolCheck `json:"ss_check,omitempty"`
}

// TCPCheck is the result of TCP reachability check.
type TCPCheck struct {
	Reachable bool     `json:"reachable"`
	LatencyMs *float64 `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
}

// ProtocolCheck is the result of the proxy protocol check through the endpoint.
type ProtocolCheck struct {
	Success   bool     `json:"success"`
	LatencyMs *float64 `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
}

// Latency returns TCP latency as time.Duration.
// The second value is false if the result has no latency.
func (r CheckResult) Latency() (time.Duration, bool) {
	if r.TCP.LatencyMs == nil {
		return 0, false
	}
	return time.Duration(*r.TCP.LatencyMs * float64(time.Millisecond)), true
}

// Clone returns a deep copy of r.
func (r CheckResult) Clone() CheckResult {
	r.TCP.LatencyMs = cloneFloat(r.TCP.LatencyMs)
	if r.Protocol != nil {
		p := *r.Protocol
		p.LatencyMs = cloneFloat(p.LatencyMs)
		r.Protocol = &p
	}
	return r
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns pointer to f.
// It is a helper for making optional latencies.
func Float(f float64) *float64 {
	return &f
}
