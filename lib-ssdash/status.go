package ssdash

import (
	"github.com/macrat/ssdash/internal/dasherr"
)

// EndpointStatus is the aggregated status of an Endpoint.
type EndpointStatus struct {
	Endpoint Endpoint `json:"server"`

	// Latest is the latest check result, or nil if never checked.
	Latest *CheckResult `json:"latest_result"`

	// History is the recent check results, newest first.
	History []CheckResult `json:"history"`

	UptimePct float64 `json:"uptime_pct"`

	// AvgLatencyMs is nil if no result in History has TCP latency.
	AvgLatencyMs *float64 `json:"avg_latency_ms"`

	// TotalChecks is the number of checks ever observed.
	// It can be larger than len(History) because History is bounded.
	// The checker server may omit it.
	TotalChecks int `json:"total_checks,omitempty"`
}

// Clone returns a deep copy of s.
func (s EndpointStatus) Clone() EndpointStatus {
	s.Endpoint = s.Endpoint.Clone()

	if s.Latest != nil {
		l := s.Latest.Clone()
		s.Latest = &l
	}

	if s.History != nil {
		h := make([]CheckResult, len(s.History))
		for i, r := range s.History {
			h[i] = r.Clone()
		}
		s.History = h
	}

	s.AvgLatencyMs = cloneFloat(s.AvgLatencyMs)

	return s
}

// Settings is the checker server settings.
type Settings struct {
	CheckIntervalSecs uint64 `json:"check_interval_secs"`
}

// MinCheckInterval is the minimal check interval in seconds that the checker server accepts.
const MinCheckInterval = 5

// Validate checks if the settings acceptable or not.
func (s Settings) Validate() error {
	if s.CheckIntervalSecs < MinCheckInterval {
		return dasherr.New(ErrInvalidSettings, nil, "check interval must be at least %d seconds but got %d", MinCheckInterval, s.CheckIntervalSecs)
	}
	return nil
}
