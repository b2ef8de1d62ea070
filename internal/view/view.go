// Package view makes the redacted projection of the store for display.
package view

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/macrat/ssdash/lib-ssdash"
)

// MethodPlaceholder is shown instead of the cipher method on public level.
const MethodPlaceholder = "Protocol"

// Actions is the set of mutating actions that the viewer can see.
type Actions struct {
	Check  bool `json:"check"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// ProtocolView is the protocol check part of Record.
type ProtocolView struct {
	Success   bool     `json:"success"`
	LatencyMs *float64 `json:"latency_ms"`

	// Error is empty on public level.
	Error string `json:"error,omitempty"`
}

// Record is the projection of an ssdash.EndpointStatus on an authorization level.
//
// Host, Port, Password and the real Method are included only on authenticated level.
type Record struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Host     string   `json:"host,omitempty"`
	Port     int      `json:"port,omitempty"`
	Password string   `json:"password,omitempty"`
	Method   string   `json:"method"`
	Enabled  bool     `json:"enabled"`
	Tags     []string `json:"tags"`

	Status Status `json:"status"`

	LastChecked  *time.Time `json:"last_checked"`
	Reachable    bool       `json:"reachable"`
	TCPLatencyMs *float64   `json:"tcp_latency_ms"`
	LatencyClass Class      `json:"latency_class"`

	// TCPError is empty on public level, because it may include the address.
	TCPError string `json:"tcp_error,omitempty"`

	Protocol *ProtocolView `json:"protocol"`

	UptimePct    float64  `json:"uptime_pct"`
	UptimeClass  Class    `json:"uptime_class"`
	AvgLatencyMs *float64 `json:"avg_latency_ms"`
	AvgClass     Class    `json:"avg_latency_class"`
	HistoryLen   int      `json:"history_length"`
	TotalChecks  int      `json:"total_checks"`
	Sparkline    []Bar    `json:"sparkline"`

	Actions Actions `json:"actions"`
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Project makes a Record from s.
//
// This function never modifies s.
func Project(s ssdash.EndpointStatus, level ssdash.AuthLevel) Record {
	authed := level == ssdash.AuthAuthenticated

	r := Record{
		ID:      s.Endpoint.ID,
		Name:    s.Endpoint.Name,
		Method:  MethodPlaceholder,
		Enabled: s.Endpoint.Enabled,
		Tags:    ssdash.NormalizeTags(s.Endpoint.Tags),

		Status: Classify(s),

		UptimePct:    s.UptimePct,
		UptimeClass:  UptimeClass(s.UptimePct, len(s.History)),
		AvgLatencyMs: cloneFloat(s.AvgLatencyMs),
		AvgClass:     LatencyClass(s.AvgLatencyMs),
		HistoryLen:   len(s.History),
		TotalChecks:  s.TotalChecks,
		Sparkline:    Sparkline(s.History),

		LatencyClass: ClassNA,
	}

	if authed {
		r.Host = s.Endpoint.Host
		r.Port = s.Endpoint.Port
		r.Password = s.Endpoint.Password
		if s.Endpoint.Method != "" {
			r.Method = s.Endpoint.Method
		}
		r.Actions = Actions{Check: true, Edit: true, Delete: true}
	}

	if l := s.Latest; l != nil {
		t := l.Timestamp
		r.LastChecked = &t
		r.Reachable = l.TCP.Reachable
		r.TCPLatencyMs = cloneFloat(l.TCP.LatencyMs)
		r.LatencyClass = LatencyClass(l.TCP.LatencyMs)

		if authed {
			r.TCPError = l.TCP.Error
		}

		if p := l.Protocol; p != nil {
			r.Protocol = &ProtocolView{
				Success:   p.Success,
				LatencyMs: cloneFloat(p.LatencyMs),
			}
			if authed && !p.Success {
				r.Protocol.Error = p.Error
			}
		}
	}

	return r
}

// ProjectAll projects every status in the same order.
func ProjectAll(xs []ssdash.EndpointStatus, level ssdash.AuthLevel) []Record {
	rs := make([]Record, len(xs))
	for i, x := range xs {
		rs[i] = Project(x, level)
	}
	return rs
}

// Address returns "host:port", or an empty string if the record is redacted.
func (r Record) Address() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LastCheckedText returns a relative time like "3 minutes ago", or "never".
func (r Record) LastCheckedText(now time.Time) string {
	if r.LastChecked == nil {
		return "never"
	}
	if now.Sub(*r.LastChecked) < 5*time.Second {
		return "just now"
	}
	return humanize.RelTime(*r.LastChecked, now, "ago", "from now")
}

// UptimeText returns the uptime like "99.5%", or "--" if there is no history.
func (r Record) UptimeText() string {
	if r.HistoryLen == 0 {
		return "--"
	}
	return fmt.Sprintf("%.1f%%", r.UptimePct)
}

// LatencyText returns the latest TCP latency like "12.3ms", or "--".
func (r Record) LatencyText() string {
	return formatLatency(r.TCPLatencyMs)
}

// AvgLatencyText returns the average TCP latency like "12.3ms", or "--".
func (r Record) AvgLatencyText() string {
	return formatLatency(r.AvgLatencyMs)
}

func formatLatency(ms *float64) string {
	if ms == nil {
		return "--"
	}
	return fmt.Sprintf("%.1fms", *ms)
}

// ChecksText returns the number of checks like "1,234 checks".
func (r Record) ChecksText() string {
	return humanize.Comma(int64(r.TotalChecks)) + " checks"
}
