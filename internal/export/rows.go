// Package export converts check history into spreadsheet friendly formats.
package export

import (
	"strconv"
	"time"

	"github.com/macrat/ssdash/internal/view"
	"github.com/macrat/ssdash/lib-ssdash"
)

// Row is a check result of an endpoint, flattened for export.
//
// TCPError and ProtocolError are empty unless the rows are made on authenticated level.
type Row struct {
	Time              time.Time
	EndpointID        string
	Name              string
	Status            view.Status
	Reachable         bool
	TCPLatencyMs      *float64
	TCPError          string
	Protocol          string
	ProtocolLatencyMs *float64
	ProtocolError     string
}

// Rows flattens the history of every status.
// Rows keep the order of statuses, and the history of each endpoint is newest first.
func Rows(statuses []ssdash.EndpointStatus, level ssdash.AuthLevel) []Row {
	authed := level == ssdash.AuthAuthenticated

	var rows []Row
	for _, s := range statuses {
		for _, r := range s.History {
			row := Row{
				Time:         r.Timestamp,
				EndpointID:   s.Endpoint.ID,
				Name:         s.Endpoint.Name,
				Status:       view.ClassifyResult(r),
				Reachable:    r.TCP.Reachable,
				TCPLatencyMs: r.TCP.LatencyMs,
			}
			if authed {
				row.TCPError = r.TCP.Error
			}

			if p := r.Protocol; p != nil {
				row.ProtocolLatencyMs = p.LatencyMs
				if p.Success {
					row.Protocol = "ok"
				} else {
					row.Protocol = "failed"
					if authed {
						row.ProtocolError = p.Error
					}
				}
			}

			rows = append(rows, row)
		}
	}
	return rows
}

// formatLatency formats milliseconds with 3 decimals, or returns an empty string for nil.
func formatLatency(ms *float64) string {
	if ms == nil {
		return ""
	}
	return strconv.FormatFloat(*ms, 'f', 3, 64)
}
