package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

func ToCSV(w io.Writer, rows []Row) error {
	c := csv.NewWriter(w)

	err := c.Write([]string{"time", "endpoint_id", "name", "status", "reachable", "tcp_latency_ms", "tcp_error", "protocol", "protocol_latency_ms", "protocol_error"})
	if err != nil {
		return err
	}

	for _, r := range rows {
		err := c.Write([]string{
			r.Time.Format(time.RFC3339),
			r.EndpointID,
			r.Name,
			string(r.Status),
			strconv.FormatBool(r.Reachable),
			formatLatency(r.TCPLatencyMs),
			r.TCPError,
			r.Protocol,
			formatLatency(r.ProtocolLatencyMs),
			r.ProtocolError,
		})
		if err != nil {
			return err
		}
	}

	c.Flush()

	return c.Error()
}
