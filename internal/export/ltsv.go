package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var ltsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

func ToLTSV(w io.Writer, rows []Row) error {
	for _, r := range rows {
		_, err := fmt.Fprintf(
			w,
			"time:%s\tid:%s\tname:%s\tstatus:%s\treachable:%t",
			r.Time.Format(time.RFC3339),
			r.EndpointID,
			ltsvEscaper.Replace(r.Name),
			r.Status,
			r.Reachable,
		)
		if err != nil {
			return err
		}

		fields := []struct {
			Key, Value string
		}{
			{"tcp_latency", formatLatency(r.TCPLatencyMs)},
			{"tcp_error", r.TCPError},
			{"protocol", r.Protocol},
			{"protocol_latency", formatLatency(r.ProtocolLatencyMs)},
			{"protocol_error", r.ProtocolError},
		}
		for _, f := range fields {
			if f.Value == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "\t%s:%s", f.Key, ltsvEscaper.Replace(f.Value)); err != nil {
				return err
			}
		}

		if _, err = fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
