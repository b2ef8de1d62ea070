// Package stream keeps a connection to the push stream of the checker server.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/macrat/ssdash/lib-ssdash"
)

const (
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = 30 * time.Second
)

// SignalKind is the type of Signal.
type SignalKind int

const (
	// Connecting is sent when the transport starts dialing.
	Connecting SignalKind = iota

	// Open is sent when the stream is established.
	Open

	// Message is sent for each event in the stream.
	Message

	// Failed is sent when dialing failed or the established stream was closed.
	Failed
)

func (k SignalKind) String() string {
	switch k {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Message:
		return "message"
	default:
		return "failed"
	}
}

// Signal is a notification from the transport.
type Signal struct {
	Kind SignalKind

	// Event is the decoded event if Kind is Message and Err is nil.
	Event ssdash.Event

	// Err is the reason of Failed, or the decode error of Message.
	Err error
}

// Dialer opens the push stream.
// *ssdash.Client implements this.
type Dialer interface {
	OpenEvents(ctx context.Context, lastID string) (*ssdash.EventScanner, error)
}

// Transport connects to the push stream, and reconnects when it was closed.
type Transport struct {
	Dialer Dialer
	Logger *slog.Logger

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// New creates a Transport with default backoff.
func New(d Dialer, logger *slog.Logger) *Transport {
	return &Transport{
		Dialer:     d,
		Logger:     logger,
		MinBackoff: DefaultMinBackoff,
		MaxBackoff: DefaultMaxBackoff,
	}
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}

// nextBackoff doubles d, capped by limit.
func nextBackoff(d, limit time.Duration) time.Duration {
	d *= 2
	if d > limit || d <= 0 {
		return limit
	}
	return d
}

func send(ctx context.Context, out chan<- Signal, s Signal) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run keeps the connection until ctx is cancelled, and sends signals to out.
//
// The wait between attempts grows exponentially from MinBackoff up to MaxBackoff.
// It is reset when a stream was established, and the server's retry field is respected after that.
// The last event ID of the closed stream is passed to the next dial.
func (t *Transport) Run(ctx context.Context, out chan<- Signal) {
	minWait, maxWait := t.MinBackoff, t.MaxBackoff
	if minWait <= 0 {
		minWait = DefaultMinBackoff
	}
	if maxWait < minWait {
		maxWait = minWait
	}

	backoff := minWait
	lastID := ""

	for {
		if !send(ctx, out, Signal{Kind: Connecting}) {
			return
		}

		scanner, err := t.Dialer.OpenEvents(ctx, lastID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger().Warn("failed to connect push stream", "error", err, "retry_in", backoff.String())
			if !send(ctx, out, Signal{Kind: Failed, Err: err}) {
				return
			}
		} else {
			retry := t.consume(ctx, scanner, out)
			if ctx.Err() != nil {
				return
			}
			lastID = scanner.LastID()

			backoff = minWait
			if retry > 0 {
				backoff = retry
			}
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if err != nil {
			backoff = nextBackoff(backoff, maxWait)
		}
	}
}

// consume reads the established stream until it closed.
// It returns the reconnection time that the server requested.
func (t *Transport) consume(ctx context.Context, scanner *ssdash.EventScanner, out chan<- Signal) time.Duration {
	defer scanner.Close()

	if !send(ctx, out, Signal{Kind: Open}) {
		return 0
	}
	t.logger().Info("push stream connected")

	for scanner.Scan() {
		ev, err := scanner.Event()
		if !send(ctx, out, Signal{Kind: Message, Event: ev, Err: err}) {
			return 0
		}
	}

	err := scanner.Err()
	if ctx.Err() != nil {
		return 0
	}
	if err == nil {
		err = errors.New("push stream closed")
	}

	t.logger().Warn("push stream disconnected", "error", err)
	send(ctx, out, Signal{Kind: Failed, Err: err})

	return scanner.Retry()
}
