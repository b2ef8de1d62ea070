package stream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/macrat/ssdash/internal/stream"
	"github.com/macrat/ssdash/internal/testutil"
	"github.com/macrat/ssdash/lib-ssdash"
)

type fakeDialer struct {
	sync.Mutex

	fails   int
	streams []string
	calls   []time.Time
	lastIDs []string
}

func (d *fakeDialer) OpenEvents(ctx context.Context, lastID string) (*ssdash.EventScanner, error) {
	d.Lock()
	defer d.Unlock()

	d.calls = append(d.calls, time.Now())
	d.lastIDs = append(d.lastIDs, lastID)

	if d.fails > 0 {
		d.fails--
		return nil, errors.New("connection refused")
	}
	if len(d.streams) == 0 {
		return nil, errors.New("no more stream")
	}

	s := d.streams[0]
	d.streams = d.streams[1:]
	return ssdash.ResumeEventScanner(io.NopCloser(strings.NewReader(s)), lastID), nil
}

func (d *fakeDialer) LastIDs() []string {
	d.Lock()
	defer d.Unlock()
	return append([]string(nil), d.lastIDs...)
}

func collect(t *testing.T, ch <-chan stream.Signal, n int) []stream.Signal {
	t.Helper()

	var xs []stream.Signal
	timeout := time.After(5 * time.Second)
	for len(xs) < n {
		select {
		case s := <-ch:
			xs = append(xs, s)
		case <-timeout:
			t.Fatalf("timed out: got only %d signals", len(xs))
		}
	}
	return xs
}

func kinds(xs []stream.Signal) []string {
	r := make([]string, len(xs))
	for i, x := range xs {
		r[i] = x.Kind.String()
	}
	return r
}

func TestTransport_Run(t *testing.T) {
	d := &fakeDialer{
		fails: 2,
		streams: []string{
			"data: {\"type\":\"Snapshot\"}\n\ndata: {\"type\":\"Bogus\"}\n\ndata: {\"type\":\"ServerRemoved\",\"server_id\":\"a\"}\n\n",
		},
	}

	tr := stream.New(d, testutil.NewLogger(t))
	tr.MinBackoff = 10 * time.Millisecond
	tr.MaxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan stream.Signal)
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, ch)
		close(done)
	}()

	xs := collect(t, ch, 10)

	want := []string{
		"connecting", "failed",
		"connecting", "failed",
		"connecting", "open", "message", "message", "message", "failed",
	}
	if diff := cmp.Diff(want, kinds(xs)); diff != "" {
		t.Fatalf("unexpected signals:\n%s", diff)
	}

	if xs[6].Err != nil || xs[6].Event.Kind() != ssdash.EventSnapshot {
		t.Errorf("unexpected first message: %#v", xs[6])
	}
	if !errors.Is(xs[7].Err, ssdash.ErrUnknownEvent) {
		t.Errorf("unknown event should be reported as error: %#v", xs[7])
	}
	if xs[8].Event != (ssdash.ServerRemovedEvent{EndpointID: "a"}) {
		t.Errorf("unexpected third message: %#v", xs[8])
	}
	if !errors.Is(xs[9].Err, io.ErrUnexpectedEOF) {
		t.Errorf("unexpected disconnect reason: %v", xs[9].Err)
	}

	if s := collect(t, ch, 1)[0]; s.Kind != stream.Connecting {
		t.Errorf("transport should reconnect: %s", s.Kind)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("transport did not stop")
	}
}

func TestTransport_Run_lastEventID(t *testing.T) {
	d := &fakeDialer{
		streams: []string{
			"id: 7\ndata: {\"type\":\"Snapshot\"}\n\n",
			"data: {\"type\":\"Snapshot\"}\n\n",
		},
	}

	tr := stream.New(d, testutil.NewLogger(t))
	tr.MinBackoff = 10 * time.Millisecond
	tr.MaxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan stream.Signal)
	go tr.Run(ctx, ch)

	// connecting, open, message, and failed for each stream, then the third dial fails.
	collect(t, ch, 10)

	if diff := cmp.Diff([]string{"", "7", "7"}, d.LastIDs()); diff != "" {
		t.Errorf("unexpected last event IDs (-want +got):\n%s", diff)
	}
}

func TestTransport_Run_checker(t *testing.T) {
	c := testutil.StartChecker(t)

	client, err := ssdash.NewClient(c.URL)
	if err != nil {
		t.Fatalf("failed to create client: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan stream.Signal, 10)
	go stream.New(client, testutil.NewLogger(t)).Run(ctx, ch)

	xs := collect(t, ch, 3)
	if diff := cmp.Diff([]string{"connecting", "open", "message"}, kinds(xs)); diff != "" {
		t.Fatalf("unexpected signals:\n%s", diff)
	}

	c.WaitListeners(t, 1)
	c.Push(ssdash.ServerRemovedEvent{EndpointID: "x"})

	if s := collect(t, ch, 1)[0]; s.Event != (ssdash.ServerRemovedEvent{EndpointID: "x"}) {
		t.Errorf("unexpected signal: %#v", s)
	}
}
