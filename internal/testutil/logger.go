package testutil

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type testWriter struct {
	sync.Mutex

	t      testing.TB
	closed bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.Lock()
	defer w.Unlock()

	if !w.closed {
		w.t.Log(strings.TrimRight(string(p), "\n"))
	}
	return len(p), nil
}

// NewLogger makes a logger that writes to the test log.
// Records after the test finished are discarded.
func NewLogger(t testing.TB) *slog.Logger {
	t.Helper()

	w := &testWriter{t: t}
	t.Cleanup(func() {
		w.Lock()
		defer w.Unlock()
		w.closed = true
	})

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
