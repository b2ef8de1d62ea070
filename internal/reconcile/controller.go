// Package reconcile merges the push stream and the authoritative source into the store.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/macrat/ssdash/internal/session"
	"github.com/macrat/ssdash/internal/store"
	"github.com/macrat/ssdash/internal/stream"
	"github.com/macrat/ssdash/lib-ssdash"
)

// Source is the authoritative pull source.
// *ssdash.Client implements this.
type Source interface {
	ListStatuses(ctx context.Context, level ssdash.AuthLevel) ([]ssdash.EndpointStatus, error)
	GetEndpoint(ctx context.Context, id string) (ssdash.Endpoint, error)
	CreateEndpoint(ctx context.Context, in ssdash.EndpointInput) (ssdash.Endpoint, error)
	UpdateEndpoint(ctx context.Context, id string, in ssdash.EndpointInput) (ssdash.Endpoint, error)
	DeleteEndpoint(ctx context.Context, id string) error
	TriggerCheck(ctx context.Context, id string) (ssdash.CheckResult, error)
	History(ctx context.Context, id string, limit int) ([]ssdash.CheckResult, error)

	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	AuthStatus(ctx context.Context) (bool, error)

	Settings(ctx context.Context) (ssdash.Settings, error)
	UpdateSettings(ctx context.Context, s ssdash.Settings) (ssdash.Settings, error)
}

type fetchResult struct {
	StartSeq uint64
	Level    ssdash.AuthLevel
	Statuses []ssdash.EndpointStatus
	Err      error
}

type retainedResult struct {
	Seq    uint64
	Result ssdash.CheckResult
}

// Controller keeps the store consistent with the checker server.
//
// Every mutation of the store happens in the goroutine of Run.
// Refetches run in their own goroutines, and their results are applied by Run.
type Controller struct {
	Source Source
	Store  *store.Store
	Gate   *session.Gate
	Logger *slog.Logger

	state atomic.Int32

	levels  <-chan ssdash.AuthLevel
	refresh chan struct{}
	upserts chan ssdash.Endpoint
	fetched chan fetchResult

	// seq counts the check results applied while any refetch is in flight.
	seq      uint64
	inflight map[uint64]int
	retained []retainedResult
}

// New creates a new Controller.
func New(src Source, s *store.Store, gate *session.Gate, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Controller{
		Source:   src,
		Store:    s,
		Gate:     gate,
		Logger:   logger,
		levels:   gate.Subscribe(),
		refresh:  make(chan struct{}, 1),
		upserts:  make(chan ssdash.Endpoint, 16),
		fetched:  make(chan fetchResult),
		inflight: make(map[uint64]int),
	}
}

// State returns the current push stream state.
func (c *Controller) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Controller) setState(s ConnState) {
	if ConnState(c.state.Swap(int32(s))) != s {
		c.Logger.Debug("connection state changed", "state", s.String())
	}
}

// Refresh requests a full refetch.
// Requests are coalesced while the controller is busy.
func (c *Controller) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// upsert passes an endpoint definition that an action got from the source to Run.
// It is dropped if Run is too busy or not running, and the refetch after the action brings it instead.
func (c *Controller) upsert(e ssdash.Endpoint) {
	select {
	case c.upserts <- e.Clone():
	default:
	}
}

// Run processes signals until ctx is cancelled.
//
// It starts with a refetch, so the store gets filled even if the push stream is unavailable.
func (c *Controller) Run(ctx context.Context, signals <-chan stream.Signal) error {
	c.startRefetch(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-signals:
			if !ok {
				signals = nil
				c.setState(Disconnected)
				continue
			}
			c.handleSignal(ctx, s)
		case l := <-c.levels:
			c.Logger.Info("authorization level changed", "level", l.String())
			c.startRefetch(ctx, "level-changed")
		case <-c.refresh:
			c.startRefetch(ctx, "refresh")
		case e := <-c.upserts:
			c.Store.UpsertEndpoint(e)
		case r := <-c.fetched:
			c.handleFetched(r)
		}
	}
}

func (c *Controller) handleSignal(ctx context.Context, s stream.Signal) {
	switch s.Kind {
	case stream.Connecting:
		c.setState(Connecting)
	case stream.Open:
		c.setState(Connected)
	case stream.Failed:
		c.setState(Disconnected)
	case stream.Message:
		if s.Err != nil {
			c.Logger.Warn("ignore malformed event", "error", s.Err)
			return
		}
		c.handleEvent(ctx, s.Event)
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev ssdash.Event) {
	action, ok := policyFor(ev.Kind())
	if !ok {
		c.Logger.Warn("ignore unsupported event", "type", string(ev.Kind()))
		return
	}

	switch action {
	case Refetch:
		c.startRefetch(ctx, string(ev.Kind()))
	case ApplyResult:
		r := ev.(ssdash.CheckCompleteEvent).Result
		if len(c.inflight) > 0 {
			c.seq++
			c.retained = append(c.retained, retainedResult{Seq: c.seq, Result: r.Clone()})
		}
		c.Store.ApplyCheckResult(r)
	case RemoveEndpoint:
		c.Store.Remove(ev.(ssdash.ServerRemovedEvent).EndpointID)
	}
}

// startRefetch fetches every status in a new goroutine.
// The level is read now, so a refetch always uses the newest level.
func (c *Controller) startRefetch(ctx context.Context, reason string) {
	start := c.seq
	c.inflight[start]++
	level := c.Gate.Level()

	c.Logger.Debug("refetch", "reason", reason, "level", level.String())

	go func() {
		xs, err := c.Source.ListStatuses(ctx, level)

		select {
		case c.fetched <- fetchResult{StartSeq: start, Level: level, Statuses: xs, Err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) finishRefetch(start uint64) {
	c.inflight[start]--
	if c.inflight[start] <= 0 {
		delete(c.inflight, start)
	}
	if len(c.inflight) == 0 {
		c.retained = nil
	}
}

func (c *Controller) handleFetched(r fetchResult) {
	defer c.finishRefetch(r.StartSeq)

	if r.Err != nil {
		if errors.Is(r.Err, ssdash.ErrUnauthorized) && r.Level == ssdash.AuthAuthenticated {
			c.Logger.Warn("session expired", "error", r.Err)
			c.Gate.SetLevel(ssdash.AuthPublic)
			return
		}
		c.Store.ReportInternalError("refetch", r.Err.Error())
		return
	}

	if r.Level != c.Gate.Level() {
		c.Logger.Debug("discard refetch result of old authorization level", "level", r.Level.String())
		return
	}

	c.Store.ReplaceAll(r.Statuses)
	c.Store.SetHealthy()

	reapplied := 0
	for _, x := range c.retained {
		if x.Seq > r.StartSeq && c.Store.ReapplyCheckResult(x.Result) {
			reapplied++
		}
	}

	c.Logger.Debug("store refreshed", "endpoints", len(r.Statuses), "reapplied", reapplied)
}
