// Package store is the in-memory model of the endpoint fleet.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/macrat/ssdash/internal/history"
	"github.com/macrat/ssdash/lib-ssdash"
)

// MaxErrors is the number of internal error messages that Errors keeps.
const MaxErrors = 10

// ChangeHandler is called after the store changed.
// The id is empty if the whole store was replaced.
type ChangeHandler func(id string)

type entry struct {
	Endpoint ssdash.Endpoint
	History  *history.Ring
	Metrics  history.Metrics
	Total    int

	// latest is kept separately because the authoritative data may have latest result without history.
	latest *ssdash.CheckResult
}

func (e *entry) recompute() {
	e.Metrics = history.Compute(e.History.Records())
	if l, ok := e.History.Latest(); ok {
		e.latest = &l
	}
}

func (e *entry) status() ssdash.EndpointStatus {
	s := ssdash.EndpointStatus{
		Endpoint:     e.Endpoint.Clone(),
		History:      e.History.Records(),
		UptimePct:    e.Metrics.UptimePct,
		AvgLatencyMs: e.Metrics.AvgLatencyMs,
		TotalChecks:  e.Total,
	}
	if e.latest != nil {
		l := e.latest.Clone()
		s.Latest = &l
	}
	if s.AvgLatencyMs != nil {
		v := *s.AvgLatencyMs
		s.AvgLatencyMs = &v
	}
	return s
}

// Store is the database of ssdash.
//
// Every mutation is atomic for readers.
// The readers always get deep copies, so the caller can modify them freely.
type Store struct {
	name   string
	logger *slog.Logger

	lock    sync.RWMutex
	entries map[string]*entry

	OnChanged []ChangeHandler

	errorsLock sync.RWMutex
	errors     []string
	healthy    bool
}

// New creates a new empty Store.
func New(name string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{
		name:    name,
		logger:  logger,
		entries: make(map[string]*entry),
		healthy: true,
	}
}

// Name returns the name of this dashboard instance.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) changed(id string) {
	for _, h := range s.OnChanged {
		h(id)
	}
}

// ReplaceAll replaces the whole store with authoritative data.
//
// Endpoints that not included in xs are removed.
// Metrics are recomputed from the history instead of trusting the values in xs.
// The total check counter never decreases for the endpoints that already known.
func (s *Store) ReplaceAll(xs []ssdash.EndpointStatus) {
	s.lock.Lock()

	entries := make(map[string]*entry, len(xs))
	for _, x := range xs {
		e := &entry{
			Endpoint: x.Endpoint.Clone(),
			History:  history.NewRing(x.History...),
			Total:    x.TotalChecks,
		}

		if e.Total == 0 {
			e.Total = len(x.History)
		}
		if old, ok := s.entries[x.Endpoint.ID]; ok && old.Total > e.Total {
			e.Total = old.Total
		}

		if x.Latest != nil {
			l := x.Latest.Clone()
			e.latest = &l
		}
		e.recompute()

		entries[x.Endpoint.ID] = e
	}
	s.entries = entries

	s.lock.Unlock()

	s.logger.Debug("store replaced", "endpoints", len(entries))
	s.changed("")
}

// ApplyCheckResult appends a check result to the history of the endpoint.
//
// It does nothing and returns false if the endpoint is not known.
func (s *Store) ApplyCheckResult(r ssdash.CheckResult) bool {
	s.lock.Lock()

	e, ok := s.entries[r.EndpointID]
	if ok {
		e.History.Append(r)
		e.Total++
		e.recompute()
	}

	s.lock.Unlock()

	if !ok {
		s.logger.Debug("ignore check result of unknown endpoint", "endpoint", r.EndpointID)
		return false
	}

	s.changed(r.EndpointID)
	return true
}

// UpsertEndpoint replaces the endpoint definition.
//
// The history of a known endpoint is kept as is.
// An unknown endpoint is added with empty history.
func (s *Store) UpsertEndpoint(ep ssdash.Endpoint) {
	s.lock.Lock()

	if e, ok := s.entries[ep.ID]; ok {
		e.Endpoint = ep.Clone()
	} else {
		s.entries[ep.ID] = &entry{
			Endpoint: ep.Clone(),
			History:  history.NewRing(),
		}
	}

	s.lock.Unlock()

	s.changed(ep.ID)
}

// Remove deletes an endpoint.
//
// It does nothing and returns false if the endpoint is not known.
func (s *Store) Remove(id string) bool {
	s.lock.Lock()

	_, ok := s.entries[id]
	delete(s.entries, id)

	s.lock.Unlock()

	if ok {
		s.changed(id)
	}
	return ok
}

// Get returns the status of an endpoint.
func (s *Store) Get(id string) (ssdash.EndpointStatus, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return ssdash.EndpointStatus{}, false
	}
	return e.status(), true
}

// List returns status of every endpoints, sorted by name and ID.
func (s *Store) List() []ssdash.EndpointStatus {
	s.lock.RLock()
	xs := make([]ssdash.EndpointStatus, 0, len(s.entries))
	for _, e := range s.entries {
		xs = append(xs, e.status())
	}
	s.lock.RUnlock()

	sort.Slice(xs, func(i, j int) bool {
		if xs[i].Endpoint.Name != xs[j].Endpoint.Name {
			return xs[i].Endpoint.Name < xs[j].Endpoint.Name
		}
		return xs[i].Endpoint.ID < xs[j].Endpoint.ID
	})

	return xs
}

// Len returns the number of endpoints in the store.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.entries)
}

// ReapplyCheckResult appends a check result that was already counted before the latest ReplaceAll.
//
// It does nothing and returns false if the endpoint is not known or the history already has the same result.
// The total check counter is not incremented, because ReplaceAll kept the counter that included r.
func (s *Store) ReapplyCheckResult(r ssdash.CheckResult) bool {
	s.lock.Lock()

	e, ok := s.entries[r.EndpointID]
	if ok && e.History.Contains(r) {
		ok = false
	}
	if ok {
		e.History.Append(r)
		if e.Total < e.History.Len() {
			e.Total = e.History.Len()
		}
		e.recompute()
	}

	s.lock.Unlock()

	if ok {
		s.changed(r.EndpointID)
	}
	return ok
}

// ReportInternalError records an error for the /healthz page, and writes it to the log.
func (s *Store) ReportInternalError(scope, message string) {
	s.logger.Error(message, "scope", scope)
	s.addError(scope + ": " + message)
}

// SetHealthy resets healthy status of this store.
// The error messages are kept for investigation.
func (s *Store) SetHealthy() {
	s.errorsLock.Lock()
	defer s.errorsLock.Unlock()

	s.healthy = true
}

// addError adds error message for Errors method, and set healthy status to false.
func (s *Store) addError(message string) {
	s.errorsLock.Lock()
	defer s.errorsLock.Unlock()

	s.healthy = false
	s.errors = append(
		s.errors,
		fmt.Sprintf("%s\t%s", time.Now().Format(time.RFC3339), message),
	)

	if len(s.errors) > MaxErrors {
		s.errors = s.errors[len(s.errors)-MaxErrors:]
	}
}

// Errors returns store status and error logs.
func (s *Store) Errors() (healthy bool, messages []string) {
	s.errorsLock.RLock()
	defer s.errorsLock.RUnlock()

	return s.healthy, append([]string(nil), s.errors...)
}
