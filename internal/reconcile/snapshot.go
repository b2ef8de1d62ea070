package reconcile

import (
	"github.com/macrat/ssdash/internal/view"
	"github.com/macrat/ssdash/lib-ssdash"
)

// Snapshot is the state of the controller at a moment, for rendering.
type Snapshot struct {
	Name     string
	Level    ssdash.AuthLevel
	State    ConnState
	Statuses []ssdash.EndpointStatus
}

// Snapshot returns the current state.
// The level is read at call time, so the records are projected on the latest level.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Name:     c.Store.Name(),
		Level:    c.Gate.Level(),
		State:    c.State(),
		Statuses: c.Store.List(),
	}
}

// Records projects the statuses on the level of the snapshot.
func (s Snapshot) Records() []view.Record {
	return view.ProjectAll(s.Statuses, s.Level)
}

// Errors returns the internal errors of the store.
func (c *Controller) Errors() (healthy bool, messages []string) {
	return c.Store.Errors()
}

// ReportInternalError records an error that happened outside of the controller loop.
func (c *Controller) ReportInternalError(scope, message string) {
	c.Store.ReportInternalError(scope, message)
}
