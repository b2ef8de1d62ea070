package endpoint

import (
	"context"

	"github.com/macrat/ssdash/internal/dasherr"
	"github.com/macrat/ssdash/internal/reconcile"
	"github.com/macrat/ssdash/lib-ssdash"
)

// Backend is the data source of the dashboard.
// *reconcile.Controller implements this.
type Backend interface {
	// Snapshot returns the current state of the dashboard.
	Snapshot() reconcile.Snapshot

	// TriggerCheck asks the checker server to check an endpoint right now.
	TriggerCheck(ctx context.Context, id string) (ssdash.CheckResult, error)

	// ReportInternalError reports ssdash internal error.
	ReportInternalError(scope, message string)

	// Errors returns a list of internal (critical) errors.
	Errors() (healthy bool, messages []string)
}

// publicBackend is a Backend for a dashboard without login.
// It projects everything on public level, and refuses the actions.
type publicBackend struct {
	Backend
}

func (b publicBackend) Snapshot() reconcile.Snapshot {
	s := b.Backend.Snapshot()
	s.Level = ssdash.AuthPublic
	return s
}

func (b publicBackend) TriggerCheck(ctx context.Context, id string) (ssdash.CheckResult, error) {
	return ssdash.CheckResult{}, dasherr.New(ssdash.ErrUnauthorized, nil, "dashboard_user is required to check endpoints")
}
