package reconcile

import (
	"github.com/macrat/ssdash/lib-ssdash"
)

// Action is what the controller does for a push event.
type Action int

const (
	// Refetch discards the payload and fetches everything from the source.
	Refetch Action = iota

	// ApplyResult appends the check result in the event to the store.
	ApplyResult

	// RemoveEndpoint removes the endpoint in the event from the store.
	RemoveEndpoint
)

func (a Action) String() string {
	switch a {
	case Refetch:
		return "refetch"
	case ApplyResult:
		return "apply-result"
	case RemoveEndpoint:
		return "remove-endpoint"
	default:
		return "unknown"
	}
}

// policyFor decides the action for an event kind.
//
// Snapshot and ServerUpdated carry only public fields, so they are treated as a hint to refetch.
// CheckComplete and ServerRemoved are complete by themselves.
// The second value is false for unsupported kinds.
func policyFor(kind ssdash.EventKind) (Action, bool) {
	switch kind {
	case ssdash.EventSnapshot, ssdash.EventServerUpdated:
		return Refetch, true
	case ssdash.EventCheckComplete:
		return ApplyResult, true
	case ssdash.EventServerRemoved:
		return RemoveEndpoint, true
	default:
		return 0, false
	}
}
