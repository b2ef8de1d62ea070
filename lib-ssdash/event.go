package ssdash

import (
	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/internal/dasherr"
)

// EventKind is the type tag of the push stream events.
type EventKind string

const (
	EventSnapshot      EventKind = "Snapshot"
	EventCheckComplete EventKind = "CheckComplete"
	EventServerUpdated EventKind = "ServerUpdated"
	EventServerRemoved EventKind = "ServerRemoved"
)

// Event is a message in the push stream.
//
// The implementations are SnapshotEvent, CheckCompleteEvent, ServerUpdatedEvent, and ServerRemovedEvent.
type Event interface {
	Kind() EventKind
}

// SnapshotEvent is sent when a client connected to the stream.
// The push stream carries only public fields in it, so the payload is not kept.
type SnapshotEvent struct{}

func (SnapshotEvent) Kind() EventKind { return EventSnapshot }

// CheckCompleteEvent is sent when the checker finished a check.
type CheckCompleteEvent struct {
	Result CheckResult
}

func (CheckCompleteEvent) Kind() EventKind { return EventCheckComplete }

// ServerUpdatedEvent is sent when an endpoint was created or updated.
// The Endpoint has only public fields.
type ServerUpdatedEvent struct {
	Endpoint Endpoint
}

func (ServerUpdatedEvent) Kind() EventKind { return EventServerUpdated }

// ServerRemovedEvent is sent when an endpoint was deleted.
type ServerRemovedEvent struct {
	EndpointID string
}

func (ServerRemovedEvent) Kind() EventKind { return EventServerRemoved }

type jsonEvent struct {
	Type     EventKind        `json:"type"`
	Result   *CheckResult     `json:"result,omitempty"`
	Server   *Endpoint        `json:"server,omitempty"`
	ServerID string           `json:"server_id,omitempty"`
	Statuses []EndpointStatus `json:"statuses,omitempty"`
}

// ParseEvent parses a JSON payload of the push stream.
//
// It returns ErrUnknownEvent if the type tag is not supported, or ErrInvalidEvent if the payload is malformed.
func ParseEvent(data []byte) (Event, error) {
	var head struct {
		Type EventKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, dasherr.New(ErrInvalidEvent, err, "failed to parse event")
	}

	switch head.Type {
	case EventSnapshot:
		return SnapshotEvent{}, nil
	case EventCheckComplete, EventServerUpdated, EventServerRemoved:
	default:
		return nil, dasherr.New(ErrUnknownEvent, nil, "unknown event type: %q", head.Type)
	}

	var je jsonEvent
	if err := json.Unmarshal(data, &je); err != nil {
		return nil, dasherr.New(ErrInvalidEvent, err, "failed to parse %s event", head.Type)
	}

	switch head.Type {
	case EventCheckComplete:
		if je.Result == nil || je.Result.EndpointID == "" {
			return nil, dasherr.New(ErrInvalidEvent, nil, "%s event has no result", head.Type)
		}
		return CheckCompleteEvent{Result: *je.Result}, nil
	case EventServerUpdated:
		if je.Server == nil || je.Server.ID == "" {
			return nil, dasherr.New(ErrInvalidEvent, nil, "%s event has no server", head.Type)
		}
		return ServerUpdatedEvent{Endpoint: *je.Server}, nil
	default:
		if je.ServerID == "" {
			return nil, dasherr.New(ErrInvalidEvent, nil, "%s event has no server_id", head.Type)
		}
		return ServerRemovedEvent{EndpointID: je.ServerID}, nil
	}
}

// MarshalEvent encodes an Event as the same format as the push stream.
func MarshalEvent(e Event) ([]byte, error) {
	je := jsonEvent{Type: e.Kind()}

	switch x := e.(type) {
	case CheckCompleteEvent:
		je.Result = &x.Result
	case ServerUpdatedEvent:
		je.Server = &x.Endpoint
	case ServerRemovedEvent:
		je.ServerID = x.EndpointID
	}

	return json.Marshal(je)
}
