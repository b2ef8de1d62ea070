package ssdash_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/macrat/ssdash/lib-ssdash"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		Name  string
		Input string
		Want  ssdash.Event
		Error error
	}{
		{
			"snapshot",
			`{"type":"Snapshot","statuses":[{"server":{"id":"a","name":"alpha","enabled":true,"tags":[]}}]}`,
			ssdash.SnapshotEvent{},
			nil,
		},
		{
			"check-complete",
			`{"type":"CheckComplete","result":{"server_id":"a","timestamp":"2021-01-02T15:04:05Z","tcp_check":{"reachable":true,"latency_ms":12.5},"ss_check":{"success":false,"latency_ms":null,"error":"timeout"}}}`,
			ssdash.CheckCompleteEvent{Result: ssdash.CheckResult{
				EndpointID: "a",
				Timestamp:  time.Date(2021, 1, 2, 15, 4, 5, 0, time.UTC),
				TCP:        ssdash.TCPCheck{Reachable: true, LatencyMs: ssdash.Float(12.5)},
				Protocol:   &ssdash.ProtocolCheck{Success: false, Error: "timeout"},
			}},
			nil,
		},
		{
			"server-updated",
			`{"type":"ServerUpdated","server":{"id":"a","name":"alpha","enabled":false,"tags":["x"]}}`,
			ssdash.ServerUpdatedEvent{Endpoint: ssdash.Endpoint{ID: "a", Name: "alpha", Tags: []string{"x"}}},
			nil,
		},
		{
			"server-removed",
			`{"type":"ServerRemoved","server_id":"a"}`,
			ssdash.ServerRemovedEvent{EndpointID: "a"},
			nil,
		},
		{"unknown", `{"type":"Hello"}`, nil, ssdash.ErrUnknownEvent},
		{"no-type", `{"server_id":"a"}`, nil, ssdash.ErrUnknownEvent},
		{"malformed", `{"type":`, nil, ssdash.ErrInvalidEvent},
		{"no-result", `{"type":"CheckComplete"}`, nil, ssdash.ErrInvalidEvent},
		{"no-server", `{"type":"ServerUpdated"}`, nil, ssdash.ErrInvalidEvent},
		{"no-server-id", `{"type":"ServerRemoved"}`, nil, ssdash.ErrInvalidEvent},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			e, err := ssdash.ParseEvent([]byte(tt.Input))
			if tt.Error != nil {
				if !errors.Is(err, tt.Error) {
					t.Fatalf("expected %v but got %v", tt.Error, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if diff := cmp.Diff(tt.Want, e); diff != "" {
				t.Errorf("unexpected event:\n%s", diff)
			}
		})
	}
}

func TestMarshalEvent(t *testing.T) {
	e := ssdash.CheckCompleteEvent{Result: ssdash.CheckResult{
		EndpointID: "a",
		Timestamp:  time.Date(2021, 1, 2, 15, 4, 5, 0, time.UTC),
		TCP:        ssdash.TCPCheck{Reachable: false},
	}}

	raw, err := ssdash.MarshalEvent(e)
	if err != nil {
		t.Fatalf("failed to marshal: %s", err)
	}

	want := `{"type":"CheckComplete","result":{"server_id":"a","timestamp":"2021-01-02T15:04:05Z","tcp_check":{"reachable":false,"latency_ms":null}}}`
	if string(raw) != want {
		t.Errorf("unexpected output:\nexpected: %s\n but got: %s", want, raw)
	}

	back, err := ssdash.ParseEvent(raw)
	if err != nil {
		t.Fatalf("failed to parse: %s", err)
	}
	if diff := cmp.Diff(ssdash.Event(e), back); diff != "" {
		t.Errorf("unexpected event:\n%s", diff)
	}
}
