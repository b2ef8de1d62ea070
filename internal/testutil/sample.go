package testutil

import (
	"time"

	"github.com/macrat/ssdash/lib-ssdash"
)

const (
	SampleTokyoID  = "0b7c5a8e-6a8d-4d1e-9d1b-2f1d8a9d0001"
	SampleOsakaID  = "0b7c5a8e-6a8d-4d1e-9d1b-2f1d8a9d0002"
	SampleKyotoID  = "0b7c5a8e-6a8d-4d1e-9d1b-2f1d8a9d0003"
	SamplePassword = "s3cr3t"
)

// SampleTime is the timestamp of the latest result in SampleStatuses.
var SampleTime = time.Date(2021, 1, 2, 15, 4, 5, 0, time.UTC)

// SampleStatuses returns statuses of three endpoints with every field set.
//
//   - tokyo: up, two results, 12.5ms and 37.5ms.
//   - osaka: down, one unreachable result with an error that includes the address.
//   - kyoto: disabled, no results.
func SampleStatuses() []ssdash.EndpointStatus {
	return []ssdash.EndpointStatus{
		{
			Endpoint: ssdash.Endpoint{
				ID:       SampleTokyoID,
				Name:     "tokyo",
				Host:     "tokyo.example.com",
				Port:     8388,
				Password: SamplePassword,
				Method:   "aes-256-gcm",
				Enabled:  true,
				Tags:     []string{"jp", "primary"},
			},
			Latest: &ssdash.CheckResult{
				EndpointID: SampleTokyoID,
				Timestamp:  SampleTime,
				TCP:        ssdash.TCPCheck{Reachable: true, LatencyMs: ssdash.Float(12.5)},
				Protocol:   &ssdash.ProtocolCheck{Success: true, LatencyMs: ssdash.Float(40)},
			},
			History: []ssdash.CheckResult{
				{
					EndpointID: SampleTokyoID,
					Timestamp:  SampleTime,
					TCP:        ssdash.TCPCheck{Reachable: true, LatencyMs: ssdash.Float(12.5)},
					Protocol:   &ssdash.ProtocolCheck{Success: true, LatencyMs: ssdash.Float(40)},
				},
				{
					EndpointID: SampleTokyoID,
					Timestamp:  SampleTime.Add(-time.Minute),
					TCP:        ssdash.TCPCheck{Reachable: true, LatencyMs: ssdash.Float(37.5)},
					Protocol:   &ssdash.ProtocolCheck{Success: true, LatencyMs: ssdash.Float(60)},
				},
			},
			UptimePct:    100,
			AvgLatencyMs: ssdash.Float(25),
			TotalChecks:  1234,
		},
		{
			Endpoint: ssdash.Endpoint{
				ID:       SampleOsakaID,
				Name:     "osaka",
				Host:     "osaka.example.com",
				Port:     8389,
				Password: SamplePassword,
				Method:   "chacha20-ietf-poly1305",
				Enabled:  true,
				Tags:     []string{"jp"},
			},
			Latest: &ssdash.CheckResult{
				EndpointID: SampleOsakaID,
				Timestamp:  SampleTime,
				TCP:        ssdash.TCPCheck{Reachable: false, Error: "dial tcp osaka.example.com:8389: connection refused"},
			},
			History: []ssdash.CheckResult{
				{
					EndpointID: SampleOsakaID,
					Timestamp:  SampleTime,
					TCP:        ssdash.TCPCheck{Reachable: false, Error: "dial tcp osaka.example.com:8389: connection refused"},
				},
			},
			UptimePct:   0,
			TotalChecks: 1,
		},
		{
			Endpoint: ssdash.Endpoint{
				ID:       SampleKyotoID,
				Name:     "kyoto",
				Host:     "kyoto.example.com",
				Port:     8390,
				Password: SamplePassword,
				Method:   "aes-128-gcm",
				Enabled:  false,
				Tags:     []string{},
			},
			History: []ssdash.CheckResult{},
		},
	}
}
