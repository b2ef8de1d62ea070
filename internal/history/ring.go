// Package history keeps bounded check histories and derives health metrics from them.
package history

import (
	"github.com/macrat/ssdash/lib-ssdash"
)

// Capacity is the maximum number of results that a Ring keeps.
const Capacity = 100

// Ring is a bounded history of check results about single endpoint.
//
// Results are kept in the order of insertion, newest first.
// The timestamp of results is never used for ordering.
// The zero value is an empty Ring.
type Ring struct {
	records []ssdash.CheckResult
}

// NewRing makes a Ring from newest-first results.
// Results beyond Capacity are dropped from the tail.
func NewRing(rs ...ssdash.CheckResult) *Ring {
	if len(rs) > Capacity {
		rs = rs[:Capacity]
	}

	r := &Ring{records: make([]ssdash.CheckResult, len(rs), Capacity)}
	for i, x := range rs {
		r.records[i] = x.Clone()
	}

	return r
}

// Append inserts a result to the front.
// The oldest result is evicted if the ring is already full.
func (r *Ring) Append(x ssdash.CheckResult) {
	if len(r.records) < Capacity {
		r.records = append(r.records, ssdash.CheckResult{})
	}
	copy(r.records[1:], r.records)
	r.records[0] = x.Clone()
}

// Records returns a copy of the results, newest first.
func (r *Ring) Records() []ssdash.CheckResult {
	xs := make([]ssdash.CheckResult, len(r.records))
	for i, x := range r.records {
		xs[i] = x.Clone()
	}
	return xs
}

// Len returns the number of results in the ring.
func (r *Ring) Len() int {
	return len(r.records)
}

// Latest returns the newest result.
// The second value is false if the ring is empty.
func (r *Ring) Latest() (ssdash.CheckResult, bool) {
	if len(r.records) == 0 {
		return ssdash.CheckResult{}, false
	}
	return r.records[0].Clone(), true
}

// Contains reports whether the ring has a result of the same endpoint at the same time.
func (r *Ring) Contains(x ssdash.CheckResult) bool {
	for _, y := range r.records {
		if y.EndpointID == x.EndpointID && y.Timestamp.Equal(x.Timestamp) {
			return true
		}
	}
	return false
}
