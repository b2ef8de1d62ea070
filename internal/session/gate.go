// Package session holds the authorization level of the dashboard.
package session

import (
	"sync"

	"github.com/macrat/ssdash/lib-ssdash"
)

// Gate holds the current authorization level.
//
// SetLevel is the only mutator.
// Dependents should read Level every time they use it, instead of caching it.
type Gate struct {
	mu          sync.RWMutex
	level       ssdash.AuthLevel
	subscribers []chan ssdash.AuthLevel
}

// New creates a new Gate on the initial level.
func New(level ssdash.AuthLevel) *Gate {
	return &Gate{level: level}
}

// Level returns the current authorization level.
func (g *Gate) Level() ssdash.AuthLevel {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.level
}

// SetLevel changes the authorization level, and notifies subscribers.
// It returns true if the level was actually changed.
func (g *Gate) SetLevel(level ssdash.AuthLevel) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.level == level {
		return false
	}
	g.level = level

	for _, ch := range g.subscribers {
		// The channel has only one slot; a pending notification is replaced by the newest level.
		select {
		case <-ch:
		default:
		}
		ch <- level
	}

	return true
}

// Subscribe returns a channel that receives the new level on every change.
//
// Notifications never block SetLevel.
// If the subscriber is slow, only the latest level is delivered.
func (g *Gate) Subscribe() <-chan ssdash.AuthLevel {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan ssdash.AuthLevel, 1)
	g.subscribers = append(g.subscribers, ch)
	return ch
}
