// Package latch serialises document mutations against a settlement signal.
//
// A Latch is idle or busy. Run executes an action at once when idle and
// marks the latch busy for the action's key; while busy, Run parks the action
// in a single pending slot, replacing whatever was parked before. Settle with
// the in-flight key returns the latch to idle and replays the parked action,
// if any, exactly once. There is no timeout: an action whose settlement never
// arrives keeps the latch busy.
package latch

import "sync"

type action struct {
	key string
	fn  func()
}

// Latch is safe for concurrent use.
type Latch struct {
	mu       sync.Mutex
	busy     bool
	inflight string
	pending  *action
}

// New returns an idle latch.
func New() *Latch {
	return &Latch{}
}

// Run executes fn now if the latch is idle and reports true. Otherwise fn is
// parked, replacing any earlier parked action, and Run reports false.
func (l *Latch) Run(key string, fn func()) bool {
	l.mu.Lock()
	if l.busy {
		l.pending = &action{key: key, fn: fn}
		l.mu.Unlock()
		return false
	}
	l.busy = true
	l.inflight = key
	l.mu.Unlock()

	fn()
	return true
}

// Settle releases the latch if key is the in-flight key and replays the
// parked action. It reports whether the latch was released.
func (l *Latch) Settle(key string) bool {
	l.mu.Lock()
	if !l.busy || l.inflight != key {
		l.mu.Unlock()
		return false
	}
	next := l.pending
	l.pending = nil
	if next == nil {
		l.busy = false
		l.inflight = ""
		l.mu.Unlock()
		return true
	}
	l.inflight = next.key
	l.mu.Unlock()

	next.fn()
	return true
}

// Busy reports whether an action is in flight.
func (l *Latch) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Pending reports whether an action is parked.
func (l *Latch) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending != nil
}
