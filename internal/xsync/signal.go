// Package xsync implements the two notification primitives from spec §4.8.1
// / §9: Signal (a one-way latched broadcast, used for shutdown) and Pulse
// (an edge-triggered, coalescing notify, used to wake the tailer). Both
// replace the source's ad-hoc latch+pulse with idiomatic Go: a closed
// channel for Signal, a one-slot buffered channel with a non-blocking send
// for Pulse.
package xsync

import "sync"

// Signal is a monotonic, broadcast, one-shot notification: once Fire is
// called, every past and future call to Done()/Fired() observes it. Safe for
// concurrent use; Fire is idempotent.
type Signal struct {
	once sync.Once
	ch   chan struct{}
	init sync.Once
}

// NewSignal returns a ready-to-use Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Fire latches the signal. Safe to call more than once or concurrently;
// only the first call has an effect.
func (s *Signal) Fire() {
	s.once.Do(func() { close(s.ch) })
}

// Done returns a channel that is closed once Fire has been called. Every
// waiter is woken exactly once per transition (true of any closed channel).
func (s *Signal) Done() <-chan struct{} { return s.ch }

// Fired reports whether Fire has been called, without blocking.
func (s *Signal) Fired() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
