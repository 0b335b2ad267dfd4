// Package filter implements the Filter contract from spec §4.7/§6.5: an
// event goes in, zero or more events come out. Filters are started once
// per graph worker instance (spec's "each filter starter produces a fresh
// filter instance"), so Instance implementations need not be safe for
// concurrent use by more than one worker.
package filter

import "github.com/pingw33n/xerocole/internal/event"

// Instance applies a filter to one event, emitting zero, one, or many
// events via emit. An error bubbles to the graph worker, which drops the
// event and continues (spec §7).
type Instance interface {
	Apply(ev *event.Event, emit func(*event.Event)) error
}

// Starter builds a fresh Instance. Held in the lowered graph's flat
// filter-starter vector; invoked once per worker so each worker owns an
// independent instance list (spec §4.7).
type Starter func() (Instance, error)
