// Package event implements the Event data model from spec §3: a mutable
// mapping of string field names to dynamic values, plus an independent tag
// mapping. The core only reads/writes named fields ("message", "path"); the
// rest of the map is opaque payload produced by filters.
package event

import "github.com/pingw33n/xerocole/pkg/value"

// Event is a single record flowing through the pipeline.
type Event struct {
	fields map[string]value.Value
	tags   map[string]value.Value
}

// New returns an empty Event ready for field assignment.
func New() *Event {
	return &Event{
		fields: make(map[string]value.Value, 4),
		tags:   make(map[string]value.Value),
	}
}

// Clone deep-copies the field/tag maps (values themselves are immutable) so
// filters that split one event into many don't alias state.
func (e *Event) Clone() *Event {
	c := &Event{
		fields: make(map[string]value.Value, len(e.fields)),
		tags:   make(map[string]value.Value, len(e.tags)),
	}
	for k, v := range e.fields {
		c.fields[k] = v
	}
	for k, v := range e.tags {
		c.tags[k] = v
	}
	return c
}

func (e *Event) Field(name string) (value.Value, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// SetField sets a field unconditionally, overwriting any existing value.
func (e *Event) SetField(name string, v value.Value) {
	e.fields[name] = v
}

// SetFieldIfAbsent sets a field only if it is not already present. Returns
// true if the field was set. Used by grok/regex filters, which must never
// overwrite an existing field (spec §6.5).
func (e *Event) SetFieldIfAbsent(name string, v value.Value) bool {
	if _, exists := e.fields[name]; exists {
		return false
	}
	e.fields[name] = v
	return true
}

func (e *Event) DeleteField(name string) { delete(e.fields, name) }

// Fields returns the live field map. Callers must not retain it past the
// event's lifetime in a way that races with further mutation.
func (e *Event) Fields() map[string]value.Value { return e.fields }

func (e *Event) Tag(name string) (value.Value, bool) {
	v, ok := e.tags[name]
	return v, ok
}

func (e *Event) SetTag(name string, v value.Value) { e.tags[name] = v }

func (e *Event) Tags() map[string]value.Value { return e.tags }
