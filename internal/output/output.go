// Package output implements the Output sink contract from spec §4.7/§6.4:
// an OutputGroup's broadcast fans out to every output's own queue; each
// output task forwards to its Sink. A Sink write failure is counted and
// logged, and that output's task keeps running.
package output

import "github.com/pingw33n/xerocole/internal/event"

// Sink consumes one event at a time. When Write returns an error, the
// pipeline runtime increments the output's error counter, logs it, and
// goes on with the next event; the event that failed is not retried.
type Sink interface {
	Write(ev *event.Event) error
	Close() error
}

// Encoder renders an event to bytes for text-oriented sinks (stdout,
// nats, s3). The default and currently only encoder is "debug" (spec
// §6.6): a human-readable, multi-line pretty-print of fields and tags.
type Encoder interface {
	Encode(ev *event.Event) []byte
}
