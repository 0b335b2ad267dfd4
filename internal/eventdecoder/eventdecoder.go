// Package eventdecoder implements the EventDecoder component from spec
// §4.4: turning frame bytes into one or more events.
package eventdecoder

import "github.com/pingw33n/xerocole/internal/event"

// Decoder is the EventDecoder contract (spec §4.4). Implementations must
// copy any bytes of frame they wish to retain: frame is a borrowed slice
// that becomes invalid once the caller advances its read cursor.
type Decoder interface {
	// Decode turns one frame into zero or more events, pushing each to
	// emit, and reports how many were produced.
	Decode(frame []byte, emit func(*event.Event)) (written int, err error)

	// Finish is called once at end-of-stream; most decoders have nothing
	// left to flush, since a frame is a complete record on its own.
	Finish(emit func(*event.Event)) (written int)
}
