// Package decoder implements BufDecoder (C5, spec §4.5): the composition
// of a StreamDecoder, a FrameDecoder, and an EventDecoder over the two
// buffers that sit between them.
package decoder

import (
	"github.com/pingw33n/xerocole/internal/buffer"
	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/eventdecoder"
	"github.com/pingw33n/xerocole/internal/frame"
	"github.com/pingw33n/xerocole/internal/stream"
)

// BufDecoder owns ibuf (raw bytes from the source) and sbuf (decompressed
// bytes waiting for framing); bytes flow ibuf -> stream -> sbuf ->
// frame-event -> events (spec §3).
type BufDecoder struct {
	stream stream.Decoder
	frame  *frame.Decoder
	event  eventdecoder.Decoder

	ibuf *buffer.Buffer
	sbuf *buffer.Buffer
}

func New(sd stream.Decoder, fd *frame.Decoder, ed eventdecoder.Decoder) *BufDecoder {
	return &BufDecoder{
		stream: sd,
		frame:  fd,
		event:  ed,
		ibuf:   buffer.New(),
		sbuf:   buffer.New(),
	}
}

// WritableBuffer exposes ibuf for producers (the file tailer) to fill.
func (b *BufDecoder) WritableBuffer() *buffer.Buffer { return b.ibuf }

// IsEmpty reports whether both buffers have zero readable bytes.
func (b *BufDecoder) IsEmpty() bool { return b.ibuf.IsEmpty() && b.sbuf.IsEmpty() }

// Close releases the underlying StreamDecoder's resources (relevant for
// Gzip's background pump goroutine).
func (b *BufDecoder) Close() { b.stream.Close() }

// Decode runs one iteration of the spec §4.5 algorithm and reports how
// many events were produced.
func (b *BufDecoder) Decode(emit func(*event.Event)) (int, error) {
	return b.run(emit, false)
}

// Flush additionally runs the frame and event stages' finish on whatever
// remains once the source is known to have no more bytes.
func (b *BufDecoder) Flush(emit func(*event.Event)) (int, error) {
	return b.run(emit, true)
}

func (b *BufDecoder) run(emit func(*event.Event), flush bool) (int, error) {
	total := 0
	for {
		// Always give the stream stage a turn, even with an empty ibuf:
		// Gzip's decompression runs on a background goroutine, so bytes
		// can still be waiting to drain out of it after all input has
		// already been handed over (spec §4.5 step 1 assumes a purely
		// synchronous StreamDecoder; Plain's (0,0) on empty input makes
		// this a no-op for it).
		b.sbuf.EnsureWriteable()
		read, written, err := b.stream.Decode(b.ibuf.Read(), b.sbuf.WriteRegion())
		if err != nil {
			return total, err
		}
		b.ibuf.AdvanceRead(read)
		b.sbuf.AdvanceWrite(written)
		streamBlocked := read == 0 && written == 0

		consumed, written, err := b.decodeFrames(emit)
		// Advance past every frame decodeFrames scanned (emitted or
		// not) before checking err: frame.Decode has already cut these
		// frames out of sbuf regardless of whether the event stage
		// accepted each one, so leaving the cursor behind on error
		// would make the next call rescan (and re-emit) the same
		// frames and hit the same error forever.
		b.sbuf.AdvanceRead(consumed)
		total += written
		if err != nil {
			return total, err
		}

		if flush {
			consumed, written = b.finishFrames(emit)
			b.sbuf.AdvanceRead(consumed)
			total += written
			total += b.event.Finish(emit)
			return total, nil
		}

		if total > 0 || streamBlocked {
			return total, nil
		}
	}
}

func (b *BufDecoder) decodeFrames(emit func(*event.Event)) (consumed, eventsWritten int, err error) {
	consumed, _, err = b.frame.Decode(b.sbuf.Read(), func(f []byte) {
		if err != nil {
			return
		}
		var n int
		n, err = b.event.Decode(f, emit)
		eventsWritten += n
	})
	return
}

func (b *BufDecoder) finishFrames(emit func(*event.Event)) (consumed, eventsWritten int) {
	consumed, _ = b.frame.Finish(b.sbuf.Read(), func(f []byte) {
		n, _ := b.event.Decode(f, emit)
		eventsWritten += n
	})
	return
}
