// Package frame implements the FrameDecoder component from spec §4.3: a
// byte buffer to borrowed frame-slice cutter, driven by a configurable
// delimiter (fixed string or one of the line modes) plus an optional
// multi-line "glue" policy that merges continuation lines into one frame.
package frame

import "github.com/pingw33n/xerocole/internal/xerrors"

// Mode selects the delimiter recognized between frames (spec §4.3.1 /
// §6.2).
type Mode int

const (
	ModeString Mode = iota
	ModeLineAny
	ModeLineDos
	ModeLineUnix
	ModeLineMac
)

// Config configures a Decoder. Needle is only consulted when Mode is
// ModeString; an empty Needle there means "no delimiter" (spec §4.3.1).
type Config struct {
	Mode   Mode
	Needle []byte
	Glue   *Glue
}

// Decoder is the FrameDecoder (spec §4.3). It yields frames as borrowed
// slices into the caller's buffer — callers must copy any bytes they want
// to keep before advancing their read cursor past the reported read count.
type Decoder struct {
	scanner scanner
	noDelim bool
	glue    *Glue

	// Only meaningful when glue != nil; persisted across Decode calls and
	// rebased at the end of each one (spec §4.3.3).
	start        int
	pos          int
	lastDelimLen int
}

func NewDecoder(cfg Config) (*Decoder, error) {
	d := &Decoder{glue: cfg.Glue}
	switch cfg.Mode {
	case ModeString:
		if len(cfg.Needle) == 0 {
			d.noDelim = true
		} else {
			d.scanner = fixedScanner{needle: cfg.Needle}
		}
	case ModeLineAny:
		d.scanner = lineAnyScanner{}
	case ModeLineDos:
		d.scanner = fixedScanner{needle: []byte("\r\n")}
	case ModeLineUnix:
		d.scanner = fixedScanner{needle: []byte("\n")}
	case ModeLineMac:
		d.scanner = fixedScanner{needle: []byte("\r")}
	default:
		return nil, xerrors.New(xerrors.Parse, "frame: unknown delimiter mode")
	}
	return d, nil
}

// Decode scans as many complete frames out of in as are currently
// available, pushing each to emit, and reports how many bytes of in are
// now safe for the caller to discard. It never blocks: an incomplete
// trailing frame is left unconsumed for the next call (or for Finish).
func (d *Decoder) Decode(in []byte, emit func([]byte)) (read, written int, err error) {
	if d.noDelim {
		return 0, 0, nil
	}
	if d.glue == nil {
		return d.decodeNoGlue(in, emit)
	}
	return d.decodeGlue(in, emit)
}

func (d *Decoder) decodeNoGlue(in []byte, emit func([]byte)) (int, int, error) {
	pos := 0
	written := 0
	for {
		frameEnd, delimLen, found := d.scanner.scan(in, pos)
		if !found {
			break
		}
		emit(in[pos : frameEnd-delimLen])
		written++
		pos = frameEnd
	}
	return pos, written, nil
}

func (d *Decoder) decodeGlue(in []byte, emit func([]byte)) (int, int, error) {
	written := 0
	for {
		frameEnd, delimLen, found := d.scanner.scan(in, d.pos)
		if !found {
			break
		}
		written += d.transition(in, frameEnd, delimLen, emit)
	}
	read := d.start
	d.pos -= d.start
	d.start = 0
	// lastDelimLen still describes the delimiter ending [start, pos) after
	// the shift, so it is kept for the next flush.
	return read, written, nil
}

// transition applies one glue state update for a newly-found delimited
// span [d.pos, frameEnd) with trailing delimiter length delimLen (spec
// §4.3.3), returning how many frames it flushed.
func (d *Decoder) transition(in []byte, frameEnd, delimLen int, emit func([]byte)) int {
	content := in[d.pos : frameEnd-delimLen]
	match := d.glue.On.Match(content)
	switch {
	case match && d.glue.To == GluePrevious:
		d.pos = frameEnd
		d.lastDelimLen = delimLen
		return 0
	case match && d.glue.To == GlueNext:
		d.pos = frameEnd
		d.lastDelimLen = delimLen
		return 0
	case !match && d.glue.To == GluePrevious:
		emitted := 0
		if d.pos != d.start {
			emit(in[d.start : d.pos-d.lastDelimLen])
			emitted = 1
		}
		d.start = d.pos
		d.pos = frameEnd
		d.lastDelimLen = delimLen
		return emitted
	default: // !match && To == GlueNext
		emit(in[d.start : frameEnd-delimLen])
		d.start = frameEnd
		d.pos = frameEnd
		d.lastDelimLen = delimLen
		return 1
	}
}

// Finish processes whatever remains in in after the last Decode call,
// emitting any trailing partial (or still-accumulating) frame, and resets
// all state to zero for the next attach (spec §4.3.2, §4.3.3).
func (d *Decoder) Finish(in []byte, emit func([]byte)) (read, written int) {
	if d.noDelim {
		if len(in) > 0 {
			emit(in)
			written = 1
		}
		return len(in), written
	}
	if d.glue == nil {
		return d.finishNoGlue(in, emit)
	}
	return d.finishGlue(in, emit)
}

func (d *Decoder) finishNoGlue(in []byte, emit func([]byte)) (int, int) {
	pos := 0
	written := 0
	for {
		frameEnd, delimLen, found := d.scanner.scan(in, pos)
		if !found {
			break
		}
		emit(in[pos : frameEnd-delimLen])
		written++
		pos = frameEnd
	}
	tail := in[pos:]
	if _, ok := d.scanner.(lineAnyScanner); ok {
		if dl := trailingLineDelimLen(tail); dl > 0 {
			emit(tail[:len(tail)-dl])
			emit(nil)
			return len(in), written + 2
		}
	}
	if len(tail) > 0 {
		emit(tail)
		written++
	}
	return len(in), written
}

func (d *Decoder) finishGlue(in []byte, emit func([]byte)) (int, int) {
	written := 0
	for {
		frameEnd, delimLen, found := d.scanner.scan(in, d.pos)
		if !found {
			break
		}
		written += d.transition(in, frameEnd, delimLen, emit)
	}

	hadDelimAtEnd := false
	tail := in[d.pos:]
	if len(tail) == 0 {
		if d.pos > 0 {
			hadDelimAtEnd = true
		}
	} else if _, ok := d.scanner.(lineAnyScanner); ok {
		if dl := trailingLineDelimLen(tail); dl > 0 {
			written += d.transition(in, len(in), dl, emit)
			hadDelimAtEnd = true
		}
	}

	if hadDelimAtEnd {
		if d.pos > d.start {
			emit(in[d.start : d.pos-d.lastDelimLen])
			written++
		}
		emit(nil)
		written++
	} else {
		content := in[d.start:]
		if len(content) > 0 {
			emit(content)
			written++
		}
	}

	d.start, d.pos, d.lastDelimLen = 0, 0, 0
	return len(in), written
}
