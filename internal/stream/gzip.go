package stream

import (
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/pingw33n/xerocole/internal/xerrors"
)

// gzipState tracks which part of the RFC 1952 member framing Decode is
// currently inside.
type gzipState int

const (
	stHeader gzipState = iota
	stBody
	stFooter
)

const gzipFooterLen = 8

// Gzip is a StreamDecoder that decompresses a concatenation of one or more
// gzip members, recovering the member boundary exactly so decoding can
// resume cleanly at each successive header regardless of how the input is
// chunked across Decode calls (spec §4.2, §8 concatenation property).
//
// Because klauspost/compress/flate (like compress/flate) is built around a
// genuinely blocking io.Reader and poisons itself on a premature io.EOF, the
// deflate body of each member is fed through a feeder that never reports
// EOF mid-stream; a background goroutine pumps decompressed bytes out of it
// into a pending queue that Decode drains non-blockingly.
type Gzip struct {
	state  gzipState
	hdrbuf []byte

	feeder  *feeder
	pending *pendingOutput
	fr      io.ReadCloser

	pumpDone chan struct{}
	pumpErr  error
	leftover []byte
}

func NewGzip() *Gzip {
	return &Gzip{}
}

func (g *Gzip) Decode(in, out []byte) (read, written int, err error) {
	pos := 0
	for {
		switch g.state {
		case stHeader:
			g.hdrbuf = append(g.hdrbuf, in[pos:]...)
			pos = len(in)

			n, herr := parseGzipHeader(g.hdrbuf)
			if herr == errNeedMoreHeader {
				return pos, written, nil
			}
			if herr != nil {
				return pos, written, herr
			}
			rest := g.hdrbuf[n:]
			g.hdrbuf = nil
			g.startMember(rest)
			g.state = stBody
			continue

		case stBody:
			g.feeder.Feed(in[pos:])
			pos = len(in)

			written += g.pending.drain(out[written:])

			select {
			case <-g.pumpDone:
				if g.pending.len() > 0 {
					// out filled up before the last of this member's
					// decompressed bytes drained; stay in stBody and let
					// the caller come back for the rest.
					return pos, written, nil
				}
				g.hdrbuf = g.leftover
				g.leftover = nil
				g.fr.Close()
				g.fr = nil
				g.feeder = nil
				if g.pumpErr != nil {
					return pos, written, xerrors.Wrap(xerrors.Io, g.pumpErr, "gzip: deflate body")
				}
				g.state = stFooter
				continue
			default:
			}
			return pos, written, nil

		case stFooter:
			g.hdrbuf = append(g.hdrbuf, in[pos:]...)
			pos = len(in)

			if len(g.hdrbuf) < gzipFooterLen {
				return pos, written, nil
			}
			rest := g.hdrbuf[gzipFooterLen:]
			g.hdrbuf = nil
			if len(rest) == 0 {
				g.state = stHeader
				return pos, written, nil
			}
			g.hdrbuf = append(g.hdrbuf, rest...)
			g.state = stHeader
			continue
		}
	}
}

// startMember feeds any header remainder (bytes belonging to the deflate
// body that arrived in the same chunk as the header tail) into a fresh
// feeder/flate.Reader pair and launches the pump goroutine.
func (g *Gzip) startMember(rest []byte) {
	g.feeder = newFeeder()
	g.pending = &pendingOutput{}
	g.fr = flate.NewReader(g.feeder)
	g.pumpDone = make(chan struct{})
	g.feeder.Feed(rest)

	go g.pump()
}

// pump drains the deflate reader into the pending output queue until it
// hits the stream's logical end, then hands back whatever bytes the feeder
// received but the deflate reader never consumed (the trailer, and
// possibly the start of the next member).
func (g *Gzip) pump() {
	buf := make([]byte, 32*1024)
	for {
		n, err := g.fr.Read(buf)
		if n > 0 {
			g.pending.write(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				g.pumpErr = err
			}
			g.leftover = g.feeder.drainUnconsumed()
			close(g.pumpDone)
			return
		}
	}
}

func (g *Gzip) Close() {
	if g.feeder != nil {
		g.feeder.Close()
	}
	if g.fr != nil {
		<-g.pumpDone
		g.fr.Close()
	}
}
