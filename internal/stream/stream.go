// Package stream implements the StreamDecoder component from spec §4.2: a
// pure byte-to-byte transform, either a straight passthrough or a
// multi-member gzip decompressor. decode(in, out) may consume and produce
// zero bytes, meaning "need more input"; that (0, 0) pair is the only
// signal BufDecoder treats specially (spec §4.5).
package stream

import "github.com/pingw33n/xerocole/internal/xerrors"

// Decoder is the StreamDecoder contract (spec §4.2).
type Decoder interface {
	// Decode consumes a prefix of in, writes decoded bytes into out, and
	// returns how many bytes of each were used. It never blocks.
	Decode(in, out []byte) (read, written int, err error)

	// Close releases any background resources (e.g. the gzip decoder's
	// decompression goroutine). Safe to call multiple times.
	Close()
}

// Plain is the identity StreamDecoder: it copies min(len(in), len(out))
// bytes straight through (spec §4.2).
type Plain struct{}

func NewPlain() *Plain { return &Plain{} }

func (p *Plain) Decode(in, out []byte) (int, int, error) {
	n := min(len(in), len(out))
	copy(out[:n], in[:n])
	return n, n, nil
}

func (p *Plain) Close() {}

var errBadHeader = xerrors.New(xerrors.Io, "gzip: invalid header")
