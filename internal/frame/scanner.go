package frame

import "bytes"

// scanner locates the next delimiter in in starting the search at or after
// from. It returns the index just past the delimiter (frameEnd) and the
// delimiter's length. found is false when no complete delimiter could be
// located yet — the caller must wait for more input.
type scanner interface {
	scan(in []byte, from int) (frameEnd, delimLen int, found bool)
}

// fixedScanner matches a literal byte-string delimiter of any length
// (spec §4.3.1). Needles of length <= 3 use a plain byte-stride scan;
// longer needles scan for the first three bytes with a 1-byte stride and
// verify the tail, so a near-miss (e.g. "ddd" inside "ddddd") doesn't skip
// past a real match starting one byte later.
type fixedScanner struct {
	needle []byte
}

func (s fixedScanner) scan(in []byte, from int) (int, int, bool) {
	n := len(s.needle)
	if n <= 3 {
		for i := from; i+n <= len(in); i++ {
			if bytes.Equal(in[i:i+n], s.needle) {
				return i + n, n, true
			}
		}
		return 0, 0, false
	}
	prefix := s.needle[:3]
	for i := from; i+3 <= len(in); i++ {
		if !bytes.Equal(in[i:i+3], prefix) {
			continue
		}
		if i+n > len(in) {
			return 0, 0, false
		}
		if bytes.Equal(in[i:i+n], s.needle) {
			return i + n, n, true
		}
	}
	return 0, 0, false
}

// lineAnyScanner implements the "line: any" mode (spec §4.3.2):
// recognizes \r\n, lone \r, and lone \n, in that precedence order, with a
// lone \r at the very end of the available input treated as "need more" —
// it could still turn into \r\n.
type lineAnyScanner struct{}

func (lineAnyScanner) scan(in []byte, from int) (int, int, bool) {
	for i := from; i < len(in); i++ {
		switch in[i] {
		case '\r':
			if i+1 == len(in) {
				return 0, 0, false
			}
			if in[i+1] == '\n' {
				return i + 2, 2, true
			}
			return i + 1, 1, true
		case '\n':
			return i + 1, 1, true
		}
	}
	return 0, 0, false
}

// trailingLineDelimLen resolves the ambiguity a lone trailing \r leaves
// open during streaming scans: at finish time no more bytes are coming, so
// a trailing \r, \n, or \r\n can be recognized unconditionally.
func trailingLineDelimLen(tail []byte) int {
	n := len(tail)
	if n >= 2 && tail[n-2] == '\r' && tail[n-1] == '\n' {
		return 2
	}
	if n >= 1 && (tail[n-1] == '\r' || tail[n-1] == '\n') {
		return 1
	}
	return 0
}
