package stream

import (
	"bytes"
	"io"
	"sync"
)

// feeder is an io.Reader+io.ByteReader that serves bytes appended via Feed,
// blocking the caller (the deflate decompression goroutine) when no bytes
// are currently available rather than ever returning io.EOF mid-stream.
// Implementing both Read and ReadByte matters: klauspost/compress/flate's
// NewReader only wraps its source in a bufio.Reader when the source does
// NOT already satisfy flate.Reader (Read+ReadByte); by satisfying it
// directly we avoid losing track of exactly how many bytes were consumed,
// which is what lets the gzip state machine recover the unconsumed tail
// (trailer + next member's header) byte-for-byte once a member ends.
type feeder struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newFeeder() *feeder {
	f := &feeder{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Feed appends newly-available bytes and wakes any blocked reader.
func (f *feeder) Feed(b []byte) {
	if len(b) == 0 {
		return
	}
	f.mu.Lock()
	f.buf = append(f.buf, b...)
	f.cond.Broadcast()
	f.mu.Unlock()
}

// Close unblocks a reader permanently (used on decoder shutdown only; a
// live member never sees this under normal operation).
func (f *feeder) Close() {
	f.mu.Lock()
	f.closed = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

func (f *feeder) ReadByte() (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.buf) == 0 {
		if f.closed {
			return 0, io.EOF
		}
		f.cond.Wait()
	}
	b := f.buf[0]
	f.buf = f.buf[1:]
	return b, nil
}

func (f *feeder) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.buf) == 0 {
		if f.closed {
			return 0, io.EOF
		}
		f.cond.Wait()
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}

// drainUnconsumed pops and returns every byte currently buffered but not
// yet read by the decompressor — the bytes immediately following the
// deflate stream's logical end (trailer, and possibly the next member).
func (f *feeder) drainUnconsumed() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.buf
	f.buf = nil
	return b
}

// pendingOutput is a thread-safe byte queue the decompression goroutine
// appends decoded bytes to and Decode drains from.
type pendingOutput struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (p *pendingOutput) write(b []byte) {
	p.mu.Lock()
	p.buf.Write(b)
	p.mu.Unlock()
}

func (p *pendingOutput) drain(out []byte) int {
	p.mu.Lock()
	n, _ := p.buf.Read(out)
	p.mu.Unlock()
	return n
}

func (p *pendingOutput) len() int {
	p.mu.Lock()
	n := p.buf.Len()
	p.mu.Unlock()
	return n
}
