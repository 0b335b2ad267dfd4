// Package buffer implements the two-cursor byte buffer from spec §3/§4.1:
// a contiguous byte slice with read_pos and write_pos cursors maintaining
// 0 <= read_pos <= write_pos <= capacity. The readable region is
// [read_pos, write_pos); the writable region is [write_pos, capacity).
package buffer

// initialCapacity is the smallest size grow() will allocate, per spec §3
// ("grow() at least doubles capacity starting from 512").
const initialCapacity = 512

// Buffer is a growable byte buffer with independent read/write cursors, so
// producers and consumers can each hold a slice into it without copying.
// Invariant: len(data) == cap(data) always; capacity only ever changes via
// Resize/grow, which reallocate a full-length slice.
type Buffer struct {
	data     []byte
	readPos  int
	writePos int
}

// New returns an empty Buffer with no backing storage; the first
// EnsureWriteable call allocates it.
func New() *Buffer {
	return &Buffer{}
}

// Read returns the readable region [read_pos, write_pos).
func (b *Buffer) Read() []byte {
	return b.data[b.readPos:b.writePos]
}

// WriteRegion returns the writable region [write_pos, capacity) for callers
// to fill directly before calling AdvanceWrite.
func (b *Buffer) WriteRegion() []byte {
	return b.data[b.writePos:]
}

// AdvanceRead moves read_pos forward by n. Panics if this would violate
// read_pos <= write_pos.
func (b *Buffer) AdvanceRead(n int) {
	if n < 0 || b.readPos+n > b.writePos {
		panic("buffer: AdvanceRead out of bounds")
	}
	b.readPos += n
}

// AdvanceWrite moves write_pos forward by n. Panics if this would violate
// write_pos <= capacity.
func (b *Buffer) AdvanceWrite(n int) {
	if n < 0 || b.writePos+n > cap(b.data) {
		panic("buffer: AdvanceWrite out of bounds")
	}
	b.writePos += n
}

// Len returns the number of readable bytes.
func (b *Buffer) Len() int { return b.writePos - b.readPos }

// Cap returns the total backing capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// IsEmpty reports whether there are no readable bytes.
func (b *Buffer) IsEmpty() bool { return b.readPos == b.writePos }

// Clear resets both cursors to zero without releasing the backing array.
func (b *Buffer) Clear() {
	b.readPos = 0
	b.writePos = 0
}

// Resize grows the backing array to at least n bytes, preserving the
// readable region at its current offset.
func (b *Buffer) Resize(n int) {
	if cap(b.data) >= n {
		return
	}
	nd := make([]byte, n)
	copy(nd, b.data[:b.writePos])
	b.data = nd
}

// compact shifts the readable region down to offset 0, reclaiming the
// space already consumed by the reader.
func (b *Buffer) compact() {
	if b.readPos == 0 {
		return
	}
	n := copy(b.data, b.data[b.readPos:b.writePos])
	b.readPos = 0
	b.writePos = n
}

// grow doubles capacity, starting from initialCapacity if empty.
func (b *Buffer) grow() {
	c := cap(b.data)
	if c == 0 {
		c = initialCapacity
	} else {
		c *= 2
	}
	b.Resize(c)
}

// EnsureWriteable is the only place compaction vs growth is decided (spec
// §4.1): if the writable region is empty, compact when at least half of
// capacity has been consumed by the reader (capacity <= 2*read_pos);
// otherwise grow. If compaction alone didn't free space (read_pos was
// already 0, or capacity is 0), grow too.
func (b *Buffer) EnsureWriteable() {
	if b.writePos < cap(b.data) {
		return
	}
	if cap(b.data) > 0 && b.readPos > 0 && cap(b.data) <= 2*b.readPos {
		b.compact()
	}
	if b.writePos >= cap(b.data) {
		b.grow()
	}
}
