package buffer

import "testing"

func checkInvariant(t *testing.T, b *Buffer) {
	t.Helper()
	if !(0 <= b.readPos && b.readPos <= b.writePos && b.writePos <= cap(b.data)) {
		t.Fatalf("invariant violated: read=%d write=%d cap=%d", b.readPos, b.writePos, cap(b.data))
	}
}

func TestGrowStartsAt512(t *testing.T) {
	b := New()
	b.EnsureWriteable()
	checkInvariant(t, b)
	if b.Cap() != initialCapacity {
		t.Fatalf("Cap() = %d, want %d", b.Cap(), initialCapacity)
	}
}

func TestGrowDoubles(t *testing.T) {
	b := New()
	b.Resize(512)
	b.AdvanceWrite(512)
	b.EnsureWriteable()
	checkInvariant(t, b)
	if b.Cap() != 1024 {
		t.Fatalf("Cap() = %d, want 1024", b.Cap())
	}
}

func TestCompactReclaimsHalfConsumed(t *testing.T) {
	b := New()
	b.Resize(512)
	b.AdvanceWrite(512)
	b.AdvanceRead(300) // > half consumed
	b.EnsureWriteable()
	checkInvariant(t, b)
	if b.Cap() != 512 {
		t.Fatalf("Cap() = %d, want 512 (compact, not grow)", b.Cap())
	}
	if b.readPos != 0 {
		t.Fatalf("readPos = %d, want 0 after compact", b.readPos)
	}
	if b.Len() != 212 {
		t.Fatalf("Len() = %d, want 212", b.Len())
	}
}

func TestGrowWhenLessThanHalfConsumed(t *testing.T) {
	b := New()
	b.Resize(512)
	b.AdvanceWrite(512)
	b.AdvanceRead(100) // < half consumed
	b.EnsureWriteable()
	checkInvariant(t, b)
	if b.Cap() != 1024 {
		t.Fatalf("Cap() = %d, want 1024 (grow, not compact)", b.Cap())
	}
}

func TestAdvanceReadPastWritePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	b := New()
	b.Resize(16)
	b.AdvanceWrite(4)
	b.AdvanceRead(5)
}

func TestAdvanceWritePastCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	b := New()
	b.Resize(16)
	b.AdvanceWrite(17)
}

func TestWriteReadRoundtrip(t *testing.T) {
	b := New()
	b.EnsureWriteable()
	n := copy(b.WriteRegion(), []byte("hello"))
	b.AdvanceWrite(n)
	checkInvariant(t, b)
	if got := string(b.Read()); got != "hello" {
		t.Fatalf("Read() = %q, want %q", got, "hello")
	}
	b.AdvanceRead(5)
	checkInvariant(t, b)
	if !b.IsEmpty() {
		t.Fatal("expected IsEmpty() after consuming all readable bytes")
	}
}

func TestClear(t *testing.T) {
	b := New()
	b.EnsureWriteable()
	b.AdvanceWrite(10)
	b.AdvanceRead(4)
	b.Clear()
	checkInvariant(t, b)
	if b.Len() != 0 || b.readPos != 0 || b.writePos != 0 {
		t.Fatal("Clear() should reset both cursors to zero")
	}
}
