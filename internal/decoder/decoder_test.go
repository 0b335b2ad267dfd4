package decoder

import (
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/eventdecoder"
	"github.com/pingw33n/xerocole/internal/frame"
	"github.com/pingw33n/xerocole/internal/stream"
)

func newPlainLineDecoder(t *testing.T) *BufDecoder {
	t.Helper()
	fd, err := frame.NewDecoder(frame.Config{Mode: frame.ModeLineUnix})
	if err != nil {
		t.Fatal(err)
	}
	ed, err := eventdecoder.NewText("")
	if err != nil {
		t.Fatal(err)
	}
	return New(stream.NewPlain(), fd, ed)
}

func feed(t *testing.T, d *BufDecoder, data []byte) {
	t.Helper()
	wb := d.WritableBuffer()
	wb.EnsureWriteable()
	for len(data) > 0 {
		wb.EnsureWriteable()
		n := copy(wb.WriteRegion(), data)
		wb.AdvanceWrite(n)
		data = data[n:]
	}
}

func TestBufDecoderPlainLines(t *testing.T) {
	d := newPlainLineDecoder(t)
	feed(t, d, []byte("one\ntwo\nthree"))

	var messages []string
	emit := func(ev *event.Event) {
		m, _ := ev.Field("message")
		s, _ := m.AsString()
		messages = append(messages, s)
	}

	n, err := d.Decode(emit)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("decode produced %d events, want 2", n)
	}

	n, err = d.Flush(emit)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("flush produced %d events, want 1", n)
	}

	want := []string{"one", "two", "three"}
	if len(messages) != len(want) {
		t.Fatalf("messages = %v, want %v", messages, want)
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Fatalf("messages[%d] = %q, want %q", i, messages[i], want[i])
		}
	}
}

func TestBufDecoderGzipLines(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte("a#x\nb#y\n"))
	w.Close()

	fd, err := frame.NewDecoder(frame.Config{Mode: frame.ModeLineUnix})
	if err != nil {
		t.Fatal(err)
	}
	ed, err := eventdecoder.NewText("")
	if err != nil {
		t.Fatal(err)
	}
	d := New(stream.NewGzip(), fd, ed)
	defer d.Close()

	feed(t, d, buf.Bytes())

	var messages []string
	emit := func(ev *event.Event) {
		m, _ := ev.Field("message")
		s, _ := m.AsString()
		messages = append(messages, s)
	}

	// Gzip decompresses on a background goroutine; poll until both lines
	// have surfaced rather than assuming one Decode call suffices.
	deadline := time.Now().Add(5 * time.Second)
	for len(messages) < 2 && time.Now().Before(deadline) {
		if _, err := d.Decode(emit); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	want := []string{"a#x", "b#y"}
	if len(messages) != len(want) {
		t.Fatalf("messages = %v, want %v", messages, want)
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Fatalf("messages[%d] = %q, want %q", i, messages[i], want[i])
		}
	}
}
