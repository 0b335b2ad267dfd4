package eventdecoder

import (
	"testing"

	"github.com/pingw33n/xerocole/internal/event"
)

func TestTextDecodeSingleEvent(t *testing.T) {
	d, err := NewText("")
	if err != nil {
		t.Fatal(err)
	}
	var got []*event.Event
	written, err := d.Decode([]byte("hello world"), func(ev *event.Event) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatal(err)
	}
	if written != 1 || len(got) != 1 {
		t.Fatalf("written=%d len(got)=%d", written, len(got))
	}
	msg, ok := got[0].Field("message")
	s, _ := msg.AsString()
	if !ok || s != "hello world" {
		t.Fatalf("message field = %v, ok=%v", msg, ok)
	}
}

func TestTextRejectsNonUTF8Charset(t *testing.T) {
	if _, err := NewText("ISO-8859-1"); err == nil {
		t.Fatal("expected error for unsupported charset")
	}
}

func TestTextReplacesInvalidUTF8(t *testing.T) {
	d, err := NewText("utf-8")
	if err != nil {
		t.Fatal(err)
	}
	var got *event.Event
	_, err = d.Decode([]byte{'a', 0xff, 'b'}, func(ev *event.Event) { got = ev })
	if err != nil {
		t.Fatal(err)
	}
	msg, _ := got.Field("message")
	s, _ := msg.AsString()
	want := "a�b"
	if s != want {
		t.Fatalf("message = %q, want %q", s, want)
	}
}
