package eventdecoder

import (
	"testing"

	"github.com/pingw33n/xerocole/internal/event"
)

func TestLineProtocolDecodesMeasurementTagsFields(t *testing.T) {
	d := NewLineProtocol()
	var got []*event.Event
	frame := []byte("cpu,host=a,region=east value=42i,load=0.5 1700000000000000000\n")
	written, err := d.Decode(frame, func(ev *event.Event) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatal(err)
	}
	if written != 1 || len(got) != 1 {
		t.Fatalf("written=%d len(got)=%d", written, len(got))
	}
	ev := got[0]

	m, _ := ev.Field("measurement")
	if s, _ := m.AsString(); s != "cpu" {
		t.Fatalf("measurement = %v", m)
	}
	if host, ok := ev.Tag("host"); !ok {
		t.Fatalf("host tag missing")
	} else if s, _ := host.AsString(); s != "a" {
		t.Fatalf("host tag = %v", host)
	}
	if v, ok := ev.Field("value"); !ok {
		t.Fatalf("value field missing")
	} else if i, _ := v.AsInt(); i != 42 {
		t.Fatalf("value field = %v", v)
	}
}
