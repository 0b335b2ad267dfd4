package filter

import (
	"testing"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/pkg/value"
)

func TestGrokExtractsNamedCaptures(t *testing.T) {
	start := NewGrokStarter(GrokConfig{
		Match: map[string][]string{
			"message": {`(?P<controller>[^#]+)#(?P<action>\w+)`},
		},
	})
	inst, err := start()
	if err != nil {
		t.Fatal(err)
	}

	ev := event.New()
	ev.SetField("message", value.NewString("a#x"))

	var got []*event.Event
	if err := inst.Apply(ev, func(e *event.Event) { got = append(got, e) }); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}

	controller, ok := got[0].Field("controller")
	if !ok {
		t.Fatal("controller field missing")
	}
	if s, _ := controller.AsString(); s != "a" {
		t.Fatalf("controller = %q, want a", s)
	}
	action, ok := got[0].Field("action")
	if !ok {
		t.Fatal("action field missing")
	}
	if s, _ := action.AsString(); s != "x" {
		t.Fatalf("action = %q, want x", s)
	}
}

func TestGrokNeverOverwritesExistingField(t *testing.T) {
	start := NewGrokStarter(GrokConfig{
		Match: map[string][]string{
			"message": {`(?P<controller>[^#]+)#(?P<action>\w+)`},
		},
	})
	inst, _ := start()

	ev := event.New()
	ev.SetField("message", value.NewString("a#x"))
	ev.SetField("controller", value.NewString("preset"))

	var got *event.Event
	inst.Apply(ev, func(e *event.Event) { got = e })

	controller, _ := got.Field("controller")
	if s, _ := controller.AsString(); s != "preset" {
		t.Fatalf("controller = %q, want preset (must not overwrite)", s)
	}
}

func TestGrokTriesRegexesInOrderFirstMatchWins(t *testing.T) {
	start := NewGrokStarter(GrokConfig{
		Match:      map[string][]string{"message": {`^never-matches$`, `(?P<word>\w+)`}},
		MatchOrder: []string{"message"},
	})
	inst, _ := start()

	ev := event.New()
	ev.SetField("message", value.NewString("hello"))

	var got *event.Event
	inst.Apply(ev, func(e *event.Event) { got = e })

	word, ok := got.Field("word")
	if !ok {
		t.Fatal("word field missing")
	}
	if s, _ := word.AsString(); s != "hello" {
		t.Fatalf("word = %q, want hello", s)
	}
}
