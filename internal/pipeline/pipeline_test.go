package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/graph"
	"github.com/pingw33n/xerocole/internal/metrics"
	"github.com/pingw33n/xerocole/pkg/value"

	"github.com/prometheus/client_golang/prometheus"
)

// fakeInput emits a fixed batch of events once, then blocks until ctx is
// cancelled, returning nil (clean shutdown, matching input.File's
// contract).
type fakeInput struct {
	n int
}

func (f *fakeInput) Run(ctx context.Context, emit func(*event.Event)) error {
	for i := 0; i < f.n; i++ {
		ev := event.New()
		ev.SetField("message", value.NewString("hi"))
		emit(ev)
	}
	<-ctx.Done()
	return nil
}

// failingInput fails its first Run, then succeeds on retry.
type failingInput struct {
	mu      sync.Mutex
	calls   int
	emitted chan struct{}
}

func (f *failingInput) Run(ctx context.Context, emit func(*event.Event)) error {
	f.mu.Lock()
	f.calls++
	calls := f.calls
	f.mu.Unlock()

	if calls == 1 {
		return errors.New("boom")
	}
	ev := event.New()
	emit(ev)
	close(f.emitted)
	<-ctx.Done()
	return nil
}

type fakeSink struct {
	mu    sync.Mutex
	got   []*event.Event
	fail  bool
	delay time.Duration
}

func (s *fakeSink) Write(ev *event.Event) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("write failed")
	}
	s.got = append(s.got, ev)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func passthroughGraph() *graph.Graph {
	return &graph.Graph{Root: graph.Output(0)}
}

func TestPipelineDeliversInputEventsToOutput(t *testing.T) {
	sink := &fakeSink{}
	p := New(Config{GraphWorkers: 2}, passthroughGraph(),
		[]InputSpec{{ID: "in", Input: &fakeInput{n: 5}}},
		[][]OutputSpec{{{ID: "out", Sink: sink}}},
		metrics.NewRegistry(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := sink.count(); got != 5 {
		t.Fatalf("sink got %d events, want 5", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not shut down after cancel")
	}
}

func TestPipelineRetriesFailedInputWithBackoff(t *testing.T) {
	in := &failingInput{emitted: make(chan struct{})}
	sink := &fakeSink{}
	p := New(Config{}, passthroughGraph(),
		[]InputSpec{{ID: "flaky", Input: in}},
		[][]OutputSpec{{{ID: "out", Sink: sink}}},
		metrics.NewRegistry(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	select {
	case <-in.emitted:
	case <-time.After(3 * time.Second):
		t.Fatal("input never recovered after its first failure")
	}

	cancel()
	<-done
}

func TestPipelineIsolatesSlowOutputViaTrySend(t *testing.T) {
	healthy := &fakeSink{}
	slow := &fakeSink{delay: 200 * time.Millisecond}
	p := New(Config{OutputCapacity: 1, GroupCapacity: 1}, passthroughGraph(),
		[]InputSpec{{ID: "in", Input: &fakeInput{n: 10}}},
		[][]OutputSpec{{{ID: "healthy", Sink: healthy}, {ID: "slow", Sink: slow}}},
		metrics.NewRegistry(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	deadline := time.Now().Add(2 * time.Second)
	for healthy.count() < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := healthy.count(); got != 10 {
		t.Fatalf("healthy sink got %d events, want 10", got)
	}

	cancel()
	<-done
}
