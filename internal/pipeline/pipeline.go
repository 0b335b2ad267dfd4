// Package pipeline wires the shared input queue, the parallel graph
// workers, and the per-output-group broadcast fan-out together (spec
// §4.8/C8): one supervised task per input retrying with exponential
// backoff, N graph workers draining a shared bounded queue, and one
// broadcast task per output group isolating slow outputs with try_send
// semantics and a dropped-event counter.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/graph"
	"github.com/pingw33n/xerocole/internal/input"
	"github.com/pingw33n/xerocole/internal/metrics"
	"github.com/pingw33n/xerocole/internal/output"
	"github.com/pingw33n/xerocole/pkg/log"
)

// Config holds the queue/fan-out capacities and worker count (spec §5
// "all channels are bounded").
type Config struct {
	// InputQueueCapacity bounds the shared MPMC input queue. Default 100.
	InputQueueCapacity int
	// GraphWorkers is the number of parallel graph instances (spec
	// "N worker tasks each running the lowered graph").
	GraphWorkers int
	// GroupCapacity bounds each output group's broadcast fan-in channel.
	GroupCapacity int
	// OutputCapacity bounds each individual output's channel inside a
	// group; a full one is where try_send isolation kicks in.
	OutputCapacity int
}

func (c Config) withDefaults() Config {
	if c.InputQueueCapacity <= 0 {
		c.InputQueueCapacity = 100
	}
	if c.GraphWorkers <= 0 {
		c.GraphWorkers = 1
	}
	if c.GroupCapacity <= 0 {
		c.GroupCapacity = 100
	}
	if c.OutputCapacity <= 0 {
		c.OutputCapacity = 100
	}
	return c
}

// InputSpec names an Input for logging/metrics (spec's `input.<id>.out`).
type InputSpec struct {
	ID    string
	Input input.Input
}

// OutputSpec names an output.Sink inside a group.
type OutputSpec struct {
	ID   string
	Sink output.Sink
}

type outputChan struct {
	id  string
	ch  chan *event.Event
	snk output.Sink
}

type group struct {
	ch      chan *event.Event
	outputs []outputChan
}

// Pipeline is the fully-wired runtime: shared queue, graph, and output
// groups, ready to Run until its context is cancelled.
type Pipeline struct {
	cfg     Config
	graph   *graph.Graph
	inputs  []InputSpec
	groups  []*group
	queue   chan *event.Event
	metrics *metrics.Registry
}

// New builds a Pipeline. groupOutputs[i] lists the outputs belonging to
// output group i; g.Root's OutputGroup indices must index into it.
func New(cfg Config, g *graph.Graph, inputs []InputSpec, groupOutputs [][]OutputSpec, reg *metrics.Registry) *Pipeline {
	cfg = cfg.withDefaults()
	groups := make([]*group, len(groupOutputs))
	for i, outs := range groupOutputs {
		grp := &group{ch: make(chan *event.Event, cfg.GroupCapacity)}
		for _, o := range outs {
			grp.outputs = append(grp.outputs, outputChan{
				id:  o.ID,
				ch:  make(chan *event.Event, cfg.OutputCapacity),
				snk: o.Sink,
			})
		}
		groups[i] = grp
	}
	return &Pipeline{
		cfg:     cfg,
		graph:   g,
		inputs:  inputs,
		groups:  groups,
		queue:   make(chan *event.Event, cfg.InputQueueCapacity),
		metrics: reg,
	}
}

// Run starts every input supervisor, graph worker, and output-group
// broadcaster, and blocks until ctx is cancelled and all of them have
// unwound.
func (p *Pipeline) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for _, is := range p.inputs {
		wg.Add(1)
		go func(is InputSpec) {
			defer wg.Done()
			p.runInput(ctx, is)
		}(is)
	}

	for i := 0; i < p.cfg.GraphWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runWorker(ctx)
		}()
	}

	for i, g := range p.groups {
		wg.Add(1)
		go func(i int, g *group) {
			defer wg.Done()
			p.runGroup(ctx, i, g)
		}(i, g)

		for _, out := range g.outputs {
			wg.Add(1)
			go func(out outputChan) {
				defer wg.Done()
				p.runOutput(ctx, out)
			}(out)
		}
	}

	wg.Wait()
	return nil
}

// runInput (re)starts spec.Input with exponential backoff on error (spec
// §4.8/§7: "initial 1s, doubling, capped at 60s, unlimited attempts").
// Every delivered event is counted via metrics before entering the
// shared queue.
func (p *Pipeline) runInput(ctx context.Context, spec InputSpec) {
	b := &backoff.Backoff{Min: time.Second, Max: 60 * time.Second, Factor: 2}
	for {
		err := spec.Input.Run(ctx, func(ev *event.Event) {
			p.metrics.IncInputOut(spec.ID)
			select {
			case p.queue <- ev:
			case <-ctx.Done():
			}
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}
		d := b.Duration()
		log.Errorf("pipeline: input %q: %v, retrying in %s", spec.ID, err, d)
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return
		}
	}
}

// runWorker owns one private graph.Instance (spec §4.7: "the worker owns
// its instance list") and drains the shared queue until ctx is done.
func (p *Pipeline) runWorker(ctx context.Context) {
	inst, err := graph.NewInstance(p.graph)
	if err != nil {
		log.Errorf("pipeline: build graph instance: %v", err)
		return
	}
	sink := func(groupID int, ev *event.Event) {
		if groupID < 0 || groupID >= len(p.groups) {
			return
		}
		select {
		case p.groups[groupID].ch <- ev:
		case <-ctx.Done():
		}
	}
	for {
		select {
		case ev := <-p.queue:
			inst.Run(ev, sink)
		case <-ctx.Done():
			return
		}
	}
}

// runGroup fans each event out to every output in the group using
// try_send: a full output channel drops the event for that output only
// and increments its dropped-event counter, isolating a slow output from
// the rest of the group (spec §9, REDESIGN FLAGS).
func (p *Pipeline) runGroup(ctx context.Context, idx int, g *group) {
	for {
		select {
		case ev := <-g.ch:
			for _, out := range g.outputs {
				select {
				case out.ch <- ev:
				default:
					p.metrics.IncOutputDropped(out.id)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// runOutput forwards every event on out.ch to its sink, counting write
// errors but never stopping on them (spec §7: sink errors are logged and
// the output task continues).
func (p *Pipeline) runOutput(ctx context.Context, out outputChan) {
	defer out.snk.Close()
	for {
		select {
		case ev := <-out.ch:
			if err := out.snk.Write(ev); err != nil {
				p.metrics.IncOutputError(out.id)
				log.Errorf("pipeline: output %q: %v", out.id, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
