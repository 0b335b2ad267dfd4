// Package graph implements the lowered IntGraph and its per-worker
// instance from spec §4.7: Filters (ordered chain), Switch (exclusive
// first-match routing), and OutputGroup (broadcast terminal).
package graph

import (
	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/filter"
	"github.com/pingw33n/xerocole/pkg/log"
)

// NodeKind tags which field of Node is meaningful.
type NodeKind int

const (
	NodeFilters NodeKind = iota
	NodeSwitch
	NodeOutput
)

// Branch is one arm of a Switch node: a compiled predicate plus the
// subgraph to route to when it matches.
type Branch struct {
	Predicate Predicate
	Next      *Node
}

// Node is one element of the lowered graph. Filters holds indices into
// the flat filter-starter vector (set by the Filters constructor, which
// config.Build calls with resolved indices); Branches holds compiled
// predicates plus their own subgraphs; OutputGroup is an index into the
// flat output-groups vector.
type Node struct {
	Kind        NodeKind
	FilterIDs   []int
	Next        *Node
	Branches    []Branch
	OutputGroup int
}

// Filters returns a Filters node.
func Filters(ids []int, next *Node) *Node {
	return &Node{Kind: NodeFilters, FilterIDs: ids, Next: next}
}

// SwitchNode returns a Switch node.
func SwitchNode(branches []Branch) *Node {
	return &Node{Kind: NodeSwitch, Branches: branches}
}

// Output returns an OutputGroup terminal node.
func Output(groupID int) *Node {
	return &Node{Kind: NodeOutput, OutputGroup: groupID}
}

// Graph pairs the root node with the flat filter-starter vector every
// worker instance clones from (spec: "each filter slot is consumed at
// most once... replicating the graph for parallelism requires building N
// independent instance lists").
type Graph struct {
	Root     *Node
	Starters []filter.Starter
}

// Sink receives an event routed to a terminal OutputGroup.
type Sink func(groupID int, ev *event.Event)

// Instance is one worker's private copy of a Graph: its own filter
// instances, sharing the (immutable, concurrency-safe) node tree and
// compiled predicates.
type Instance struct {
	root    *Node
	filters []filter.Instance
}

// NewInstance starts a fresh filter.Instance from every Starter, per spec
// §4.7's "for each of N workers, each filter starter produces a fresh
// filter instance".
func NewInstance(g *Graph) (*Instance, error) {
	filters := make([]filter.Instance, len(g.Starters))
	for i, start := range g.Starters {
		inst, err := start()
		if err != nil {
			return nil, err
		}
		filters[i] = inst
	}
	return &Instance{root: g.Root, filters: filters}, nil
}

// Run routes ev through the graph, invoking sink for every event that
// reaches an OutputGroup terminal (an event may fan out to zero, one, or
// many terminals depending on the filters and branches it passes
// through).
func (in *Instance) Run(ev *event.Event, sink Sink) {
	in.walk(in.root, ev, sink)
}

func (in *Instance) walk(n *Node, ev *event.Event, sink Sink) {
	if n == nil {
		return
	}
	switch n.Kind {
	case NodeFilters:
		in.runFilters(n, ev, sink)
	case NodeSwitch:
		in.runSwitch(n, ev, sink)
	case NodeOutput:
		sink(n.OutputGroup, ev)
	}
}

// runFilters threads ev through the chain in declared order. Each filter
// may emit zero, one, or many events; every output continues down the
// same chain before the next filter runs on it, preserving per-input
// ordering across the chain's emitted outputs (spec §4.7).
func (in *Instance) runFilters(n *Node, ev *event.Event, sink Sink) {
	pending := []*event.Event{ev}
	for _, id := range n.FilterIDs {
		f := in.filters[id]
		var next []*event.Event
		for _, e := range pending {
			if err := f.Apply(e, func(out *event.Event) {
				next = append(next, out)
			}); err != nil {
				log.Errorf("graph: filter error: %v", err)
			}
		}
		pending = next
	}
	for _, e := range pending {
		in.walk(n.Next, e, sink)
	}
}

// runSwitch evaluates branches in order; the first whose predicate
// returns true receives the event exclusively. A predicate error is
// logged and the event is dropped for this switch, without evaluating
// the remaining branches (spec §4.7, documented short-circuit).
func (in *Instance) runSwitch(n *Node, ev *event.Event, sink Sink) {
	for _, b := range n.Branches {
		ok, err := b.Predicate(ev)
		if err != nil {
			log.Errorf("graph: switch predicate error: %v", err)
			return
		}
		if ok {
			in.walk(b.Next, ev, sink)
			return
		}
	}
}
