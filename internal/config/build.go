package config

import (
	"context"
	"fmt"

	"github.com/pingw33n/xerocole/internal/filter"
	"github.com/pingw33n/xerocole/internal/graph"
	"github.com/pingw33n/xerocole/internal/input"
	"github.com/pingw33n/xerocole/internal/metrics"
	"github.com/pingw33n/xerocole/internal/output"
	"github.com/pingw33n/xerocole/internal/pipeline"
	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Build turns a schema-validated config tree into a ready-to-Run
// pipeline.Pipeline, resolving every named input/filter/output through
// internal/registry (spec §4.8, §6).
func Build(ctx context.Context, v value.Value, reg *metrics.Registry) (*pipeline.Pipeline, error) {
	outputs, err := buildOutputs(ctx, v)
	if err != nil {
		return nil, err
	}

	groupNames, groupOutputs, err := buildGroups(v, outputs)
	if err != nil {
		return nil, err
	}
	groupIndex := make(map[string]int, len(groupNames))
	for i, name := range groupNames {
		groupIndex[name] = i
	}

	starters, filterIndex, err := buildFilters(ctx, v)
	if err != nil {
		return nil, err
	}

	gv, ok := v.Get("graph")
	if !ok {
		return nil, xerrors.New(xerrors.Parse, "config: `graph` is required")
	}
	rv, ok := gv.Val.Get("root")
	if !ok {
		return nil, xerrors.New(xerrors.Parse, "config: graph.root is required")
	}
	root, err := buildGraphNodeValue(rv.Val, filterIndex, groupIndex)
	if err != nil {
		return nil, err
	}

	inputs, err := buildInputs(ctx, v)
	if err != nil {
		return nil, err
	}

	cfg := parsePipelineConfig(v)
	return pipeline.New(cfg, &graph.Graph{Root: root, Starters: starters}, inputs, groupOutputs, reg), nil
}

func parsePipelineConfig(v value.Value) pipeline.Config {
	var cfg pipeline.Config
	qv, ok := v.Get("queue")
	if !ok {
		return cfg
	}
	m, ok := qv.Val.AsMap()
	if !ok {
		return cfg
	}
	if sv, ok := m["input_capacity"]; ok {
		n, _ := sv.Val.AsInt()
		cfg.InputQueueCapacity = int(n)
	}
	if sv, ok := m["group_capacity"]; ok {
		n, _ := sv.Val.AsInt()
		cfg.GroupCapacity = int(n)
	}
	if sv, ok := m["output_capacity"]; ok {
		n, _ := sv.Val.AsInt()
		cfg.OutputCapacity = int(n)
	}
	if sv, ok := m["workers"]; ok {
		n, _ := sv.Val.AsInt()
		cfg.GraphWorkers = int(n)
	}
	return cfg
}

func namedSection(v value.Value, section string) ([]string, map[string]value.Spanned[value.Value], error) {
	sv, ok := v.Get(section)
	if !ok {
		return nil, nil, nil
	}
	m, ok := sv.Val.AsMap()
	if !ok {
		return nil, nil, xerrors.New(xerrors.Parse, "config: "+section+" must be a map").WithSpan(sv.Span)
	}
	return sv.Val.Keys(), m, nil
}

func componentType(entry value.Value) (string, error) {
	m, ok := entry.AsMap()
	if !ok {
		return "", xerrors.New(xerrors.Parse, "config: component entry must be a map")
	}
	tv, ok := m["type"]
	if !ok {
		return "", xerrors.New(xerrors.Parse, "config: component entry requires `type`")
	}
	t, ok := tv.Val.AsString()
	if !ok {
		return "", xerrors.New(xerrors.Parse, "config: component `type` must be a string").WithSpan(tv.Span)
	}
	return t, nil
}

func buildInputs(ctx context.Context, v value.Value) ([]pipeline.InputSpec, error) {
	names, m, err := namedSection(v, "inputs")
	if err != nil {
		return nil, err
	}
	specs := make([]pipeline.InputSpec, 0, len(names))
	for _, name := range names {
		entry := m[name].Val
		typ, err := componentType(entry)
		if err != nil {
			return nil, err
		}
		provider, ok := registry.Lookup(registry.Input, typ)
		if !ok {
			return nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: unknown input type %q", typ))
		}
		starter, err := provider(entry)
		if err != nil {
			return nil, err
		}
		inst, err := starter.Start(ctx)
		if err != nil {
			return nil, err
		}
		in, ok := inst.(input.Input)
		if !ok {
			return nil, xerrors.New(xerrors.Unknown, fmt.Sprintf("config: input %q did not produce an input.Input", name))
		}
		specs = append(specs, pipeline.InputSpec{ID: name, Input: in})
	}
	return specs, nil
}

func buildOutputs(ctx context.Context, v value.Value) (map[string]output.Sink, error) {
	names, m, err := namedSection(v, "outputs")
	if err != nil {
		return nil, err
	}
	outs := make(map[string]output.Sink, len(names))
	for _, name := range names {
		entry := m[name].Val
		typ, err := componentType(entry)
		if err != nil {
			return nil, err
		}
		provider, ok := registry.Lookup(registry.Output, typ)
		if !ok {
			return nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: unknown output type %q", typ))
		}
		starter, err := provider(entry)
		if err != nil {
			return nil, err
		}
		inst, err := starter.Start(ctx)
		if err != nil {
			return nil, err
		}
		snk, ok := inst.(output.Sink)
		if !ok {
			return nil, xerrors.New(xerrors.Unknown, fmt.Sprintf("config: output %q did not produce an output.Sink", name))
		}
		outs[name] = snk
	}
	return outs, nil
}

func buildGroups(v value.Value, outputs map[string]output.Sink) ([]string, [][]pipeline.OutputSpec, error) {
	names, m, err := namedSection(v, "groups")
	if err != nil {
		return nil, nil, err
	}
	groupOutputs := make([][]pipeline.OutputSpec, 0, len(names))
	for _, name := range names {
		list, ok := m[name].Val.AsList()
		if !ok {
			return nil, nil, xerrors.New(xerrors.Parse, "config: group "+name+" must be a list of output names")
		}
		var specs []pipeline.OutputSpec
		for _, e := range list {
			outName, ok := e.Val.AsString()
			if !ok {
				return nil, nil, xerrors.New(xerrors.Parse, "config: group member must be a string").WithSpan(e.Span)
			}
			snk, ok := outputs[outName]
			if !ok {
				return nil, nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: group %q references unknown output %q", name, outName))
			}
			specs = append(specs, pipeline.OutputSpec{ID: outName, Sink: snk})
		}
		groupOutputs = append(groupOutputs, specs)
	}
	return names, groupOutputs, nil
}

func buildFilters(ctx context.Context, v value.Value) ([]filter.Starter, map[string]int, error) {
	names, m, err := namedSection(v, "filters")
	if err != nil {
		return nil, nil, err
	}
	starters := make([]filter.Starter, 0, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		entry := m[name].Val
		typ, err := componentType(entry)
		if err != nil {
			return nil, nil, err
		}
		provider, ok := registry.Lookup(registry.Filter, typ)
		if !ok {
			return nil, nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: unknown filter type %q", typ))
		}
		rstarter, err := provider(entry)
		if err != nil {
			return nil, nil, err
		}
		inst, err := rstarter.Start(ctx)
		if err != nil {
			return nil, nil, err
		}
		fs, ok := inst.(filter.Starter)
		if !ok {
			return nil, nil, xerrors.New(xerrors.Unknown, fmt.Sprintf("config: filter %q did not produce a filter.Starter", name))
		}
		starters = append(starters, fs)
		index[name] = i
	}
	return starters, index, nil
}

func buildGraphNodeValue(n value.Value, filterIndex, groupIndex map[string]int) (*graph.Node, error) {
	m, ok := n.AsMap()
	if !ok {
		return nil, xerrors.New(xerrors.Parse, "config: graph node must be a map")
	}
	kindV, ok := m["kind"]
	if !ok {
		return nil, xerrors.New(xerrors.Parse, "config: graph node requires `kind`")
	}
	kind, _ := kindV.Val.AsString()

	switch kind {
	case "output":
		groupV, ok := m["group"]
		if !ok {
			return nil, xerrors.New(xerrors.Parse, "config: output node requires `group`")
		}
		groupName, _ := groupV.Val.AsString()
		idx, ok := groupIndex[groupName]
		if !ok {
			return nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: output node references unknown group %q", groupName)).WithSpan(groupV.Span)
		}
		return graph.Output(idx), nil

	case "filters":
		listV, ok := m["filters"]
		if !ok {
			return nil, xerrors.New(xerrors.Parse, "config: filters node requires `filters`")
		}
		list, ok := listV.Val.AsList()
		if !ok {
			return nil, xerrors.New(xerrors.Parse, "config: filters node's `filters` must be a list")
		}
		ids := make([]int, 0, len(list))
		for _, e := range list {
			name, _ := e.Val.AsString()
			idx, ok := filterIndex[name]
			if !ok {
				return nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: filters node references unknown filter %q", name)).WithSpan(e.Span)
			}
			ids = append(ids, idx)
		}
		var next *graph.Node
		if nextV, ok := m["next"]; ok {
			n, err := buildGraphNodeValue(nextV.Val, filterIndex, groupIndex)
			if err != nil {
				return nil, err
			}
			next = n
		}
		return graph.Filters(ids, next), nil

	case "switch":
		branchesV, ok := m["branches"]
		if !ok {
			return nil, xerrors.New(xerrors.Parse, "config: switch node requires `branches`")
		}
		list, ok := branchesV.Val.AsList()
		if !ok {
			return nil, xerrors.New(xerrors.Parse, "config: switch node's `branches` must be a list")
		}
		branches := make([]graph.Branch, 0, len(list))
		for _, e := range list {
			bm, ok := e.Val.AsMap()
			if !ok {
				return nil, xerrors.New(xerrors.Parse, "config: switch branch must be a map").WithSpan(e.Span)
			}
			whenV, ok := bm["when"]
			if !ok {
				return nil, xerrors.New(xerrors.Parse, "config: switch branch requires `when`").WithSpan(e.Span)
			}
			expr, _ := whenV.Val.AsString()
			pred, err := graph.CompilePredicate(expr)
			if err != nil {
				return nil, xerrors.Wrap(xerrors.Parse, err, "compile switch branch predicate").WithSpan(whenV.Span)
			}
			nextV, ok := bm["next"]
			if !ok {
				return nil, xerrors.New(xerrors.Parse, "config: switch branch requires `next`").WithSpan(e.Span)
			}
			next, err := buildGraphNodeValue(nextV.Val, filterIndex, groupIndex)
			if err != nil {
				return nil, err
			}
			branches = append(branches, graph.Branch{Predicate: pred, Next: next})
		}
		return graph.SwitchNode(branches), nil

	default:
		return nil, xerrors.New(xerrors.Parse, fmt.Sprintf("config: unknown graph node kind %q", kind)).WithSpan(kindV.Span)
	}
}
