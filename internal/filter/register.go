package filter

import (
	"context"

	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

func init() {
	registry.Register(registry.Filter, "grok", grokProvider)
	registry.Register(registry.Filter, "regex", grokProvider)
}

// grokProvider's Starter.Start returns the filter.Starter itself (not an
// Instance): graph construction calls it once per worker to obtain a fresh
// Grok, per spec §4.7's one-instance-per-worker rule.
func grokProvider(cfg value.Value) (registry.Starter, error) {
	gcfg, err := parseGrokConfig(cfg)
	if err != nil {
		return nil, err
	}
	starter := NewGrokStarter(gcfg)
	return registry.StarterFunc(func(ctx context.Context) (any, error) {
		return starter, nil
	}), nil
}

func parseGrokConfig(cfg value.Value) (GrokConfig, error) {
	m, ok := cfg.AsMap()
	if !ok {
		return GrokConfig{}, xerrors.New(xerrors.Parse, "grok filter config must be a map")
	}
	mv, ok := m["match"]
	if !ok {
		return GrokConfig{}, xerrors.New(xerrors.Parse, "grok filter requires `match`")
	}
	mm, ok := mv.Val.AsMap()
	if !ok {
		return GrokConfig{}, xerrors.New(xerrors.Parse, "grok filter `match` must be a map").WithSpan(mv.Span)
	}

	gcfg := GrokConfig{Match: make(map[string][]string, len(mm))}
	for _, field := range mv.Val.Keys() {
		sv := mm[field]
		if s, ok := sv.Val.AsString(); ok {
			gcfg.Match[field] = []string{s}
			gcfg.MatchOrder = append(gcfg.MatchOrder, field)
			continue
		}
		list, ok := sv.Val.AsList()
		if !ok {
			return GrokConfig{}, xerrors.New(xerrors.Parse, "grok filter match entries must be a string or list of strings").WithSpan(sv.Span)
		}
		patterns := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.Val.AsString()
			if !ok {
				return GrokConfig{}, xerrors.New(xerrors.Parse, "grok filter match patterns must be strings").WithSpan(e.Span)
			}
			patterns = append(patterns, s)
		}
		gcfg.Match[field] = patterns
		gcfg.MatchOrder = append(gcfg.MatchOrder, field)
	}
	return gcfg, nil
}
