package filter

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// regexCache holds compiled patterns across every grok/regex filter
// instance in the process. Graph workers each start their own Instance
// (spec §4.7), which would otherwise recompile the same config-supplied
// patterns once per worker; a shared cache keyed by pattern text makes
// that a lookup instead of a recompile.
var regexCache, _ = lru.New[string, *regexp.Regexp](256)

func compileCached(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Parse, err, "compile regex "+pattern)
	}
	regexCache.Add(pattern, re)
	return re, nil
}

// fieldRules is one `match` entry: a source field and the ordered list of
// regexes to try against it.
type fieldRules struct {
	field   string
	regexes []*regexp.Regexp
}

// Grok is the `grok`/`regex` filter (spec §6.5): for each configured
// field, try each regex in order; the first one that matches contributes
// its named captures to the event, never overwriting an existing field.
type Grok struct {
	rules []fieldRules
}

// GrokConfig mirrors the `match: { <field>: <regex> | [<regex>, ...] }`
// shape, keys in declaration order.
type GrokConfig struct {
	Match      map[string][]string
	MatchOrder []string
}

// NewGrokStarter builds a Starter that produces a fresh Grok per worker,
// all instances sharing the process-wide compiled-regex cache.
func NewGrokStarter(cfg GrokConfig) Starter {
	return func() (Instance, error) {
		g := &Grok{}
		order := cfg.MatchOrder
		if order == nil {
			for f := range cfg.Match {
				order = append(order, f)
			}
		}
		for _, field := range order {
			patterns := cfg.Match[field]
			fr := fieldRules{field: field}
			for _, p := range patterns {
				re, err := compileCached(p)
				if err != nil {
					return nil, err
				}
				fr.regexes = append(fr.regexes, re)
			}
			g.rules = append(g.rules, fr)
		}
		return g, nil
	}
}

func (g *Grok) Apply(ev *event.Event, emit func(*event.Event)) error {
	for _, fr := range g.rules {
		fv, ok := ev.Field(fr.field)
		if !ok {
			continue
		}
		s, ok := fv.AsString()
		if !ok {
			continue
		}
		g.applyField(ev, fr, s)
	}
	emit(ev)
	return nil
}

// applyField tries each regex against s in order and stops at the first
// match, per spec §6.5 ("apply the first capture set").
func (g *Grok) applyField(ev *event.Event, fr fieldRules, s string) {
	for _, re := range fr.regexes {
		names := re.SubexpNames()
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		for i, name := range names {
			if name == "" || i >= len(m) {
				continue
			}
			ev.SetFieldIfAbsent(name, value.NewString(m[i]))
		}
		return
	}
}
