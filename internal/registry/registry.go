// Package registry is the name->provider lookup table from spec §1/§9.1:
// kind ("input", "filter", "output", "codec") plus name ("file", "grok",
// "stdout", ...) resolves to a Provider that turns a config node into a
// Starter. Packages register themselves as an init()-time side effect,
// the same blank-import pattern the teacher uses for its own pluggable
// drivers in cmd/cc-backend/main.go.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/pingw33n/xerocole/pkg/value"
)

// Kind identifies which registry a name is looked up in.
type Kind string

const (
	Input  Kind = "input"
	Filter Kind = "filter"
	Output Kind = "output"
	Codec  Kind = "codec"
)

// Starter produces a fresh component instance. What "instance" means is
// kind-specific (an input.Input, a filter.Instance, an output.Sink, an
// eventdecoder.Decoder); callers type-assert the returned value against
// the contract they expect for that kind.
type Starter interface {
	Start(ctx context.Context) (any, error)
}

// StarterFunc adapts a plain function to Starter.
type StarterFunc func(ctx context.Context) (any, error)

func (f StarterFunc) Start(ctx context.Context) (any, error) { return f(ctx) }

// Provider builds a Starter from a configuration node (a value.Value of
// Kind Map, or any scalar the provider expects).
type Provider func(cfg value.Value) (Starter, error)

var (
	mu    sync.Mutex
	table = map[Kind]map[string]Provider{}
)

// Register adds a Provider under (kind, name). Panics on duplicate
// registration, since that can only happen from a programming error (two
// packages claiming the same name), never from user input.
func Register(kind Kind, name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()
	if table[kind] == nil {
		table[kind] = make(map[string]Provider)
	}
	if _, exists := table[kind][name]; exists {
		panic(fmt.Sprintf("registry: %s/%s already registered", kind, name))
	}
	table[kind][name] = p
}

// Lookup resolves (kind, name) to a Provider.
func Lookup(kind Kind, name string) (Provider, bool) {
	mu.Lock()
	defer mu.Unlock()
	p, ok := table[kind][name]
	return p, ok
}

// Names lists every registered name for a kind, for error messages and
// `validate-config` diagnostics.
func Names(kind Kind) []string {
	mu.Lock()
	defer mu.Unlock()
	var out []string
	for name := range table[kind] {
		out = append(out, name)
	}
	return out
}
