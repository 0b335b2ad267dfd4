package output

import (
	"context"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Null discards every event (spec §6.4); used as a sink for load testing.
type Null struct{}

func NewNull() *Null { return &Null{} }

func (*Null) Write(*event.Event) error { return nil }
func (*Null) Close() error             { return nil }

func init() {
	registry.Register(registry.Output, "null", func(cfg value.Value) (registry.Starter, error) {
		return registry.StarterFunc(func(ctx context.Context) (any, error) {
			return NewNull(), nil
		}), nil
	})
}
