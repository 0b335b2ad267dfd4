package eventdecoder

import (
	"context"

	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/pkg/value"
)

func init() {
	registry.Register(registry.Codec, "text", textProvider)
	registry.Register(registry.Codec, "lineprotocol", lineProtocolProvider)
}

func textProvider(cfg value.Value) (registry.Starter, error) {
	charset := ""
	if m, ok := cfg.AsMap(); ok {
		if cs, ok := m["charset"]; ok {
			charset, _ = cs.Val.AsString()
		}
	}
	return registry.StarterFunc(func(ctx context.Context) (any, error) {
		return NewText(charset)
	}), nil
}

func lineProtocolProvider(value.Value) (registry.Starter, error) {
	return registry.StarterFunc(func(ctx context.Context) (any, error) {
		return NewLineProtocol(), nil
	}), nil
}
