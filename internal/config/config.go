// Package config parses a pipeline configuration document (spec §6) from
// YAML into the dynamic value.Value tree, validates its top-level shape,
// and builds a runnable pipeline.Pipeline from it via internal/registry.
package config

import (
	"fmt"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Parse reads a YAML document into a value.Value tree, every node
// carrying the byte-offset Span of its source token (spec §9: "Spans are
// attached at parse time"). Only the first document in the file is used.
func Parse(data []byte) (value.Value, error) {
	f, err := parser.ParseBytes(data, 0)
	if err != nil {
		return value.Value{}, xerrors.Wrap(xerrors.Parse, err, "parse config YAML")
	}
	if len(f.Docs) == 0 || f.Docs[0].Body == nil {
		return value.NewMap(nil, nil), nil
	}
	return nodeToValue(f.Docs[0].Body)
}

func nodeToValue(n ast.Node) (value.Value, error) {
	switch tn := n.(type) {
	case *ast.MappingNode:
		m := make(map[string]value.Spanned[value.Value], len(tn.Values))
		keys := make([]string, 0, len(tn.Values))
		for _, mv := range tn.Values {
			v, err := nodeToValue(mv)
			if err != nil {
				return value.Value{}, err
			}
			key := mappingKeyString(mv.Key)
			m[key] = value.WithSpan(v, spanOf(mv.Value))
			keys = append(keys, key)
		}
		return value.NewMap(m, keys), nil
	case *ast.MappingValueNode:
		return nodeToValue(tn.Value)
	case *ast.SequenceNode:
		list := make([]value.Spanned[value.Value], 0, len(tn.Values))
		for _, e := range tn.Values {
			v, err := nodeToValue(e)
			if err != nil {
				return value.Value{}, err
			}
			list = append(list, value.WithSpan(v, spanOf(e)))
		}
		return value.NewList(list), nil
	case *ast.StringNode:
		return value.NewString(tn.Value), nil
	case *ast.IntegerNode:
		switch i := tn.Value.(type) {
		case int64:
			return value.NewInt(i), nil
		case uint64:
			return value.NewInt(int64(i)), nil
		default:
			return value.NewInt(0), nil
		}
	case *ast.FloatNode:
		return value.NewFloat(tn.Value), nil
	case *ast.BoolNode:
		return value.NewBool(tn.Value), nil
	case *ast.NullNode:
		return value.Value{}, nil
	default:
		return value.NewString(n.String()), nil
	}
}

// mappingKeyString unwraps a mapping key node to its plain string form;
// YAML keys are always scalar in this document shape.
func mappingKeyString(n ast.MapKeyNode) string {
	if s, ok := n.(*ast.StringNode); ok {
		return s.Value
	}
	return n.String()
}

// spanOf approximates a node's source Span from its leading token's byte
// offset and rendered length; good enough for pointing a diagnostic at
// the right line, not meant to be byte-exact for multi-line scalars.
func spanOf(n ast.Node) value.Span {
	tok := n.GetToken()
	if tok == nil || tok.Position == nil {
		return value.Span{}
	}
	start := tok.Position.Offset
	return value.Span{Start: start, End: start + len(tok.Value)}
}

// ValidateSchema checks v's top-level shape against the embedded
// document schema before any provider is constructed from it (spec §9).
func ValidateSchema(v value.Value) error {
	s, err := jsonschema.CompileString("config.schema.json", docSchema)
	if err != nil {
		return xerrors.Wrap(xerrors.Unknown, err, "compile config schema")
	}
	if err := s.Validate(v.Interface()); err != nil {
		return xerrors.Wrap(xerrors.Parse, err, "config document failed schema validation")
	}
	return nil
}

// Load parses, schema-validates and returns the config tree in one call,
// the shape both `xerocole run` and `xerocole validate-config` share.
func Load(data []byte) (value.Value, error) {
	v, err := Parse(data)
	if err != nil {
		return value.Value{}, err
	}
	if err := ValidateSchema(v); err != nil {
		return value.Value{}, err
	}
	return v, nil
}

func requireMap(v value.Value, what string) (map[string]value.Spanned[value.Value], []string, error) {
	m, ok := v.AsMap()
	if !ok {
		return nil, nil, xerrors.New(xerrors.Parse, fmt.Sprintf("%s must be a map", what))
	}
	return m, v.Keys(), nil
}
