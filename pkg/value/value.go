// Package value implements the dynamic, tagged configuration value tree
// consumed read-only by the rest of the pipeline: Bool, Int, Float, String,
// List and Map, with optional source Spans for diagnostics.
//
// This mirrors the teacher's own dynamic config trees (e.g.
// ProgramConfig.UiDefaults map[string]interface{}) but formalizes the
// variant so callers can type-switch instead of doing interface{} asserts.
package value

import "fmt"

// Kind tags the variant held by a Value.
type Kind int

const (
	Invalid Kind = iota
	Bool
	Int
	Float
	String
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "invalid"
	}
}

// Span is a byte offset range [Start, End) into the original source text.
// It is used purely for diagnostics; programmatically-constructed Values
// may leave it zero.
type Span struct {
	Start int
	End   int
}

// Spanned pairs a value with an optional source Span.
type Spanned[T any] struct {
	Val  T
	Span Span
	// HasSpan is false for programmatically-constructed values with no
	// meaningful source location.
	HasSpan bool
}

func NoSpan[T any](v T) Spanned[T] {
	return Spanned[T]{Val: v}
}

func WithSpan[T any](v T, sp Span) Spanned[T] {
	return Spanned[T]{Val: v, Span: sp, HasSpan: true}
}

// Value is the tagged dynamic variant. Only the field matching Kind is
// meaningful.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Spanned[Value]
	m    map[string]Spanned[Value]
	keys []string // preserves map insertion/document order for diagnostics
}

func (v Value) Kind() Kind { return v.kind }

func NewBool(b bool) Value       { return Value{kind: Bool, b: b} }
func NewInt(i int64) Value       { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value   { return Value{kind: Float, f: f} }
func NewString(s string) Value   { return Value{kind: String, s: s} }
func NewList(l []Spanned[Value]) Value {
	return Value{kind: List, list: l}
}
func NewMap(m map[string]Spanned[Value], keys []string) Value {
	return Value{kind: Map, m: m, keys: keys}
}

func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == Bool }
func (v Value) AsInt() (int64, bool)     { return v.i, v.kind == Int }
func (v Value) AsFloat() (float64, bool) {
	if v.kind == Int {
		return float64(v.i), true
	}
	return v.f, v.kind == Float
}
func (v Value) AsString() (string, bool) { return v.s, v.kind == String }
func (v Value) AsList() ([]Spanned[Value], bool) {
	return v.list, v.kind == List
}
func (v Value) AsMap() (map[string]Spanned[Value], bool) {
	return v.m, v.kind == Map
}

// Interface unwraps v into a plain Go value (bool/int64/float64/string/
// []any/map[string]any), recursively for List and Map. Used where a
// consumer needs an untyped environment, e.g. compiled predicate
// evaluation; diagnostics and core logic should prefer the typed As*
// accessors instead.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	case List:
		out := make([]any, len(v.list))
		for i, sv := range v.list {
			out[i] = sv.Val.Interface()
		}
		return out
	case Map:
		out := make(map[string]any, len(v.m))
		for k, sv := range v.m {
			out[k] = sv.Val.Interface()
		}
		return out
	default:
		return nil
	}
}

// Keys returns the map's keys in document order. Empty for non-maps.
func (v Value) Keys() []string { return v.keys }

// Get looks up a key in a Map value. ok is false if v is not a Map or the
// key is absent.
func (v Value) Get(key string) (Spanned[Value], bool) {
	if v.kind != Map {
		return Spanned[Value]{}, false
	}
	sv, ok := v.m[key]
	return sv, ok
}

// GoString renders the value for debug/error formatting.
func (v Value) GoString() string {
	switch v.kind {
	case Bool:
		return fmt.Sprintf("%v", v.b)
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return fmt.Sprintf("%g", v.f)
	case String:
		return fmt.Sprintf("%q", v.s)
	case List:
		return fmt.Sprintf("list[%d]", len(v.list))
	case Map:
		return fmt.Sprintf("map[%d]", len(v.m))
	default:
		return "<invalid>"
	}
}
