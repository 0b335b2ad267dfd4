package graph

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/xerrors"
)

// Predicate evaluates a Switch branch against an event (spec §4.7). An
// error aborts evaluation of the remaining branches for this Switch (the
// spec's documented short-circuit-on-error behavior); the caller logs it.
type Predicate func(ev *event.Event) (bool, error)

// CompilePredicate compiles a branch expression, grounded the same way
// the teacher compiles job-classification rules: `expr.Compile(src,
// expr.AsBool())` then `expr.Run` against a plain map environment built
// from the event's fields and tags.
func CompilePredicate(src string) (Predicate, error) {
	program, err := expr.Compile(src, expr.AsBool())
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Parse, err, "compile predicate "+src)
	}
	return func(ev *event.Event) (bool, error) {
		return runPredicate(program, ev)
	}, nil
}

func runPredicate(program *vm.Program, ev *event.Event) (bool, error) {
	out, err := expr.Run(program, predicateEnv(ev))
	if err != nil {
		return false, xerrors.Wrap(xerrors.Unknown, err, "evaluate predicate")
	}
	b, _ := out.(bool)
	return b, nil
}

// predicateEnv exposes an event as two top-level maps, "fields" and
// "tags", so branch expressions read e.g. `fields.controller == "a"`.
func predicateEnv(ev *event.Event) map[string]any {
	fields := make(map[string]any, len(ev.Fields()))
	for k, v := range ev.Fields() {
		fields[k] = v.Interface()
	}
	tags := make(map[string]any, len(ev.Tags()))
	for k, v := range ev.Tags() {
		tags[k] = v.Interface()
	}
	return map[string]any{"fields": fields, "tags": tags}
}
