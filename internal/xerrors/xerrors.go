// Package xerrors implements the chained error object described in spec §7:
// a kind tag, optional structured details (a message plus a source Span),
// an optional cause, a lazily-rendered call-site backtrace, and a stack of
// human context strings pushed as the error propagates up the call stack.
package xerrors

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pingw33n/xerocole/pkg/value"
)

// Kind classifies an Error without being a distinct Go type, so callers can
// still use a single xerrors.Error type with errors.As.
type Kind int

const (
	Unknown Kind = iota
	Io
	Parse
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Parse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is the chained error object. Construct with New/Wrap and refine
// with Context/WithSpan.
type Error struct {
	kind    Kind
	msg     string
	span    value.Span
	hasSpan bool
	cause   error
	frames  []uintptr
	context []string
}

// New creates a root Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg, frames: callers()}
}

// Wrap creates an Error of the given kind chaining cause as its underlying
// error. If cause is already an *Error its backtrace is preserved via
// Unwrap(); Wrap always captures its own call site too.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{kind: kind, msg: msg, cause: cause, frames: callers()}
}

func callers() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// Context pushes a human-readable context string onto the error as it
// propagates, innermost-first. Returns the receiver for chaining.
func (e *Error) Context(format string, args ...interface{}) *Error {
	e.context = append(e.context, fmt.Sprintf(format, args...))
	return e
}

// WithSpan attaches a source Span to the error's details.
func (e *Error) WithSpan(sp value.Span) *Error {
	e.span = sp
	e.hasSpan = true
	return e
}

func (e *Error) Kind() Kind { return e.kind }

// Span returns the attached Span and whether one was set.
func (e *Error) Span() (value.Span, bool) { return e.span, e.hasSpan }

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.msg)
	if e.hasSpan {
		fmt.Fprintf(&b, " [%d..%d]", e.span.Start, e.span.End)
	}
	for i := len(e.context) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, ": %s", e.context[i])
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %s", e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Format implements fmt.Formatter: "%v"/"%s" render Error(), "%+v" appends
// the call-site backtrace of this frame and every wrapped *Error below it.
func (e *Error) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			fmt.Fprint(f, e.Error())
			for c := error(e); c != nil; {
				if ce, ok := c.(*Error); ok {
					ce.writeBacktrace(f)
				}
				u, ok := c.(interface{ Unwrap() error })
				if !ok {
					break
				}
				c = u.Unwrap()
			}
			return
		}
		fmt.Fprint(f, e.Error())
	case 's':
		fmt.Fprint(f, e.Error())
	default:
		fmt.Fprint(f, e.Error())
	}
}

func (e *Error) writeBacktrace(f fmt.State) {
	if len(e.frames) == 0 {
		return
	}
	fmt.Fprint(f, "\n--- backtrace ---\n")
	frames := runtime.CallersFrames(e.frames)
	for {
		fr, more := frames.Next()
		fmt.Fprintf(f, "\t%s\n\t\t%s:%d\n", fr.Function, fr.File, fr.Line)
		if !more {
			break
		}
	}
}

// Is reports whether target is an *Error with the same Kind and message, so
// a package-level *Error can serve as a sentinel for errors.Is. Use KindOf
// to classify an error by Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind && e.msg == t.msg
}

// KindOf walks err's Unwrap chain and returns the Kind of the first
// *Error found, or Unknown if none is.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Unknown
}
