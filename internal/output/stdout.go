package output

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Stdout is the "stdout" output (spec §6.4): one encoded event per line
// on standard output.
type Stdout struct {
	w   *bufio.Writer
	enc Encoder
}

func NewStdout(w io.Writer, enc Encoder) *Stdout {
	return &Stdout{w: bufio.NewWriter(w), enc: enc}
}

func (s *Stdout) Write(ev *event.Event) error {
	if _, err := s.w.Write(s.enc.Encode(ev)); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *Stdout) Close() error { return s.w.Flush() }

func init() {
	registry.Register(registry.Output, "stdout", func(cfg value.Value) (registry.Starter, error) {
		return registry.StarterFunc(func(ctx context.Context) (any, error) {
			return NewStdout(os.Stdout, NewDebugEncoder()), nil
		}), nil
	})
}
