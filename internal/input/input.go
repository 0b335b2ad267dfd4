// Package input defines the Input contract driven by the pipeline runtime
// (spec §4.8): a supervised task that (re)starts an input with
// exponential backoff and forwards its events to the shared input queue.
package input

import (
	"context"

	"github.com/pingw33n/xerocole/internal/event"
)

// Input produces events until ctx is cancelled or it hits an
// unrecoverable error. Returning nil means clean shutdown (ctx was
// cancelled); returning a non-nil error makes the pipeline's supervisor
// retry Run after a backoff delay (spec §4.8, §7).
type Input interface {
	Run(ctx context.Context, emit func(*event.Event)) error
}
