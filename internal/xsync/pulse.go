package xsync

// Pulse is an edge-triggered, coalescing notification: Send sets a flag;
// the single reader's channel receives at most one pending wakeup no matter
// how many times Send is called before it's consumed. Used to coalesce
// "do more work soon" notifications (file discovery, self-requeue) without
// the producer blocking on a slow consumer and without notifications
// piling up.
type Pulse struct {
	ch chan struct{}
}

// NewPulse returns a ready-to-use Pulse.
func NewPulse() *Pulse {
	return &Pulse{ch: make(chan struct{}, 1)}
}

// Send signals the pulse. Idempotent while a pulse is already pending: the
// channel send is non-blocking and silently dropped if the buffer is full.
func (p *Pulse) Send() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

// C returns the channel to select/receive on. A receive clears the pending
// flag; the next Send will deliver again.
func (p *Pulse) C() <-chan struct{} { return p.ch }
