package runner

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// DefaultInterruptGrace is how long an input error waits for a trailing signal.
// Some terminals deliver EOF on Ctrl+C slightly before the signal itself.
const DefaultInterruptGrace = 100 * time.Millisecond

// Interrupts tracks whether the user asked to stop while a prompt was open.
// Once fired it stays fired.
type Interrupts struct {
	ctx   context.Context
	stop  context.CancelFunc
	grace time.Duration
	quiet atomic.Bool // stopped before any signal
}

// NewInterrupts listens for sigs, or SIGINT and SIGTERM when none are given.
// Call Stop to restore default signal handling.
func NewInterrupts(sigs ...os.Signal) *Interrupts {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(context.Background(), sigs...)
	return &Interrupts{ctx: ctx, stop: stop, grace: DefaultInterruptGrace}
}

// Fired reports whether a signal arrived.
func (i *Interrupts) Fired() bool {
	return i.ctx.Err() != nil && !i.quiet.Load()
}

// Bind returns a context cancelled by ctx or by a signal, whichever comes first.
func (i *Interrupts) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(ctx)
	unbind := context.AfterFunc(i.ctx, cancel)
	return bound, func() {
		unbind()
		cancel()
	}
}

// Explains reports whether a failed read on ctx was caused by a signal rather
// than by ctx itself. It gives a late signal the grace period to arrive.
func (i *Interrupts) Explains(ctx context.Context) bool {
	if !i.Fired() {
		select {
		case <-i.ctx.Done():
		case <-time.After(i.grace):
		}
	}
	return i.Fired() && ctx.Err() == nil
}

// Stop stops listening. A fired Interrupts stays fired.
func (i *Interrupts) Stop() {
	if !i.Fired() {
		i.quiet.Store(true)
	}
	i.stop()
}
