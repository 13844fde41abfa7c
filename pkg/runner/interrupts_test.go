package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeInterrupts builds an Interrupts fired by calling the returned func.
func fakeInterrupts(grace time.Duration) (*Interrupts, context.CancelFunc) {
	ctx, fire := context.WithCancel(context.Background())
	return &Interrupts{ctx: ctx, stop: fire, grace: grace}, fire
}

func TestInterrupts_BindCancelsOnSignal(t *testing.T) {
	i, fire := fakeInterrupts(time.Millisecond)

	bound, done := i.Bind(context.Background())
	defer done()
	assert.NoError(t, bound.Err())
	assert.False(t, i.Fired())

	fire()
	<-bound.Done()
	assert.True(t, i.Fired())
	assert.True(t, i.Explains(context.Background()))
}

func TestInterrupts_ExplainsWaitsForLateSignal(t *testing.T) {
	i, fire := fakeInterrupts(time.Second)
	time.AfterFunc(10*time.Millisecond, fire)
	assert.True(t, i.Explains(context.Background()))
}

func TestInterrupts_ParentCancellationIsNotAnInterrupt(t *testing.T) {
	i, _ := fakeInterrupts(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, i.Explains(ctx), "no signal fired")

	i, fire := fakeInterrupts(time.Millisecond)
	fire()
	assert.False(t, i.Explains(ctx), "the caller's context ended first")
}

func TestInterrupts_Stop(t *testing.T) {
	i := NewInterrupts()
	assert.False(t, i.Fired())
	i.Stop()
	assert.False(t, i.Fired(), "stopping is not a signal")

	fired, fire := fakeInterrupts(time.Millisecond)
	fire()
	fired.Stop()
	assert.True(t, fired.Fired(), "a fired signal is kept")
}
