package runner

import "log/slog"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithCartID adds the configured product to an existing cart.
func WithCartID(id string) Option {
	return func(r *Runner) {
		r.CartID = id
	}
}

// WithInterrupts abandons the open prompt when a signal fires.
func WithInterrupts(i *Interrupts) Option {
	return func(r *Runner) {
		r.Interrupts = i
	}
}
