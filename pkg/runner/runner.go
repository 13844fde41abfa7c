package runner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/form"
)

var (
	// ErrCancelled is returned when the user cancels the configuration.
	ErrCancelled = errors.New("configuration cancelled")
	// ErrInterrupted is returned when the run is stopped by a signal.
	ErrInterrupted = errors.New("interrupted")
)

// Configurator is the part of the application the runner drives.
type Configurator interface {
	Start(ctx context.Context, cartID, productID string) (form.View, error)
	Submit(ctx context.Context, sessionID string, answer form.Answer) (form.View, error)
	Previous(ctx context.Context, sessionID string) (form.View, error)
	Reload(ctx context.Context, sessionID string) (form.View, error)
	Cancel(ctx context.Context, sessionID string) (form.View, error)
}

// Runner drives one configuration from the first page to completion using an IOHandler.
type Runner struct {
	Handler IOHandler
	Logger  *slog.Logger

	// CartID receives the configured product. Empty starts a new cart.
	CartID string

	// Interrupts, when set, abandons the open prompt on SIGINT/SIGTERM.
	Interrupts *Interrupts
}

// NewRunner creates a runner with the given options.
// Without WithInputHandler it uses a TextHandler on stdin/stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run configures productID. It returns the configured product on completion,
// ErrCancelled if the user cancels, or io.EOF if input ends first.
func (r *Runner) Run(ctx context.Context, app Configurator, productID string) (*domain.ConfiguredProduct, error) {
	view, err := app.Start(ctx, r.CartID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to start configuration: %w", err)
	}
	sessionID := view.SessionID
	r.Logger.Debug("runner started", "session_id", sessionID, "product_id", productID)

	for {
		if err := r.Handler.Output(ctx, view); err != nil {
			return nil, fmt.Errorf("output error: %w", err)
		}
		switch view.Status {
		case domain.StatusCompleted:
			return view.Result, nil
		case domain.StatusIdle:
			return nil, ErrCancelled
		}

		inputCtx, done := r.inputContext(ctx)
		cmd, err := r.Handler.Input(inputCtx, view)
		done()
		if err != nil {
			if r.interrupted(ctx) {
				return r.abandon(ctx, app, sessionID, ErrInterrupted)
			}
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("input error: %w", err)
		}
		if cmd.Kind == CommandQuit {
			return nil, io.EOF
		}

		next, err := r.apply(ctx, app, sessionID, cmd)
		if err != nil {
			if !recoverable(err) {
				return nil, err
			}
			r.Logger.Debug("command rejected", "session_id", sessionID, "command", cmd.Kind, "err", err)
			if herr := r.Handler.Error(ctx, err); herr != nil {
				return nil, herr
			}
			continue
		}
		view = next
	}
}

func (r *Runner) apply(ctx context.Context, app Configurator, sessionID string, cmd Command) (form.View, error) {
	switch cmd.Kind {
	case CommandSubmit:
		answer, err := SanitizeAnswer(cmd.Answer)
		if err != nil {
			return form.View{}, &domain.ValidationError{Fields: map[string]string{"input": err.Error()}}
		}
		return app.Submit(ctx, sessionID, answer)
	case CommandBack:
		return app.Previous(ctx, sessionID)
	case CommandRetry:
		return app.Reload(ctx, sessionID)
	case CommandCancel:
		return app.Cancel(ctx, sessionID)
	}
	return form.View{}, &domain.InvariantViolation{Op: string(cmd.Kind), Reason: "unknown command"}
}

// inputContext is cancelled by ctx or by a signal, whichever comes first.
func (r *Runner) inputContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Interrupts == nil {
		return ctx, func() {}
	}
	return r.Interrupts.Bind(ctx)
}

func (r *Runner) interrupted(ctx context.Context) bool {
	return r.Interrupts != nil && r.Interrupts.Explains(ctx)
}

func (r *Runner) abandon(ctx context.Context, app Configurator, sessionID string, cause error) (*domain.ConfiguredProduct, error) {
	if _, err := app.Cancel(context.WithoutCancel(ctx), sessionID); err != nil {
		r.Logger.Warn("failed to cancel interrupted session", "session_id", sessionID, "err", err)
	}
	return nil, cause
}

// recoverable reports whether the user can carry on after err.
func recoverable(err error) bool {
	var verr *domain.ValidationError
	var perr *domain.PageLoadError
	var ierr *domain.InvariantViolation
	return errors.As(err, &verr) || errors.As(err, &perr) || errors.As(err, &ierr) ||
		errors.Is(err, domain.ErrTransitionInFlight)
}

func sortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
