package runner

import (
	"context"
	"strings"

	"github.com/reliant/configurator/pkg/form"
)

// CommandKind is what the user asked the runner to do.
type CommandKind string

const (
	CommandSubmit CommandKind = "submit"
	CommandBack   CommandKind = "back"
	CommandCancel CommandKind = "cancel"
	CommandRetry  CommandKind = "retry"
	CommandQuit   CommandKind = "quit"
)

// Command is one user action read by an IOHandler.
type Command struct {
	Kind   CommandKind `json:"command"`
	Answer form.Answer `json:"answer"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the view.
	Output(ctx context.Context, view form.View) error

	// Input reads the next command for the page shown by view.
	Input(ctx context.Context, view form.View) (Command, error)

	// Error reports a recoverable problem, such as a rejected answer.
	Error(ctx context.Context, err error) error
}

// ContentRenderer transforms page descriptions before output,
// e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// parseCommand recognizes navigation words. On TEXT pages only the
// colon-prefixed forms count so that "b" can still be typed as an answer.
func parseCommand(line string, variant form.Variant) (CommandKind, bool) {
	word := strings.ToLower(strings.TrimSpace(line))
	if variant == form.VariantText {
		if !strings.HasPrefix(word, ":") {
			return "", false
		}
	}
	switch strings.TrimPrefix(word, ":") {
	case "b", "back":
		return CommandBack, true
	case "q", "cancel":
		return CommandCancel, true
	case "r", "retry":
		return CommandRetry, true
	case "exit", "quit":
		return CommandQuit, true
	}
	return "", false
}
