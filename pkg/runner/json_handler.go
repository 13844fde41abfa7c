package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/form"
)

// JSONHandler implements IOHandler over JSON Lines: one view per output line,
// one Command per input line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view form.View) error {
	return h.Encoder.Encode(map[string]any{"type": "view", "view": view})
}

// Input reads the next non-empty line. A line without a command is a submit.
func (h *JSONHandler) Input(ctx context.Context, view form.View) (Command, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Command{}, err
		}
		line, err := h.Reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return Command{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var cmd Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			return Command{}, fmt.Errorf("invalid command: %w", err)
		}
		if cmd.Kind == "" {
			cmd.Kind = CommandSubmit
		}
		return cmd, nil
	}
}

func (h *JSONHandler) Error(ctx context.Context, err error) error {
	payload := map[string]any{"type": "error", "error": err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		payload["fields"] = verr.Fields
	}
	return h.Encoder.Encode(payload)
}
