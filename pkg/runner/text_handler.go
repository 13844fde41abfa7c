package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/form"
	"golang.org/x/term"
)

// TextHandler implements the line-based terminal interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// Interactive enables prompts. It defaults to whether the input is a terminal.
	Interactive bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithInteractive forces prompts on or off.
func WithInteractive(on bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Interactive = on
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:      bufio.NewReader(r),
		Writer:      w,
		Interactive: isTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// initPump reads lines in the background so Input can honour context cancellation.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go func() {
			for {
				text, err := h.Reader.ReadString('\n')
				if err != nil && (err != io.EOF || text == "") {
					h.inputChan <- inputResult{err: err}
					return
				}
				h.inputChan <- inputResult{text: strings.TrimRight(text, "\r\n")}
			}
		}()
	})
}

func (h *TextHandler) readLine(ctx context.Context, prompt string) (string, error) {
	h.initPump()
	if h.Interactive {
		fmt.Fprint(h.Writer, prompt)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-h.inputChan:
		return res.text, res.err
	}
}

func (h *TextHandler) Output(ctx context.Context, view form.View) error {
	switch view.Status {
	case domain.StatusCompleted:
		return h.outputResult(view.Result)
	case domain.StatusIdle:
		fmt.Fprintln(h.Writer, "Configuration cancelled.")
		return nil
	}

	fmt.Fprintf(h.Writer, "\n[%s] %s\n", view.ProgressText, view.Title)
	if view.Description != "" {
		desc := view.Description
		if h.Renderer != nil {
			if rendered, err := h.Renderer(desc); err == nil {
				desc = rendered
			}
		}
		fmt.Fprintln(h.Writer, strings.TrimSpace(desc))
	}

	for i, opt := range view.Options {
		line := fmt.Sprintf("  %d) %s", i+1, opt.Title)
		if opt.Desc != "" {
			line += " - " + opt.Desc
		}
		fmt.Fprintln(h.Writer, line)
	}

	if h.Interactive {
		hints := []string{"q cancel", "r retry"}
		if view.CanGoBack {
			hints = append([]string{"b back"}, hints...)
		}
		if view.Variant == form.VariantText {
			for i := range hints {
				hints[i] = ":" + hints[i]
			}
		}
		fmt.Fprintf(h.Writer, "(%s)\n", strings.Join(hints, ", "))
	}
	return nil
}

func (h *TextHandler) outputResult(result *domain.ConfiguredProduct) error {
	if result == nil {
		return nil
	}
	fmt.Fprintf(h.Writer, "\nConfigured %s:\n", result.Product.Name)
	for _, step := range result.UserSelections {
		fmt.Fprintf(h.Writer, "  %s: %s\n", step.PageTitle, describeInput(step))
	}
	return nil
}

// describeInput renders an answer the way it was given.
func describeInput(step domain.Step) string {
	in := step.UserInput
	switch {
	case in.Selection != nil:
		return in.Selection.Title
	case in.Text != nil:
		return in.Text.TextValue
	case len(in.Numbers) > 0:
		parts := make([]string, 0, len(in.Numbers))
		for _, id := range sortedKeys(in.Numbers) {
			n := in.Numbers[id]
			parts = append(parts, fmt.Sprintf("%s %s", n.Title, strconv.FormatFloat(n.Value, 'f', -1, 64)))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func (h *TextHandler) Input(ctx context.Context, view form.View) (Command, error) {
	switch view.Variant {
	case form.VariantSelection:
		line, err := h.readLine(ctx, "> ")
		if err != nil {
			return Command{}, err
		}
		if kind, ok := parseCommand(line, view.Variant); ok {
			return Command{Kind: kind}, nil
		}
		return Command{Kind: CommandSubmit, Answer: form.Answer{SelectionID: selectionID(view, line)}}, nil

	case form.VariantNumber:
		numbers := make(map[string]string, len(view.Fields))
		for _, f := range view.Fields {
			line, err := h.readLine(ctx, fmt.Sprintf("%s [%s]: ", f.Title, f.Hint))
			if err != nil {
				return Command{}, err
			}
			if kind, ok := parseCommand(line, view.Variant); ok {
				return Command{Kind: kind}, nil
			}
			numbers[f.ID] = strings.TrimSpace(line)
		}
		return Command{Kind: CommandSubmit, Answer: form.Answer{Numbers: numbers}}, nil

	case form.VariantText:
		line, err := h.readLine(ctx, "> ")
		if err != nil {
			return Command{}, err
		}
		if kind, ok := parseCommand(line, view.Variant); ok {
			return Command{Kind: kind}, nil
		}
		return Command{Kind: CommandSubmit, Answer: form.Answer{Text: &line}}, nil
	}

	// No page is displayed; only navigation makes sense.
	line, err := h.readLine(ctx, "> ")
	if err != nil {
		return Command{}, err
	}
	if kind, ok := parseCommand(line, view.Variant); ok {
		return Command{Kind: kind}, nil
	}
	return Command{Kind: CommandRetry}, nil
}

func (h *TextHandler) Error(ctx context.Context, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for _, field := range sortedKeys(verr.Fields) {
			fmt.Fprintf(h.Writer, "! %s: %s\n", field, verr.Fields[field])
		}
		return nil
	}
	fmt.Fprintf(h.Writer, "! %v\n", err)
	return nil
}

// selectionID accepts either the 1-based option number or the option id.
func selectionID(view form.View, line string) string {
	line = strings.TrimSpace(line)
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(view.Options) {
		return view.Options[n-1].ID
	}
	return line
}
