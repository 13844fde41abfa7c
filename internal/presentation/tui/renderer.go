// Package tui styles terminal output with glamour and termenv.
package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders page descriptions as markdown.
// It falls back to the plain text if no renderer can be built.
func NewRenderer(width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
