package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reliant/configurator/pkg/form"
)

var (
	// DefaultMaxInputSize is 4KB per value.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default.
	EnvMaxInputSize = "CONFIGURATOR_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func SanitizeInput(input string) (string, error) {
	limit := getMaxInputSize()
	if len(input) > limit {
		// Rejected rather than truncated so stored answers are exactly what was typed.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeAnswer applies SanitizeInput to every value of an answer.
func SanitizeAnswer(a form.Answer) (form.Answer, error) {
	out := form.Answer{}
	var err error
	if out.SelectionID, err = SanitizeInput(a.SelectionID); err != nil {
		return form.Answer{}, fmt.Errorf("selection: %w", err)
	}
	if a.Numbers != nil {
		out.Numbers = make(map[string]string, len(a.Numbers))
		for id, v := range a.Numbers {
			clean, err := SanitizeInput(v)
			if err != nil {
				return form.Answer{}, fmt.Errorf("number %s: %w", id, err)
			}
			out.Numbers[id] = clean
		}
	}
	if a.Text != nil {
		clean, err := SanitizeInput(*a.Text)
		if err != nil {
			return form.Answer{}, fmt.Errorf("text: %w", err)
		}
		out.Text = &clean
	}
	return out, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
