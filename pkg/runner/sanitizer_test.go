package runner

import (
	"strings"
	"testing"

	"github.com/reliant/configurator/pkg/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := 4096

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Oak veneer", "Oak veneer"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "12\x0000", "1200"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput("12345678901")
	assert.Error(t, err)

	_, err = SanitizeInput("12345")
	assert.NoError(t, err)
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizeAnswer(t *testing.T) {
	text := "left\x1b hinge"
	got, err := SanitizeAnswer(form.Answer{
		SelectionID: "oak\x00",
		Numbers:     map[string]string{"width": "1200\x07"},
		Text:        &text,
	})
	require.NoError(t, err)
	assert.Equal(t, "oak", got.SelectionID)
	assert.Equal(t, "1200", got.Numbers["width"])
	require.NotNil(t, got.Text)
	assert.Equal(t, "left hinge", *got.Text)
	assert.Equal(t, "left\x1b hinge", text, "input must not be modified")

	_, err = SanitizeAnswer(form.Answer{Numbers: map[string]string{"w": "\xff"}})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
