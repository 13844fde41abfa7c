package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
)

// Validation messages shown next to the offending input.
const (
	MsgRequired      = "This field is required"
	MsgInvalidNumber = "Please enter a valid number"
	MsgNoDecimals    = "Decimal values are not allowed"
	MsgPositive      = "Value must be greater than 0"
	MsgSelection     = "Please choose one of the options"
)

// Answer is the raw input for one page as typed or clicked by the user.
type Answer struct {
	SelectionID string            `json:"selection_id,omitempty"`
	Numbers     map[string]string `json:"numbers,omitempty"`
	Text        *string           `json:"text,omitempty"`
}

// Resolve validates the answer against the page and converts it into engine input.
// It returns a *domain.ValidationError describing every invalid field.
func Resolve(page *domain.Page, a Answer) (domain.UserInput, error) {
	switch page.Type {
	case domain.PageTypeSelection:
		sel, ok := page.Selection(a.SelectionID)
		if !ok {
			return domain.UserInput{}, &domain.ValidationError{
				PageID: page.ID,
				Fields: map[string]string{page.ID: MsgSelection},
			}
		}
		return domain.UserInput{Selection: &sel}, nil

	case domain.PageTypeNumber:
		return resolveNumbers(page, a.Numbers)

	case domain.PageTypeText:
		var text string
		if a.Text != nil {
			text = strings.TrimSpace(*a.Text)
		}
		return domain.UserInput{Text: &domain.TextValue{TextValue: text}}, nil
	}

	return domain.UserInput{}, fmt.Errorf("page %s has unknown type %q", page.ID, page.Type)
}

func resolveNumbers(page *domain.Page, raw map[string]string) (domain.UserInput, error) {
	fields := make(map[string]string)
	numbers := make(map[string]domain.NumberValue)

	for _, in := range page.NumberInputs {
		value, msg, ok := checkNumber(in, raw[in.ID])
		if msg != "" {
			fields[in.ID] = msg
			continue
		}
		if ok {
			numbers[in.ID] = domain.NumberValue{Title: in.Title, Value: value}
		}
	}

	if len(fields) > 0 {
		return domain.UserInput{}, &domain.ValidationError{PageID: page.ID, Fields: fields}
	}
	return domain.UserInput{Numbers: numbers}, nil
}

// checkNumber validates one input. ok is false when an optional input was left empty.
func checkNumber(in domain.NumberInput, raw string) (value float64, msg string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if in.Required {
			return 0, MsgRequired, false
		}
		return 0, "", false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, MsgInvalidNumber, false
	}

	if in.Unbounded() {
		if v <= 0 {
			return 0, MsgPositive, false
		}
	} else {
		if v < in.Minimum {
			return 0, "Value must be at least " + formatNumber(in.Minimum), false
		}
		if v > in.Maximum {
			return 0, "Value must be at most " + formatNumber(in.Maximum), false
		}
	}

	if !in.Decimals && v != math.Trunc(v) {
		return 0, MsgNoDecimals, false
	}
	return v, "", true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
