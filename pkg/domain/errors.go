package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrPageNotFound is returned by page stores when the id is unknown or expired.
var ErrPageNotFound = errors.New("page not found")

// ErrProductNotFound is returned by catalogs when the product id is unknown.
var ErrProductNotFound = errors.New("product not found")

// ErrCartNotFound is returned when a cart ID cannot be found in the store.
var ErrCartNotFound = errors.New("cart not found")

// ErrQuotationNotFound is returned when a quotation ID cannot be found in the store.
var ErrQuotationNotFound = errors.New("quotation not found")

// ErrTransitionInFlight is returned when a transition is requested for a session
// that is still processing a previous one.
var ErrTransitionInFlight = errors.New("transition already in flight")

// PageLoadError reports a failed page fetch. It is retryable; the flow it was
// raised for is left unchanged.
type PageLoadError struct {
	PageID string
	Err    error
}

func (e *PageLoadError) Error() string {
	return fmt.Sprintf("failed to load page %s: %v", e.PageID, e.Err)
}

func (e *PageLoadError) Unwrap() error {
	return e.Err
}

// ValidationError reports invalid answers, keyed by input id (or page id).
type ValidationError struct {
	PageID string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("invalid answer for page %s (%s)", e.PageID, strings.Join(parts, "; "))
}

// InvariantViolation reports a programmer error, such as going back when
// there is nowhere to go or submitting to a finished flow.
type InvariantViolation struct {
	Op     string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Reason)
}

// IsRetryable reports whether err is a page load failure the caller may retry.
func IsRetryable(err error) bool {
	var ple *PageLoadError
	return errors.As(err, &ple)
}
