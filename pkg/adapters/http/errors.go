package http

import (
	"errors"
	"net/http"

	"github.com/reliant/configurator/pkg/adapters/model"
	"github.com/reliant/configurator/pkg/cart"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/runner"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps domain errors to response codes.
func statusFor(err error) int {
	var (
		verr *domain.ValidationError
		lerr *domain.PageLoadError
		ierr *domain.InvariantViolation
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &lerr):
		return http.StatusServiceUnavailable
	case errors.As(err, &ierr), errors.Is(err, domain.ErrTransitionInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrPageNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrQuotationNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, runner.ErrInvalidUTF8), errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, errNoPredictor):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, body)
}
