package api

import (
	"errors"
	"net/http"

	"jobboard/internal/domain"
	"jobboard/internal/middleware"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes and the
// typed error's own message. Text added by wrapping is never returned.
func httpStatusFromDomainError(err error) (int, string) {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Message
	case errors.As(err, &accessDenied):
		return http.StatusForbidden, accessDenied.Message
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Message
	default:
		return http.StatusInternalServerError, middleware.MsgInternal
	}
}

// writeError writes err as {"error": message}. Tagged core errors use the
// gate message table. Typed 4xx errors expose their own message. Anything
// else is logged and answered with the generic internal message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.KindOf(err) != domain.KindUnknown {
		status, msg := middleware.StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "kind", domain.KindOf(err).String(), "error", err)
		}
		middleware.WriteError(w, status, msg)
		return
	}

	status, msg := httpStatusFromDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	middleware.WriteError(w, status, msg)
}
