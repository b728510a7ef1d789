package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/finassist/qa-engine/internal/core/domain"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errMissingQueryParam(name string) error {
	return fmt.Errorf("missing query parameter %q", name)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	statusCode, code := mapError(err)

	if statusCode >= 500 {
		logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}

	message := err.Error()
	if statusCode >= 500 {
		// Internal detail stays in the log.
		message = "internal error"
	}
	writeJSON(w, statusCode, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func mapError(err error) (statusCode int, code string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota_exceeded"
	case errors.Is(err, domain.ErrOffline):
		return http.StatusServiceUnavailable, "offline"
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
