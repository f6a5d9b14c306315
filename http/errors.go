package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/lfsgate"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lfsgate.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, lfsgate.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lfsgate.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, lfsgate.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, lfsgate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lfsgate.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, lfsgate.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Debug("request rejected", "status", status, "error", err)
	}

	if lock, ok := lfsgate.IsLockConflict(err); ok {
		writeErrorResponse(w, status, ErrorResponse{
			Code:    status,
			Message: "already created lock",
			Lock:    &lock,
		})
		return
	}

	switch status {
	case http.StatusInternalServerError:
		WriteError(w, status, "Internal server error")
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", `Basic realm="lfsgate", charset="UTF-8"`)
		WriteError(w, status, "Credentials needed")
	default:
		WriteError(w, status, err.Error())
	}
}
