package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/internal/tokens"
	"github.com/labstack/echo/v4"
)

// httpError maps a service error to the response. Anything unrecognised is a
// store failure: the detail is logged and the client gets a generic message.
func httpError(l *slog.Logger, event string, err error) *echo.HTTPError {
	var code int
	var msg string
	switch {
	case errors.Is(err, service.ErrValidation):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDuplicateEmail):
		code, msg = http.StatusForbidden, "credentials taken"
	case errors.Is(err, service.ErrAccessDenied):
		code, msg = http.StatusForbidden, "access denied"
	case errors.Is(err, tokens.ErrInvalidToken):
		code, msg = http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, service.ErrNotFound):
		code, msg = http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrSearchDisabled):
		code, msg = http.StatusNotImplemented, "user search is not configured"
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	l.Warn(event, "status", code, "error", err)
	return echo.NewHTTPError(code, msg)
}
