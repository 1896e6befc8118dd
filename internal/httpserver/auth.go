package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/middleware/auth"
	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/internal/transport"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.SignUpRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return httpError(l, "signup_error", err)
	}

	user, err := h.Svc.SignUp(ctx, req.Input())
	if err != nil {
		return httpError(l, "signup_error", err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req transport.SignInRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return httpError(l, "signin_error", err)
	}

	pair, err := h.Svc.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(l, "signin_failed", err)
	}

	return c.JSON(http.StatusOK, transport.TokenPairResponse(pair))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	if err := h.Svc.LogOut(ctx, id.UserID); err != nil {
		return httpError(l, "logout_failed", err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	pair, err := h.Svc.RefreshTokens(ctx, id.UserID, id.Token)
	if err != nil {
		return httpError(l, "refresh_failed", err)
	}

	return c.JSON(http.StatusOK, transport.TokenPairResponse(pair))
}
