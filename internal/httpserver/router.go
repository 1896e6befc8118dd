package httpserver

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	Gate        *auth.Gate
	// Ready reports whether the store is reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

type route struct {
	method  string
	path    string
	access  auth.Access
	handler echo.HandlerFunc
}

// routes is the single place where a route gets its class. An entry that
// omits access gets the zero value, AccessProtected.
func routes(d *Deps) []route {
	return []route{
		{method: http.MethodGet, path: "/health/live", access: auth.Public, handler: live},
		{method: http.MethodGet, path: "/health/ready", access: auth.Public, handler: ready(d.Ready)},

		{method: http.MethodPost, path: "/auth/signup", access: auth.Public, handler: d.AuthHandler.SignUp},
		{method: http.MethodPost, path: "/auth/signin", access: auth.Public, handler: d.AuthHandler.SignIn},
		{method: http.MethodPost, path: "/auth/logout", access: auth.AccessProtected, handler: d.AuthHandler.LogOut},
		{method: http.MethodPost, path: "/auth/refresh", access: auth.RefreshProtected, handler: d.AuthHandler.Refresh},

		{method: http.MethodGet, path: "/users", access: auth.AccessProtected, handler: d.UserHandler.List},
		{method: http.MethodGet, path: "/users/me", access: auth.AccessProtected, handler: d.UserHandler.Me},
		{method: http.MethodGet, path: "/users/search", access: auth.AccessProtected, handler: d.UserHandler.Search},
		{method: http.MethodGet, path: "/users/:id", access: auth.AccessProtected, handler: d.UserHandler.Get},
		{method: http.MethodPatch, path: "/users/:id", access: auth.AccessProtected, handler: d.UserHandler.Update},
		{method: http.MethodDelete, path: "/users/:id", access: auth.AccessProtected, handler: d.UserHandler.Delete},
	}
}

func Register(e *echo.Echo, d *Deps) {
	for _, r := range routes(d) {
		e.Add(r.method, r.path, r.handler, d.Gate.For(r.access))
	}
}

func live(c echo.Context) error { return c.NoContent(http.StatusOK) }

func ready(check func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx := c.Request().Context()
		if err := check(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}
