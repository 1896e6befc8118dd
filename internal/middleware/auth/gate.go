// Package auth is the authentication gate in front of every route. It checks
// token type, signature and expiry only; whether a refresh token is still the
// current one is decided by the session service.
package auth

import (
	"net/http"
	"strings"

	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/tokens"
	"github.com/labstack/echo/v4"
)

// Access classifies a route. The zero value requires an access token, so a
// route nobody classified is protected.
type Access int

const (
	AccessProtected Access = iota
	RefreshProtected
	Public
)

func (a Access) String() string {
	switch a {
	case AccessProtected:
		return "access"
	case RefreshProtected:
		return "refresh"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

const identityKey = "auth.identity"

// Identity is what a protected handler learns about its caller.
type Identity struct {
	UserID uint
	Email  string
	// Token is the raw bearer token that passed the gate.
	Token string
}

type Verifier interface {
	VerifyAccessToken(token string) (*tokens.Claims, error)
	VerifyRefreshToken(token string) (*tokens.Claims, error)
}

type Gate struct {
	verifier Verifier
}

func NewGate(v Verifier) *Gate {
	return &Gate{verifier: v}
}

// For returns the middleware enforcing the given route class.
func (g *Gate) For(access Access) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if access == Public {
			return next
		}

		verify := g.verifier.VerifyAccessToken
		if access == RefreshProtected {
			verify = g.verifier.VerifyRefreshToken
		}

		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "auth", "access", access.String())

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := verify(raw)
			if err != nil {
				l.Warn("auth_failed", "status", 401, "reason", "invalid token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			id, err := claims.UserID()
			if err != nil {
				l.Warn("auth_failed", "status", 401, "reason", "invalid subject", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(identityKey, Identity{UserID: id, Email: claims.Email, Token: raw})
			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by the gate.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
