package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/authgate/internal/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("gate-access-secret")
	refreshSecret = []byte("gate-refresh-secret")
)

func newSigner(t *testing.T) *tokens.Signer {
	t.Helper()
	s, err := tokens.NewSigner(tokens.Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	return s
}

// serve runs one request through the gate and reports what the handler saw.
func serve(t *testing.T, access Access, header string) (*httptest.ResponseRecorder, *Identity, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Identity
	h := NewGate(newSigner(t)).For(access)(func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if ok {
			seen = &id
		} else {
			seen = &Identity{}
		}
		return c.NoContent(http.StatusOK)
	})
	return rec, seen, h(c)
}

func requireUnauthorized(t *testing.T, err error) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGate_Public(t *testing.T) {
	rec, seen, err := serve(t, Public, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Zero(t, seen.UserID)
}

func TestGate_ZeroValueIsAccessProtected(t *testing.T) {
	var unclassified Access
	assert.Equal(t, AccessProtected, unclassified)

	_, seen, err := serve(t, unclassified, "")
	requireUnauthorized(t, err)
	assert.Nil(t, seen)
}

func TestGate_AccessToken(t *testing.T) {
	pair, err := newSigner(t).IssuePair(tokens.Subject{UserID: 7, Email: "a@x.com"})
	require.NoError(t, err)

	_, seen, err := serve(t, AccessProtected, "Bearer "+pair.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, Identity{UserID: 7, Email: "a@x.com", Token: pair.AccessToken}, *seen)

	_, seen, err = serve(t, AccessProtected, "Bearer "+pair.RefreshToken)
	requireUnauthorized(t, err)
	assert.Nil(t, seen)
}

func TestGate_RefreshToken(t *testing.T) {
	pair, err := newSigner(t).IssuePair(tokens.Subject{UserID: 7, Email: "a@x.com"})
	require.NoError(t, err)

	_, seen, err := serve(t, RefreshProtected, "bearer "+pair.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, uint(7), seen.UserID)
	assert.Equal(t, pair.RefreshToken, seen.Token)

	_, seen, err = serve(t, RefreshProtected, "Bearer "+pair.AccessToken)
	requireUnauthorized(t, err)
	assert.Nil(t, seen)
}

func TestGate_Rejects(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokens.Claims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString(accessSecret)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokens.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(accessSecret)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic dXNlcjpwYXNz",
		"empty token":     "Bearer ",
		"malformed token": "Bearer not.a.jwt",
		"expired token":   "Bearer " + expired,
		"bad subject":     "Bearer " + badSubject,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, seen, err := serve(t, AccessProtected, header)
			requireUnauthorized(t, err)
			assert.Nil(t, seen)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Bearerabc")
	assert.False(t, ok)
}

func TestAccess_String(t *testing.T) {
	assert.Equal(t, "access", AccessProtected.String())
	assert.Equal(t, "refresh", RefreshProtected.String())
	assert.Equal(t, "public", Public.String())
}
