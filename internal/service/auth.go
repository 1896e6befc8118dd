package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/search"
	"github.com/Skotchmaster/authgate/internal/tokens"
)

// AuthService owns the session state of every user, which lives entirely in
// the stored refresh token hash: nil means logged out, otherwise it is the
// hash of the one refresh token that may still be used.
type AuthService struct {
	Store  CredentialStore
	Hasher Hasher
	Tokens TokenIssuer
	Events events.Publisher
	Index  search.Index

	dummyOnce sync.Once
	dummyHash string
}

type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SignUp creates the user and starts its session. Only the public view is
// returned; the client signs in to obtain tokens.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return models.PublicUser{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        in.Email,
		PasswordHash: pwHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         models.RoleUser,
	}
	// the record and its first session hash commit together
	err = s.Store.CreateUserWithSession(ctx, &user, func(created *models.User) (string, error) {
		_, rtHash, err := s.mint(created)
		return rtHash, err
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			l.Warn("signup_error", "status", 403, "reason", "email already registered")
			return models.PublicUser{}, ErrDuplicateEmail
		}
		l.Error("signup_error", "status", 500, "reason", "cannot create user", "error", err)
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	public := user.Public()
	publish(ctx, s.Events, events.Event{Type: events.UserRegistered, UserID: user.ID, Email: user.Email})
	reindex(ctx, s.Index, public)

	l.Info("signup_successful", "user_id", user.ID)
	return public, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signin")

	if strings.TrimSpace(email) == "" || password == "" {
		return tokens.Pair{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// keep the unknown-email path as slow as a wrong password
			s.Hasher.Verify(s.dummy(), password)
			l.Warn("signin_failed", "status", 403, "reason", "invalid email or password")
			return tokens.Pair{}, ErrAccessDenied
		}
		l.Error("signin_failed", "status", 500, "error", err)
		return tokens.Pair{}, fmt.Errorf("find user: %w", err)
	}

	if !s.Hasher.Verify(user.PasswordHash, password) {
		l.Warn("signin_failed", "status", 403, "reason", "invalid email or password", "user_id", user.ID)
		return tokens.Pair{}, ErrAccessDenied
	}

	if s.Hasher.NeedsRehash(user.PasswordHash) {
		s.upgradePasswordHash(ctx, user.ID, password)
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		l.Error("signin_failed", "status", 500, "user_id", user.ID, "error", err)
		return tokens.Pair{}, err
	}

	publish(ctx, s.Events, events.Event{Type: events.UserSignedIn, UserID: user.ID, Email: user.Email})
	l.Info("signin_successful", "user_id", user.ID)
	return pair, nil
}

// LogOut clears the stored refresh hash. Logging out twice, or logging out
// a user that no longer exists, is not an error.
func (s *AuthService) LogOut(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	cleared, err := s.Store.ClearHashedRefreshToken(ctx, userID)
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return fmt.Errorf("clear refresh token: %w", err)
	}
	if !cleared {
		l.Info("logout_noop")
		return nil
	}

	publish(ctx, s.Events, events.Event{Type: events.UserSignedOut, UserID: userID})
	l.Info("logout_successful")
	return nil
}

// RefreshTokens rotates the pair. The presented token must match the stored
// hash, and the new hash only replaces that exact previous hash, so a refresh
// token is usable once and the loser of two concurrent rotations is denied.
func (s *AuthService) RefreshTokens(ctx context.Context, userID uint, presented string) (tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "user_id", userID)

	user, err := s.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_denied", "status", 403, "reason", "user not found")
			return tokens.Pair{}, ErrAccessDenied
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return tokens.Pair{}, fmt.Errorf("find user: %w", err)
	}

	if user.RefreshTokenHash == nil {
		l.Warn("refresh_denied", "status", 403, "reason", "logged out")
		return tokens.Pair{}, ErrAccessDenied
	}
	prev := *user.RefreshTokenHash

	if !s.Hasher.Verify(prev, presented) {
		l.Warn("refresh_denied", "status", 403, "reason", "refresh token does not match the current session")
		return tokens.Pair{}, ErrAccessDenied
	}

	pair, next, err := s.mint(user)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return tokens.Pair{}, err
	}

	swapped, err := s.Store.SwapHashedRefreshToken(ctx, user.ID, prev, next)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return tokens.Pair{}, fmt.Errorf("store refresh token: %w", err)
	}
	if !swapped {
		l.Warn("refresh_denied", "status", 403, "reason", "session rotated concurrently")
		return tokens.Pair{}, ErrAccessDenied
	}

	publish(ctx, s.Events, events.Event{Type: events.TokensRefreshed, UserID: user.ID})
	l.Info("refresh_successful")
	return pair, nil
}

// issue mints a pair and makes its refresh token the only valid one
// (sign-in).
func (s *AuthService) issue(ctx context.Context, user *models.User) (tokens.Pair, error) {
	pair, rtHash, err := s.mint(user)
	if err != nil {
		return tokens.Pair{}, err
	}
	if err := s.Store.UpdateHashedRefreshToken(ctx, user.ID, rtHash); err != nil {
		return tokens.Pair{}, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshTokenHash = &rtHash
	return pair, nil
}

func (s *AuthService) mint(user *models.User) (tokens.Pair, string, error) {
	pair, err := s.Tokens.IssuePair(tokens.Subject{UserID: user.ID, Email: user.Email})
	if err != nil {
		return tokens.Pair{}, "", fmt.Errorf("issue tokens: %w", err)
	}
	rtHash, err := s.Hasher.Hash(pair.RefreshToken)
	if err != nil {
		return tokens.Pair{}, "", fmt.Errorf("hash refresh token: %w", err)
	}
	return pair, rtHash, nil
}

func (s *AuthService) upgradePasswordHash(ctx context.Context, userID uint, password string) {
	l := logging.FromContext(ctx).With("svc", "auth.signin", "user_id", userID)

	upgraded, err := s.Hasher.Hash(password)
	if err != nil {
		l.Warn("password_rehash_failed", "error", err)
		return
	}
	if err := s.Store.UpdatePasswordHash(ctx, userID, upgraded); err != nil {
		l.Warn("password_rehash_failed", "error", err)
		return
	}
	l.Info("password_rehashed")
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}
