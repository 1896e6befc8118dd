package service

import (
	"context"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/tokens"
)

// CredentialStore is what the session flows need from the user store.
// repo.GormRepo implements it.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// CreateUserWithSession inserts u and stores the hash returned by session
	// atomically.
	CreateUserWithSession(ctx context.Context, u *models.User, session func(*models.User) (string, error)) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	UpdateHashedRefreshToken(ctx context.Context, id uint, hash string) error
	SwapHashedRefreshToken(ctx context.Context, id uint, prev, next string) (bool, error)
	ClearHashedRefreshToken(ctx context.Context, id uint) (bool, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error)
	UpdateUser(ctx context.Context, id uint, patch repo.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) bool
	NeedsRehash(encoded string) bool
}

type TokenIssuer interface {
	IssuePair(sub tokens.Subject) (tokens.Pair, error)
}
