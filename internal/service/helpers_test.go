package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/authgate/internal/db"
	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/hash"
	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/tokens"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uint]models.PublicUser
	err     error
	lastQ   string
	lastOff int
	lastLim int
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[uint]models.PublicUser{}} }

func (f *fakeIndex) IndexUser(_ context.Context, u models.PublicUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs[u.ID] = u
	return nil
}

func (f *fakeIndex) DeleteUser(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return f.err
}

func (f *fakeIndex) SearchUsers(_ context.Context, q string, from, size int) (int64, []models.PublicUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ, f.lastOff, f.lastLim = q, from, size
	if f.err != nil {
		return 0, nil, f.err
	}
	out := make([]models.PublicUser, 0, len(f.docs))
	for _, u := range f.docs {
		out = append(out, u)
	}
	return int64(len(out)), out, nil
}

type fixture struct {
	repo   *repo.GormRepo
	hasher *hash.Hasher
	signer *tokens.Signer
	pub    *recordingPublisher
	index  *fakeIndex
	auth   *AuthService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	signer, err := tokens.NewSigner(tokens.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		repo:   repo.New(gdb),
		hasher: hash.New(hash.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}),
		signer: signer,
		pub:    &recordingPublisher{},
		index:  newFakeIndex(),
	}
	f.auth = &AuthService{Store: f.repo, Hasher: f.hasher, Tokens: f.signer, Events: f.pub, Index: f.index}
	f.users = &UserService{Store: f.repo, Events: f.pub, Index: f.index}
	return f
}

func (f *fixture) signUp(t *testing.T, email, password string) models.PublicUser {
	t.Helper()
	u, err := f.auth.SignUp(context.Background(), SignUpInput{Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func (f *fixture) stored(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) makeAdmin(t *testing.T, id uint) {
	t.Helper()
	require.NoError(t, f.repo.DB.Model(&models.User{}).Where("id = ?", id).Update("role", models.RoleAdmin).Error)
}

var errStoreDown = errors.New("store down")

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) FindByEmail(context.Context, string) (*models.User, error) { return nil, errStoreDown }
func (brokenStore) FindByID(context.Context, uint) (*models.User, error)      { return nil, errStoreDown }
func (brokenStore) CreateUserWithSession(context.Context, *models.User, func(*models.User) (string, error)) error {
	return errStoreDown
}
func (brokenStore) UpdatePasswordHash(context.Context, uint, string) error    { return errStoreDown }
func (brokenStore) UpdateHashedRefreshToken(context.Context, uint, string) error {
	return errStoreDown
}
func (brokenStore) SwapHashedRefreshToken(context.Context, uint, string, string) (bool, error) {
	return false, errStoreDown
}
func (brokenStore) ClearHashedRefreshToken(context.Context, uint) (bool, error) {
	return false, errStoreDown
}
func (brokenStore) ListUsers(context.Context, int, int) (int64, []models.User, error) {
	return 0, nil, errStoreDown
}
func (brokenStore) UpdateUser(context.Context, uint, repo.UserPatch) (*models.User, error) {
	return nil, errStoreDown
}
func (brokenStore) DeleteUser(context.Context, uint) error { return errStoreDown }

// racingStore lets another rotation win right before the conditional swap.
type racingStore struct {
	*repo.GormRepo
}

func (s racingStore) SwapHashedRefreshToken(ctx context.Context, id uint, prev, next string) (bool, error) {
	if err := s.GormRepo.UpdateHashedRefreshToken(ctx, id, "hash-written-by-a-concurrent-refresh"); err != nil {
		return false, err
	}
	return s.GormRepo.SwapHashedRefreshToken(ctx, id, prev, next)
}
