package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/search"
	"github.com/Skotchmaster/authgate/internal/util"
)

type UserService struct {
	Store  UserStore
	Events events.Publisher
	Index  search.Index
}

type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}

type Page struct {
	Items []models.PublicUser
	Total int64
	Page  int
	Size  int
}

func (p Page) TotalPages() int64 { return util.TotalPages(p.Total, p.Size) }

func (s *UserService) Me(ctx context.Context, id uint) (models.PublicUser, error) {
	return s.Get(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id uint) (models.PublicUser, error) {
	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, storeError("find user", err)
	}
	return u.Public(), nil
}

func (s *UserService) List(ctx context.Context, page, size int) (Page, error) {
	w := util.NewWindow(page, size)
	total, users, err := s.Store.ListUsers(ctx, w.Offset, w.Size)
	if err != nil {
		return Page{}, fmt.Errorf("list users: %w", err)
	}

	items := make([]models.PublicUser, 0, len(users))
	for i := range users {
		items = append(items, users[i].Public())
	}
	return Page{Items: items, Total: total, Page: w.Page, Size: w.Size}, nil
}

func (s *UserService) Update(ctx context.Context, callerID, id uint, in UpdateUserInput) (models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "users.update", "caller_id", callerID, "user_id", id)

	if err := s.authorize(ctx, callerID, id); err != nil {
		l.Warn("update_denied", "status", 403, "error", err)
		return models.PublicUser{}, err
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		return models.PublicUser{}, fmt.Errorf("%w: email must not be empty", ErrValidation)
	}

	u, err := s.Store.UpdateUser(ctx, id, repo.UserPatch{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		l.Warn("update_failed", "error", err)
		return models.PublicUser{}, storeError("update user", err)
	}

	public := u.Public()
	publish(ctx, s.Events, events.Event{Type: events.UserUpdated, UserID: u.ID, Email: u.Email})
	reindex(ctx, s.Index, public)

	l.Info("update_successful")
	return public, nil
}

// Delete removes the record, and with it the stored refresh hash, so any
// outstanding refresh token stops working.
func (s *UserService) Delete(ctx context.Context, callerID, id uint) error {
	l := logging.FromContext(ctx).With("svc", "users.delete", "caller_id", callerID, "user_id", id)

	if err := s.authorize(ctx, callerID, id); err != nil {
		l.Warn("delete_denied", "status", 403, "error", err)
		return err
	}

	if err := s.Store.DeleteUser(ctx, id); err != nil {
		l.Warn("delete_failed", "error", err)
		return storeError("delete user", err)
	}

	publish(ctx, s.Events, events.Event{Type: events.UserDeleted, UserID: id})
	unindex(ctx, s.Index, id)

	l.Info("delete_successful")
	return nil
}

func (s *UserService) Search(ctx context.Context, q string, page, size int) (int64, []models.PublicUser, error) {
	if strings.TrimSpace(q) == "" {
		return 0, nil, fmt.Errorf("%w: query must not be empty", ErrValidation)
	}
	if s.Index == nil {
		return 0, nil, ErrSearchDisabled
	}

	w := util.NewWindow(page, size)
	total, users, err := s.Index.SearchUsers(ctx, q, w.Offset, w.Size)
	if err != nil {
		if errors.Is(err, search.ErrDisabled) {
			return 0, nil, ErrSearchDisabled
		}
		return 0, nil, fmt.Errorf("search users: %w", err)
	}
	return total, users, nil
}

// authorize lets a caller act on its own record, and an admin on any record.
func (s *UserService) authorize(ctx context.Context, callerID, id uint) error {
	if callerID == id {
		return nil
	}
	caller, err := s.Store.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccessDenied
		}
		return fmt.Errorf("find caller: %w", err)
	}
	if !caller.IsAdmin() {
		return ErrAccessDenied
	}
	return nil
}

func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrDuplicateEmail):
		return ErrDuplicateEmail
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
