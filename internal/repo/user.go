package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/authgate/internal/models"
	"gorm.io/gorm"
)

// UserPatch carries the editable profile fields; nil means unchanged.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts u unless the email is taken, in which case ErrDuplicateEmail
// is returned and u is left untouched.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	candidate := *u
	if err := insertUser(r.DB.WithContext(ctx), &candidate); err != nil {
		return err
	}
	*u = candidate
	return nil
}

// CreateUserWithSession inserts u and stores the refresh hash returned by
// session in one transaction. When session or the hash write fails nothing is
// kept, so the email stays free.
func (r *GormRepo) CreateUserWithSession(ctx context.Context, u *models.User, session func(*models.User) (string, error)) error {
	candidate := *u
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertUser(tx, &candidate); err != nil {
			return err
		}

		rtHash, err := session(&candidate)
		if err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", candidate.ID).
			Update("refresh_token_hash", rtHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		candidate.RefreshTokenHash = &rtHash
		return nil
	})
	if err != nil {
		return err
	}
	*u = candidate
	return nil
}

func insertUser(tx *gorm.DB, u *models.User) error {
	res := tx.Where("email = ?", u.Email).FirstOrCreate(u)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.FirstName != nil {
		updates["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}

	if len(updates) > 0 {
		if patch.Email != nil {
			var count int64
			if err := r.DB.WithContext(ctx).Model(&models.User{}).
				Where("email = ? AND id <> ?", *patch.Email, id).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrDuplicateEmail
			}
		}

		res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateEmail
			}
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.FindByID(ctx, id)
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.User, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
