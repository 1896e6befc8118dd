package repo

import (
	"context"

	"github.com/Skotchmaster/authgate/internal/models"
)

// UpdateHashedRefreshToken overwrites the stored hash unconditionally
// (sign-in, sign-up).
func (r *GormRepo) UpdateHashedRefreshToken(ctx context.Context, id uint, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapHashedRefreshToken replaces prev with next only if prev is still the
// stored hash. It reports false when another rotation or a logout got there
// first.
func (r *GormRepo) SwapHashedRefreshToken(ctx context.Context, id uint, prev, next string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", id, prev).
		Update("refresh_token_hash", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClearHashedRefreshToken nulls the hash if it is set and reports whether a
// row changed.
func (r *GormRepo) ClearHashedRefreshToken(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash IS NOT NULL", id).
		Update("refresh_token_hash", nil)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
