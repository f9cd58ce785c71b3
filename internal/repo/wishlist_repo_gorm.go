package repo

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"library-lending/internal/domain"
)

type WishlistRepo struct{ db *gorm.DB }

func (r *WishlistRepo) Create(ctx context.Context, e *domain.WishlistEntry) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("User", "Book").Create(e).Error, "create wishlist entry")
}

func (r *WishlistRepo) Find(ctx context.Context, userID, bookID string) (*domain.WishlistEntry, error) {
	var e domain.WishlistEntry
	err := r.db.WithContext(ctx).First(&e, "user_id = ? AND book_id = ?", userID, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find wishlist entry")
	}
	return &e, nil
}

func (r *WishlistRepo) ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	var out []domain.WishlistEntry
	err := r.db.WithContext(ctx).Preload("Book").Where("user_id = ?", userID).Order("added_at desc").Find(&out).Error
	return out, errors.Wrap(err, "list wishlist")
}

func (r *WishlistRepo) Delete(ctx context.Context, userID, bookID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&domain.WishlistEntry{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete wishlist entry")
}

func (r *WishlistRepo) DeleteByBook(ctx context.Context, bookID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&domain.WishlistEntry{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete wishlist entries of book")
}

func (r *WishlistRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.WishlistEntry{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete wishlist entries of user")
}
