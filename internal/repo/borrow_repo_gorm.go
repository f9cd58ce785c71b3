package repo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"library-lending/internal/domain"
)

type BorrowRepo struct{ db *gorm.DB }

func (r *BorrowRepo) Create(ctx context.Context, b *domain.BorrowRecord) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("User", "Book").Create(b).Error, "create borrow record")
}

func (r *BorrowRepo) FindByID(ctx context.Context, id string) (*domain.BorrowRecord, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *BorrowRepo) LockByID(ctx context.Context, id string) (*domain.BorrowRecord, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), "id = ?", id)
}

func (r *BorrowRepo) FindActive(ctx context.Context, userID, bookID string) (*domain.BorrowRecord, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ? AND returned_at IS NULL", userID), "book_id = ?", bookID)
}

func (r *BorrowRepo) first(q *gorm.DB, cond string, arg any) (*domain.BorrowRecord, error) {
	var b domain.BorrowRecord
	err := q.First(&b, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find borrow record")
	}
	return &b, nil
}

// ListByUser returns the user's records newest first with their books attached.
func (r *BorrowRepo) ListByUser(ctx context.Context, userID string) ([]domain.BorrowRecord, error) {
	var out []domain.BorrowRecord
	err := r.db.WithContext(ctx).Preload("Book").
		Where("user_id = ?", userID).
		Order("borrowed_at desc").
		Find(&out).Error
	return out, errors.Wrap(err, "list user borrow records")
}

func (r *BorrowRepo) List(ctx context.Context, activeOnly bool, offset, limit int) ([]domain.BorrowRecord, int64, error) {
	offset, limit = pageBounds(offset, limit, 20)
	base := r.db.WithContext(ctx).Model(&domain.BorrowRecord{})
	if activeOnly {
		base = base.Where("returned_at IS NULL")
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count borrow records")
	}
	var out []domain.BorrowRecord
	if err := base.Preload("Book").Preload("User").Order("borrowed_at desc").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list borrow records")
	}
	return out, total, nil
}

func (r *BorrowRepo) CountActiveByBook(ctx context.Context, bookID string) (int64, error) {
	return r.countActive(ctx, "book_id = ?", bookID)
}

func (r *BorrowRepo) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	return r.countActive(ctx, "user_id = ?", userID)
}

func (r *BorrowRepo) countActive(ctx context.Context, cond string, arg any) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowRecord{}).
		Where("returned_at IS NULL").Where(cond, arg).
		Count(&n).Error
	return n, errors.Wrap(err, "count active borrows")
}

// MarkReturned moves an active record to returned. Zero rows means it was not active.
func (r *BorrowRepo) MarkReturned(ctx context.Context, id string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.BorrowRecord{}).
		Where("id = ? AND returned_at IS NULL", id).
		UpdateColumns(map[string]any{"returned_at": at, "active_key": nil})
	return res.RowsAffected, errors.Wrap(res.Error, "mark returned")
}

func (r *BorrowRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.BorrowRecord{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete borrow record")
}

func (r *BorrowRepo) DeleteByBook(ctx context.Context, bookID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&domain.BorrowRecord{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete borrow records of book")
}

func (r *BorrowRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.BorrowRecord{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete borrow records of user")
}

func (r *BorrowRepo) CountByBook(ctx context.Context, bookID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowRecord{}).Where("book_id = ?", bookID).Count(&n).Error
	return n, errors.Wrap(err, "count borrow records")
}

func (r *BorrowRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowRecord{}).Where("user_id = ?", userID).Count(&n).Error
	return n, errors.Wrap(err, "count borrow records")
}
