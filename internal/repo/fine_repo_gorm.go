package repo

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"library-lending/internal/domain"
)

type FineRepo struct{ db *gorm.DB }

func (r *FineRepo) Create(ctx context.Context, f *domain.Fine) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("BorrowRecord").Create(f).Error, "create fine")
}

func (r *FineRepo) FindByID(ctx context.Context, id string) (*domain.Fine, error) {
	var f domain.Fine
	err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find fine")
	}
	return &f, nil
}

func (r *FineRepo) ListByBorrow(ctx context.Context, borrowID string) ([]domain.Fine, error) {
	var out []domain.Fine
	err := r.db.WithContext(ctx).Where("borrow_record_id = ?", borrowID).Order("created_at asc").Find(&out).Error
	return out, errors.Wrap(err, "list fines")
}

func (r *FineRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Fine{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, errors.Wrap(res.Error, "update fine")
}

func (r *FineRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Fine{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete fine")
}

func (r *FineRepo) DeleteByBorrow(ctx context.Context, borrowID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("borrow_record_id = ?", borrowID).Delete(&domain.Fine{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete fines of borrow record")
}

// DeleteByBook removes fines attached to any borrow record of the book.
func (r *FineRepo) DeleteByBook(ctx context.Context, bookID string) (int64, error) {
	return r.deleteByRecords(ctx, "book_id = ?", bookID)
}

func (r *FineRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteByRecords(ctx, "user_id = ?", userID)
}

func (r *FineRepo) deleteByRecords(ctx context.Context, cond string, arg any) (int64, error) {
	db := r.db.WithContext(ctx)
	records := db.Model(&domain.BorrowRecord{}).Select("id").Where(cond, arg)
	res := db.Where("borrow_record_id IN (?)", records).Delete(&domain.Fine{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete fines")
}

func (r *FineRepo) CountByBook(ctx context.Context, bookID string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx)
	records := db.Model(&domain.BorrowRecord{}).Select("id").Where("book_id = ?", bookID)
	err := db.Model(&domain.Fine{}).Where("borrow_record_id IN (?)", records).Count(&n).Error
	return n, errors.Wrap(err, "count fines")
}
