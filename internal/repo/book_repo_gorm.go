package repo

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"library-lending/internal/domain"
)

type BookRepo struct{ db *gorm.DB }

func (r *BookRepo) Create(ctx context.Context, b *domain.Book) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(b).Error, "create book")
}

func (r *BookRepo) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *BookRepo) LockByID(ctx context.Context, id string) (*domain.Book, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), "id = ?", id)
}

func (r *BookRepo) FindByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return r.first(r.db.WithContext(ctx), "isbn = ?", isbn)
}

func (r *BookRepo) first(q *gorm.DB, cond string, arg any) (*domain.Book, error) {
	var b domain.Book
	err := q.First(&b, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find book")
	}
	return &b, nil
}

func (r *BookRepo) List(ctx context.Context, f domain.BookFilter) ([]domain.Book, int64, error) {
	offset, limit := pageBounds(f.Offset, f.Limit, 10)
	base := r.db.WithContext(ctx).Model(&domain.Book{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		base = base.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ?", like, like, like)
	}
	if s := strings.TrimSpace(f.Author); s != "" {
		base = base.Where("LOWER(author) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if s := strings.TrimSpace(f.Publisher); s != "" {
		base = base.Where("LOWER(publisher) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.Available != nil {
		if *f.Available {
			base = base.Where("available_copies > 0")
		} else {
			base = base.Where("available_copies = 0")
		}
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count books")
	}
	var books []domain.Book
	if err := base.Order("created_at desc").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list books")
	}
	return books, total, nil
}

func (r *BookRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, errors.Wrap(res.Error, "update book")
}

// TakeCopy decrements available_copies only while it is positive. Zero rows affected
// means the book is missing or has no copy left.
func (r *BookRepo) TakeCopy(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ? AND available_copies > 0", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	return res.RowsAffected, errors.Wrap(res.Error, "take copy")
}

func (r *BookRepo) PutCopy(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ?", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	return res.RowsAffected, errors.Wrap(res.Error, "put copy")
}

func (r *BookRepo) SetStock(ctx context.Context, id string, total, available int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Book{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"total_copies": total, "available_copies": available})
	return res.RowsAffected, errors.Wrap(res.Error, "set stock")
}

// ClearProvenance nulls created_by_id and updated_by_id wherever they point at userID.
func (r *BookRepo) ClearProvenance(ctx context.Context, userID string) (int64, error) {
	db := r.db.WithContext(ctx)
	created := db.Model(&domain.Book{}).Where("created_by_id = ?", userID).UpdateColumn("created_by_id", nil)
	if created.Error != nil {
		return 0, errors.Wrap(created.Error, "clear created_by")
	}
	updated := db.Model(&domain.Book{}).Where("updated_by_id = ?", userID).UpdateColumn("updated_by_id", nil)
	if updated.Error != nil {
		return 0, errors.Wrap(updated.Error, "clear updated_by")
	}
	return created.RowsAffected + updated.RowsAffected, nil
}

func (r *BookRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Book{})
	return res.RowsAffected, errors.Wrap(res.Error, "delete book")
}

// IDsByProvenance lists books created or last updated by userID.
func (r *BookRepo) IDsByProvenance(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("created_by_id = ? OR updated_by_id = ?", userID, userID).
		Pluck("id", &ids).Error
	return ids, errors.Wrap(err, "books by provenance")
}
