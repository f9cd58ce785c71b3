package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library-lending/internal/core/database"
)

// Store groups the repositories over one handle. Inside Tx every repository shares
// the transaction.
type Store struct {
	db *gorm.DB

	Users    *UserRepo
	Books    *BookRepo
	Borrows  *BorrowRepo
	Fines    *FineRepo
	Wishlist *WishlistRepo
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    &UserRepo{db: db},
		Books:    &BookRepo{db: db},
		Borrows:  &BorrowRepo{db: db},
		Fines:    &FineRepo{db: db},
		Wishlist: &WishlistRepo{db: db},
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Tx runs fn in one database transaction. Returning an error rolls everything back.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds a row lock where the dialect has one.
func forUpdate(db *gorm.DB) *gorm.DB {
	if database.SupportsRowLocks(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func pageBounds(offset, limit, def int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = def
	}
	return offset, limit
}
