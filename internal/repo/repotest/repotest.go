// Package repotest opens throwaway sqlite stores and seeds fixtures for tests.
package repotest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"library-lending/internal/core/database"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
	"library-lending/pkg/utils"
)

// Open migrates a fresh sqlite database under t.TempDir. A single connection keeps
// sqlite writers serialized the way row locks would on postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, "?_busy_timeout=5000&_foreign_keys=1", 1)
}

// OpenConcurrent opens a WAL database with conns pooled connections so that
// transactions interleave. Writers still contend, so callers retry SQLITE_BUSY.
func OpenConcurrent(t testing.TB, conns int) *gorm.DB {
	t.Helper()
	return open(t, "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1", conns)
}

func open(t testing.TB, params string, conns int) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "library.db") + params
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: conns,
		MaxIdleConns: conns,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, domain.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func NewStore(t testing.TB) *repo.Store {
	t.Helper()
	return repo.NewStore(Open(t))
}

func User(t testing.TB, s *repo.Store, role domain.Role) *domain.User {
	t.Helper()
	id := utils.NewID()
	u := &domain.User{
		ID:           id,
		Name:         "user " + id[:6],
		Email:        id[:12] + "@library.test",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func Book(t testing.TB, s *repo.Store, copies int) *domain.Book {
	t.Helper()
	id := utils.NewID()
	b := &domain.Book{
		ID:              id,
		Title:           "Book " + id[:6],
		Author:          "Author",
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	require.NoError(t, s.Books.Create(context.Background(), b))
	return b
}

// Borrow inserts a borrow record directly, bypassing inventory. returned nil means active.
func Borrow(t testing.TB, s *repo.Store, userID, bookID string, returned *time.Time) *domain.BorrowRecord {
	t.Helper()
	rec := &domain.BorrowRecord{
		ID:         utils.NewID(),
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: time.Now().UTC(),
		ReturnedAt: returned,
	}
	if returned == nil {
		key := domain.ActiveKeyFor(userID, bookID)
		rec.ActiveKey = &key
	}
	require.NoError(t, s.Borrows.Create(context.Background(), rec))
	return rec
}

func ReloadBook(t testing.TB, s *repo.Store, id string) *domain.Book {
	t.Helper()
	b, err := s.Books.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

// Count returns the number of rows of model matching the condition.
func Count(t testing.TB, s *repo.Store, model any, cond string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(model).Where(cond, args...).Count(&n).Error)
	return n
}
