package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"library-lending/internal/core/database"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
	"library-lending/internal/repo/repotest"
	"library-lending/pkg/utils"
)

func TestBookRepo_TakeAndPutCopy(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	b := repotest.Book(t, s, 1)

	n, err := s.Books.TakeCopy(ctx, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.Books.TakeCopy(ctx, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, n, "no copy left")
	require.Equal(t, 0, repotest.ReloadBook(t, s, b.ID).AvailableCopies)

	n, err = s.Books.PutCopy(ctx, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 1, repotest.ReloadBook(t, s, b.ID).AvailableCopies)

	n, err = s.Books.TakeCopy(ctx, "missing")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestBookRepo_TakeCopyAfterStaleRead(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	b := repotest.Book(t, s, 1)

	stale, err := s.Books.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stale.AvailableCopies)

	// another transaction takes the last copy after the read
	require.NoError(t, s.Tx(ctx, func(tx *repo.Store) error {
		n, err := tx.Books.TakeCopy(ctx, b.ID)
		require.EqualValues(t, 1, n)
		return err
	}))

	n, err := s.Books.TakeCopy(ctx, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, n, "decrement is conditional on the current row")
	require.Equal(t, 0, repotest.ReloadBook(t, s, b.ID).AvailableCopies)
}

func TestBorrowRepo_ActiveKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := repotest.User(t, s, domain.RoleMember)
	b := repotest.Book(t, s, 3)

	first := repotest.Borrow(t, s, u.ID, b.ID, nil)

	key := domain.ActiveKeyFor(u.ID, b.ID)
	dup := &domain.BorrowRecord{ID: utils.NewID(), UserID: u.ID, BookID: b.ID, BorrowedAt: time.Now(), ActiveKey: &key}
	err := s.Borrows.Create(ctx, dup)
	require.Error(t, err)
	require.True(t, database.IsDuplicateKey(err))

	n, err := s.Borrows.MarkReturned(ctx, first.ID, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.Borrows.MarkReturned(ctx, first.ID, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 0, n, "already returned")

	// returned records release the key
	require.NoError(t, s.Borrows.Create(ctx, dup))
	active, err := s.Borrows.CountActiveByBook(ctx, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, active)
}

func TestFineRepo_DeleteByBookUsesSubquery(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := repotest.User(t, s, domain.RoleMember)
	b1 := repotest.Book(t, s, 1)
	b2 := repotest.Book(t, s, 1)
	now := time.Now()
	r1 := repotest.Borrow(t, s, u.ID, b1.ID, &now)
	r2 := repotest.Borrow(t, s, u.ID, b2.ID, &now)

	for _, rid := range []string{r1.ID, r1.ID, r2.ID} {
		require.NoError(t, s.Fines.Create(ctx, &domain.Fine{ID: utils.NewID(), BorrowRecordID: rid, Amount: decimal.NewFromInt(1)}))
	}

	n, err := s.Fines.DeleteByBook(ctx, b1.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.EqualValues(t, 1, repotest.Count(t, s, &domain.Fine{}, "1 = 1"))
}

func TestBookRepo_ClearProvenance(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	u := repotest.User(t, s, domain.RoleLibrarian)
	other := repotest.User(t, s, domain.RoleLibrarian)
	b := repotest.Book(t, s, 1)
	_, err := s.Books.Update(ctx, b.ID, map[string]any{"created_by_id": u.ID, "updated_by_id": other.ID})
	require.NoError(t, err)

	n, err := s.Books.ClearProvenance(ctx, u.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got := repotest.ReloadBook(t, s, b.ID)
	require.Nil(t, got.CreatedByID)
	require.NotNil(t, got.UpdatedByID)
	require.Equal(t, other.ID, *got.UpdatedByID)
}

func TestStore_TxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	b := repotest.Book(t, s, 2)

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx *repo.Store) error {
		if _, err := tx.Books.TakeCopy(ctx, b.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, repotest.ReloadBook(t, s, b.ID).AvailableCopies)
}

func TestBookRepo_List(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	b := repotest.Book(t, s, 0)
	_, err := s.Books.Update(ctx, b.ID, map[string]any{"title": "Dune", "author": "Frank Herbert"})
	require.NoError(t, err)
	repotest.Book(t, s, 2)

	books, total, err := s.Books.List(ctx, domain.BookFilter{Search: "dune"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Dune", books[0].Title)

	avail := true
	_, total, err = s.Books.List(ctx, domain.BookFilter{Available: &avail})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}
