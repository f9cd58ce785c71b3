package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"library-lending/internal/core/events"
	"library-lending/internal/domain"
	"library-lending/internal/repo/repotest"
	"library-lending/internal/service"
)

func rowCounts(t *testing.T, f *fixture) map[string]int64 {
	t.Helper()
	return map[string]int64{
		"users":    repotest.Count(t, f.store, &domain.User{}, "1 = 1"),
		"books":    repotest.Count(t, f.store, &domain.Book{}, "1 = 1"),
		"borrows":  repotest.Count(t, f.store, &domain.BorrowRecord{}, "1 = 1"),
		"fines":    repotest.Count(t, f.store, &domain.Fine{}, "1 = 1"),
		"wishlist": repotest.Count(t, f.store, &domain.WishlistEntry{}, "1 = 1"),
	}
}

func requireNoOrphans(t *testing.T, f *fixture) {
	t.Helper()
	require.Zero(t, repotest.Count(t, f.store, &domain.Fine{},
		"borrow_record_id NOT IN (SELECT id FROM borrow_records)"))
	require.Zero(t, repotest.Count(t, f.store, &domain.BorrowRecord{},
		"user_id NOT IN (SELECT id FROM users) OR book_id NOT IN (SELECT id FROM books)"))
	require.Zero(t, repotest.Count(t, f.store, &domain.WishlistEntry{},
		"user_id NOT IN (SELECT id FROM users) OR book_id NOT IN (SELECT id FROM books)"))
	require.Zero(t, repotest.Count(t, f.store, &domain.Book{},
		"created_by_id NOT IN (SELECT id FROM users) OR updated_by_id NOT IN (SELECT id FROM users)"))
}

func TestDeleteBook_BlockedByActiveBorrows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := repotest.User(t, f.store, domain.RoleMember)
	b := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 3)
	_, err := f.svc.Borrows.CreateBorrow(ctx, a.ID, book.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrows.CreateBorrow(ctx, b.ID, book.ID)
	require.NoError(t, err)
	_, err = f.svc.Wishlist.Add(ctx, a.ID, book.ID, nil)
	require.NoError(t, err)

	before := rowCounts(t, f)
	_, err = f.svc.Deletion.DeleteBook(ctx, book.ID)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, 2, ce.ActiveBorrows)
	require.Contains(t, err.Error(), "2")
	require.Equal(t, before, rowCounts(t, f))
	require.Equal(t, 1, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)
}

func TestDeleteBook_Cascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 1)
	keep := repotest.Book(t, f.store, 1)

	at := time.Now().UTC()
	rec := repotest.Borrow(t, f.store, u.ID, book.ID, &at)
	_, err := f.svc.Fines.CreateFine(ctx, rec.ID, mustDecimal(t, "1.00"), nil)
	require.NoError(t, err)
	_, err = f.svc.Fines.CreateFine(ctx, rec.ID, mustDecimal(t, "0"), nil)
	require.NoError(t, err)
	_, err = f.svc.Wishlist.Add(ctx, u.ID, book.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.Wishlist.Add(ctx, u.ID, keep.ID, nil)
	require.NoError(t, err)

	removed, err := f.svc.Deletion.DeleteBook(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, service.Removed{"fines": 2, "borrow_records": 1, "wishlist_entries": 1, "books": 1}, removed)
	requireNoOrphans(t, f)
	require.Nil(t, repotest.ReloadBook(t, f.store, book.ID))
	require.NotNil(t, repotest.ReloadBook(t, f.store, keep.ID))
	require.EqualValues(t, 1, repotest.Count(t, f.store, &domain.WishlistEntry{}, "user_id = ?", u.ID))

	evs := f.pub.Events()
	last := evs[len(evs)-1]
	require.Equal(t, events.BookDeleted, last.Type)
	require.EqualValues(t, 2, last.Removed["fines"])

	_, err = f.svc.Deletion.DeleteBook(ctx, book.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteUser_AfterReturn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 1)

	rec, err := f.svc.Borrows.CreateBorrow(ctx, a.ID, book.ID)
	require.NoError(t, err)
	_, err = f.svc.Fines.CreateFine(ctx, rec.ID, mustDecimal(t, "3.00"), nil)
	require.NoError(t, err)

	_, err = f.svc.Wishlist.Add(ctx, a.ID, book.ID, nil)
	require.NoError(t, err)

	before := rowCounts(t, f)
	_, err = f.svc.Deletion.DeleteUser(ctx, a.ID)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, 1, ce.ActiveBorrows)
	require.Equal(t, before, rowCounts(t, f))
	require.Equal(t, 0, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)

	_, err = f.svc.Borrows.ReturnBorrow(ctx, rec.ID, a.ID)
	require.NoError(t, err)

	removed, err := f.svc.Deletion.DeleteUser(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed["borrow_records"])
	require.EqualValues(t, 1, removed["fines"])
	require.EqualValues(t, 1, removed["wishlist_entries"])
	require.Zero(t, repotest.Count(t, f.store, &domain.BorrowRecord{}, "id = ?", rec.ID))
	require.Zero(t, repotest.Count(t, f.store, &domain.Fine{}, "borrow_record_id = ?", rec.ID))
	require.Equal(t, 1, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)
	requireNoOrphans(t, f)
}

func TestDeleteUser_ClearsBookProvenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := repotest.User(t, f.store, domain.RoleLibrarian)
	book, err := f.svc.Catalog.CreateBook(ctx, domain.Principal{ID: lib.ID, Role: lib.Role},
		service.BookInput{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	require.Equal(t, lib.ID, *book.CreatedByID)

	removed, err := f.svc.Deletion.DeleteUser(ctx, lib.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed["book_provenance"])

	got := repotest.ReloadBook(t, f.store, book.ID)
	require.NotNil(t, got, "books outlive their creator")
	require.Nil(t, got.CreatedByID)
	require.Nil(t, got.UpdatedByID)
	requireNoOrphans(t, f)
}

func TestDeleteUser_NotFoundAndRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := repotest.User(t, f.store, domain.RoleLibrarian)

	_, err := f.svc.Deletion.DeleteUser(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Deletion.UserRole(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)

	role, err := f.svc.Deletion.UserRole(ctx, lib.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleLibrarian, role)
}
