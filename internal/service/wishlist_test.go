package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"library-lending/internal/domain"
	"library-lending/internal/repo/repotest"
)

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 0)

	notes := "for the holidays"
	e, err := f.svc.Wishlist.Add(ctx, u.ID, book.ID, &notes)
	require.NoError(t, err)
	require.Equal(t, book.ID, e.Book.ID)

	_, err = f.svc.Wishlist.Add(ctx, u.ID, book.ID, nil)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.EqualError(t, err, domain.ReasonInWishlist)

	_, err = f.svc.Wishlist.Add(ctx, u.ID, "missing", nil)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// the book exists, the user row does not: only the foreign key catches it
	_, err = f.svc.Wishlist.Add(ctx, "ghost", book.ID, nil)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, domain.EntityUserOrBook, nf.Entity)
	require.EqualError(t, err, "user or book not found")

	ok, err := f.svc.Wishlist.Check(ctx, u.ID, book.ID)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := f.svc.Wishlist.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, notes, *list[0].Notes)
	require.Equal(t, 0, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies, "wishlist leaves stock alone")

	require.NoError(t, f.svc.Wishlist.Remove(ctx, u.ID, book.ID))
	require.ErrorIs(t, f.svc.Wishlist.Remove(ctx, u.ID, book.ID), domain.ErrNotFound)

	ok, err = f.svc.Wishlist.Check(ctx, u.ID, book.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
