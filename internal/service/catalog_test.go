package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"library-lending/internal/domain"
	"library-lending/internal/repo/repotest"
	"library-lending/internal/service"
)

func ptr[T any](v T) *T { return &v }

func TestCreateBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := repotest.User(t, f.store, domain.RoleLibrarian)
	p := domain.Principal{ID: lib.ID, Role: lib.Role}

	b, err := f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: " Emma ", Author: "Austen", ISBN: ptr("978-0141439587")})
	require.NoError(t, err)
	require.Equal(t, "Emma", b.Title)
	require.Equal(t, "9780141439587", *b.ISBN)
	require.Equal(t, 1, b.TotalCopies)
	require.Equal(t, 1, b.AvailableCopies)
	require.Equal(t, lib.ID, *b.UpdatedByID)

	_, err = f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: "Emma", Author: "Austen", ISBN: ptr("9780141439587")})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.EqualError(t, err, domain.ReasonDuplicateISBN)

	_, err = f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: "X", Author: "Y", Copies: ptr(-1)})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUpdateBook_Copies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := repotest.User(t, f.store, domain.RoleLibrarian)
	u := repotest.User(t, f.store, domain.RoleMember)
	p := domain.Principal{ID: lib.ID, Role: lib.Role}
	book, err := f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: "T", Author: "A", Copies: ptr(3)})
	require.NoError(t, err)
	_, err = f.svc.Borrows.CreateBorrow(ctx, u.ID, book.ID)
	require.NoError(t, err)

	got, err := f.svc.Catalog.UpdateBook(ctx, p, book.ID, service.BookPatch{Copies: ptr(5), Title: ptr("New")})
	require.NoError(t, err)
	require.Equal(t, "New", got.Title)
	require.Equal(t, 5, got.TotalCopies)
	require.Equal(t, 4, got.AvailableCopies)

	_, err = f.svc.Catalog.UpdateBook(ctx, p, book.ID, service.BookPatch{Copies: ptr(0), Title: ptr("Lost")})
	require.ErrorIs(t, err, domain.ErrConflict)
	cur, err := f.svc.Catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, "New", cur.Title, "rejected update rolled back")
	require.Equal(t, 4, cur.AvailableCopies)

	_, err = f.svc.Catalog.UpdateBook(ctx, p, "missing", service.BookPatch{Title: ptr("x")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateBook_DuplicateISBN(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := repotest.User(t, f.store, domain.RoleLibrarian)
	p := domain.Principal{ID: lib.ID, Role: lib.Role}
	_, err := f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: "A", Author: "A", ISBN: ptr("1111111111")})
	require.NoError(t, err)
	b, err := f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: "B", Author: "B", ISBN: ptr("2222222222")})
	require.NoError(t, err)

	_, err = f.svc.Catalog.UpdateBook(ctx, p, b.ID, service.BookPatch{ISBN: ptr("1111111111")})
	require.ErrorIs(t, err, domain.ErrConflict)

	// re-saving its own ISBN is fine
	_, err = f.svc.Catalog.UpdateBook(ctx, p, b.ID, service.BookPatch{ISBN: ptr("2222222222")})
	require.NoError(t, err)

	got, err := f.svc.Catalog.UpdateBook(ctx, p, b.ID, service.BookPatch{ISBN: ptr("")})
	require.NoError(t, err)
	require.Nil(t, got.ISBN)
}

func TestListAndGetBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lib := repotest.User(t, f.store, domain.RoleLibrarian)
	p := domain.Principal{ID: lib.ID, Role: lib.Role}
	for _, title := range []string{"Go in Action", "The Go Programming Language", "Rust"} {
		_, err := f.svc.Catalog.CreateBook(ctx, p, service.BookInput{Title: title, Author: "Someone"})
		require.NoError(t, err)
	}

	books, total, err := f.svc.Catalog.ListBooks(ctx, domain.BookFilter{Search: "go", Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, books, 2)

	_, err = f.svc.Catalog.GetBook(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
