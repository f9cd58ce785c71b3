package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"library-lending/internal/domain"
)

const seedPassword = "password123"

var seedUsers = []UserInput{
	{Name: "Librarian", Email: "librarian@library.com", Password: seedPassword, Role: domain.RoleLibrarian},
	{Name: "Reader", Email: "user@library.com", Password: seedPassword, Role: domain.RoleMember},
}

var seedBooks = []BookInput{
	{Title: "Pride and Prejudice", Author: "Jane Austen", ISBN: strPtr("9780141439518"), Publisher: "Penguin", Copies: intPtr(3)},
	{Title: "The Go Programming Language", Author: "Alan Donovan", ISBN: strPtr("9780134190440"), Publisher: "Addison-Wesley", Copies: intPtr(2)},
	{Title: "Dune", Author: "Frank Herbert", ISBN: strPtr("9780441172719"), Publisher: "Ace", Copies: intPtr(1)},
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// SeedReport counts what a seed run created. Existing rows are left alone.
type SeedReport struct {
	Users int
	Books int
}

// Seed creates the demo accounts and a few books. Running it again creates nothing.
func Seed(ctx context.Context, s *Services) (SeedReport, error) {
	var rep SeedReport
	var librarian *domain.User
	for _, in := range seedUsers {
		u, err := s.Accounts.CreateUser(ctx, in)
		switch {
		case err == nil:
			rep.Users++
		case errors.Is(err, domain.ErrConflict):
			if u, err = s.Accounts.store.Users.FindByEmail(ctx, in.Email); err != nil {
				return rep, err
			}
		default:
			return rep, err
		}
		if in.Role == domain.RoleLibrarian {
			librarian = u
		}
	}

	by := domain.Principal{ID: librarian.ID, Role: librarian.Role}
	for _, in := range seedBooks {
		_, err := s.Catalog.CreateBook(ctx, by, in)
		switch {
		case err == nil:
			rep.Books++
		case errors.Is(err, domain.ErrConflict):
		default:
			return rep, err
		}
	}
	s.Accounts.log.Info("seed done", zap.Int("users", rep.Users), zap.Int("books", rep.Books))
	return rep, nil
}
