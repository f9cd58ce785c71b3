package service

import (
	"context"

	"go.uber.org/zap"

	"library-lending/internal/core/database"
	"library-lending/internal/domain"
	"library-lending/pkg/utils"
)

// Wishlist keeps each user's list of books they want to read later. An entry never
// touches inventory.
type Wishlist struct{ base }

func (s *Wishlist) Add(ctx context.Context, userID, bookID string, notes *string) (*domain.WishlistEntry, error) {
	b, err := s.store.Books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("book", bookID)
	}
	dup, err := s.store.Wishlist.Find(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, domain.Conflict(domain.ReasonInWishlist)
	}

	e := &domain.WishlistEntry{
		ID:      utils.NewID(),
		UserID:  userID,
		BookID:  bookID,
		Notes:   notes,
		AddedAt: s.now(),
	}
	if err := s.store.Wishlist.Create(ctx, e); err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return nil, domain.Conflict(domain.ReasonInWishlist)
		case database.IsForeignKeyViolation(err):
			return nil, domain.NotFound(domain.EntityUserOrBook, "")
		}
		return nil, err
	}
	e.Book = b
	s.log.Debug("wishlist add", zap.String("user_id", userID), zap.String("book_id", bookID))
	return e, nil
}

func (s *Wishlist) Remove(ctx context.Context, userID, bookID string) error {
	n, err := s.store.Wishlist.Delete(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("wishlist entry", bookID)
	}
	return nil
}

func (s *Wishlist) List(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	return s.store.Wishlist.ListByUser(ctx, userID)
}

// Check reports whether bookID is on the user's wishlist.
func (s *Wishlist) Check(ctx context.Context, userID, bookID string) (bool, error) {
	e, err := s.store.Wishlist.Find(ctx, userID, bookID)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}
