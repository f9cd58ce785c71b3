package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"library-lending/internal/core/cache"
	"library-lending/internal/core/database"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
	"library-lending/pkg/utils"
)

// Catalog manages book metadata. Stock edits go through the inventory so that
// available copies stay consistent with open loans.
type Catalog struct{ base }

type BookInput struct {
	Title         string
	Author        string
	ISBN          *string
	Publisher     string
	PublishedYear *int
	ImageURL      string
	Copies        *int // defaults to 1
}

type BookPatch struct {
	Title         *string
	Author        *string
	ISBN          *string // empty string clears it
	Publisher     *string
	PublishedYear *int
	ImageURL      *string
	Copies        *int
}

func normISBN(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.NewReplacer("-", "", " ", "").Replace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func (s *Catalog) CreateBook(ctx context.Context, requester domain.Principal, in BookInput) (*domain.Book, error) {
	copies := 1
	if in.Copies != nil {
		copies = *in.Copies
	}
	if copies < 0 {
		return nil, domain.Invalid("availableCopies", "must be >= 0")
	}
	isbn := normISBN(in.ISBN)
	if isbn != nil {
		dup, err := s.store.Books.FindByISBN(ctx, *isbn)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, domain.Conflict(domain.ReasonDuplicateISBN)
		}
	}
	by := requester.ID
	b := &domain.Book{
		ID:              utils.NewID(),
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		ISBN:            isbn,
		Publisher:       strings.TrimSpace(in.Publisher),
		PublishedYear:   in.PublishedYear,
		ImageURL:        in.ImageURL,
		TotalCopies:     copies,
		AvailableCopies: copies,
		CreatedByID:     &by,
		UpdatedByID:     &by,
	}
	if err := s.store.Books.Create(ctx, b); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, domain.Conflict(domain.ReasonDuplicateISBN)
		}
		return nil, err
	}
	s.log.Info("book created", zap.String("book_id", b.ID), zap.String("by", by))
	return b, nil
}

func (s *Catalog) UpdateBook(ctx context.Context, requester domain.Principal, id string, p BookPatch) (*domain.Book, error) {
	var out *domain.Book
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		cur, err := tx.Books.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.NotFound("book", id)
		}

		fields := map[string]any{"updated_by_id": requester.ID}
		if p.Title != nil {
			fields["title"] = strings.TrimSpace(*p.Title)
		}
		if p.Author != nil {
			fields["author"] = strings.TrimSpace(*p.Author)
		}
		if p.Publisher != nil {
			fields["publisher"] = strings.TrimSpace(*p.Publisher)
		}
		if p.PublishedYear != nil {
			fields["published_year"] = *p.PublishedYear
		}
		if p.ImageURL != nil {
			fields["image_url"] = *p.ImageURL
		}
		if p.ISBN != nil {
			isbn := normISBN(p.ISBN)
			if isbn != nil && (cur.ISBN == nil || *cur.ISBN != *isbn) {
				dup, err := tx.Books.FindByISBN(ctx, *isbn)
				if err != nil {
					return err
				}
				if dup != nil && dup.ID != id {
					return domain.Conflict(domain.ReasonDuplicateISBN)
				}
			}
			fields["isbn"] = isbn
		}
		if _, err := tx.Books.Update(ctx, id, fields); err != nil {
			if database.IsDuplicateKey(err) {
				return domain.Conflict(domain.ReasonDuplicateISBN)
			}
			return err
		}
		if p.Copies != nil {
			if err := s.inv.setTotalCopies(ctx, tx, id, *p.Copies); err != nil {
				return err
			}
		}
		out, err = tx.Books.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("book updated", zap.String("book_id", id), zap.String("by", requester.ID))
	s.afterCommit(ctx, noEvent, id)
	return out, nil
}

// GetBook reads through the cache when one is configured.
func (s *Catalog) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return cache.GetOrLoadJSON[domain.Book](s.cache, ctx, bookKey(s.cache, id), s.cache.DefaultTTL(),
		func(ctx context.Context) (*domain.Book, error) {
			b, err := s.store.Books.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if b == nil {
				return nil, domain.NotFound("book", id)
			}
			return b, nil
		})
}

func (s *Catalog) ListBooks(ctx context.Context, f domain.BookFilter) ([]domain.Book, int64, error) {
	return s.store.Books.List(ctx, f)
}
