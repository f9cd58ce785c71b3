package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"library-lending/internal/core/database"
	"library-lending/internal/core/events"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
	"library-lending/pkg/utils"
)

// Borrows drives a borrow record from ACTIVE to RETURNED. Every transition commits
// together with its inventory change.
type Borrows struct{ base }

func (s *Borrows) CreateBorrow(ctx context.Context, userID, bookID string) (rec *domain.BorrowRecord, err error) {
	ctx, span := s.startSpan(ctx, "Borrows.CreateBorrow",
		attribute.String("user_id", userID), attribute.String("book_id", bookID))
	defer func() { finish(span, "create_borrow", err) }()

	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		u, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("user", userID)
		}
		book, err := tx.Books.FindByID(ctx, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return domain.NotFound("book", bookID)
		}
		if book.AvailableCopies <= 0 {
			return &domain.UnavailableError{BookID: bookID}
		}
		active, err := tx.Borrows.FindActive(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.Conflict(domain.ReasonAlreadyBorrowed)
		}

		// reserving first takes the book row lock before the insert
		if err := s.inv.reserveCopy(ctx, tx, bookID); err != nil {
			return err
		}
		key := domain.ActiveKeyFor(userID, bookID)
		rec = &domain.BorrowRecord{
			ID:         utils.NewID(),
			UserID:     userID,
			BookID:     bookID,
			BorrowedAt: s.now(),
			ActiveKey:  &key,
		}
		if err := tx.Borrows.Create(ctx, rec); err != nil {
			switch {
			case database.IsDuplicateKey(err):
				return domain.Conflict(domain.ReasonAlreadyBorrowed)
			case database.IsForeignKeyViolation(err):
				return domain.NotFound(domain.EntityUserOrBook, "")
			}
			return err
		}
		book.AvailableCopies--
		rec.Book = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("borrow created",
		zap.String("borrow_id", rec.ID), zap.String("user_id", userID), zap.String("book_id", bookID))
	s.afterCommit(ctx, events.Event{Type: events.BorrowCreated, UserID: userID, BookID: bookID, BorrowID: rec.ID}, bookID)
	return rec, nil
}

// ReturnBorrow closes the requester's own active record and gives the copy back.
func (s *Borrows) ReturnBorrow(ctx context.Context, recordID, requesterID string) (rec *domain.BorrowRecord, err error) {
	ctx, span := s.startSpan(ctx, "Borrows.ReturnBorrow",
		attribute.String("borrow_id", recordID), attribute.String("user_id", requesterID))
	defer func() { finish(span, "return_borrow", err) }()

	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		r, err := tx.Borrows.LockByID(ctx, recordID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NotFound("borrow record", recordID)
		}
		if r.UserID != requesterID {
			return domain.Forbidden("not the owner of this borrow record")
		}
		if !r.Active() {
			return domain.Conflict(domain.ReasonAlreadyReturned)
		}

		at := s.now()
		n, err := tx.Borrows.MarkReturned(ctx, recordID, at)
		if err != nil {
			return err
		}
		if n == 0 {
			// a concurrent return won
			return domain.Conflict(domain.ReasonAlreadyReturned)
		}
		if err := s.inv.releaseCopy(ctx, tx, r.BookID); err != nil {
			return err
		}
		r.ReturnedAt = &at
		r.ActiveKey = nil
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("borrow returned",
		zap.String("borrow_id", rec.ID), zap.String("user_id", rec.UserID), zap.String("book_id", rec.BookID))
	s.afterCommit(ctx, events.Event{Type: events.BorrowReturned, UserID: rec.UserID, BookID: rec.BookID, BorrowID: rec.ID}, rec.BookID)
	return rec, nil
}

// DeleteBorrowRecord is the administrative removal of a record and its fines. An
// active record gives its copy back in the same transaction.
func (s *Borrows) DeleteBorrowRecord(ctx context.Context, recordID string) (err error) {
	ctx, span := s.startSpan(ctx, "Borrows.DeleteBorrowRecord", attribute.String("borrow_id", recordID))
	defer func() { finish(span, "delete_borrow", err) }()

	var (
		rec   *domain.BorrowRecord
		fines int64
	)
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		r, err := tx.Borrows.LockByID(ctx, recordID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NotFound("borrow record", recordID)
		}
		if fines, err = tx.Fines.DeleteByBorrow(ctx, recordID); err != nil {
			return err
		}
		n, err := tx.Borrows.Delete(ctx, recordID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("borrow record", recordID)
		}
		if r.Active() {
			if err := s.inv.releaseCopy(ctx, tx, r.BookID); err != nil {
				return err
			}
		}
		rec = r
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("borrow record deleted",
		zap.String("borrow_id", recordID), zap.Bool("was_active", rec.Active()), zap.Int64("fines", fines))
	s.afterCommit(ctx, events.Event{
		Type: events.BorrowDeleted, UserID: rec.UserID, BookID: rec.BookID, BorrowID: rec.ID,
		Removed: map[string]int64{"fines": fines, "borrow_records": 1},
	}, rec.BookID)
	return nil
}

func (s *Borrows) Get(ctx context.Context, recordID string) (*domain.BorrowRecord, error) {
	r, err := s.store.Borrows.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("borrow record", recordID)
	}
	return r, nil
}

func (s *Borrows) ListMine(ctx context.Context, userID string) ([]domain.BorrowRecord, error) {
	return s.store.Borrows.ListByUser(ctx, userID)
}

func (s *Borrows) ListAll(ctx context.Context, activeOnly bool, offset, limit int) ([]domain.BorrowRecord, int64, error) {
	return s.store.Borrows.List(ctx, activeOnly, offset, limit)
}
