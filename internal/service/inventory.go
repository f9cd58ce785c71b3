package service

import (
	"context"

	"library-lending/internal/domain"
	"library-lending/internal/repo"
)

// inventory keeps books.available_copies equal to total copies minus active borrows.
// It only ever runs on the transaction of the lifecycle operation that calls it.
type inventory struct{}

// reserveCopy takes one copy with a conditional decrement so that two transactions
// racing for the last copy cannot both succeed.
func (inventory) reserveCopy(ctx context.Context, tx *repo.Store, bookID string) error {
	n, err := tx.Books.TakeCopy(ctx, bookID)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	b, err := tx.Books.FindByID(ctx, bookID)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.NotFound("book", bookID)
	}
	return &domain.UnavailableError{BookID: bookID}
}

// releaseCopy gives a copy back. Callers guarantee a matching reservation exists.
func (inventory) releaseCopy(ctx context.Context, tx *repo.Store, bookID string) error {
	n, err := tx.Books.PutCopy(ctx, bookID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("book", bookID)
	}
	return nil
}

// setTotalCopies applies a direct stock edit and recomputes availability from the
// active loans, refusing a total below what is currently on loan.
func (inventory) setTotalCopies(ctx context.Context, tx *repo.Store, bookID string, total int) error {
	if total < 0 {
		return domain.Invalid("availableCopies", "must be >= 0")
	}
	b, err := tx.Books.LockByID(ctx, bookID)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.NotFound("book", bookID)
	}
	active, err := tx.Borrows.CountActiveByBook(ctx, bookID)
	if err != nil {
		return err
	}
	if int64(total) < active {
		return &domain.ConflictError{Reason: domain.ReasonCopiesOnLoan, ActiveBorrows: int(active)}
	}
	_, err = tx.Books.SetStock(ctx, bookID, total, total-int(active))
	return err
}
