package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"library-lending/internal/core/events"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
	"library-lending/pkg/utils"
)

// Fines assigns and settles fines. Amounts come from staff; nothing here derives them
// from overdue time.
type Fines struct{ base }

func (s *Fines) CreateFine(ctx context.Context, borrowID string, amount decimal.Decimal, reason *string) (f *domain.Fine, err error) {
	ctx, span := s.startSpan(ctx, "Fines.CreateFine", attribute.String("borrow_id", borrowID))
	defer func() { finish(span, "create_fine", err) }()

	if amount.IsNegative() {
		return nil, domain.Invalid("amount", "must be >= 0")
	}
	var rec *domain.BorrowRecord
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		r, err := tx.Borrows.FindByID(ctx, borrowID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NotFound("borrow record", borrowID)
		}
		rec = r
		f = &domain.Fine{
			ID:             utils.NewID(),
			BorrowRecordID: borrowID,
			Amount:         amount,
			Reason:         reason,
			Paid:           false,
			CreatedAt:      s.now(),
		}
		return tx.Fines.Create(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fine created", zap.String("fine_id", f.ID), zap.String("borrow_id", borrowID), zap.String("amount", amount.StringFixed(2)))
	s.afterCommit(ctx, events.Event{Type: events.FineCreated, UserID: rec.UserID, BookID: rec.BookID, BorrowID: borrowID, FineID: f.ID})
	return f, nil
}

// UpdateFine applies the non-nil fields of patch.
func (s *Fines) UpdateFine(ctx context.Context, fineID string, patch domain.FinePatch) (f *domain.Fine, err error) {
	ctx, span := s.startSpan(ctx, "Fines.UpdateFine", attribute.String("fine_id", fineID))
	defer func() { finish(span, "update_fine", err) }()

	if patch.Amount != nil && patch.Amount.IsNegative() {
		return nil, domain.Invalid("amount", "must be >= 0")
	}
	fields := map[string]any{}
	if patch.Amount != nil {
		fields["amount"] = *patch.Amount
	}
	if patch.Reason != nil {
		fields["reason"] = *patch.Reason
	}
	if patch.Paid != nil {
		fields["paid"] = *patch.Paid
	}

	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		cur, err := tx.Fines.FindByID(ctx, fineID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.NotFound("fine", fineID)
		}
		if len(fields) > 0 {
			if _, err := tx.Fines.Update(ctx, fineID, fields); err != nil {
				return err
			}
		}
		f, err = tx.Fines.FindByID(ctx, fineID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fine updated", zap.String("fine_id", fineID), zap.Bool("paid", f.Paid))
	s.afterCommit(ctx, events.Event{Type: events.FineUpdated, BorrowID: f.BorrowRecordID, FineID: fineID})
	return f, nil
}

func (s *Fines) DeleteFine(ctx context.Context, fineID string) (err error) {
	ctx, span := s.startSpan(ctx, "Fines.DeleteFine", attribute.String("fine_id", fineID))
	defer func() { finish(span, "delete_fine", err) }()

	n, err := s.store.Fines.Delete(ctx, fineID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("fine", fineID)
	}
	s.log.Info("fine deleted", zap.String("fine_id", fineID))
	s.afterCommit(ctx, events.Event{Type: events.FineDeleted, FineID: fineID})
	return nil
}

func (s *Fines) Get(ctx context.Context, fineID string) (*domain.Fine, error) {
	f, err := s.store.Fines.FindByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.NotFound("fine", fineID)
	}
	return f, nil
}

// ListByBorrow returns the record's fines. The record itself must exist.
func (s *Fines) ListByBorrow(ctx context.Context, borrowID string) ([]domain.Fine, error) {
	r, err := s.store.Borrows.FindByID(ctx, borrowID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("borrow record", borrowID)
	}
	return s.store.Fines.ListByBorrow(ctx, borrowID)
}
