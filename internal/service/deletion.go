package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"library-lending/internal/core/events"
	"library-lending/internal/domain"
	"library-lending/internal/repo"
)

// Deletion removes a book or a user together with every dependent row. Open loans
// block the deletion. Otherwise the cascade runs in one transaction in a fixed order:
// fines, borrow records, wishlist entries, provenance references, the entity itself.
//
// Deletion does not authorize. Callers run domain.Authorize first, using UserRole for
// the target role.
type Deletion struct{ base }

// Removed counts the rows a cascade deleted or relinked, by table.
type Removed map[string]int64

func (s *Deletion) UserRole(ctx context.Context, userID string) (domain.Role, error) {
	u, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", domain.NotFound("user", userID)
	}
	return u.Role, nil
}

func (s *Deletion) DeleteBook(ctx context.Context, bookID string) (removed Removed, err error) {
	ctx, span := s.startSpan(ctx, "Deletion.DeleteBook", attribute.String("book_id", bookID))
	defer func() { finish(span, "delete_book", err) }()

	removed = Removed{}
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
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
		if active > 0 {
			return domain.ActiveBorrowsConflict(int(active))
		}

		steps := []struct {
			table string
			run   func(context.Context, string) (int64, error)
		}{
			{"fines", tx.Fines.DeleteByBook},
			{"borrow_records", tx.Borrows.DeleteByBook},
			{"wishlist_entries", tx.Wishlist.DeleteByBook},
		}
		for _, st := range steps {
			n, err := st.run(ctx, bookID)
			if err != nil {
				return err
			}
			removed[st.table] = n
		}

		n, err := tx.Books.Delete(ctx, bookID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("book", bookID)
		}
		removed["books"] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordCascade(removed)
	s.log.Info("book deleted", zap.String("book_id", bookID), zap.Any("removed", removed))
	s.afterCommit(ctx, events.Event{Type: events.BookDeleted, BookID: bookID, Removed: removed}, bookID)
	return removed, nil
}

func (s *Deletion) DeleteUser(ctx context.Context, userID string) (removed Removed, err error) {
	ctx, span := s.startSpan(ctx, "Deletion.DeleteUser", attribute.String("user_id", userID))
	defer func() { finish(span, "delete_user", err) }()

	removed = Removed{}
	var touchedBooks []string
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		u, err := tx.Users.LockByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("user", userID)
		}
		active, err := tx.Borrows.CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ActiveBorrowsConflict(int(active))
		}

		// cached copies of these books still carry the user id
		if touchedBooks, err = tx.Books.IDsByProvenance(ctx, userID); err != nil {
			return err
		}

		steps := []struct {
			table string
			run   func(context.Context, string) (int64, error)
		}{
			{"fines", tx.Fines.DeleteByUser},
			{"borrow_records", tx.Borrows.DeleteByUser},
			{"wishlist_entries", tx.Wishlist.DeleteByUser},
			{"book_provenance", tx.Books.ClearProvenance},
		}
		for _, st := range steps {
			n, err := st.run(ctx, userID)
			if err != nil {
				return err
			}
			removed[st.table] = n
		}

		n, err := tx.Users.Delete(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("user", userID)
		}
		removed["users"] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordCascade(removed)
	s.log.Info("user deleted", zap.String("user_id", userID), zap.Any("removed", removed))
	s.afterCommit(ctx, events.Event{Type: events.UserDeleted, UserID: userID, Removed: removed}, touchedBooks...)
	return removed, nil
}

func (s *Deletion) recordCascade(r Removed) {
	for table, n := range r {
		deletedRows.WithLabelValues(table).Add(float64(n))
	}
}
