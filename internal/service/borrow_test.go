package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"library-lending/internal/core/events"
	"library-lending/internal/domain"
	"library-lending/internal/repo/repotest"
	"library-lending/internal/service"
)

func TestCreateBorrow_ReservesCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := repotest.User(t, f.store, domain.RoleMember)
	b := repotest.Book(t, f.store, 2)

	rec, err := f.svc.Borrows.CreateBorrow(ctx, u.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BorrowActive, rec.Status())
	require.Nil(t, rec.ReturnedAt)
	require.Equal(t, 1, rec.Book.AvailableCopies)
	require.Equal(t, 1, repotest.ReloadBook(t, f.store, b.ID).AvailableCopies)
	require.Equal(t, []events.Type{events.BorrowCreated}, f.pub.Types())
}

func TestCreateBorrow_CheckOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := repotest.User(t, f.store, domain.RoleMember)
	one := repotest.Book(t, f.store, 1)
	two := repotest.Book(t, f.store, 2)

	_, err := f.svc.Borrows.CreateBorrow(ctx, "nobody", "nothing")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "user", nf.Entity)

	_, err = f.svc.Borrows.CreateBorrow(ctx, u.ID, "nothing")
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "book", nf.Entity)

	_, err = f.svc.Borrows.CreateBorrow(ctx, u.ID, one.ID)
	require.NoError(t, err)
	// availability is checked before the duplicate
	_, err = f.svc.Borrows.CreateBorrow(ctx, u.ID, one.ID)
	require.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = f.svc.Borrows.CreateBorrow(ctx, u.ID, two.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrows.CreateBorrow(ctx, u.ID, two.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.EqualError(t, err, domain.ReasonAlreadyBorrowed)
	require.Equal(t, 1, repotest.ReloadBook(t, f.store, two.ID).AvailableCopies, "rejected borrow left stock alone")
}

func TestLastCopyPassesToNextBorrower(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := repotest.User(t, f.store, domain.RoleMember)
	bUser := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 1)

	recA, err := f.svc.Borrows.CreateBorrow(ctx, a.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, 0, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)

	_, err = f.svc.Borrows.CreateBorrow(ctx, bUser.ID, book.ID)
	require.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = f.svc.Borrows.ReturnBorrow(ctx, recA.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)

	_, err = f.svc.Borrows.CreateBorrow(ctx, bUser.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, 0, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)
}

func TestReturnBorrow_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := repotest.User(t, f.store, domain.RoleMember)
	other := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 3)

	rec, err := f.svc.Borrows.CreateBorrow(ctx, owner.ID, book.ID)
	require.NoError(t, err)

	_, err = f.svc.Borrows.ReturnBorrow(ctx, "missing", owner.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Borrows.ReturnBorrow(ctx, rec.ID, other.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	done, err := f.svc.Borrows.ReturnBorrow(ctx, rec.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BorrowReturned, done.Status())
	require.NotNil(t, done.ReturnedAt)
	require.Equal(t, 3, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)

	_, err = f.svc.Borrows.ReturnBorrow(ctx, rec.ID, owner.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Equal(t, 3, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies, "no double increment")

	// the pair may borrow again once returned
	_, err = f.svc.Borrows.CreateBorrow(ctx, owner.ID, book.ID)
	require.NoError(t, err)
}

func TestCreateBorrow_ConcurrentLastCopy(t *testing.T) {
	ctx := context.Background()
	const n = 8
	f := newConcurrentFixture(t, n)
	book := repotest.Book(t, f.store, 1)
	users := make([]*domain.User, n)
	for i := range users {
		users[i] = repotest.User(t, f.store, domain.RoleMember)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, lost int
		start    = make(chan struct{})
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			err := service.Retry(ctx, 50, func(ctx context.Context) error {
				_, err := f.svc.Borrows.CreateBorrow(ctx, userID, book.ID)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrUnavailable):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.ID)
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, lost)
	require.Equal(t, 0, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies)
	require.EqualValues(t, 1, repotest.Count(t, f.store, &domain.BorrowRecord{}, "book_id = ?", book.ID))
}

func TestDeleteBorrowRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 1)

	rec, err := f.svc.Borrows.CreateBorrow(ctx, u.ID, book.ID)
	require.NoError(t, err)
	_, err = f.svc.Fines.CreateFine(ctx, rec.ID, mustDecimal(t, "2.50"), nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Borrows.DeleteBorrowRecord(ctx, rec.ID))
	require.Equal(t, 1, repotest.ReloadBook(t, f.store, book.ID).AvailableCopies, "active record gave its copy back")
	require.Zero(t, repotest.Count(t, f.store, &domain.Fine{}, "borrow_record_id = ?", rec.ID))

	err = f.svc.Borrows.DeleteBorrowRecord(ctx, rec.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMineAndAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := repotest.User(t, f.store, domain.RoleMember)
	b := repotest.User(t, f.store, domain.RoleMember)
	book := repotest.Book(t, f.store, 5)

	recA, err := f.svc.Borrows.CreateBorrow(ctx, a.ID, book.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrows.CreateBorrow(ctx, b.ID, book.ID)
	require.NoError(t, err)
	_, err = f.svc.Borrows.ReturnBorrow(ctx, recA.ID, a.ID)
	require.NoError(t, err)

	mine, err := f.svc.Borrows.ListMine(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Book)

	all, total, err := f.svc.Borrows.ListAll(ctx, false, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	_, total, err = f.svc.Borrows.ListAll(ctx, true, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}
