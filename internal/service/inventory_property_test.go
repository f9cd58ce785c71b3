package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"library-lending/internal/domain"
	"library-lending/internal/repo/repotest"
)

// Random borrow/return sequences keep available copies within [0, total] and equal to
// total minus the active records. Rejected operations change nothing.
func TestInventoryInvariant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rapid.Check(t, func(rt *rapid.T) {
		copies := rapid.IntRange(1, 3).Draw(rt, "copies")
		book := repotest.Book(t, f.store, copies)
		users := make([]*domain.User, rapid.IntRange(1, 4).Draw(rt, "users"))
		for i := range users {
			users[i] = repotest.User(t, f.store, domain.RoleMember)
		}

		type loan struct {
			id, userID string
			returned   bool
		}
		var loans []*loan
		active := map[string]bool{}

		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(loans) == 0 || rapid.Bool().Draw(rt, "borrow") {
				u := rapid.SampledFrom(users).Draw(rt, "user")
				rec, err := f.svc.Borrows.CreateBorrow(ctx, u.ID, book.ID)
				switch {
				case err == nil:
					require.False(rt, active[u.ID], "second active loan for one pair")
					active[u.ID] = true
					loans = append(loans, &loan{id: rec.ID, userID: u.ID})
				case errors.Is(err, domain.ErrUnavailable):
					require.Equal(rt, copies, len(active))
				case errors.Is(err, domain.ErrConflict):
					require.True(rt, active[u.ID])
				default:
					rt.Fatalf("borrow: %v", err)
				}
			} else {
				l := rapid.SampledFrom(loans).Draw(rt, "loan")
				_, err := f.svc.Borrows.ReturnBorrow(ctx, l.id, l.userID)
				if l.returned {
					require.ErrorIs(rt, err, domain.ErrConflict)
				} else {
					require.NoError(rt, err)
					l.returned = true
					delete(active, l.userID)
				}
			}

			got := repotest.ReloadBook(t, f.store, book.ID).AvailableCopies
			require.GreaterOrEqual(rt, got, 0)
			require.LessOrEqual(rt, got, copies)
			require.Equal(rt, copies-len(active), got)
		}
	})
}
