package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"library-lending/internal/domain"
)

func TestRetry(t *testing.T) {
	ctx := context.Background()

	retried := testutil.ToFloat64(retriesTotal)
	calls := 0
	err := Retry(ctx, 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, retried+2, testutil.ToFloat64(retriesTotal))

	calls = 0
	err = Retry(ctx, 3, func(context.Context) error {
		calls++
		return domain.Conflict(domain.ReasonAlreadyBorrowed)
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Equal(t, 1, calls, "domain errors fail fast")
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	require.Same(t, ce, err, "returned unwrapped")

	calls = 0
	busy := sqlite3.Error{Code: sqlite3.ErrLocked}
	err = Retry(ctx, 2, func(context.Context) error {
		calls++
		return busy
	})
	require.True(t, errors.As(err, &busy))
	require.Equal(t, 2, calls)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = Retry(cctx, 3, func(context.Context) error { return busy })
	require.ErrorIs(t, err, context.Canceled)
}
