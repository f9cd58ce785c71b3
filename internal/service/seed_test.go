package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"library-lending/internal/service"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rep, err := service.Seed(ctx, f.svc)
	require.NoError(t, err)
	require.Equal(t, service.SeedReport{Users: 2, Books: 3}, rep)

	rep, err = service.Seed(ctx, f.svc)
	require.NoError(t, err)
	require.Zero(t, rep.Users)
	require.Zero(t, rep.Books)

	_, err = f.svc.Accounts.Login(ctx, "librarian@library.com", "password123")
	require.NoError(t, err)
}
