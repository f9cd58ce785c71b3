package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"library-lending/internal/core/auth"
	"library-lending/internal/core/events"
	"library-lending/internal/repo"
	"library-lending/internal/repo/repotest"
	"library-lending/internal/service"
)

type fixture struct {
	svc   *service.Services
	store *repo.Store
	pub   *events.Memory
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	return newFixtureOn(t, repotest.NewStore(t))
}

// newConcurrentFixture runs on a pool of conns connections so transactions interleave.
func newConcurrentFixture(t testing.TB, conns int) *fixture {
	t.Helper()
	return newFixtureOn(t, repo.NewStore(repotest.OpenConcurrent(t, conns)))
}

func newFixtureOn(t testing.TB, store *repo.Store, opts ...func(*service.Deps)) *fixture {
	t.Helper()
	pub := &events.Memory{}
	d := service.Deps{
		Store:  store,
		Log:    zaptest.NewLogger(t),
		Events: pub,
		JWT:    &auth.JWTer{Secret: []byte("test"), Issuer: "library-test", TTL: time.Minute, RefreshTTL: time.Hour},
	}
	for _, o := range opts {
		o(&d)
	}
	svc := service.New(d)
	return &fixture{svc: svc, store: store, pub: pub}
}

func mustDecimal(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
