// Package service holds the lending core: the inventory ledger, the borrow and fine
// lifecycles, cascading deletion, plus the catalog, wishlist and account operations
// built around them.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"library-lending/internal/core/auth"
	"library-lending/internal/core/cache"
	"library-lending/internal/core/events"
	"library-lending/internal/repo"
)

type Deps struct {
	Store  *repo.Store
	Log    *zap.Logger
	Events events.Publisher
	Cache  *cache.Cache // nil disables caching
	JWT    *auth.JWTer
	Tracer trace.TracerProvider // nil uses the global provider
	Now    func() time.Time
}

type Services struct {
	Borrows  *Borrows
	Fines    *Fines
	Deletion *Deletion
	Catalog  *Catalog
	Wishlist *Wishlist
	Accounts *Accounts
}

func New(d Deps) *Services {
	b := newBase(d)
	return &Services{
		Borrows:  &Borrows{base: b},
		Fines:    &Fines{base: b},
		Deletion: &Deletion{base: b},
		Catalog:  &Catalog{base: b},
		Wishlist: &Wishlist{base: b},
		Accounts: &Accounts{base: b, jwt: d.JWT},
	}
}

// base carries what every service shares.
type base struct {
	store  *repo.Store
	log    *zap.Logger
	pub    events.Publisher
	cache  *cache.Cache
	inv    inventory
	tracer trace.Tracer
	now    func() time.Time
}

func newBase(d Deps) base {
	b := base{store: d.Store, log: d.Log, pub: d.Events, cache: d.Cache, now: d.Now}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.pub == nil {
		b.pub = events.Nop{}
	}
	tp := d.Tracer
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	b.tracer = tp.Tracer(tracerName)
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	return b
}

// afterCommit publishes e and drops cached books. Neither can undo the committed
// transaction, so failures are only logged.
func (b base) afterCommit(ctx context.Context, e events.Event, bookIDs ...string) {
	if e.Type != "" {
		if e.At.IsZero() {
			e.At = b.now()
		}
		if err := b.pub.Publish(ctx, e); err != nil {
			b.log.Warn("publish event failed", zap.String("type", string(e.Type)), zap.Error(err))
		}
	}
	if len(bookIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(bookIDs))
	for _, id := range bookIDs {
		keys = append(keys, bookKey(b.cache, id))
	}
	if err := b.cache.Invalidate(ctx, keys...); err != nil {
		b.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// noEvent invalidates caches without publishing.
var noEvent events.Event

func bookKey(c *cache.Cache, id string) string { return c.Key("book", id) }
