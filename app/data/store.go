// Package data holds the shopping domain records and the stores that persist
// cart lines: in memory, in SQLite through bun, or in Redis.
package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/framework/config"
)

var (
	// ErrLineNotFound is returned when a cart line does not exist.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrProductNotFound is returned for an unknown product ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrUnknownDriver is returned by Open for an unsupported store driver.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// CartLine is one product entry in a cart.
type CartLine struct {
	bun.BaseModel `bun:"table:cart_lines" json:"-"`

	ID       int64     `bun:",pk,autoincrement" json:"id"`
	Cart     string    `bun:",notnull" json:"cart"`
	Product  string    `bun:",notnull" json:"product"`
	Quantity int       `bun:",notnull" json:"quantity"`
	AddedAt  time.Time `bun:",notnull" json:"added_at"`
}

// Product is a catalog entry. Prices are in cents.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// CartStore persists cart lines, keyed by cart ID. Implementations are safe
// for concurrent use.
type CartStore interface {
	// Lines returns the cart's lines in insertion order.
	Lines(ctx context.Context, cart string) ([]CartLine, error)
	// Add appends a line and returns it with its ID set.
	Add(ctx context.Context, line CartLine) (CartLine, error)
	// Remove deletes one line; ErrLineNotFound if the cart has no such line.
	Remove(ctx context.Context, cart string, id int64) error
	// Clear deletes every line of the cart.
	Clear(ctx context.Context, cart string) error
	// Name identifies the backend in logs and responses.
	Name() string
	Close() error
}

// Open builds the durable store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (CartStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		store CartStore
		err   error
	)
	switch cfg.Store.Driver {
	case "memory":
		store = NewMemoryStore()
	case "sqlite":
		store, err = OpenSQLite(ctx, cfg.Store.DSN)
	case "redis":
		store, err = OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	log.Info("cart store opened", zap.String("driver", store.Name()))
	return store, nil
}

// Catalog is the fixed product list served by the products endpoint.
func Catalog() []Product {
	return []Product{
		{ID: "espresso-beans", Name: "Espresso beans 1kg", Price: 2490},
		{ID: "filter-papers", Name: "Filter papers (100)", Price: 450},
		{ID: "milk-jug", Name: "Steel milk jug", Price: 1899},
		{ID: "grinder", Name: "Burr grinder", Price: 12900},
	}
}
