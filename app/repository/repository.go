// Package repository exposes the cart and catalog to the rest of the app.
// Repositories are process-wide: they are provided by Binder and served by
// the module registry.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/app/data"
	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/logging"
)

// Qualifiers for the two CartRepository providers.
const (
	InMemory container.Qualifier = "in-memory"
	Database container.Qualifier = "database"
)

// ErrInvalidQuantity is returned by Add for quantities below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartRepository reads and edits carts.
type CartRepository interface {
	Lines(ctx context.Context, cart string) ([]data.CartLine, error)
	Add(ctx context.Context, cart, product string, quantity int) (data.CartLine, error)
	Remove(ctx context.Context, cart string, id int64) error
	Clear(ctx context.Context, cart string) error
	// Source names the backing store.
	Source() string
}

// ProductRepository serves the catalog.
type ProductRepository interface {
	All() []data.Product
	Find(id string) (data.Product, error)
}

// ── Products ──────────────────────────────────────────────────────────────────

// Products is a ProductRepository over a fixed list.
type Products struct {
	items []data.Product
}

func NewProducts(items []data.Product) *Products {
	return &Products{items: slices.Clone(items)}
}

func (p *Products) All() []data.Product { return slices.Clone(p.items) }

func (p *Products) Find(id string) (data.Product, error) {
	i := slices.IndexFunc(p.items, func(item data.Product) bool { return item.ID == id })
	if i < 0 {
		return data.Product{}, fmt.Errorf("%w: %q", data.ErrProductNotFound, id)
	}
	return p.items[i], nil
}

// ── Cart ──────────────────────────────────────────────────────────────────────

// Cart is a CartRepository over a CartStore. Its product catalog is injected
// after creation.
type Cart struct {
	store    data.CartStore
	log      *zap.Logger
	products ProductRepository
}

func NewCart(store data.CartStore, log *zap.Logger) *Cart {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cart{store: store, log: log.With(zap.String("store", store.Name()))}
}

func (c *Cart) InjectionPoints() []container.InjectionPoint {
	return []container.InjectionPoint{
		container.Field(&c.products),
	}
}

func (c *Cart) Source() string { return c.store.Name() }

func (c *Cart) Lines(ctx context.Context, cart string) ([]data.CartLine, error) {
	return c.store.Lines(ctx, cart)
}

// Add checks the product against the catalog and stores a new line.
func (c *Cart) Add(ctx context.Context, cart, product string, quantity int) (data.CartLine, error) {
	if quantity < 1 {
		return data.CartLine{}, ErrInvalidQuantity
	}
	if c.products != nil {
		if _, err := c.products.Find(product); err != nil {
			return data.CartLine{}, err
		}
	}
	line, err := c.store.Add(ctx, data.CartLine{Cart: cart, Product: product, Quantity: quantity})
	if err != nil {
		return data.CartLine{}, fmt.Errorf("add to cart %s: %w", cart, err)
	}
	c.log.Debug("line added", zap.String("cart", cart), zap.Int64("line", line.ID))
	return line, nil
}

func (c *Cart) Remove(ctx context.Context, cart string, id int64) error {
	if err := c.store.Remove(ctx, cart, id); err != nil {
		return err
	}
	c.log.Debug("line removed", zap.String("cart", cart), zap.Int64("line", id))
	return nil
}

func (c *Cart) Clear(ctx context.Context, cart string) error {
	return c.store.Clear(ctx, cart)
}

// ── Binder ────────────────────────────────────────────────────────────────────

// Binder provides the repositories. Memory backs the InMemory cart, Durable
// the Database cart; the unqualified CartRepository is the durable one.
type Binder struct {
	Memory  data.CartStore
	Durable data.CartStore
	Catalog []data.Product
}

func (b Binder) Provide(r *container.Registrar) {
	container.Provide(r, func() ProductRepository {
		return NewProducts(b.Catalog)
	})
	container.ProvideContext(r, func(ctx context.Context) (CartRepository, error) {
		return b.cart(ctx, b.Memory)
	}, container.Qualified(InMemory))
	container.ProvideContext(r, func(ctx context.Context) (CartRepository, error) {
		return b.cart(ctx, b.Durable)
	}, container.Qualified(Database))
	container.ProvideContext(r, func(ctx context.Context) (CartRepository, error) {
		return b.cart(ctx, b.Durable)
	})
}

func (b Binder) cart(ctx context.Context, store data.CartStore) (CartRepository, error) {
	if store == nil {
		return nil, errors.New("no cart store configured")
	}
	return NewCart(store, logging.FromContext(ctx).Named("cart")), nil
}
