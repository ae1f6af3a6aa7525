// Package viewmodel holds the screen-scoped presentation state of a shopping
// session. View models are created by a screen's scope and reach the
// process-wide repositories through injected fields.
//
// A view model's fields are set once, on the goroutine that owns the scope.
// After that its methods may be called from any goroutine.
package viewmodel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/app/data"
	"github.com/km-arc/go-shopping/app/repository"
	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/logging"
)

// Line is a cart line joined with its product.
type Line struct {
	ID       int64     `json:"id"`
	Product  string    `json:"product"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	Price    int64     `json:"price"`
	Subtotal int64     `json:"subtotal"`
	AddedAt  time.Time `json:"added_at"`
}

// CartView is what the cart screen renders.
type CartView struct {
	ViewModel string `json:"view_model"`
	Source    string `json:"source"`
	Lines     []Line `json:"lines"`
	Total     int64  `json:"total"`
}

// ── Cart ──────────────────────────────────────────────────────────────────────

// Cart presents one session's cart.
type Cart struct {
	id      string
	created time.Time
	log     *zap.Logger

	repo     repository.CartRepository
	products repository.ProductRepository
}

func NewCart(log *zap.Logger) *Cart {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Cart{id: id, created: time.Now().UTC(), log: log.With(zap.String("view_model", id))}
}

func (vm *Cart) InjectionPoints() []container.InjectionPoint {
	return []container.InjectionPoint{
		container.Field(&vm.repo, repository.Database),
		container.Field(&vm.products),
	}
}

// ID identifies this instance. It changes only when the scope that owns the
// view model creates a new one.
func (vm *Cart) ID() string { return vm.id }

// Created is when the instance was built.
func (vm *Cart) Created() time.Time { return vm.created }

// View loads the cart's lines and prices them.
func (vm *Cart) View(ctx context.Context, cart string) (CartView, error) {
	lines, err := vm.repo.Lines(ctx, cart)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{ViewModel: vm.id, Source: vm.repo.Source(), Lines: make([]Line, 0, len(lines))}
	for _, l := range lines {
		line := vm.join(l)
		view.Lines = append(view.Lines, line)
		view.Total += line.Subtotal
	}
	return view, nil
}

// Add puts quantity of product into the cart.
func (vm *Cart) Add(ctx context.Context, cart, product string, quantity int) (Line, error) {
	l, err := vm.repo.Add(ctx, cart, product, quantity)
	if err != nil {
		return Line{}, err
	}
	vm.log.Info("added to cart", zap.String("cart", cart), zap.String("product", product), zap.Int("quantity", quantity))
	return vm.join(l), nil
}

// Remove deletes one line from the cart.
func (vm *Cart) Remove(ctx context.Context, cart string, line int64) error {
	return vm.repo.Remove(ctx, cart, line)
}

// Empty deletes every line of the cart.
func (vm *Cart) Empty(ctx context.Context, cart string) error {
	return vm.repo.Clear(ctx, cart)
}

func (vm *Cart) join(l data.CartLine) Line {
	line := Line{ID: l.ID, Product: l.Product, Name: l.Product, Quantity: l.Quantity, AddedAt: l.AddedAt}
	if p, err := vm.products.Find(l.Product); err == nil {
		line.Name = p.Name
		line.Price = p.Price
		line.Subtotal = p.Price * int64(l.Quantity)
	}
	return line
}

// ── Products ──────────────────────────────────────────────────────────────────

// Products presents the catalog.
type Products struct {
	products repository.ProductRepository
}

func (vm *Products) InjectionPoints() []container.InjectionPoint {
	return []container.InjectionPoint{container.Field(&vm.products)}
}

func (vm *Products) List() []data.Product { return vm.products.All() }

// ── Summary ───────────────────────────────────────────────────────────────────

// SummaryView is the compact cart summary a panel shows.
type SummaryView struct {
	ViewModel string `json:"view_model"`
	Items     int    `json:"items"`
	Total     int64  `json:"total"`
}

// Summary backs the summary panel nested in a cart screen.
type Summary struct {
	id   string
	cart *Cart
}

func (vm *Summary) InjectionPoints() []container.InjectionPoint {
	return vm.cart.InjectionPoints()
}

// Summarize counts the items in the cart and totals them.
func (vm *Summary) Summarize(ctx context.Context, cart string) (SummaryView, error) {
	view, err := vm.cart.View(ctx, cart)
	if err != nil {
		return SummaryView{}, err
	}
	s := SummaryView{ViewModel: vm.id, Total: view.Total}
	for _, l := range view.Lines {
		s.Items += l.Quantity
	}
	return s, nil
}

// ── Binders ───────────────────────────────────────────────────────────────────

// Binder provides the view models of a cart screen.
type Binder struct{}

func (Binder) Provide(r *container.Registrar) {
	container.ProvideContext(r, func(ctx context.Context) (*Cart, error) {
		return NewCart(logging.FromContext(ctx).Named("viewmodel")), nil
	})
	container.Provide(r, func() *Products { return &Products{} })
}

// PanelBinder provides the view models of the summary panel. The panel has
// its own Cart, so its lifetime follows the panel, not the screen.
type PanelBinder struct{}

func (PanelBinder) Provide(r *container.Registrar) {
	container.ProvideContext(r, func(ctx context.Context) (*Summary, error) {
		return &Summary{
			id:   uuid.NewString(),
			cart: NewCart(logging.FromContext(ctx).Named("panel")),
		}, nil
	})
}
