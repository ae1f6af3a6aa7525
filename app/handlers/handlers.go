// Package handlers exposes shopping sessions over HTTP.
//
// Every touch of the session manager or a scope runs on the main loop. Cart
// I/O runs on the request goroutine once the view model has been resolved.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/app/data"
	"github.com/km-arc/go-shopping/app/repository"
	"github.com/km-arc/go-shopping/app/screen"
	"github.com/km-arc/go-shopping/app/viewmodel"
	"github.com/km-arc/go-shopping/framework/container"
	gohttp "github.com/km-arc/go-shopping/framework/http"
	"github.com/km-arc/go-shopping/framework/http/validation"
	"github.com/km-arc/go-shopping/framework/logging"
	"github.com/km-arc/go-shopping/framework/mainthread"
	"github.com/km-arc/go-shopping/framework/routing"
)

// Handlers serves the session, cart and catalog endpoints.
type Handlers struct {
	loop    *mainthread.Loop
	screens *screen.Manager
	modules container.Resolver
}

func New(loop *mainthread.Loop, screens *screen.Manager, modules container.Resolver) *Handlers {
	return &Handlers{loop: loop, screens: screens, modules: modules}
}

// Routes registers the endpoints on r.
//
//	POST   /sessions
//	DELETE /sessions/{session}
//	POST   /sessions/{session}/recreate
//	GET    /sessions/{session}/cart
//	POST   /sessions/{session}/cart
//	DELETE /sessions/{session}/cart
//	DELETE /sessions/{session}/cart/{line}
//	GET    /sessions/{session}/summary
//	GET    /sessions/{session}/products
//	GET    /products
//	GET    /health
func (h *Handlers) Routes(r *routing.Router) {
	r.Get("/health", h.Health)
	r.Get("/products", h.Catalog)
	r.Prefix("/sessions", func(s *routing.Router) {
		s.Post("/", h.OpenSession)
		s.Delete("/{session}", h.CloseSession)
		s.Post("/{session}/recreate", h.RecreateSession)
		s.Get("/{session}/cart", h.ShowCart)
		s.Post("/{session}/cart", h.AddLine)
		s.Delete("/{session}/cart", h.EmptyCart)
		s.Delete("/{session}/cart/{line}", h.RemoveLine)
		s.Get("/{session}/summary", h.Summary)
		s.Get("/{session}/products", h.Products)
	})
}

// ── Sessions ──────────────────────────────────────────────────────────────────

type sessionResource struct {
	ID        string `json:"id"`
	ViewModel string `json:"view_model"`
}

func (h *Handlers) OpenSession(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	out, err := mainthread.Call(r.Context(), h.loop, func() (sessionResource, error) {
		s, err := h.screens.Open()
		if err != nil {
			return sessionResource{}, err
		}
		return h.describe(s.HostID())
	})
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Created(out)
}

func (h *Handlers) RecreateSession(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	out, err := mainthread.Call(r.Context(), h.loop, func() (sessionResource, error) {
		if _, err := h.screens.Recreate(id); err != nil {
			return sessionResource{}, err
		}
		return h.describe(id)
	})
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Success(out)
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	err := h.loop.Do(r.Context(), func() error { return h.screens.Close(id) })
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.NoContent()
}

// describe runs on the loop.
func (h *Handlers) describe(id string) (sessionResource, error) {
	vm, err := h.screens.Cart(id)
	if err != nil {
		return sessionResource{}, err
	}
	return sessionResource{ID: id, ViewModel: vm.ID()}, nil
}

// ── Cart ──────────────────────────────────────────────────────────────────────

func (h *Handlers) cart(ctx context.Context, id string) (*viewmodel.Cart, error) {
	return mainthread.Call(ctx, h.loop, func() (*viewmodel.Cart, error) {
		return h.screens.Cart(id)
	})
}

func (h *Handlers) ShowCart(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	vm, err := h.cart(r.Context(), id)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	view, err := vm.View(r.Context(), id)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Success(view)
}

type addLineRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

var addLineRules = validation.Rules{
	"product":  "required|alpha_dash",
	"quantity": "required|integer|gte:1|lte:99",
}

func (h *Handlers) AddLine(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")

	var body addLineRequest
	if err := req.Bind(&body); err != nil {
		fail(r.Context(), res, err)
		return
	}
	err := req.Validate(map[string]string{
		"product":  body.Product,
		"quantity": strconv.Itoa(body.Quantity),
	}, addLineRules)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}

	vm, err := h.cart(r.Context(), id)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	line, err := vm.Add(r.Context(), id, body.Product, body.Quantity)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Created(line)
}

func (h *Handlers) RemoveLine(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	line, err := req.IntParam("line")
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	vm, err := h.cart(r.Context(), id)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	if err := vm.Remove(r.Context(), id, int64(line)); err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.NoContent()
}

func (h *Handlers) EmptyCart(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	vm, err := h.cart(r.Context(), id)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	if err := vm.Empty(r.Context(), id); err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.NoContent()
}

func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	vm, err := mainthread.Call(r.Context(), h.loop, func() (*viewmodel.Summary, error) {
		return h.screens.Summary(id)
	})
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	view, err := vm.Summarize(r.Context(), id)
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Success(view)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	id := req.RouteParam("session")
	vm, err := mainthread.Call(r.Context(), h.loop, func() (*viewmodel.Products, error) {
		return h.screens.Products(id)
	})
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Success(vm.List())
}

func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	products, err := mainthread.Call(r.Context(), h.loop, func() (repository.ProductRepository, error) {
		return container.Resolve[repository.ProductRepository](h.modules)
	})
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Success(products.All())
}

// ── Health ────────────────────────────────────────────────────────────────────

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	sessions, err := mainthread.Call(r.Context(), h.loop, func() (int, error) {
		return h.screens.Len(), nil
	})
	if err != nil {
		fail(r.Context(), res, err)
		return
	}
	res.Success(map[string]any{"status": "ok", "sessions": sessions})
}

// ── Errors ────────────────────────────────────────────────────────────────────

var notFound = []error{screen.ErrSessionNotFound, data.ErrLineNotFound, data.ErrProductNotFound}

func fail(ctx context.Context, res *gohttp.Response, err error) {
	for _, target := range notFound {
		if errors.Is(err, target) {
			err = gohttp.WithStatus(http.StatusNotFound, err)
			break
		}
	}
	if errors.Is(err, repository.ErrInvalidQuantity) {
		err = gohttp.WithStatus(http.StatusUnprocessableEntity, err)
	}
	if status := gohttp.StatusOf(err); status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	res.Fail(err)
}
