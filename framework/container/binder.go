package container

import (
	"context"
	"reflect"
)

// ── Binder ────────────────────────────────────────────────────────────────────

// Binder is a plain value that declares providers. Provide is called once per
// index build and must only register; binders have no lifecycle of their own.
//
//	type RepositoryBinder struct{ Store data.CartStore }
//
//	func (b RepositoryBinder) Provide(r *container.Registrar) {
//	    container.Provide(r, func() repository.CartRepository {
//	        return repository.NewCart(b.Store)
//	    }, container.Qualified(repository.Database))
//	}
type Binder interface {
	Provide(r *Registrar)
}

// BinderFunc adapts a function to Binder. Index caching keys on the binder's
// dynamic type, so distinct BinderFuncs share one cache slot; prefer named
// binder types in production wiring.
type BinderFunc func(r *Registrar)

func (f BinderFunc) Provide(r *Registrar) { f(r) }

// BinderName returns the name used for a binder in errors, logs and caches.
func BinderName(b Binder) string {
	if b == nil {
		return "<nil>"
	}
	return reflect.TypeOf(b).String()
}

// ── Provider ──────────────────────────────────────────────────────────────────

// Provider is one registered factory. It never caches; caching belongs to
// the Scope that invokes it.
type Provider struct {
	key     Key
	binder  string
	ambient bool
	factory func(ctx context.Context) (any, error)
}

// Key returns the key the provider is registered under.
func (p Provider) Key() Key { return p.key }

// Binder returns the name of the binder that declared the provider.
func (p Provider) Binder() string { return p.binder }

// WantsContext reports whether the provider asked for the ambient context.
func (p Provider) WantsContext() bool { return p.ambient }

// Invoke calls the factory. The ambient context is only handed over when
// the provider declared it wants one.
func (p Provider) Invoke(ambient context.Context) (any, error) {
	if !p.ambient {
		ambient = nil
	}
	v, err := p.factory(ambient)
	if err != nil {
		return nil, &ProviderError{Key: p.key, Err: err}
	}
	return v, nil
}

// ── Registrar ─────────────────────────────────────────────────────────────────

// Registrar collects providers while a binder's Provide method runs.
// Registration errors are kept and reported by BuildIndex.
type Registrar struct {
	binder    string
	providers []Provider
	errs      []error
}

// ProvideOption customises a single registration.
type ProvideOption func(*provideOptions)

type provideOptions struct {
	qualifier Qualifier
}

// Qualified tags the registration with q.
func Qualified(q Qualifier) ProvideOption {
	return func(o *provideOptions) { o.qualifier = q }
}

// Provide registers a provider of capability T that takes no arguments.
func Provide[T any](r *Registrar, fn func() T, opts ...ProvideOption) {
	register[T](r, false, func(context.Context) (any, error) {
		return fn(), nil
	}, opts)
}

// ProvideContext registers a provider of capability T that receives the
// ambient context of the scope that invokes it.
func ProvideContext[T any](r *Registrar, fn func(ctx context.Context) (T, error), opts ...ProvideOption) {
	register[T](r, true, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, opts)
}

func register[T any](r *Registrar, ambient bool, factory func(context.Context) (any, error), opts []ProvideOption) {
	var o provideOptions
	for _, opt := range opts {
		opt(&o)
	}
	c, err := CapabilityOf(reflect.TypeFor[T]())
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	r.providers = append(r.providers, Provider{
		key:     Key{Capability: c, Qualifier: o.qualifier},
		binder:  r.binder,
		ambient: ambient,
		factory: factory,
	})
}
