package container

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Resolver is anything that can turn a key into an instance: a Scope or the
// ModuleRegistry.
type Resolver interface {
	Resolve(key Key) (any, error)
}

// ── Scope ─────────────────────────────────────────────────────────────────────

// Scope is a lifecycle-bounded cache of instances built from one
// ProviderIndex.
//
// Within a live scope, resolving the same key twice returns the same
// instance until the entry is deleted. A scope only ever reads its own
// cache; dependencies owned by other scopes reach it through the
// FieldInjector's routes.
//
// Scope is not safe for concurrent use. Confine it to the goroutine that owns
// the host (see framework/mainthread).
type Scope struct {
	name     string
	index    *ProviderIndex
	ambient  context.Context
	injector *FieldInjector
	log      *zap.Logger
	observer Observer

	entries  map[Key]any
	order    []Key
	creating []Key
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithName sets the scope name used in errors, logs and metrics.
func WithName(name string) ScopeOption {
	return func(s *Scope) { s.name = name }
}

// WithAmbient sets the context handed to providers registered with
// ProvideContext.
func WithAmbient(ctx context.Context) ScopeOption {
	return func(s *Scope) {
		if ctx != nil {
			s.ambient = ctx
		}
	}
}

// WithInjector sets the injector run over every newly created instance.
func WithInjector(f *FieldInjector) ScopeOption {
	return func(s *Scope) {
		if f != nil {
			s.injector = f
		}
	}
}

// WithLogger sets the scope logger.
func WithLogger(l *zap.Logger) ScopeOption {
	return func(s *Scope) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) ScopeOption {
	return func(s *Scope) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewScope creates an empty scope over index.
func NewScope(index *ProviderIndex, opts ...ScopeOption) *Scope {
	s := &Scope{
		name:     index.Binder(),
		index:    index,
		ambient:  context.Background(),
		injector: NewFieldInjector(nil),
		log:      zap.NewNop(),
		observer: nopObserver{},
		entries:  make(map[Key]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("scope", s.name))
	return s
}

// Name returns the scope name.
func (s *Scope) Name() string { return s.name }

// Index returns the provider index backing the scope.
func (s *Scope) Index() *ProviderIndex { return s.index }

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve returns the cached instance for key, creating it on first request.
//
// Creation invokes the provider, caches the result and then runs the field
// injector over it. If injection fails the entry is dropped again and the
// error is returned; callers never see a partially injected instance.
func (s *Scope) Resolve(key Key) (any, error) {
	if v, ok := s.entries[key]; ok {
		s.observer.Resolved(s.name, key, false)
		return v, nil
	}

	p, ok := s.index.Lookup(key)
	if !ok {
		return nil, s.fail(key, &UnboundCapabilityError{Key: key, Scope: s.name})
	}
	if slices.Contains(s.creating, key) {
		return nil, s.fail(key, &ResolutionCycleError{Key: key, Stack: slices.Clone(s.creating)})
	}

	v, err := s.invoke(key, p)
	if err != nil {
		return nil, s.fail(key, err)
	}

	s.entries[key] = v
	s.order = append(s.order, key)

	if err := s.injector.Inject(v, s); err != nil {
		s.forget(key)
		if c, ok := v.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("close %s: %w", key, cerr))
			}
		}
		return nil, s.fail(key, err)
	}

	s.log.Debug("instance created", zap.Stringer("key", key))
	s.observer.Resolved(s.name, key, true)
	return v, nil
}

// invoke runs the provider with key on the creation stack. The key is popped
// even if the provider panics.
func (s *Scope) invoke(key Key, p Provider) (any, error) {
	s.creating = append(s.creating, key)
	defer func() { s.creating = s.creating[:len(s.creating)-1] }()
	return p.Invoke(s.ambient)
}

// Contains reports whether key currently has a cached instance.
func (s *Scope) Contains(key Key) bool {
	_, ok := s.entries[key]
	return ok
}

// Len returns the number of cached instances.
func (s *Scope) Len() int { return len(s.entries) }

// Delete drops the cached instance for key, if any. The next Resolve
// creates a new instance. The dropped value is not closed; the caller may
// still hold it.
func (s *Scope) Delete(key Key) {
	if !s.forget(key) {
		return
	}
	s.log.Debug("instance deleted", zap.Stringer("key", key))
	s.observer.Released(s.name, 1)
}

// Clear drops every cached instance. Values implementing io.Closer are
// closed in reverse creation order; close errors are combined and returned
// after every entry has been released.
func (s *Scope) Clear() error {
	n := len(s.entries)
	if n == 0 {
		return nil
	}

	var err error
	for i := len(s.order) - 1; i >= 0; i-- {
		key := s.order[i]
		if c, ok := s.entries[key].(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				s.log.Warn("closing instance failed", zap.Stringer("key", key), zap.Error(cerr))
				err = multierr.Append(err, fmt.Errorf("close %s: %w", key, cerr))
			}
		}
	}
	clear(s.entries)
	s.order = s.order[:0]

	s.log.Debug("scope cleared", zap.Int("entries", n))
	s.observer.Released(s.name, n)
	return err
}

func (s *Scope) forget(key Key) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

func (s *Scope) fail(key Key, err error) error {
	s.log.Debug("resolution failed", zap.Stringer("key", key), zap.Error(err))
	s.observer.Failed(s.name, key, err)
	return err
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve resolves capability T from r and type-asserts the result.
//
//	vm, err := container.Resolve[*viewmodel.Cart](scope)
//	repo, err := container.Resolve[repository.CartRepository](modules, repository.Database)
func Resolve[T any](r Resolver, q ...Qualifier) (T, error) {
	var zero T
	key, err := KeyFor[T](q...)
	if err != nil {
		return zero, err
	}
	v, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to %T, want %s", ErrTypeMismatch, key, v, reflect.TypeFor[T]())
	}
	return typed, nil
}

// MustResolve is Resolve for wiring code that cannot recover; it panics on error.
func MustResolve[T any](r Resolver, q ...Qualifier) T {
	v, err := Resolve[T](r, q...)
	if err != nil {
		panic(err)
	}
	return v
}
