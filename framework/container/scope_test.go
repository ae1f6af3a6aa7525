package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/km-arc/go-shopping/framework/container"
)

// ── Resolve ───────────────────────────────────────────────────────────────────

func TestScope_ResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	scope := container.NewScope(mustIndex(fooBinder{}), container.WithObserver(obs))

	first, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	second, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, scope.Len())
	assert.Equal(t, 1, obs.created)
	assert.Equal(t, 1, obs.hits)
}

func TestScope_DeleteThenResolveCreatesNewInstance(t *testing.T) {
	t.Parallel()

	scope := container.NewScope(mustIndex(fooBinder{}))
	key := container.MustKeyFor[*Foo]()

	before, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)

	scope.Delete(key)
	assert.False(t, scope.Contains(key))

	after, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.NotEqual(t, before.Serial, after.Serial)
}

func TestScope_DeleteMissingKeyIsNoop(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	scope := container.NewScope(mustIndex(fooBinder{}), container.WithObserver(obs))

	scope.Delete(container.MustKeyFor[*Foo]())
	scope.Delete(container.MustKeyFor[*Bar]())

	assert.Zero(t, scope.Len())
	assert.Zero(t, obs.released)
}

func TestScope_UnboundCapability(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	scope := container.NewScope(mustIndex(fooBinder{}), container.WithName("screen"), container.WithObserver(obs))

	for _, key := range []container.Key{
		container.MustKeyFor[*Bar](),
		container.MustKeyFor[*Foo]("Unknown"),
		{Capability: "nowhere.Thing"},
	} {
		_, err := scope.Resolve(key)
		require.Error(t, err, key.String())
		assert.True(t, errors.Is(err, container.ErrUnboundCapability))

		var unbound *container.UnboundCapabilityError
		require.True(t, errors.As(err, &unbound))
		assert.Equal(t, key, unbound.Key)
		assert.Equal(t, "screen", unbound.Scope)
	}
	assert.Equal(t, 3, obs.failed)
	assert.Zero(t, scope.Len())
}

func TestScope_QualifiedKeysAreIndependent(t *testing.T) {
	t.Parallel()

	scope := container.NewScope(mustIndex(fooBinder{}))

	x, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	y, err := container.Resolve[*Foo](scope, QualifierA)
	require.NoError(t, err)
	again, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)

	assert.NotSame(t, x, y)
	assert.Same(t, x, again)
	assert.Equal(t, 2, scope.Len())

	scope.Delete(container.MustKeyFor[*Foo](QualifierA))
	stillX, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	assert.Same(t, x, stillX)
}

func TestScope_AmbientContextOnlyForContextProviders(t *testing.T) {
	t.Parallel()

	var plainCalled bool
	var seen any
	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() *Foo { plainCalled = true; return &Foo{} })
		container.ProvideContext(r, func(ctx context.Context) (*Bar, error) {
			seen = ctx.Value(ctxKey{})
			return &Bar{}, nil
		})
		container.Provide(r, func() Repo { return &memRepo{name: "mem"} })
	})
	ix := mustIndex(b)

	p, ok := ix.Lookup(container.MustKeyFor[*Foo]())
	require.True(t, ok)
	assert.False(t, p.WantsContext())
	p, ok = ix.Lookup(container.MustKeyFor[*Bar]())
	require.True(t, ok)
	assert.True(t, p.WantsContext())

	scope := container.NewScope(ix, container.WithAmbient(ambient()))
	_, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	_, err = container.Resolve[*Bar](scope)
	require.NoError(t, err)

	assert.True(t, plainCalled)
	assert.Equal(t, "ambient", seen)
}

func TestScope_ProviderErrorIsNotCached(t *testing.T) {
	t.Parallel()

	fail := true
	b := container.BinderFunc(func(r *container.Registrar) {
		container.ProvideContext(r, func(context.Context) (*Foo, error) {
			if fail {
				return nil, errBoom
			}
			return &Foo{Serial: 7}, nil
		})
	})
	scope := container.NewScope(mustIndex(b))

	_, err := container.Resolve[*Foo](scope)
	require.Error(t, err)
	assert.True(t, errors.Is(err, container.ErrProviderFailed))
	assert.True(t, errors.Is(err, errBoom))
	assert.Zero(t, scope.Len())

	fail = false
	foo, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	assert.Equal(t, 7, foo.Serial)
}

func TestScope_ReentrantResolveIsACycle(t *testing.T) {
	t.Parallel()

	var scope *container.Scope
	b := container.BinderFunc(func(r *container.Registrar) {
		container.ProvideContext(r, func(context.Context) (*Foo, error) {
			if _, err := container.Resolve[*Bar](scope); err != nil {
				return nil, err
			}
			return &Foo{}, nil
		})
		container.ProvideContext(r, func(context.Context) (*Bar, error) {
			if _, err := container.Resolve[*Foo](scope); err != nil {
				return nil, err
			}
			return &Bar{}, nil
		})
	})
	scope = container.NewScope(mustIndex(b))

	_, err := container.Resolve[*Foo](scope)
	require.Error(t, err)
	assert.True(t, errors.Is(err, container.ErrResolutionCycle))

	var cycle *container.ResolutionCycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, container.MustKeyFor[*Foo](), cycle.Key)
	assert.Len(t, cycle.Stack, 2)
	assert.Zero(t, scope.Len())
}

func TestScope_ProviderMayResolveOtherKeys(t *testing.T) {
	t.Parallel()

	var scope *container.Scope
	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() Repo { return &memRepo{name: "shared"} })
		container.ProvideContext(r, func(context.Context) (*Bar, error) {
			repo, err := container.Resolve[Repo](scope)
			return &Bar{Repo: repo}, err
		})
	})
	scope = container.NewScope(mustIndex(b))

	bar, err := container.Resolve[*Bar](scope)
	require.NoError(t, err)
	repo, err := container.Resolve[Repo](scope)
	require.NoError(t, err)
	assert.Same(t, repo, bar.Repo)
}

func TestResolve_TypeMismatch(t *testing.T) {
	t.Parallel()

	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() *Foo { return &Foo{} })
	})
	scope := container.NewScope(mustIndex(b))

	_, err := container.Resolve[Foo](scope)
	require.Error(t, err)
	assert.True(t, errors.Is(err, container.ErrTypeMismatch))
}

func TestMustResolve_Panics(t *testing.T) {
	t.Parallel()

	scope := container.NewScope(mustIndex(fooBinder{}))
	assert.NotPanics(t, func() { container.MustResolve[*Foo](scope) })
	assert.Panics(t, func() { container.MustResolve[*Bar](scope) })
}

// ── Clear ─────────────────────────────────────────────────────────────────────

func TestScope_ClearClosesInReverseCreationOrder(t *testing.T) {
	t.Parallel()

	var closed []string
	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() *closer { return &closer{name: "first", log: &closed} })
		container.Provide(r, func() *closer { return &closer{name: "second", log: &closed, err: errBoom} }, container.Qualified("second"))
		container.Provide(r, func() *closer { return &closer{name: "third", log: &closed, err: errBoom} }, container.Qualified("third"))
	})
	obs := &countingObserver{}
	scope := container.NewScope(mustIndex(b), container.WithObserver(obs))

	_, err := container.Resolve[*closer](scope)
	require.NoError(t, err)
	_, err = container.Resolve[*closer](scope, "second")
	require.NoError(t, err)
	_, err = container.Resolve[*closer](scope, "third")
	require.NoError(t, err)

	err = scope.Clear()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, []string{"third", "second", "first"}, closed)
	assert.Zero(t, scope.Len())
	assert.Equal(t, 3, obs.released)
}

func TestScope_ResolveAfterClearCreatesFreshInstance(t *testing.T) {
	t.Parallel()

	scope := container.NewScope(mustIndex(fooBinder{}))
	before := container.MustResolve[*Foo](scope)

	require.NoError(t, scope.Clear())
	require.NoError(t, scope.Clear())

	after := container.MustResolve[*Foo](scope)
	assert.NotSame(t, before, after)
}

func TestScope_DeletedEntryIsNotClosedOnClear(t *testing.T) {
	t.Parallel()

	var closed []string
	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() *closer { return &closer{name: "only", log: &closed} })
	})
	scope := container.NewScope(mustIndex(b))
	container.MustResolve[*closer](scope)

	scope.Delete(container.MustKeyFor[*closer]())
	require.NoError(t, scope.Clear())
	assert.Empty(t, closed)
}

func TestScope_ResolveAfterProviderPanic(t *testing.T) {
	t.Parallel()

	calls := 0
	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() *Foo {
			calls++
			if calls == 1 {
				panic("first call")
			}
			return &Foo{Serial: calls}
		})
	})
	scope := container.NewScope(mustIndex(b))

	assert.Panics(t, func() { _, _ = container.Resolve[*Foo](scope) })

	foo, err := container.Resolve[*Foo](scope)
	require.NoError(t, err)
	assert.False(t, errors.Is(err, container.ErrResolutionCycle))
	assert.Equal(t, 2, foo.Serial)
	assert.Equal(t, 2, calls)
}

// closingBar needs a Repo and owns a resource.
type closingBar struct {
	*closer
	Repo Repo
}

func (b *closingBar) InjectionPoints() []container.InjectionPoint {
	return []container.InjectionPoint{container.Field(&b.Repo)}
}

func TestScope_FailedInjectionClosesInstance(t *testing.T) {
	t.Parallel()

	var closed []string
	b := container.BinderFunc(func(r *container.Registrar) {
		container.Provide(r, func() *closingBar {
			return &closingBar{closer: &closer{name: "bar", log: &closed, err: errors.New("busy")}}
		})
	})
	scope := container.NewScope(mustIndex(b))

	_, err := container.Resolve[*closingBar](scope)
	require.ErrorIs(t, err, container.ErrUnboundCapability)
	assert.ErrorContains(t, err, "busy")
	assert.Equal(t, []string{"bar"}, closed)
	assert.Equal(t, 0, scope.Len())

	require.NoError(t, scope.Clear())
	assert.Equal(t, []string{"bar"}, closed)
}
