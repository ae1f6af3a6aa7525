package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-shopping/app/data"
	"github.com/km-arc/go-shopping/app/repository"
	"github.com/km-arc/go-shopping/framework/container"
	"github.com/km-arc/go-shopping/framework/lifecycle"
)

type processHost struct{ lc *lifecycle.Lifecycle }

func (h processHost) HostID() string                  { return "process" }
func (h processHost) HostKind() lifecycle.Kind        { return lifecycle.KindApplication }
func (h processHost) Lifecycle() *lifecycle.Lifecycle { return h.lc }

func newModules(t *testing.T) (*container.ModuleRegistry, *data.MemoryStore, *data.MemoryStore, *lifecycle.Lifecycle) {
	t.Helper()
	memory, durable := data.NewMemoryStore(), data.NewMemoryStore()
	modules := container.NewModuleRegistry(repository.Binder{
		Memory:  memory,
		Durable: durable,
		Catalog: data.Catalog(),
	})
	lc := lifecycle.New()
	require.NoError(t, modules.Init(processHost{lc: lc}))
	return modules, memory, durable, lc
}

func TestBinder_ProvidesQualifiedCarts(t *testing.T) {
	t.Parallel()
	modules, memory, durable, _ := newModules(t)
	ctx := context.Background()

	mem, err := container.Resolve[repository.CartRepository](modules, repository.InMemory)
	require.NoError(t, err)
	db, err := container.Resolve[repository.CartRepository](modules, repository.Database)
	require.NoError(t, err)
	def, err := container.Resolve[repository.CartRepository](modules)
	require.NoError(t, err)

	assert.NotSame(t, mem, db)
	assert.NotSame(t, db, def, "qualified and unqualified keys are distinct")

	again, err := container.Resolve[repository.CartRepository](modules, repository.Database)
	require.NoError(t, err)
	assert.Same(t, db, again)

	_, err = mem.Add(ctx, "c1", "grinder", 1)
	require.NoError(t, err)
	_, err = db.Add(ctx, "c1", "milk-jug", 2)
	require.NoError(t, err)

	lines, _ := memory.Lines(ctx, "c1")
	require.Len(t, lines, 1)
	assert.Equal(t, "grinder", lines[0].Product)

	lines, _ = durable.Lines(ctx, "c1")
	require.Len(t, lines, 1)
	assert.Equal(t, "milk-jug", lines[0].Product)
}

func TestCart_InjectedCatalogRejectsUnknownProducts(t *testing.T) {
	t.Parallel()
	modules, _, _, _ := newModules(t)
	ctx := context.Background()

	repo, err := container.Resolve[repository.CartRepository](modules, repository.Database)
	require.NoError(t, err)

	_, err = repo.Add(ctx, "c1", "teapot", 1)
	assert.ErrorIs(t, err, data.ErrProductNotFound)

	_, err = repo.Add(ctx, "c1", "grinder", 0)
	assert.ErrorIs(t, err, repository.ErrInvalidQuantity)

	line, err := repo.Add(ctx, "c1", "grinder", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, "c1", line.ID))
	assert.ErrorIs(t, repo.Remove(ctx, "c1", line.ID), data.ErrLineNotFound)
	assert.Equal(t, "memory", repo.Source())
}

func TestBinder_TornDownWithProcess(t *testing.T) {
	t.Parallel()
	modules, _, _, lc := newModules(t)

	_, err := container.Resolve[repository.ProductRepository](modules)
	require.NoError(t, err)

	lc.Dispatch(lifecycle.Transition{Event: lifecycle.Destroyed, Finishing: true})
	assert.False(t, modules.Initialized())

	_, err = container.Resolve[repository.ProductRepository](modules)
	assert.ErrorIs(t, err, container.ErrModuleNotInitialized)
}

func TestBinder_MissingStore(t *testing.T) {
	t.Parallel()
	modules := container.NewModuleRegistry(repository.Binder{Catalog: data.Catalog()})
	require.NoError(t, modules.Init(processHost{lc: lifecycle.New()}))

	_, err := container.Resolve[repository.CartRepository](modules, repository.InMemory)
	assert.ErrorIs(t, err, container.ErrProviderFailed)
}

func TestProducts(t *testing.T) {
	t.Parallel()
	products := repository.NewProducts(data.Catalog())

	p, err := products.Find("grinder")
	require.NoError(t, err)
	assert.Equal(t, "Burr grinder", p.Name)

	_, err = products.Find("teapot")
	assert.ErrorIs(t, err, data.ErrProductNotFound)

	all := products.All()
	all[0].Name = "changed"
	assert.NotEqual(t, "changed", products.All()[0].Name)
}
