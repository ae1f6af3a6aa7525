package data_test

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/km-arc/go-shopping/app/data"
	"github.com/km-arc/go-shopping/framework/config"
)

// exercise runs the behaviour every CartStore must share.
func exercise(t *testing.T, store data.CartStore) {
	t.Helper()
	ctx := context.Background()
	cart, other := uuid.NewString(), uuid.NewString()

	lines, err := store.Lines(ctx, cart)
	require.NoError(t, err)
	assert.Empty(t, lines)

	a, err := store.Add(ctx, data.CartLine{Cart: cart, Product: "grinder", Quantity: 1})
	require.NoError(t, err)
	b, err := store.Add(ctx, data.CartLine{Cart: cart, Product: "milk-jug", Quantity: 2})
	require.NoError(t, err)
	_, err = store.Add(ctx, data.CartLine{Cart: other, Product: "grinder", Quantity: 5})
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.Greater(t, b.ID, a.ID)
	assert.False(t, a.AddedAt.IsZero())

	lines, err = store.Lines(ctx, cart)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "grinder", lines[0].Product)
	assert.Equal(t, 2, lines[1].Quantity)

	require.NoError(t, store.Remove(ctx, cart, a.ID))
	assert.ErrorIs(t, store.Remove(ctx, cart, a.ID), data.ErrLineNotFound)
	assert.ErrorIs(t, store.Remove(ctx, other, b.ID), data.ErrLineNotFound, "lines belong to one cart")

	lines, err = store.Lines(ctx, cart)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, b.ID, lines[0].ID)

	require.NoError(t, store.Clear(ctx, cart))
	lines, err = store.Lines(ctx, cart)
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = store.Lines(ctx, other)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := data.NewMemoryStore()
	exercise(t, store)
	assert.NoError(t, store.Close())
}

func TestSQLStore(t *testing.T) {
	t.Parallel()

	store, err := data.OpenSQLite(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exercise(t, store)
	require.NoError(t, store.Migrate(context.Background()), "migrations are idempotent")
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	store, err := data.OpenRedis(context.Background(), config.RedisConfig{Addr: addr, Prefix: "test-" + uuid.NewString()})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	exercise(t, store)
}

func TestRedisStore_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := data.OpenRedis(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)

	store := data.NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	assert.Equal(t, "redis", store.Name())
	assert.NoError(t, store.Close())
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreConfig{Driver: "memory"}}
	store, err := data.Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", store.Name())

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite", DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}}
	store, err = data.Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", store.Name())
	require.NoError(t, store.Close())

	_, err = data.Open(ctx, &config.Config{Store: config.StoreConfig{Driver: "mongo"}}, nil)
	assert.ErrorIs(t, err, data.ErrUnknownDriver)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, p := range data.Catalog() {
		assert.False(t, seen[p.ID], p.ID)
		seen[p.ID] = true
		assert.Positive(t, p.Price)
	}
}
