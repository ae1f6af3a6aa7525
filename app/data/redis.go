package data

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/km-arc/go-shopping/framework/config"
)

// RedisStore keeps each cart as a hash of line ID → JSON line.
//
//	<prefix>:cart:<cart>   hash, one field per line
//	<prefix>:line:seq      line ID counter
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// OpenRedis connects to cfg.Addr and pings it.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client, cfg.Prefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "shopping"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) cartKey(cart string) string { return s.prefix + ":cart:" + cart }
func (s *RedisStore) seqKey() string { return s.prefix + ":line:seq" }

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Lines(ctx context.Context, cart string) ([]CartLine, error) {
	raw, err := s.client.HGetAll(ctx, s.cartKey(cart)).Result()
	if err != nil {
		return nil, err
	}
	lines := make([]CartLine, 0, len(raw))
	for field, v := range raw {
		var line CartLine
		if err := json.Unmarshal([]byte(v), &line); err != nil {
			return nil, fmt.Errorf("decode line %s: %w", field, err)
		}
		lines = append(lines, line)
	}
	sortLines(lines)
	return lines, nil
}

func (s *RedisStore) Add(ctx context.Context, line CartLine) (CartLine, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return CartLine{}, err
	}
	line.ID = id
	if line.AddedAt.IsZero() {
		line.AddedAt = time.Now().UTC()
	}
	b, err := json.Marshal(line)
	if err != nil {
		return CartLine{}, err
	}
	if err := s.client.HSet(ctx, s.cartKey(line.Cart), strconv.FormatInt(id, 10), b).Err(); err != nil {
		return CartLine{}, err
	}
	return line, nil
}

func (s *RedisStore) Remove(ctx context.Context, cart string, id int64) error {
	n, err := s.client.HDel(ctx, s.cartKey(cart), strconv.FormatInt(id, 10)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, cart string) error {
	return s.client.Del(ctx, s.cartKey(cart)).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }

func sortLines(lines []CartLine) {
	slices.SortFunc(lines, func(a, b CartLine) int { return cmp.Compare(a.ID, b.ID) })
}
