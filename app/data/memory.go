package data

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps cart lines in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	carts  map[string][]CartLine
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string][]CartLine),
		now:   time.Now,
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Lines(_ context.Context, cart string) ([]CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.carts[cart]), nil
}

func (s *MemoryStore) Add(_ context.Context, line CartLine) (CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	line.ID = s.nextID
	if line.AddedAt.IsZero() {
		line.AddedAt = s.now().UTC()
	}
	s.carts[line.Cart] = append(s.carts[line.Cart], line)
	return line, nil
}

func (s *MemoryStore) Remove(_ context.Context, cart string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[cart]
	i := slices.IndexFunc(lines, func(l CartLine) bool { return l.ID == id })
	if i < 0 {
		return ErrLineNotFound
	}
	s.carts[cart] = slices.Delete(lines, i, i+1)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, cart string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cart)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
