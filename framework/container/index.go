package container

import (
	"errors"
	"reflect"
	"slices"
)

// ── ProviderIndex ─────────────────────────────────────────────────────────────

// ProviderIndex maps keys to the providers of one binder. It is immutable once
// built and may be shared between any number of scopes.
type ProviderIndex struct {
	binder    string
	providers map[Key]Provider
	keys      []Key
}

// BuildIndex runs b.Provide and indexes every registration.
//
// It fails with AnonymousCapabilityError when a provider's capability has no
// name, and with DuplicateProviderKeyError when two providers share a key.
// Duplicates are never overwritten or skipped.
func BuildIndex(b Binder) (*ProviderIndex, error) {
	if b == nil {
		return nil, errors.New("container: nil binder")
	}
	r := &Registrar{binder: BinderName(b)}
	b.Provide(r)
	if len(r.errs) > 0 {
		return nil, r.errs[0]
	}

	ix := &ProviderIndex{
		binder:    r.binder,
		providers: make(map[Key]Provider, len(r.providers)),
		keys:      make([]Key, 0, len(r.providers)),
	}
	for _, p := range r.providers {
		if _, dup := ix.providers[p.key]; dup {
			return nil, &DuplicateProviderKeyError{Binder: r.binder, Key: p.key}
		}
		ix.providers[p.key] = p
		ix.keys = append(ix.keys, p.key)
	}
	return ix, nil
}

// Binder returns the name of the binder the index was built from.
func (ix *ProviderIndex) Binder() string { return ix.binder }

// Len returns the number of providers.
func (ix *ProviderIndex) Len() int { return len(ix.providers) }

// Keys returns every key in registration order.
func (ix *ProviderIndex) Keys() []Key { return slices.Clone(ix.keys) }

// Has reports whether key is bound.
func (ix *ProviderIndex) Has(key Key) bool {
	_, ok := ix.providers[key]
	return ok
}

// Lookup returns the provider registered under key.
func (ix *ProviderIndex) Lookup(key Key) (Provider, bool) {
	p, ok := ix.providers[key]
	return p, ok
}

// ── IndexCache ────────────────────────────────────────────────────────────────

// IndexCache builds each binder type's index once and hands out the same
// index afterwards. Like every other container type it is not synchronised.
type IndexCache struct {
	indexes map[reflect.Type]*ProviderIndex
}

// NewIndexCache returns an empty cache.
func NewIndexCache() *IndexCache {
	return &IndexCache{indexes: make(map[reflect.Type]*ProviderIndex)}
}

// IndexFor returns the cached index for b's type, building it on first use.
// Failed builds are not cached.
func (c *IndexCache) IndexFor(b Binder) (*ProviderIndex, error) {
	if b == nil {
		return nil, errors.New("container: nil binder")
	}
	t := reflect.TypeOf(b)
	if ix, ok := c.indexes[t]; ok {
		return ix, nil
	}
	ix, err := BuildIndex(b)
	if err != nil {
		return nil, err
	}
	c.indexes[t] = ix
	return ix, nil
}

// Len returns the number of cached indexes.
func (c *IndexCache) Len() int { return len(c.indexes) }
