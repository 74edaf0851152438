package ethdb

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/lambdaclass/ethrex-trie/trie"
	"github.com/lambdaclass/ethrex-trie/types"
)

// CachedBackend wraps an underlying trie.Backend with a fixed-size
// in-memory fastcache, absorbing repeat reads of hot nodes (shared
// subtries referenced across many account/storage roots) without holding
// the whole working set in a Go map subject to GC scanning.
type CachedBackend struct {
	inner trie.Backend
	cache *fastcache.Cache
}

// NewCachedBackend wraps inner with a cache sized at maxBytes.
func NewCachedBackend(inner trie.Backend, maxBytes int) *CachedBackend {
	return &CachedBackend{inner: inner, cache: fastcache.New(maxBytes)}
}

// Get checks the cache first; a miss falls through to inner and populates
// the cache with the result.
func (c *CachedBackend) Get(hash types.Hash) ([]byte, error) {
	if data := c.cache.Get(nil, hash[:]); data != nil {
		return data, nil
	}
	data, err := c.inner.Get(hash)
	if err != nil {
		return nil, err
	}
	c.cache.Set(hash[:], data)
	return data, nil
}

// Put writes through to inner and warms the cache with the new value.
func (c *CachedBackend) Put(hash types.Hash, data []byte) error {
	if err := c.inner.Put(hash, data); err != nil {
		return err
	}
	c.cache.Set(hash[:], data)
	return nil
}

// PutBatch writes through to inner and warms the cache for every entry.
func (c *CachedBackend) PutBatch(entries map[types.Hash][]byte) error {
	if err := c.inner.PutBatch(entries); err != nil {
		return err
	}
	for hash, data := range entries {
		c.cache.Set(hash[:], data)
	}
	return nil
}

// Commit delegates to inner; the cache itself has no durability barrier.
func (c *CachedBackend) Commit() error {
	return c.inner.Commit()
}

// Reset clears every cached entry without affecting inner.
func (c *CachedBackend) Reset() {
	c.cache.Reset()
}
