// Package cache provides a bounded embedding cache in front of the
// embedding provider, keyed on chunk text so re-ingesting an unchanged
// document (or re-asking an identical query) skips a redundant provider
// round trip. Grounded on the teacher's go.mod declaring
// github.com/hashicorp/golang-lru/v2 without wiring it anywhere in its own
// source; this package gives that dependency its first caller.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbeddingCache caches embedding vectors by their source text. Not
// safe for concurrent Get/Add pairs racing on the same key beyond what
// the underlying lru.Cache already serialises internally.
type EmbeddingCache struct {
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingCache builds a cache holding at most size entries.
func NewEmbeddingCache(size int) (*EmbeddingCache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{cache: c}, nil
}

// Get returns the cached embedding for text, if present.
func (e *EmbeddingCache) Get(text string) ([]float32, bool) {
	return e.cache.Get(text)
}

// Put stores vec under text, evicting the least recently used entry if
// the cache is at capacity.
func (e *EmbeddingCache) Put(text string, vec []float32) {
	e.cache.Add(text, vec)
}

// Len returns the number of entries currently cached.
func (e *EmbeddingCache) Len() int {
	return e.cache.Len()
}
