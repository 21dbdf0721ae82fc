package cache

import (
	"context"

	"rag-orchestrator/internal/domain"
)

// CachedEmbedder wraps a domain.Embedder with an EmbeddingCache, splitting
// each Embed call into cache hits (returned immediately) and cache misses
// (batched through the wrapped embedder in their original relative order).
type CachedEmbedder struct {
	next  domain.Embedder
	cache *EmbeddingCache
}

// NewCachedEmbedder wraps next with a cache of the given size.
func NewCachedEmbedder(next domain.Embedder, size int) (*CachedEmbedder, error) {
	c, err := NewEmbeddingCache(size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{next: next, cache: c}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		out[idx] = vecs[j]
		c.cache.Put(missTexts[j], vecs[j])
	}
	return out, nil
}

func (c *CachedEmbedder) Dimension() int  { return c.next.Dimension() }
func (c *CachedEmbedder) Version() string { return c.next.Version() }

var _ domain.Embedder = (*CachedEmbedder)(nil)
