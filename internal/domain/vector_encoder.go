package domain

import "context"

// Embedder maps a batch of texts to fixed-dimension vectors. Implementations
// must fail the whole batch atomically on provider error (spec §4.C): no
// partial vector list is ever returned.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Version() string
}
