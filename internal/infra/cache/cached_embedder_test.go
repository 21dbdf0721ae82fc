package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/infra/cache"
)

type countingEmbedder struct {
	calls int
	seen  [][]string
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.seen = append(e.seen, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}
func (e *countingEmbedder) Dimension() int  { return 1 }
func (e *countingEmbedder) Version() string { return "counting-v1" }

func TestCachedEmbedder_RepeatedTextSkipsProvider(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := cache.NewCachedEmbedder(inner, 16)
	require.NoError(t, err)

	out1, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	out2, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []string{"c"}, inner.seen[1])
	assert.Equal(t, out1[0], out2[0])
	assert.Equal(t, out1[1], out2[1])
}

func TestCachedEmbedder_AllHitsSkipsProviderEntirely(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := cache.NewCachedEmbedder(inner, 16)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}
