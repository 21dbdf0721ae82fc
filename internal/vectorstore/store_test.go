package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/vectorstore"
)

func TestStore_AddSearchDelete(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(t.TempDir())

	require.NoError(t, s.Add(ctx, []domain.VectorEntry{
		{ChunkID: "d1:0", DocID: "d1", Vector: []float32{1, 0}, Metadata: domain.VectorMetadata{DocType: domain.DocTypeInternalRegulation}},
		{ChunkID: "d1:1", DocID: "d1", Vector: []float32{0, 1}},
		{ChunkID: "d2:0", DocID: "d2", Vector: []float32{1, 0}},
	}))

	results, err := s.Search(ctx, []float32{1, 0}, 1, domain.VectorFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	require.NoError(t, s.DeleteByDoc(ctx, "d1"))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := vectorstore.New(dir)
	require.NoError(t, s.Add(ctx, []domain.VectorEntry{
		{ChunkID: "d1:0", DocID: "d1", Vector: []float32{0.5, 0.5}},
	}))
	require.NoError(t, s.Save(ctx))

	loaded := vectorstore.New(dir)
	require.NoError(t, loaded.Load(ctx))
	n, err := loaded.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Reconcile_DropsOrphans(t *testing.T) {
	ctx := context.Background()
	s := vectorstore.New(t.TempDir())
	require.NoError(t, s.Add(ctx, []domain.VectorEntry{
		{ChunkID: "live:0", DocID: "d1"},
		{ChunkID: "orphan:0", DocID: "d2"},
	}))

	dropped, err := s.Reconcile(ctx, map[string]struct{}{"live:0": {}})
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
}
