package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/registry"
)

func TestRegistry_NewThenDuplicateThenUpdate(t *testing.T) {
	ctx := context.Background()
	r := registry.New(t.TempDir())

	decision, err := r.IngestDecision(ctx, "hash-v1", "regs.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionNew, decision.Kind)

	doc := domain.Document{DocID: "d1", Filename: "regs.txt", ContentHash: "hash-v1", Version: 1}
	chunks := []domain.Chunk{{ChunkID: "d1:0", DocID: "d1", Ordinal: 0, Text: "第一条 A内容。"}}
	require.NoError(t, r.CommitNew(ctx, doc, chunks))

	decision, err = r.IngestDecision(ctx, "hash-v1", "regs.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDuplicate, decision.Kind)
	assert.Equal(t, "d1", decision.ExistingDocID)

	decision, err = r.IngestDecision(ctx, "hash-v2", "regs.txt")
	require.NoError(t, err)
	require.Equal(t, domain.DecisionUpdate, decision.Kind)
	assert.Equal(t, 2, decision.NextVersion)

	newDoc := domain.Document{DocID: "d2", Filename: "regs.txt", ContentHash: "hash-v2", Version: 2}
	newChunks := []domain.Chunk{{ChunkID: "d2:0", DocID: "d2", Ordinal: 0, Text: "第一条 A更新。"}}
	require.NoError(t, r.CommitUpdate(ctx, decision.ExistingDocID, newDoc, newChunks))

	_, err = r.GetChunks(ctx, "d1")
	assert.Error(t, err)

	got, err := r.Get(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestRegistry_IngestDecision_SameHashNewFilename_IsDuplicateNotNew(t *testing.T) {
	ctx := context.Background()
	r := registry.New(t.TempDir())

	doc := domain.Document{DocID: "d1", Filename: "regs.txt", ContentHash: "hash-v1", Version: 1}
	chunks := []domain.Chunk{{ChunkID: "d1:0", DocID: "d1", Text: "第一条 A内容。"}}
	require.NoError(t, r.CommitNew(ctx, doc, chunks))

	// Byte-identical content uploaded under a different filename: spec
	// §4.E's dedup contract is hash-scoped, independent of filename, so
	// this must resolve to duplicate rather than new (new would try to
	// CommitNew a doc_id that already exists and conflict).
	decision, err := r.IngestDecision(ctx, "hash-v1", "regs-renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionDuplicate, decision.Kind)
	assert.Equal(t, "d1", decision.ExistingDocID)
}

func TestRegistry_LogicalDelete_RetainsRowDropsChunks(t *testing.T) {
	ctx := context.Background()
	r := registry.New(t.TempDir())

	doc := domain.Document{DocID: "d1", Filename: "issue.txt", ContentHash: "h1", Version: 1}
	chunks := []domain.Chunk{{ChunkID: "d1:0", DocID: "d1", Text: "finding"}}
	require.NoError(t, r.CommitNew(ctx, doc, chunks))

	require.NoError(t, r.LogicalDelete(ctx, "d1"))

	got, err := r.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusDeleted, got.Status)

	_, err = r.GetChunks(ctx, "d1")
	assert.Error(t, err)

	decision, err := r.IngestDecision(ctx, "h1", "issue.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionNew, decision.Kind)
}

func TestRegistry_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := registry.New(dir)

	doc := domain.Document{DocID: "d1", Filename: "a.txt", ContentHash: "h1", Version: 1, DocType: domain.DocTypeInternalRegulation}
	chunks := []domain.Chunk{{ChunkID: "d1:0", DocID: "d1", Text: "hello"}}
	require.NoError(t, r.CommitNew(ctx, doc, chunks))
	require.NoError(t, r.Save(ctx))

	loaded := registry.New(dir)
	require.NoError(t, loaded.Load(ctx))

	got, err := loaded.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Filename)

	chunk, err := loaded.GetChunk(ctx, "d1:0")
	require.NoError(t, err)
	assert.Equal(t, "hello", chunk.Text)

	stats, err := loaded.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveDocuments)
	assert.Equal(t, 1, stats.TotalChunks)
}
