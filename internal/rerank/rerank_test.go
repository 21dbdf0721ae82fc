package rerank_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/rerank"
)

type stubReranker struct {
	results []domain.RerankResult
	err     error
}

func (s stubReranker) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}
func (s stubReranker) ModelName() string { return "stub-reranker" }

func TestStage_Rerank_AppliesScores(t *testing.T) {
	hits := []domain.SearchResult{
		{ChunkID: "a", Score: 0.1, Text: "a"},
		{ChunkID: "b", Score: 0.9, Text: "b"},
	}
	stage := rerank.New(stubReranker{results: []domain.RerankResult{
		{ID: "a", Score: 0.99},
		{ID: "b", Score: 0.2},
	}}, time.Second, nil)

	out := stage.Rerank(context.Background(), "q", hits)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.InDelta(t, 0.99, out[0].Score, 1e-6)
}

func TestStage_Rerank_FallsBackOnError(t *testing.T) {
	hits := []domain.SearchResult{{ChunkID: "a", Score: 0.5}}
	stage := rerank.New(stubReranker{err: errors.New("timeout")}, time.Second, nil)

	out := stage.Rerank(context.Background(), "q", hits)
	assert.Equal(t, hits, out)
}

func TestStage_Rerank_NilReranker_ReturnsUnchanged(t *testing.T) {
	hits := []domain.SearchResult{{ChunkID: "a", Score: 0.5}}
	stage := rerank.New(nil, time.Second, nil)
	assert.Equal(t, hits, stage.Rerank(context.Background(), "q", hits))
}
