// Package rerank wraps a domain.Reranker with the candidate cap, timeout,
// and graceful-fallback-to-fused-order behaviour spec §4.I requires,
// grounded on the teacher's internal/usecase/retrieval/rerank.go stage.
package rerank

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"rag-orchestrator/internal/domain"
)

// maxCandidates caps how many hits are sent to the cross-encoder, since
// most cross-encoder backends' latency scales with candidate count.
const maxCandidates = 30

// Stage applies cross-encoder reranking to a fused hit list, or returns it
// unchanged (fused order preserved) when reranking is disabled, the
// reranker errors, or it times out.
type Stage struct {
	reranker domain.Reranker
	timeout  time.Duration
	logger   *slog.Logger
}

func New(reranker domain.Reranker, timeout time.Duration, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{reranker: reranker, timeout: timeout, logger: logger}
}

// Rerank scores up to maxCandidates of hits (the top-scoring ones, if hits
// exceeds the cap) against query, and returns the full hit list with those
// candidates' scores replaced by the cross-encoder's. Hits beyond the cap
// keep their fused score and sort behind the reranked ones.
func (s *Stage) Rerank(ctx context.Context, query string, hits []domain.SearchResult) []domain.SearchResult {
	if s.reranker == nil || len(hits) == 0 {
		return hits
	}

	ranked := append([]domain.SearchResult(nil), hits...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	head := ranked
	tail := []domain.SearchResult(nil)
	if len(ranked) > maxCandidates {
		head, tail = ranked[:maxCandidates], ranked[maxCandidates:]
	}

	candidates := make([]domain.RerankCandidate, len(head))
	for i, h := range head {
		candidates[i] = domain.RerankCandidate{ID: h.ChunkID, Content: h.Text, Score: float32(h.Score)}
	}

	rerankCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	results, err := s.reranker.Rerank(rerankCtx, query, candidates)
	duration := time.Since(start)
	if err != nil {
		s.logger.Warn("rerank_failed_using_fused_order",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", duration.Milliseconds()))
		return hits
	}

	s.logger.Info("rerank_completed",
		slog.Int("candidate_count", len(candidates)),
		slog.String("model", s.reranker.ModelName()),
		slog.Int64("duration_ms", duration.Milliseconds()))

	scoreByID := make(map[string]float32, len(results))
	for _, r := range results {
		scoreByID[r.ID] = r.Score
	}
	for i := range head {
		if score, ok := scoreByID[head[i].ChunkID]; ok {
			head[i].Score = float64(score)
		}
	}
	sort.Slice(head, func(i, j int) bool { return head[i].Score > head[j].Score })

	return append(head, tail...)
}
