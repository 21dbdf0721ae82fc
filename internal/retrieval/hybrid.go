// Package retrieval implements the spec §4.H Hybrid Retriever: a parallel
// vector+graph fan-out, min-max score normalisation, and an
// alpha-weighted fusion pass, grounded on the teacher's
// internal/usecase/retrieval/fuse_results.go parallel-search-then-merge
// shape (generalised here from RRF-of-ranks to weighted-sum-of-normalised
// scores, since the target system fuses two heterogeneous scorers rather
// than two rankings of the same kind).
package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"rag-orchestrator/internal/domain"
)

// GraphSearcher is the subset of the graph retriever's surface the hybrid
// retriever depends on, kept as a local interface so this package can be
// tested without a real graph store.
type GraphSearcher interface {
	Search(ctx context.Context, query string, topK int, docTypes []domain.DocType, hops, maxSeedNodes int) ([]domain.SearchResult, error)
}

// DefaultAlpha is the fusion weight applied to the vector score when a
// caller does not override it (spec's Open Question resolution, SPEC_FULL
// §"Open Question resolutions").
const DefaultAlpha = 0.65

const defaultMaxSeedNodes = 24

// Retriever fuses the Vector Store and Graph Retriever into one ranked hit
// list.
type Retriever struct {
	vectorStore domain.VectorStore
	graph       GraphSearcher
	embedder    domain.Embedder
	registry    domain.Registry
}

func New(vectorStore domain.VectorStore, graph GraphSearcher, embedder domain.Embedder, registry domain.Registry) *Retriever {
	return &Retriever{vectorStore: vectorStore, graph: graph, embedder: embedder, registry: registry}
}

// Search runs the vector and (when requested) graph sides in parallel,
// hydrates vector hits with their chunk text from the registry, normalises
// each side's scores independently, fuses them alpha·vector + (1-α)·graph
// (a chunk found by both sides accumulates both contributions), and
// truncates to opts.RerankTopK before returning.
func (r *Retriever) Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	alpha := DefaultAlpha
	if opts.Alpha != nil {
		alpha = *opts.Alpha
	}

	var vectorHits, graphHits []domain.SearchResult
	g, gctx := errgroup.WithContext(ctx)

	if opts.Mode != domain.ModeGraph {
		g.Go(func() error {
			hits, err := r.searchVector(gctx, query, opts)
			if err != nil {
				return err
			}
			vectorHits = hits
			return nil
		})
	}
	if opts.Mode != domain.ModeVector && opts.UseGraph {
		graphTopK := opts.GraphTopK
		if graphTopK <= 0 {
			graphTopK = opts.TopK
		}
		g.Go(func() error {
			hits, err := r.graph.Search(gctx, query, graphTopK, opts.DocTypeFilter, opts.Hops, defaultMaxSeedNodes)
			if err != nil {
				return err
			}
			graphHits = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewError(domain.KindVectorStoreError, "hybrid retrieval fan-out", err)
	}

	// Pure vector/graph modes bypass fuse entirely: alpha-scaling and
	// min-max renormalization only make sense when combining two sides, and
	// applying them to a single side would rescale the Vector Store's raw
	// cosine similarity (spec §4.D, range [-1,1]) into something the
	// contract never promised. A "hybrid" request with α=1.0 takes the
	// vector bypass too, so it returns the same hits and scores as a
	// "vector" mode request (spec §8.6); α=0.0 still goes through fuse.
	var fused []domain.SearchResult
	switch opts.Mode {
	case domain.ModeVector:
		fused = vectorHits
	case domain.ModeGraph:
		fused = graphHits
	default:
		if alpha == 1 {
			fused = vectorHits
			break
		}
		fused = fuse(vectorHits, graphHits, alpha)
	}

	sort.Slice(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	limit := opts.RerankTopK
	if limit <= 0 {
		limit = opts.TopK
	}
	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

func (r *Retriever) searchVector(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, domain.NewError(domain.KindEmbeddingError, "embed query", err)
	}
	if len(vec) == 0 {
		return nil, domain.NewError(domain.KindEmbeddingError, "empty query embedding", nil)
	}

	filter := domain.VectorFilter{}
	if len(opts.DocTypeFilter) == 1 {
		filter.DocType = opts.DocTypeFilter[0]
	}

	hits, err := r.vectorStore.Search(ctx, vec[0], opts.TopK, filter)
	if err != nil {
		return nil, err
	}

	for i := range hits {
		chunk, err := r.registry.GetChunk(ctx, hits[i].ChunkID)
		if err != nil {
			continue
		}
		hits[i].Text = chunk.Text
	}
	return hits, nil
}

// fuse normalises each side's scores to [0, 1] via min-max and combines
// them alpha·vector + (1-α)·graph, deduplicating by chunk_id: a chunk
// found by both sides accumulates both sides' weighted contribution.
func fuse(vectorHits, graphHits []domain.SearchResult, alpha float64) []domain.SearchResult {
	vNorm := minMaxNormalize(vectorHits)
	gNorm := minMaxNormalize(graphHits)

	byChunk := make(map[string]domain.SearchResult)
	for i, hit := range vectorHits {
		hit.Score = alpha * vNorm[i]
		hit.RetrievalMethod = "hybrid"
		byChunk[hit.ChunkID] = hit
	}
	for i, hit := range graphHits {
		score := (1 - alpha) * gNorm[i]
		if existing, ok := byChunk[hit.ChunkID]; ok {
			existing.Score += score
			byChunk[hit.ChunkID] = existing
			continue
		}
		hit.Score = score
		hit.RetrievalMethod = "hybrid"
		byChunk[hit.ChunkID] = hit
	}

	out := make([]domain.SearchResult, 0, len(byChunk))
	for _, hit := range byChunk {
		out = append(out, hit)
	}
	return out
}

func minMaxNormalize(hits []domain.SearchResult) []float64 {
	out := make([]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}
	spread := max - min
	for i, h := range hits {
		if spread == 0 {
			out[i] = 1
			continue
		}
		out[i] = (h.Score - min) / spread
	}
	return out
}
