// Package orchestrator implements the spec §4.M Orchestrator: the single
// owner of the registry and both indices, serialising every mutation
// through one write lane while reads proceed freely, and driving the
// ingest/ask/rebuild-graph flows described in spec §5.
//
// Grounded on the teacher's internal/di/container.go for component wiring
// shape, internal/usecase/index_article_usecase.go for per-file ingest unit
// semantics, and internal/worker/worker.go for the bounded-concurrency
// pattern (here applied to a request-scoped fan-out via errgroup rather
// than a background poll loop, since ingest units are known up front).
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"rag-orchestrator/internal/answer"
	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/graph"
	"rag-orchestrator/internal/router"
)

const defaultIngestConcurrency = 4

// Config carries the orchestrator's tunables.
type Config struct {
	IngestConcurrency int
	HistoryTurns      int
	ChunkSize         int
	ChunkOverlap      int
}

// GraphBuilder is the subset of internal/graph.Builder the orchestrator
// depends on, kept local so this package is testable without a real graph
// store.
type GraphBuilder interface {
	BuildDocument(ctx context.Context, store domain.GraphStore, doc domain.Document, chunks []domain.Chunk) error
}

// GraphRetriever satisfies retrieval.GraphSearcher; kept local for the same
// testability reason.
type GraphRetriever interface {
	Search(ctx context.Context, query string, topK int, docTypes []domain.DocType, hops, maxSeedNodes int) ([]domain.SearchResult, error)
}

// HybridRetriever is the subset of internal/retrieval.Retriever the
// orchestrator depends on.
type HybridRetriever interface {
	Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error)
}

// RerankStage is the subset of internal/rerank.Stage the orchestrator
// depends on.
type RerankStage interface {
	Rerank(ctx context.Context, query string, hits []domain.SearchResult) []domain.SearchResult
}

// Orchestrator drives every top-level operation the HTTP transport exposes.
// It owns the registry and both indices; no other component may mutate
// them (spec §5 shared-resource policy). Mutations serialise through
// writeMu, the single write lane; reads pass through untouched.
type Orchestrator struct {
	registry domain.Registry
	vectors  domain.VectorStore
	graphs   domain.GraphStore
	sessions domain.SessionStore

	parser  domain.Parser
	chunker domain.Chunker
	embed   domain.Embedder
	hasher  domain.SourceHashPolicy

	graphBuilder GraphBuilder
	retriever    HybridRetriever
	rerankStage  RerankStage
	intentRouter *router.Router
	answerer     *answer.Answerer

	cfg    Config
	logger *slog.Logger

	writeMu sync.Mutex
	// rebuildMu is held exclusively for the duration of a graph rebuild;
	// ask and search requests take a read lock, so they never observe a
	// half-rebuilt graph and wait for the rebuild to finish instead.
	rebuildMu sync.RWMutex
}

// New wires an Orchestrator from its component dependencies.
func New(
	registry domain.Registry,
	vectors domain.VectorStore,
	graphs domain.GraphStore,
	sessions domain.SessionStore,
	parser domain.Parser,
	chunker domain.Chunker,
	embed domain.Embedder,
	hasher domain.SourceHashPolicy,
	graphBuilder GraphBuilder,
	retriever HybridRetriever,
	rerankStage RerankStage,
	intentRouter *router.Router,
	answerer *answer.Answerer,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.IngestConcurrency <= 0 {
		cfg.IngestConcurrency = defaultIngestConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry, vectors: vectors, graphs: graphs, sessions: sessions,
		parser: parser, chunker: chunker, embed: embed, hasher: hasher,
		graphBuilder: graphBuilder, retriever: retriever, rerankStage: rerankStage,
		intentRouter: intentRouter, answerer: answerer,
		cfg: cfg, logger: logger,
	}
}

// Start loads the registry and both indices from disk and runs the spec
// §6 startup consistency check: vector entries whose chunk no longer
// exists in the registry are dropped, and a graph with no nodes despite
// the registry holding active documents (the on-disk-missing-file case,
// along with any other empty-graph state) triggers an automatic rebuild
// rather than serving with a stale or absent index. Must be called once
// before any other Orchestrator method.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.registry.Load(ctx); err != nil {
		return err
	}
	if err := o.vectors.Load(ctx); err != nil {
		return err
	}
	if err := o.graphs.Load(ctx); err != nil {
		return err
	}

	docs, err := o.registry.List(ctx, domain.RegistryListFilter{})
	if err != nil {
		return err
	}
	liveChunkIDs := make(map[string]struct{})
	for _, doc := range docs {
		chunks, err := o.registry.GetChunks(ctx, doc.DocID)
		if err != nil {
			continue
		}
		for _, c := range chunks {
			liveChunkIDs[c.ChunkID] = struct{}{}
		}
	}
	dropped, err := o.vectors.Reconcile(ctx, liveChunkIDs)
	if err != nil {
		return err
	}
	if dropped > 0 {
		o.logger.Warn("startup_reconcile_dropped_orphan_vectors", slog.Int("count", dropped))
		if err := o.vectors.Save(ctx); err != nil {
			return err
		}
	}

	if len(docs) > 0 && o.graphs.NodeCount() == 0 {
		o.logger.Info("startup_graph_rebuild", slog.Int("active_documents", len(docs)))
		if err := o.RebuildGraph(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) Stop(ctx context.Context) error { return nil }

var _ GraphBuilder = (*graph.Builder)(nil)
