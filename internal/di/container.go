// Package di wires the audit-QA server's components from a resolved
// config into one ApplicationComponents bundle, in the teacher's
// container-of-constructors style: every dependency built once here and
// handed down, no runtime service locator.
package di

import (
	"log/slog"

	"rag-orchestrator/internal/adapter/httpapi"
	"rag-orchestrator/internal/adapter/providers"
	"rag-orchestrator/internal/answer"
	"rag-orchestrator/internal/chunker"
	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/graph"
	"rag-orchestrator/internal/infra/cache"
	"rag-orchestrator/internal/infra/config"
	"rag-orchestrator/internal/infra/ratelimit"
	"rag-orchestrator/internal/orchestrator"
	"rag-orchestrator/internal/parser"
	"rag-orchestrator/internal/registry"
	"rag-orchestrator/internal/rerank"
	"rag-orchestrator/internal/retrieval"
	"rag-orchestrator/internal/router"
	"rag-orchestrator/internal/session"
	"rag-orchestrator/internal/vectorstore"
)

// ApplicationComponents holds every wired dependency the server's
// entrypoints need: the orchestrator to drive requests, the HTTP server
// to expose it, and the rate limiter guarding outbound provider calls.
type ApplicationComponents struct {
	Orchestrator *orchestrator.Orchestrator
	HTTPServer   *httpapi.Server
	RateLimiter  *ratelimit.Limiter

	Registry domain.Registry
	Vectors  domain.VectorStore
	Graphs   domain.GraphStore
	Sessions domain.SessionStore
}

// New wires an ApplicationComponents bundle from cfg. logger must be
// non-nil; every component that logs shares it.
func New(cfg *config.Config, logger *slog.Logger) *ApplicationComponents {
	limiter := ratelimit.New(cfg.RateLimit, ratelimit.ProviderConfig{Rate: 5, Burst: 10})

	rawEmbedder := providers.NewOllamaEmbedder(
		cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Embedder.EmbeddingDim,
		cfg.Embedder.Timeout, logger, limiter,
	)
	cachedEmbedder, err := cache.NewCachedEmbedder(rawEmbedder, 4096)
	if err != nil {
		logger.Warn("embedding_cache_disabled", slog.String("error", err.Error()))
	}
	var embedder domain.Embedder = rawEmbedder
	if cachedEmbedder != nil {
		embedder = cachedEmbedder
	}

	llmClient := providers.NewOllamaLLM(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout, logger, limiter)
	rerankerClient := providers.NewRerankerClient(cfg.Reranker.BaseURL, cfg.Reranker.Model, cfg.Reranker.Timeout, logger, limiter)

	reg := registry.New(cfg.DataDir)
	vecs := vectorstore.New(cfg.DataDir)
	graphStore := graph.New(cfg.DataDir)
	sessions := session.New(
		session.WithMaxTurns(cfg.Session.MaxTurns),
		session.WithMaxAge(cfg.Session.MaxAge),
	)

	docParser := parser.New()
	textChunker := chunker.New()
	hasher := domain.NewSourceHashPolicy()

	graphBuilder := graph.NewBuilder()
	graphRetriever := graph.NewRetriever(graphStore, reg)
	hybrid := retrieval.New(vecs, graphRetriever, embedder, reg)
	rerankStage := rerank.New(rerankerClient, cfg.Reranker.Timeout, logger)
	intentRouter := router.New(llmClient, logger)
	answerer := answer.New(llmClient, 0, logger)

	orch := orchestrator.New(
		reg, vecs, graphStore, sessions,
		docParser, textChunker, embedder, hasher,
		graphBuilder, hybrid, rerankStage, intentRouter, answerer,
		orchestrator.Config{
			IngestConcurrency: cfg.Ingest.Concurrency,
			HistoryTurns:      cfg.Session.MaxTurns,
			ChunkSize:         cfg.Chunker.ChunkSize,
			ChunkOverlap:      cfg.Chunker.Overlap,
		},
		logger,
	)

	server := httpapi.New(orch, logger)

	return &ApplicationComponents{
		Orchestrator: orch,
		HTTPServer:   server,
		RateLimiter:  limiter,
		Registry:     reg,
		Vectors:      vecs,
		Graphs:       graphStore,
		Sessions:     sessions,
	}
}
