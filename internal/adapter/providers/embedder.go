// Package providers adapts the audit-QA server's HTTP-based model providers
// (embedding, generation, reranking) onto the domain interfaces the
// retrieval and answer packages depend on. Grounded on the teacher's
// internal/adapter/rag_augur client shapes: request/response envelopes,
// structured slog fields around each call, and a pooled *http.Client from
// internal/infra/httpclient.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/infra/httpclient"
	"rag-orchestrator/internal/infra/ratelimit"
)

// OllamaEmbedder calls an Ollama-compatible /api/embed endpoint. Grounded
// on rag_augur/ollama_embedder.go, renamed to satisfy domain.Embedder
// (Encode -> Embed) and given a fixed Dimension since the vector store
// requires every entry to share one dimension for the life of an index.
type OllamaEmbedder struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
	logger    *slog.Logger
	limiter   *ratelimit.Limiter
}

// NewOllamaEmbedder builds an embedder client. limiter may be nil, in which
// case calls are never throttled (used by tests wiring a bare client).
func NewOllamaEmbedder(baseURL, model string, dimension int, timeout time.Duration, logger *slog.Logger, limiter *ratelimit.Limiter) *OllamaEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaEmbedder{
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
		client:    httpclient.NewPooledClient(timeout),
		logger:    logger,
		limiter:   limiter,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, "embedder"); err != nil {
			return nil, domain.NewError(domain.KindEmbeddingError, "rate limit wait", err)
		}
	}

	start := time.Now()
	e.logger.Info("embed_started", slog.Int("text_count", len(texts)), slog.String("model", e.model))

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, domain.NewError(domain.KindEmbeddingError, "marshal embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewError(domain.KindEmbeddingError, "build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("embed_failed", slog.String("error", err.Error()), slog.Duration("elapsed", time.Since(start)))
		return nil, domain.NewRetryableError(domain.KindEmbeddingError, "call embed endpoint", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		e.logger.Error("embed_bad_status", slog.Int("status", resp.StatusCode))
		msg := fmt.Sprintf("embed endpoint returned %d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return nil, domain.NewRetryableError(domain.KindEmbeddingError, msg, nil)
		}
		return nil, domain.NewError(domain.KindEmbeddingError, msg, nil)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.NewError(domain.KindEmbeddingError, "decode embed response", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, domain.NewError(domain.KindEmbeddingError, "embed response size mismatch", nil)
	}

	e.logger.Info("embed_completed", slog.Int("count", len(out.Embeddings)), slog.Duration("elapsed", time.Since(start)))
	return out.Embeddings, nil
}

func (e *OllamaEmbedder) Dimension() int  { return e.dimension }
func (e *OllamaEmbedder) Version() string { return e.model }

var _ domain.Embedder = (*OllamaEmbedder)(nil)
