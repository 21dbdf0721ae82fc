package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/infra/httpclient"
	"rag-orchestrator/internal/infra/ratelimit"
)

// RerankerClient calls a cross-encoder rerank endpoint. Grounded directly
// on rag_augur/reranker_client.go, moved into this package unchanged in
// shape since it already satisfies domain.Reranker exactly.
type RerankerClient struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
	limiter *ratelimit.Limiter
}

// NewRerankerClient builds a reranker client. limiter may be nil, in which
// case calls are never throttled (used by tests wiring a bare client).
func NewRerankerClient(baseURL, model string, timeout time.Duration, logger *slog.Logger, limiter *ratelimit.Limiter) *RerankerClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RerankerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  httpclient.NewPooledClient(timeout),
		logger:  logger,
		limiter: limiter,
	}
}

type rerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

type rerankResponseResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

type rerankResponse struct {
	Results []rerankResponseResult `json:"results"`
	Model   string                 `json:"model"`
}

func (c *RerankerClient) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	if len(candidates) == 0 {
		return []domain.RerankResult{}, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "reranker"); err != nil {
			return nil, domain.NewError(domain.KindRerankError, "rate limit wait", err)
		}
	}
	start := time.Now()
	c.logger.Info("rerank_started", slog.Int("candidate_count", len(candidates)), slog.String("model", c.model))

	contents := make([]string, len(candidates))
	for i, cand := range candidates {
		contents[i] = cand.Content
	}

	body, err := json.Marshal(rerankRequest{Query: query, Candidates: contents, Model: c.model})
	if err != nil {
		return nil, domain.NewError(domain.KindRerankError, "marshal rerank request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewError(domain.KindRerankError, "build rerank request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("rerank_failed", slog.String("error", err.Error()), slog.Duration("elapsed", time.Since(start)))
		return nil, domain.NewRetryableError(domain.KindRerankError, "call rerank endpoint", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		c.logger.Warn("rerank_bad_status", slog.Int("status", resp.StatusCode))
		return nil, domain.NewError(domain.KindRerankError, fmt.Sprintf("rerank endpoint returned %d: %s", resp.StatusCode, string(b)), nil)
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.NewError(domain.KindRerankError, "decode rerank response", err)
	}

	results := make([]domain.RerankResult, len(out.Results))
	for i, r := range out.Results {
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, domain.NewError(domain.KindRerankError, fmt.Sprintf("invalid result index %d for %d candidates", r.Index, len(candidates)), nil)
		}
		results[i] = domain.RerankResult{ID: candidates[r.Index].ID, Score: r.Score}
	}

	c.logger.Info("rerank_completed", slog.Int("result_count", len(results)), slog.Duration("elapsed", time.Since(start)))
	return results, nil
}

func (c *RerankerClient) ModelName() string { return c.model }

var _ domain.Reranker = (*RerankerClient)(nil)
