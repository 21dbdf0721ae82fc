package providers

import (
	"bufio"
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

// OllamaLLM calls an Ollama-compatible /api/chat endpoint, non-streamed for
// Generate (the router's intent classification prompt) and streamed
// (NDJSON, one chat response object per line) for ChatStream (the
// answerer's token-by-token generation). Grounded on
// rag_augur/ollama_generator.go's request shape; ChatStream is new since
// the teacher's generator only ever called the endpoint non-streaming.
type OllamaLLM struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
	limiter *ratelimit.Limiter
}

// NewOllamaLLM builds an LLM client. limiter may be nil, in which case
// calls are never throttled (used by tests wiring a bare client).
func NewOllamaLLM(baseURL, model string, timeout time.Duration, logger *slog.Logger, limiter *ratelimit.Limiter) *OllamaLLM {
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaLLM{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  httpclient.NewPooledClient(timeout),
		logger:  logger,
		limiter: limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatResponseLine struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

func (g *OllamaLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, "llm"); err != nil {
			return nil, domain.NewError(domain.KindLLMError, "rate limit wait", err)
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options:  optionsFor(maxTokens),
	})
	if err != nil {
		return nil, domain.NewError(domain.KindLLMError, "marshal generate request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewError(domain.KindLLMError, "build generate request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.NewRetryableError(domain.KindLLMError, "call chat endpoint", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, domain.NewError(domain.KindLLMError, fmt.Sprintf("chat endpoint returned %d: %s", resp.StatusCode, string(b)), nil)
	}

	var line chatResponseLine
	if err := json.NewDecoder(resp.Body).Decode(&line); err != nil {
		return nil, domain.NewError(domain.KindLLMError, "decode generate response", err)
	}
	return &domain.LLMResponse{Text: strings.TrimSpace(line.Message.Content), Done: line.Done}, nil
}

// ChatStream opens a streamed /api/chat call and translates its NDJSON
// lines into domain.LLMChunk values. The HTTP round trip and header check
// happen synchronously before the goroutine starts so a connection-level
// failure surfaces as the third return value instead of the error channel,
// matching the interface's contract.
func (g *OllamaLLM) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan domain.LLMChunk, <-chan error, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, "llm"); err != nil {
			return nil, nil, domain.NewError(domain.KindLLMError, "rate limit wait", err)
		}
	}

	msgs := make([]chatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	body, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: msgs,
		Stream:   true,
		Options:  optionsFor(maxTokens),
	})
	if err != nil {
		return nil, nil, domain.NewError(domain.KindLLMError, "marshal chat stream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, nil, domain.NewError(domain.KindLLMError, "build chat stream request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, domain.NewRetryableError(domain.KindLLMError, "call chat stream endpoint", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, domain.NewError(domain.KindLLMError, fmt.Sprintf("chat stream endpoint returned %d: %s", resp.StatusCode, string(b)), nil)
	}

	chunkCh := make(chan domain.LLMChunk)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunkCh)
		defer close(errCh)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				errCh <- err
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var parsed chatResponseLine
			if err := json.Unmarshal([]byte(line), &parsed); err != nil {
				continue
			}
			if parsed.Error != "" {
				errCh <- domain.NewError(domain.KindLLMError, parsed.Error, nil)
				return
			}
			select {
			case chunkCh <- domain.LLMChunk{Text: parsed.Message.Content, Done: parsed.Done}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
			if parsed.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- domain.NewError(domain.KindLLMError, "read chat stream", err)
		}
	}()

	g.logger.Info("chat_stream_started", slog.String("model", g.model), slog.Int("message_count", len(messages)))
	return chunkCh, errCh, nil
}

func (g *OllamaLLM) Version() string { return g.model }

func optionsFor(maxTokens int) map[string]interface{} {
	opts := map[string]interface{}{"temperature": 0.2}
	if maxTokens > 0 {
		opts["num_predict"] = maxTokens
	}
	return opts
}

var _ domain.LLMClient = (*OllamaLLM)(nil)
