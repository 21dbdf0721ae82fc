package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
)

func TestOllamaLLM_Generate_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		_, _ = fmt.Fprint(w, `{"message":{"content":"hello"},"done":true}`)
	}))
	defer server.Close()

	llm := NewOllamaLLM(server.URL, "chat-model", time.Second, nil, nil)
	resp, err := llm.Generate(context.Background(), "hi", 100)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.True(t, resp.Done)
}

func TestOllamaLLM_ChatStream_YieldsChunksInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)
		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"message":{"content":"内部"},"done":false}`,
			`{"message":{"content":"控制"},"done":false}`,
			`{"message":{"content":""},"done":true}`,
		}
		for _, l := range lines {
			_, _ = fmt.Fprintln(w, l)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	llm := NewOllamaLLM(server.URL, "chat-model", 5*time.Second, nil, nil)
	chunkCh, errCh, err := llm.ChatStream(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q"}}, 0)
	require.NoError(t, err)

	var texts []string
	for chunkCh != nil || errCh != nil {
		select {
		case c, ok := <-chunkCh:
			if !ok {
				chunkCh = nil
				continue
			}
			texts = append(texts, c.Text)
			if c.Done {
				chunkCh = nil
			}
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			require.NoError(t, e)
		}
	}
	assert.Equal(t, []string{"内部", "控制", ""}, texts)
}

func TestOllamaLLM_ChatStream_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	llm := NewOllamaLLM(server.URL, "chat-model", time.Second, nil, nil)
	_, _, err := llm.ChatStream(context.Background(), []domain.ChatMessage{{Role: "user", Content: "q"}}, 0)
	assert.Error(t, err)
}
