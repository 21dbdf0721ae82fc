package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/adapter/httpapi"
	"rag-orchestrator/internal/answer"
	rechunker "rag-orchestrator/internal/chunker"
	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/graph"
	"rag-orchestrator/internal/orchestrator"
	"rag-orchestrator/internal/parser"
	"rag-orchestrator/internal/registry"
	"rag-orchestrator/internal/rerank"
	"rag-orchestrator/internal/retrieval"
	"rag-orchestrator/internal/router"
	"rag-orchestrator/internal/session"
	"rag-orchestrator/internal/vectorstore"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (stubEmbedder) Dimension() int  { return 2 }
func (stubEmbedder) Version() string { return "stub-v1" }

type scriptedLLM struct{ reply string }

func (s scriptedLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	return nil, errors.New("not used")
}
func (s scriptedLLM) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan domain.LLMChunk, <-chan error, error) {
	ch := make(chan domain.LLMChunk, 1)
	errCh := make(chan error)
	ch <- domain.LLMChunk{Text: s.reply, Done: true}
	close(ch)
	close(errCh)
	return ch, errCh, nil
}
func (s scriptedLLM) Version() string { return "scripted-v1" }

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	dir := t.TempDir()

	reg := registry.New(dir)
	vecs := vectorstore.New(dir)
	graphStore := graph.New(dir)
	sessions := session.New()

	p := parser.New()
	ch := rechunker.New()
	embedder := stubEmbedder{}
	hasher := domain.NewSourceHashPolicy()

	graphBuilder := graph.NewBuilder()
	graphRetriever := graph.NewRetriever(graphStore, reg)
	hybrid := retrieval.New(vecs, graphRetriever, embedder, reg)
	rerankStage := rerank.New(nil, time.Second, nil)
	intentRouter := router.New(nil, nil)
	answerer := answer.New(scriptedLLM{reply: "内部控制要求见 [S1]。"}, 0, nil)

	orch := orchestrator.New(
		reg, vecs, graphStore, sessions,
		p, ch, embedder, hasher,
		graphBuilder, hybrid, rerankStage, intentRouter, answerer,
		orchestrator.Config{IngestConcurrency: 2, HistoryTurns: 10}, nil,
	)

	e := echo.New()
	httpapi.New(orch, nil).Register(e)
	return e
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func multipartUpload(t *testing.T, filename, content, docType, chunkerType string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("doc_type", docType))
	require.NoError(t, w.WriteField("chunker_type", chunkerType))
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestUploadStore_AskEndToEnd(t *testing.T) {
	e := newTestServer(t)

	body, contentType := multipartUpload(t, "reg.txt", "第十条 单位应当建立内部控制制度。", "internal_regulation", "regulation")
	req := httptest.NewRequest(http.MethodPost, "/upload_store", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploadResp struct {
		Processed   int `json:"processed"`
		TotalChunks int `json:"total_chunks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	assert.Equal(t, 1, uploadResp.Processed)
	assert.Greater(t, uploadResp.TotalChunks, 0)

	askBody, _ := json.Marshal(map[string]string{"query": "内部控制制度是什么"})
	askReq := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(askBody))
	askReq.Header.Set("Content-Type", "application/json")
	askRec := httptest.NewRecorder()
	e.ServeHTTP(askRec, askReq)
	require.Equal(t, http.StatusOK, askRec.Code)

	var askResp struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
		Citations []struct {
			SourceID string `json:"source_id"`
		} `json:"citations"`
	}
	require.NoError(t, json.Unmarshal(askRec.Body.Bytes(), &askResp))
	assert.NotEmpty(t, askResp.SessionID)
	assert.NotEmpty(t, askResp.Answer)
}

func TestSearchWithIntent_RequiresQuery(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/search_with_intent", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentsList_Empty(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents"`)
}

func TestInfo_ReportsZeroCounts(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, float64(0), info["active_documents"])
}
