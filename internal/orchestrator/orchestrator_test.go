package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/answer"
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

	rechunker "rag-orchestrator/internal/chunker"
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

func newTestOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	return newTestOrchestratorAt(t, t.TempDir())
}

func newTestOrchestratorAt(t *testing.T, dir string) *orchestrator.Orchestrator {
	t.Helper()

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
	intentRouter := router.New(nil, nil) // nil LLM -> deterministic keyword fallback
	answerer := answer.New(scriptedLLM{reply: "内部控制要求见 [S1]。"}, 0, nil)

	return orchestrator.New(
		reg, vecs, graphStore, sessions,
		p, ch, embedder, hasher,
		graphBuilder, hybrid, rerankStage, intentRouter, answerer,
		orchestrator.Config{IngestConcurrency: 2, HistoryTurns: 10}, nil,
	)
}

func TestOrchestrator_Ingest_NewThenDuplicate(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(t)

	file := orchestrator.IngestFile{
		Filename: "reg.txt",
		Data:     []byte("第十条 单位应当建立内部控制制度。\n\n第十一条 单位应当定期披露信息。"),
		Opts:     domain.IngestOptions{DocType: domain.DocTypeInternalRegulation, Chunker: domain.ChunkerRegulation},
	}

	results := o.Ingest(ctx, []orchestrator.IngestFile{file})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, domain.OutcomeNew, results[0].Outcome)
	assert.Greater(t, results[0].ChunkCount, 0)

	results2 := o.Ingest(ctx, []orchestrator.IngestFile{file})
	require.Len(t, results2, 1)
	assert.Equal(t, domain.OutcomeSkipped, results2[0].Outcome)
}

func TestOrchestrator_Ingest_PreservesSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(t)

	files := []orchestrator.IngestFile{
		{Filename: "a.txt", Data: []byte("第一条 A内容。"), Opts: domain.IngestOptions{Chunker: domain.ChunkerRegulation}},
		{Filename: "b.txt", Data: []byte("第二条 B内容。"), Opts: domain.IngestOptions{Chunker: domain.ChunkerRegulation}},
		{Filename: "c.txt", Data: []byte("第三条 C内容。"), Opts: domain.IngestOptions{Chunker: domain.ChunkerRegulation}},
	}

	results := o.Ingest(ctx, files)
	require.Len(t, results, 3)
	assert.Equal(t, "a.txt", results[0].Filename)
	assert.Equal(t, "b.txt", results[1].Filename)
	assert.Equal(t, "c.txt", results[2].Filename)
}

func TestOrchestrator_Ask_EndToEnd_EmitsCitations(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(t)

	file := orchestrator.IngestFile{
		Filename: "reg.txt",
		Data:     []byte("第十条 单位应当建立内部控制制度。"),
		Opts:     domain.IngestOptions{DocType: domain.DocTypeInternalRegulation, Chunker: domain.ChunkerRegulation},
	}
	results := o.Ingest(ctx, []orchestrator.IngestFile{file})
	require.NoError(t, results[0].Err)

	var events []answer.Event
	err := o.Ask(ctx, "内部控制制度是什么", orchestrator.AskOptions{}, "", func(e answer.Event) bool {
		events = append(events, e)
		return true
	})
	require.NoError(t, err)

	var sawSession, sawCitations bool
	for _, e := range events {
		switch e.Kind {
		case answer.EventSession:
			sawSession = true
		case answer.EventCitations:
			sawCitations = true
		}
	}
	assert.True(t, sawSession)
	assert.True(t, sawCitations)
}

func TestOrchestrator_RebuildGraph_RepopulatesFromRegistry(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(t)

	file := orchestrator.IngestFile{
		Filename: "issue.txt",
		Data:     []byte("部门单位：财务处\n问题摘要：预算执行不到位\n整改情况：已整改"),
		Opts:     domain.IngestOptions{DocType: domain.DocTypeAuditIssue, Chunker: domain.ChunkerAuditIssue},
	}
	results := o.Ingest(ctx, []orchestrator.IngestFile{file})
	require.NoError(t, results[0].Err)

	require.NoError(t, o.RebuildGraph(ctx))

	_, err := o.SearchWithIntent(ctx, "预算执行问题", orchestrator.AskOptions{})
	require.NoError(t, err)
}

func TestOrchestrator_Start_ReloadsRegistryAndRebuildsMissingGraph(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newTestOrchestratorAt(t, dir)
	file := orchestrator.IngestFile{
		Filename: "issue.txt",
		Data:     []byte("部门单位：财务处\n问题摘要：预算执行不到位\n整改情况：已整改"),
		Opts: domain.IngestOptions{
			DocType: domain.DocTypeAuditIssue, Chunker: domain.ChunkerAuditIssue, SaveAfter: true,
		},
	}
	results := first.Ingest(ctx, []orchestrator.IngestFile{file})
	require.NoError(t, results[0].Err)

	// A fresh process reopens the same data directory: the registry.json
	// and vector.index/.docs files exist, but graph.bin (which the
	// SaveAfter commit also wrote) is removed first, simulating spec §6's
	// "missing graph file" case.
	require.NoError(t, os.Remove(filepath.Join(dir, "graph.bin")))
	second := newTestOrchestratorAt(t, dir)
	require.NoError(t, second.Start(ctx))

	info, err := second.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Registry.ActiveDocuments)
	assert.Greater(t, info.VectorCount, 0)
	assert.Greater(t, info.GraphNodes, 0, "Start should have auto-rebuilt the graph from the reloaded registry")

	_, err = second.SearchWithIntent(ctx, "预算执行问题", orchestrator.AskOptions{})
	require.NoError(t, err)
}

func TestOrchestrator_DeleteDocument_RemovesFromAllIndices(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(t)

	file := orchestrator.IngestFile{
		Filename: "reg.txt",
		Data:     []byte("第十条 单位应当建立内部控制制度。"),
		Opts:     domain.IngestOptions{DocType: domain.DocTypeInternalRegulation, Chunker: domain.ChunkerRegulation},
	}
	results := o.Ingest(ctx, []orchestrator.IngestFile{file})
	require.NoError(t, results[0].Err)
	docID := results[0].DocID

	require.NoError(t, o.DeleteDocument(ctx, docID))

	doc, err := o.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusDeleted, doc.Status)
}
