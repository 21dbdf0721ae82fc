package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/router"
)

type stubLLM struct {
	text string
	err  error
}

func (s stubLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.LLMResponse{Text: s.text, Done: true}, nil
}
func (s stubLLM) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan domain.LLMChunk, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}
func (s stubLLM) Version() string { return "stub-llm" }

func TestRouter_Classify_ParsesLLMJSON(t *testing.T) {
	r := router.New(stubLLM{text: `以下是分类结果：{"intent":"regulation_query","reason":"提到条款","suggested_top_k":5,"doc_types":["internal_regulation"]}`}, nil)

	c := r.Classify(context.Background(), "第十条规定了什么")
	assert.Equal(t, router.IntentRegulationQuery, c.Intent)
	assert.Equal(t, []domain.DocType{domain.DocTypeInternalRegulation}, c.DocTypes)
}

func TestRouter_Classify_FallsBackOnLLMError(t *testing.T) {
	r := router.New(stubLLM{err: errors.New("timeout")}, nil)

	c := r.Classify(context.Background(), "这个问题涉及违规整改情况")
	assert.Equal(t, router.IntentIssueQuery, c.Intent)
}

func TestRouter_Classify_FallsBackOnUnparseableJSON(t *testing.T) {
	r := router.New(stubLLM{text: "not json at all"}, nil)

	c := r.Classify(context.Background(), "汇总整体审计情况")
	assert.Equal(t, router.IntentAuditAnalysis, c.Intent)
}

func TestRouter_Classify_NilLLM_UsesKeywordFallback(t *testing.T) {
	r := router.New(nil, nil)
	c := r.Classify(context.Background(), "随便问点什么")
	assert.Equal(t, router.IntentGeneral, c.Intent)
}

func TestBuildRetrievalOptions_AuditAnalysis_WidensTopKAndDisablesRerank(t *testing.T) {
	opts := router.BuildRetrievalOptions(router.Classification{Intent: router.IntentAuditAnalysis, SuggestedTopK: 5})
	assert.Equal(t, 20, opts.TopK)
	assert.False(t, opts.UseRerank)
	assert.Equal(t, domain.ModeGraph, opts.Mode)
}

func TestBuildRetrievalOptions_WideTopKNonAnalysisIntent_DisablesRerank(t *testing.T) {
	// intent_router.py's _sanitize_retrieval_plan turns rerank off whenever
	// top_k >= 20 regardless of intent, not only for audit_analysis.
	opts := router.BuildRetrievalOptions(router.Classification{Intent: router.IntentGeneral, SuggestedTopK: 20})
	assert.Equal(t, 20, opts.TopK)
	assert.False(t, opts.UseRerank)
	assert.Equal(t, 20, opts.RerankTopK)
}

func TestBuildRetrievalOptions_NarrowTopK_WidensRerankPool(t *testing.T) {
	opts := router.BuildRetrievalOptions(router.Classification{Intent: router.IntentRegulationQuery, SuggestedTopK: 3})
	require.True(t, opts.UseRerank)
	assert.Equal(t, 6, opts.RerankTopK)
}

func TestBuildRetrievalOptions_WideTopK_ClampsRerankPool(t *testing.T) {
	opts := router.BuildRetrievalOptions(router.Classification{Intent: router.IntentIssueQuery, SuggestedTopK: 15})
	require.True(t, opts.UseRerank)
	assert.Equal(t, 10, opts.RerankTopK)
}

func TestBuildRetrievalOptions_OverridesWinOverTableDefaults(t *testing.T) {
	hops := 4
	alpha := 0.1
	opts := router.BuildRetrievalOptions(router.Classification{
		Intent: router.IntentRegulationQuery, SuggestedTopK: 5,
		GraphHops: &hops, HybridAlpha: &alpha,
	})
	assert.Equal(t, 4, opts.Hops)
	require.NotNil(t, opts.Alpha)
	assert.InDelta(t, 0.1, *opts.Alpha, 1e-9)
}

func TestBuildRetrievalOptions_SanitizesOutOfRangeOverrides(t *testing.T) {
	badHops := 99
	badAlpha := 5.0
	opts := router.BuildRetrievalOptions(router.Classification{
		Intent: router.IntentGeneral, SuggestedTopK: 5,
		GraphHops: &badHops, HybridAlpha: &badAlpha,
	})
	assert.Equal(t, 4, opts.Hops)
	require.NotNil(t, opts.Alpha)
	assert.InDelta(t, 1.0, *opts.Alpha, 1e-9)
}
