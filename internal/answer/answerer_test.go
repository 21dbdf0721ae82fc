package answer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/answer"
	"rag-orchestrator/internal/domain"
)

type scriptedLLM struct {
	chunks []string
	err    error
}

func (s scriptedLLM) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	return nil, errors.New("not used")
}

func (s scriptedLLM) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan domain.LLMChunk, <-chan error, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	chunkCh := make(chan domain.LLMChunk, len(s.chunks)+1)
	errCh := make(chan error)
	for i, c := range s.chunks {
		chunkCh <- domain.LLMChunk{Text: c, Done: i == len(s.chunks)-1}
	}
	close(chunkCh)
	close(errCh)
	return chunkCh, errCh, nil
}

func (s scriptedLLM) Version() string { return "scripted-v1" }

func hits() []domain.SearchResult {
	return []domain.SearchResult{
		{ChunkID: "d1:0", Text: "第十条要求内部控制", Score: 0.9, Metadata: domain.VectorMetadata{Filename: "a.pdf"}},
		{ChunkID: "d1:1", Text: "第十一条要求信息披露", Score: 0.7, Metadata: domain.VectorMetadata{Filename: "a.pdf"}},
	}
}

func TestAnswerer_Answer_ResolvesCitationsInFirstAppearanceOrder(t *testing.T) {
	llm := scriptedLLM{chunks: []string{"根据资料，", "内部控制要求见 [S1]，", "信息披露要求见 [S2]。"}}
	a := answer.New(llm, 0, nil)

	var events []answer.Event
	text, err := a.Answer(context.Background(), "问题", hits(), nil, func(e answer.Event) bool {
		events = append(events, e)
		return true
	})
	require.NoError(t, err)
	assert.Contains(t, text, "[S1]")
	assert.Contains(t, text, "[S2]")

	var citations answer.CitationsPayload
	found := false
	for _, e := range events {
		if e.Kind == answer.EventCitations {
			citations = e.Payload.(answer.CitationsPayload)
			found = true
		}
	}
	require.True(t, found)
	require.Len(t, citations.Citations, 2)
	assert.Equal(t, "S1", citations.Citations[0].SourceID)
	assert.Equal(t, "S2", citations.Citations[1].SourceID)
}

func TestAnswerer_Answer_StripsUnresolvedCitationToken(t *testing.T) {
	llm := scriptedLLM{chunks: []string{"参考 [S1] 和不存在的 [S99]。"}}
	a := answer.New(llm, 0, nil)

	var delta string
	_, err := a.Answer(context.Background(), "问题", hits(), nil, func(e answer.Event) bool {
		if e.Kind == answer.EventDelta {
			delta += e.Payload.(string)
		}
		return true
	})
	require.NoError(t, err)
	assert.Contains(t, delta, "[S1]")
	assert.NotContains(t, delta, "[S99]")
}

func TestAnswerer_Answer_EmptyHits_ReturnsFixedReply(t *testing.T) {
	llm := scriptedLLM{chunks: []string{"should not be called"}}
	a := answer.New(llm, 0, nil)

	var citationsPayload answer.CitationsPayload
	text, err := a.Answer(context.Background(), "问题", nil, nil, func(e answer.Event) bool {
		if e.Kind == answer.EventCitations {
			citationsPayload = e.Payload.(answer.CitationsPayload)
		}
		return true
	})
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Empty(t, citationsPayload.Citations)
}

func TestAnswerer_Answer_ChatStreamSetupError(t *testing.T) {
	llm := scriptedLLM{err: errors.New("provider down")}
	a := answer.New(llm, 0, nil)

	_, err := a.Answer(context.Background(), "问题", hits(), nil, func(e answer.Event) bool { return true })
	require.Error(t, err)
	assert.Equal(t, domain.KindLLMError, domain.KindOf(err))
}
