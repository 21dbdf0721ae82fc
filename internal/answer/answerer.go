package answer

import (
	"context"
	"log/slog"
	"strings"

	"rag-orchestrator/internal/domain"
)

const defaultMaxTokens = 1024

// Answerer drives the generation stage of the ask flow: prompt assembly,
// token streaming, and citation resolution against a fixed set of
// retrieved chunks. It does not run retrieval or intent classification
// itself; the orchestrator drives those stages and hands this component
// the already-ranked hit list.
type Answerer struct {
	llm       domain.LLMClient
	maxTokens int
	logger    *slog.Logger
}

func New(llm domain.LLMClient, maxTokens int, logger *slog.Logger) *Answerer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{llm: llm, maxTokens: maxTokens, logger: logger}
}

// Answer streams the generation stage onto events: one generation.running,
// zero or more delta.content events, one citations event, then
// generation.done. It returns the fully accumulated answer text (citation
// tokens intact) for callers that need it (e.g. cache warm-up). It returns
// an error when the client disconnects, when the stream cannot be set up
// (generation.running has already been emitted by then), when the stream
// fails mid-generation, or when it produces no text; in those cases the
// citations and generation.done events are not emitted.
//
// If hits is empty, the fixed insufficient-context reply is emitted as a
// single delta and an empty citations table follows (spec §4.K guarantee
// (c)) — the LLM is never called.
func (a *Answerer) Answer(ctx context.Context, query string, hits []domain.SearchResult, history []domain.Turn, emit func(Event) bool) (string, error) {
	if !emit(Event{Kind: EventProgress, Payload: ProgressPayload{Stage: StageGeneration, Status: "running"}}) {
		return "", domain.NewError(domain.KindCancelled, "client disconnected before generation", nil)
	}

	if len(hits) == 0 {
		emit(Event{Kind: EventDelta, Payload: fixedInsufficientContextReply})
		emit(Event{Kind: EventCitations, Payload: CitationsPayload{Citations: []Citation{}}})
		emit(Event{Kind: EventProgress, Payload: ProgressPayload{Stage: StageGeneration, Status: "done"}})
		return fixedInsufficientContextReply, nil
	}

	sources := assignSourceIDs(hits)
	messages := buildMessages(query, sources, history)

	chunkCh, errCh, err := a.llm.ChatStream(ctx, messages, a.maxTokens)
	if err != nil {
		return "", domain.NewError(domain.KindLLMError, "chat stream setup failed", err)
	}

	scanner := newCitationScanner(sources)
	var full strings.Builder
	hasData := false

	chunkStream, errStream := chunkCh, errCh
	for chunkStream != nil || errStream != nil {
		select {
		case <-ctx.Done():
			return full.String(), domain.NewError(domain.KindCancelled, "client disconnected mid-generation", ctx.Err())
		case chunk, ok := <-chunkStream:
			if !ok {
				chunkStream = nil
				continue
			}
			if chunk.Text != "" {
				hasData = true
				full.WriteString(chunk.Text)
				if visible := scanner.Feed(chunk.Text); visible != "" {
					if !emit(Event{Kind: EventDelta, Payload: visible}) {
						return full.String(), domain.NewError(domain.KindCancelled, "client disconnected mid-generation", nil)
					}
				}
			}
			if chunk.Done {
				chunkStream = nil
				errStream = nil
			}
		case streamErr, ok := <-errStream:
			if !ok {
				errStream = nil
				continue
			}
			a.logger.Warn("generation_stream_failed", slog.String("error", streamErr.Error()))
			return full.String(), domain.NewError(domain.KindLLMError, "generation stream failed", streamErr)
		}
	}

	if tail := scanner.Flush(); tail != "" {
		emit(Event{Kind: EventDelta, Payload: tail})
	}
	if !hasData {
		a.logger.Warn("generation_stream_produced_no_data")
		return "", domain.NewError(domain.KindLLMError, "generation produced no data", nil)
	}

	citations := resolveCitations(scanner, sources)
	emit(Event{Kind: EventCitations, Payload: CitationsPayload{Citations: citations}})
	emit(Event{Kind: EventProgress, Payload: ProgressPayload{Stage: StageGeneration, Status: "done"}})

	return full.String(), nil
}
