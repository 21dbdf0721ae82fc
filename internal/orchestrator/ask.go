package orchestrator

import (
	"context"

	"rag-orchestrator/internal/answer"
	"rag-orchestrator/internal/domain"
)

// AskOptions carries the caller's explicit overrides for one ask request;
// nil fields mean "let the intent router decide" (spec §4.J).
type AskOptions struct {
	RetrievalMode *domain.RetrievalMode
	UseGraph      *bool
	DocTypeFilter []domain.DocType
}

// Ask runs the full ask pipeline as one logical, internally sequential
// task: intent classification, retrieval, rerank, then streamed
// generation. Progress events and the session event (if a new session was
// minted) precede the first content delta; citations precede the implicit
// terminating sentinel the HTTP transport appends (spec §5 ordering
// guarantee). Cancellation is checked at every stage boundary; once
// tripped, the orchestrator stops before calling the LLM (spec §4.M).
func (o *Orchestrator) Ask(ctx context.Context, query string, opts AskOptions, sessionID string, emit func(answer.Event) bool) error {
	o.rebuildMu.RLock()
	defer o.rebuildMu.RUnlock()

	if sessionID == "" {
		id, err := o.sessions.NewSession(ctx)
		if err != nil {
			return err
		}
		sessionID = id
		emit(answer.Event{Kind: answer.EventSession, Payload: answer.SessionPayload{SessionID: sessionID}})
	}

	if err := ctx.Err(); err != nil {
		return domain.NewError(domain.KindCancelled, "ask cancelled before intent stage", err)
	}

	if !emit(answer.Event{Kind: answer.EventProgress, Payload: answer.ProgressPayload{Stage: answer.StageIntent, Status: "running"}}) {
		return domain.NewError(domain.KindCancelled, "client disconnected before intent stage", nil)
	}
	classification, retrievalOpts := o.intentRouter.Route(ctx, query)
	applyAskOverrides(&retrievalOpts, opts)
	o.logger.Debug("intent_classified",
		"intent", classification.Intent, "reason", classification.Reason, "top_k", retrievalOpts.TopK)
	emit(answer.Event{Kind: answer.EventProgress, Payload: answer.ProgressPayload{Stage: answer.StageIntent, Status: "done"}})

	if err := ctx.Err(); err != nil {
		return domain.NewError(domain.KindCancelled, "ask cancelled before retrieval stage", err)
	}

	if !emit(answer.Event{Kind: answer.EventProgress, Payload: answer.ProgressPayload{Stage: answer.StageRetrieval, Status: "running"}}) {
		return domain.NewError(domain.KindCancelled, "client disconnected before retrieval stage", nil)
	}
	hits, err := o.retriever.Search(ctx, query, retrievalOpts)
	if err != nil {
		return err
	}
	if retrievalOpts.UseRerank {
		hits = o.rerankStage.Rerank(ctx, query, hits)
	}
	emit(answer.Event{Kind: answer.EventProgress, Payload: answer.ProgressPayload{Stage: answer.StageRetrieval, Status: "done", Hits: len(hits)}})

	if err := ctx.Err(); err != nil {
		return domain.NewError(domain.KindCancelled, "ask cancelled before generation stage", err)
	}

	history, err := o.sessions.History(ctx, sessionID, o.cfg.HistoryTurns)
	if err != nil {
		return err
	}

	answerText, err := o.answerer.Answer(ctx, query, hits, history, emit)
	if err != nil {
		return err
	}

	_ = o.sessions.Append(ctx, sessionID, "user", query)
	_ = o.sessions.Append(ctx, sessionID, "assistant", answerText)

	return nil
}

// applyAskOverrides layers a caller's explicit ask-request overrides on top
// of the intent router's derived options; only non-nil fields override.
func applyAskOverrides(opts *domain.RetrievalOptions, ask AskOptions) {
	if ask.RetrievalMode != nil {
		opts.Mode = *ask.RetrievalMode
	}
	if ask.UseGraph != nil {
		opts.UseGraph = *ask.UseGraph
	}
	if len(ask.DocTypeFilter) > 0 {
		opts.DocTypeFilter = ask.DocTypeFilter
	}
}
