package orchestrator

import (
	"context"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/router"
)

// SearchResponse carries the classification the intent router produced
// alongside the ranked hits, the shape POST /search_with_intent (spec §6)
// reports back to the caller.
type SearchResponse struct {
	Classification router.Classification
	Options        domain.RetrievalOptions
	Results        []domain.SearchResult
}

// SearchWithIntent classifies query and runs retrieval (plus rerank, if the
// derived plan calls for it) without generation, for callers that only
// need the ranked chunk list (spec §4.M).
func (o *Orchestrator) SearchWithIntent(ctx context.Context, query string, overrides AskOptions) (SearchResponse, error) {
	o.rebuildMu.RLock()
	defer o.rebuildMu.RUnlock()

	classification, retrievalOpts := o.intentRouter.Route(ctx, query)
	applyAskOverrides(&retrievalOpts, overrides)

	hits, err := o.retriever.Search(ctx, query, retrievalOpts)
	if err != nil {
		return SearchResponse{}, err
	}
	if retrievalOpts.UseRerank {
		hits = o.rerankStage.Rerank(ctx, query, hits)
	}
	return SearchResponse{Classification: classification, Options: retrievalOpts, Results: hits}, nil
}
