package router

import "rag-orchestrator/internal/domain"

// retrievalPlan is the per-intent set of retrieval defaults (spec §10.3),
// ported from intent_router.py's _default_retrieval_plan_by_intent.
type retrievalPlan struct {
	useGraph    bool
	mode        domain.RetrievalMode
	graphTopK   int
	graphHops   int
	hybridAlpha float64
}

var plansByIntent = map[Intent]retrievalPlan{
	IntentRegulationQuery: {useGraph: true, mode: domain.ModeHybrid, graphTopK: 10, graphHops: 1, hybridAlpha: 0.75},
	IntentAuditQuery:      {useGraph: true, mode: domain.ModeHybrid, graphTopK: 12, graphHops: 2, hybridAlpha: 0.65},
	IntentIssueQuery:      {useGraph: true, mode: domain.ModeHybrid, graphTopK: 16, graphHops: 2, hybridAlpha: 0.58},
	IntentAuditAnalysis:   {useGraph: true, mode: domain.ModeGraph, graphTopK: 24, graphHops: 3, hybridAlpha: 0.45},
	IntentGeneral:         {useGraph: true, mode: domain.ModeHybrid, graphTopK: 14, graphHops: 2, hybridAlpha: 0.60},
}

// BuildRetrievalOptions turns a Classification into concrete
// domain.RetrievalOptions: it starts from the intent's table default, lets
// any explicit LLM-supplied override win, sanitises every field into its
// valid range, then applies the rerank safety clamp (spec §10.3).
func BuildRetrievalOptions(c Classification) domain.RetrievalOptions {
	plan, ok := plansByIntent[c.Intent]
	if !ok {
		plan = plansByIntent[IntentGeneral]
	}

	topK := c.SuggestedTopK
	if topK <= 0 {
		topK = 5
	}

	mode := plan.mode
	if c.RetrievalMode != nil {
		mode = *c.RetrievalMode
	}
	useGraph := plan.useGraph
	if c.UseGraph != nil {
		useGraph = *c.UseGraph
	}
	graphTopK := plan.graphTopK
	if c.GraphTopK != nil {
		graphTopK = *c.GraphTopK
	}
	graphHops := plan.graphHops
	if c.GraphHops != nil {
		graphHops = *c.GraphHops
	}
	alpha := plan.hybridAlpha
	if c.HybridAlpha != nil {
		alpha = *c.HybridAlpha
	}

	// audit_analysis always operates over a wide, graph-driven window.
	if c.Intent == IntentAuditAnalysis && topK < 20 {
		topK = 20
	}

	mode = sanitizeMode(mode)
	graphTopK = clampInt(graphTopK, 5, 40)
	graphHops = clampInt(graphHops, 1, 4)
	alpha = clampFloat(alpha, 0.0, 1.0)

	opts := domain.RetrievalOptions{
		Mode:          mode,
		Hops:          graphHops,
		Alpha:         &alpha,
		TopK:          topK,
		GraphTopK:     graphTopK,
		UseGraph:      useGraph,
		DocTypeFilter: c.DocTypes,
	}

	applyRerankClamp(&opts, c.Intent, topK)
	return opts
}

// applyRerankClamp implements the rerank safety clamp: any window of 20 or
// more candidates skips rerank entirely regardless of intent (a cross-encoder
// pass over that many candidates is too costly to be worth it — ported from
// intent_router.py's _sanitize_retrieval_plan, which applies this cutoff
// unconditionally, not just for audit_analysis), narrower-but-still-wide
// windows keep rerank but cap its candidate count, and narrow windows widen
// the rerank pool relative to top_k so genuinely relevant hits at rank 6-10
// aren't dropped before rerank gets to see them.
func applyRerankClamp(opts *domain.RetrievalOptions, intent Intent, topK int) {
	switch {
	case intent == IntentAuditAnalysis, topK >= 20:
		opts.UseRerank = false
		opts.RerankTopK = topK
	case topK > 10:
		opts.UseRerank = true
		opts.RerankTopK = 10
	case topK <= 5:
		opts.UseRerank = true
		rerankTopK := topK * 2
		if rerankTopK > 10 {
			rerankTopK = 10
		}
		opts.RerankTopK = rerankTopK
	default:
		opts.UseRerank = true
		opts.RerankTopK = topK
	}
}

func sanitizeMode(mode domain.RetrievalMode) domain.RetrievalMode {
	switch mode {
	case domain.ModeVector, domain.ModeHybrid, domain.ModeGraph:
		return mode
	default:
		return domain.ModeHybrid
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

