// Package router implements the spec §4.J Intent Router: LLM-based query
// classification with a deterministic keyword fallback, and the
// per-intent retrieval-plan table (spec §10.3) that turns a classification
// into concrete domain.RetrievalOptions.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"rag-orchestrator/internal/domain"
)

// Intent is the query classification the router produces.
type Intent string

const (
	IntentRegulationQuery Intent = "regulation_query"
	IntentAuditQuery      Intent = "audit_query"
	IntentIssueQuery      Intent = "issue_query"
	IntentAuditAnalysis   Intent = "audit_analysis"
	IntentGeneral         Intent = "general"
)

// Classification is the Intent Router's output (spec §4.J).
type Classification struct {
	Intent        Intent
	Reason        string
	SuggestedTopK int
	DocTypes      []domain.DocType

	// The following fields are set only when the LLM classifier supplied
	// them explicitly; nil means "use the intent's table default."
	UseGraph      *bool
	RetrievalMode *domain.RetrievalMode
	GraphTopK     *int
	GraphHops     *int
	HybridAlpha   *float64
}

const classificationPrompt = `你是一个审计合规问答系统的查询意图分类器。基于用户问题，输出一个 JSON 对象，包含以下字段：
intent（取值之一：regulation_query, audit_query, issue_query, audit_analysis, general）,
reason（简短说明分类依据）,
suggested_top_k（整数，事实性问题用 5，需要综合分析的问题用 20）,
doc_types（可选，字符串数组，取值可为 internal_regulation, external_regulation, internal_report, external_report, audit_issue, audit_report）。

只输出 JSON，不要输出其他文字。

问题：%s`

// Router classifies queries and routes them to concrete retrieval options.
type Router struct {
	llm    domain.LLMClient
	logger *slog.Logger
}

func New(llm domain.LLMClient, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{llm: llm, logger: logger}
}

// Classify calls the LLM with a fixed classification prompt and parses its
// JSON response; on any failure it falls back to a deterministic keyword
// classifier so retrieval always proceeds (spec §4.J).
func (r *Router) Classify(ctx context.Context, query string) Classification {
	if r.llm != nil {
		if c, ok := r.classifyWithLLM(ctx, query); ok {
			return c
		}
	}
	return keywordFallback(query)
}

// Route classifies query and derives the concrete retrieval options for it
// in one call, the shape the orchestrator's ask flow consumes.
func (r *Router) Route(ctx context.Context, query string) (Classification, domain.RetrievalOptions) {
	c := r.Classify(ctx, query)
	return c, BuildRetrievalOptions(c)
}

func (r *Router) classifyWithLLM(ctx context.Context, query string) (Classification, bool) {
	resp, err := r.llm.Generate(ctx, sprintfPrompt(query), 256)
	if err != nil {
		r.logger.Warn("intent_classification_failed_using_keyword_fallback", slog.String("error", err.Error()))
		return Classification{}, false
	}

	var raw struct {
		Intent        string   `json:"intent"`
		Reason        string   `json:"reason"`
		SuggestedTopK int      `json:"suggested_top_k"`
		DocTypes      []string `json:"doc_types"`
		UseGraph      *bool    `json:"use_graph"`
		RetrievalMode *string  `json:"retrieval_mode"`
		GraphTopK     *int     `json:"graph_top_k"`
		GraphHops     *int     `json:"graph_hops"`
		HybridAlpha   *float64 `json:"hybrid_alpha"`
	}
	text := extractJSONObject(resp.Text)
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		r.logger.Warn("intent_classification_unparseable_using_keyword_fallback", slog.String("error", err.Error()))
		return Classification{}, false
	}

	intent := Intent(raw.Intent)
	if !validIntent(intent) {
		return Classification{}, false
	}

	c := Classification{
		Intent:        intent,
		Reason:        raw.Reason,
		SuggestedTopK: raw.SuggestedTopK,
		DocTypes:      normalizeDocTypes(raw.DocTypes),
		UseGraph:      raw.UseGraph,
		GraphTopK:     raw.GraphTopK,
		GraphHops:     raw.GraphHops,
		HybridAlpha:   raw.HybridAlpha,
	}
	if raw.RetrievalMode != nil {
		mode := domain.RetrievalMode(strings.ToLower(*raw.RetrievalMode))
		c.RetrievalMode = &mode
	}
	if c.SuggestedTopK <= 0 {
		c.SuggestedTopK = 5
	}
	return c, true
}

func validIntent(i Intent) bool {
	switch i {
	case IntentRegulationQuery, IntentAuditQuery, IntentIssueQuery, IntentAuditAnalysis, IntentGeneral:
		return true
	default:
		return false
	}
}

// normalizeDocTypes expands the query-facing "audit_report" grouping label
// into its two concrete stored doc_type values (spec §12).
func normalizeDocTypes(raw []string) []domain.DocType {
	seen := make(map[domain.DocType]struct{}, len(raw))
	var out []domain.DocType
	add := func(dt domain.DocType) {
		if _, ok := seen[dt]; ok {
			return
		}
		seen[dt] = struct{}{}
		out = append(out, dt)
	}
	for _, v := range raw {
		if v == "audit_report" {
			add(domain.DocTypeInternalReport)
			add(domain.DocTypeExternalReport)
			continue
		}
		add(domain.DocType(v))
	}
	return out
}

func sprintfPrompt(query string) string {
	return strings.Replace(classificationPrompt, "%s", query, 1)
}

// extractJSONObject trims any leading/trailing prose an LLM may have added
// around the JSON object it was asked to emit exclusively.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}
