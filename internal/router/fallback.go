package router

import (
	"strings"

	"rag-orchestrator/internal/domain"
)

// regulationKeywords/issueKeywords/auditKeywords/analysisKeywords are the
// deterministic signal words the keyword fallback matches against, since no
// in-pack keyword table exists to ground this against and the classifier
// prompt's own intent definitions are the closest available source.
var (
	regulationKeywords = []string{"规定", "条款", "办法", "细则", "制度", "第", "条"}
	issueKeywords      = []string{"问题", "违规", "整改", "处罚"}
	analysisKeywords   = []string{"汇总", "统计", "分析", "总体", "整体情况", "趋势"}
	auditKeywords      = []string{"审计", "报告", "检查"}
)

// keywordFallback classifies a query deterministically when the LLM
// classifier is unavailable or its output could not be parsed, so
// retrieval always proceeds (spec §4.J).
func keywordFallback(query string) Classification {
	switch {
	case containsAny(query, analysisKeywords):
		return Classification{Intent: IntentAuditAnalysis, Reason: "keyword_fallback:analysis", SuggestedTopK: 20}
	case containsAny(query, issueKeywords):
		return Classification{
			Intent: IntentIssueQuery, Reason: "keyword_fallback:issue", SuggestedTopK: 8,
			DocTypes: []domain.DocType{domain.DocTypeAuditIssue},
		}
	case containsAny(query, regulationKeywords):
		return Classification{
			Intent: IntentRegulationQuery, Reason: "keyword_fallback:regulation", SuggestedTopK: 5,
			DocTypes: []domain.DocType{domain.DocTypeInternalRegulation, domain.DocTypeExternalRegulation},
		}
	case containsAny(query, auditKeywords):
		return Classification{
			Intent: IntentAuditQuery, Reason: "keyword_fallback:audit", SuggestedTopK: 8,
			DocTypes: normalizeDocTypes([]string{"audit_report"}),
		}
	default:
		return Classification{Intent: IntentGeneral, Reason: "keyword_fallback:general", SuggestedTopK: 5}
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
