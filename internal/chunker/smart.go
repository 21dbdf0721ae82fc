package chunker

import (
	"regexp"

	"rag-orchestrator/internal/domain"
)

var (
	auditIssueRowRe = regexp.MustCompile(`(?m)^\s*[|\t].+[|\t].+`)
	regulationRe    = regexp.MustCompile(`第[一二三四五六七八九十百千0-9]+[章节条]`)
	auditReportRe   = regexp.MustCompile(`(?m)^\s*(一、|（[一二三四五六七八九十]+）|\d+\.)`)
)

// selectSmartMode scans a prefix of the parsed blocks (the table_row count
// covers every block) and returns the first matching heuristic in the fixed
// order {audit_issue, regulation, audit_report, default} (per SPEC_FULL.md's
// Open Question resolution).
func selectSmartMode(blocks []domain.ParsedBlock) domain.ChunkerMode {
	prefix := prefixText(blocks, 20)

	if hasTableRows(blocks) || auditIssueRowRe.MatchString(prefix) {
		return domain.ChunkerAuditIssue
	}
	if regulationRe.MatchString(prefix) {
		return domain.ChunkerRegulation
	}
	if auditReportRe.MatchString(prefix) {
		return domain.ChunkerAuditReport
	}
	return domain.ChunkerDefault
}

func hasTableRows(blocks []domain.ParsedBlock) bool {
	count := 0
	for _, b := range blocks {
		if b.BlockKind == domain.BlockTableRow {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	return false
}

func prefixText(blocks []domain.ParsedBlock, n int) string {
	if n > len(blocks) {
		n = len(blocks)
	}
	var out []byte
	for _, b := range blocks[:n] {
		out = append(out, b.Text...)
		out = append(out, '\n')
	}
	return string(out)
}
