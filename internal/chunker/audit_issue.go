package chunker

import (
	"strings"

	"rag-orchestrator/internal/domain"
)

// splitAuditIssue treats each table_row block as its own chunk: audit issue
// ledgers are already one logical record per row, so no further
// segmentation is meaningful (spec §4.B).
func splitAuditIssue(blocks []domain.ParsedBlock) ([]unit, error) {
	var units []unit
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		boundary := domain.BoundaryParagraph
		if b.BlockKind == domain.BlockTableRow {
			boundary = domain.BoundaryRow
		}
		units = append(units, unit{
			text:     text,
			boundary: boundary,
			pageNos:  []int{b.PageNo},
		})
	}
	return units, nil
}
