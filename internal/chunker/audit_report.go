package chunker

import (
	"regexp"
	"sort"
	"strings"

	"rag-orchestrator/internal/domain"
)

var (
	level1MarkerRe = regexp.MustCompile(`(?m)^\s*[一二三四五六七八九十]+、`)
	level2MarkerRe = regexp.MustCompile(`(?m)^\s*（[一二三四五六七八九十]+）`)
	level3MarkerRe = regexp.MustCompile(`(?m)^\s*\d+\.`)
)

// splitAuditReport splits on the 一、/（一）/1. numbering hierarchy typical
// of audit report narrative sections. The deepest marker level actually
// present in the document becomes the chunk boundary; shallower levels
// accumulate as section_path context, mirroring splitRegulation's
// chapter/section/clause treatment.
func splitAuditReport(blocks []domain.ParsedBlock) ([]unit, error) {
	text, pageOf := joinBlocks(blocks)

	l1 := level1MarkerRe.FindAllStringIndex(text, -1)
	l2 := level2MarkerRe.FindAllStringIndex(text, -1)
	l3 := level3MarkerRe.FindAllStringIndex(text, -1)

	leaf := markerChapter // reused as "level1" sentinel below
	switch {
	case len(l3) > 0:
		leaf = markerClause // "level3"
	case len(l2) > 0:
		leaf = markerSection // "level2"
	case len(l1) == 0:
		return splitDefault(blocks, DefaultChunkSize, 0)
	}

	var markers []marker
	add := func(idxs [][]int, kind markerKind) {
		for _, m := range idxs {
			markers = append(markers, marker{kind, m[0]})
		}
	}
	add(l1, markerChapter)
	add(l2, markerSection)
	add(l3, markerClause)
	sort.Slice(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })

	var units []unit
	if lead := strings.TrimSpace(text[:markers[0].pos]); lead != "" {
		units = append(units, unit{text: lead, boundary: domain.BoundaryGeneric, pageNos: []int{pageOf(0)}})
	}

	var level1Title, level2Title string
	for i, m := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].pos
		}
		segment := strings.TrimSpace(text[m.pos:end])
		if segment == "" {
			continue
		}

		if m.kind == leaf {
			units = append(units, unit{
				text:        segment,
				sectionPath: nonEmpty(level1Title, level2Title),
				boundary:    domain.BoundarySection,
				pageNos:     []int{pageOf(m.pos)},
			})
			continue
		}
		switch m.kind {
		case markerChapter:
			level1Title = firstLine(segment)
			level2Title = ""
		case markerSection:
			level2Title = firstLine(segment)
		}
	}
	return units, nil
}
