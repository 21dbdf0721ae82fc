package chunker

import (
	"regexp"
	"sort"
	"strings"

	"rag-orchestrator/internal/domain"
)

var (
	chapterMarkerRe = regexp.MustCompile(`第[一二三四五六七八九十百千0-9]+章`)
	sectionMarkerRe = regexp.MustCompile(`第[一二三四五六七八九十百千0-9]+节`)
	clauseMarkerRe  = regexp.MustCompile(`第[一二三四五六七八九十百千0-9]+条`)
)

type markerKind int

const (
	markerChapter markerKind = iota
	markerSection
	markerClause
)

type marker struct {
	kind markerKind
	pos  int
}

// splitRegulation splits on 第X章/第X节/第X条 boundaries, keeping any
// sub-enumeration text (e.g. （一）) between one clause marker and the next
// attached to its parent clause rather than split out on its own — the
// splitter only ever breaks at chapter/section/clause markers.
func splitRegulation(blocks []domain.ParsedBlock) ([]unit, error) {
	text, pageOf := joinBlocks(blocks)

	var markers []marker
	for _, m := range chapterMarkerRe.FindAllStringIndex(text, -1) {
		markers = append(markers, marker{markerChapter, m[0]})
	}
	for _, m := range sectionMarkerRe.FindAllStringIndex(text, -1) {
		markers = append(markers, marker{markerSection, m[0]})
	}
	for _, m := range clauseMarkerRe.FindAllStringIndex(text, -1) {
		markers = append(markers, marker{markerClause, m[0]})
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })

	if len(markers) == 0 {
		return splitDefault(blocks, DefaultChunkSize, 0)
	}

	var units []unit
	if lead := strings.TrimSpace(text[:markers[0].pos]); lead != "" {
		units = append(units, unit{text: lead, boundary: domain.BoundaryGeneric, pageNos: []int{pageOf(0)}})
	}

	var chapter, section string
	for i, m := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].pos
		}
		segment := strings.TrimSpace(text[m.pos:end])

		switch m.kind {
		case markerChapter:
			chapter = firstLine(segment)
			section = ""
		case markerSection:
			section = firstLine(segment)
		case markerClause:
			if segment == "" {
				continue
			}
			units = append(units, unit{
				text:        segment,
				sectionPath: nonEmpty(chapter, section),
				boundary:    domain.BoundaryArticle,
				pageNos:     []int{pageOf(m.pos)},
			})
		}
	}
	return units, nil
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// joinBlocks concatenates paragraph text with a single newline separator and
// returns a lookup from byte offset to the source page number, used so
// downstream split units still carry accurate page_nos.
func joinBlocks(blocks []domain.ParsedBlock) (string, func(offset int) int) {
	var b strings.Builder
	type span struct {
		start  int
		pageNo int
	}
	var spans []span
	for _, blk := range blocks {
		t := strings.TrimSpace(blk.Text)
		if t == "" {
			continue
		}
		spans = append(spans, span{start: b.Len(), pageNo: blk.PageNo})
		b.WriteString(t)
		b.WriteString("\n")
	}
	full := b.String()
	lookup := func(offset int) int {
		page := 1
		for _, s := range spans {
			if s.start <= offset {
				page = s.pageNo
			} else {
				break
			}
		}
		return page
	}
	return full, lookup
}
