package chunker

import (
	"strings"

	"rag-orchestrator/internal/domain"
)

// splitDefault turns each non-empty paragraph block into one unit, applying
// a trailing overlap of the previous unit's tail characters to the next
// unit's head, per spec §4.B. size is not applied here; the caller's
// splitLongUnits pass bounds unit length. Heading blocks become
// section_path ancestors for every later paragraph unit: each heading is
// appended to the path and none is ever removed, since blocks carry no
// heading depth.
func splitDefault(blocks []domain.ParsedBlock, size, overlap int) ([]unit, error) {
	var paras []unit
	var headingStack []string

	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		if b.BlockKind == domain.BlockHeading {
			headingStack = append(headingStack, text)
			continue
		}
		paras = append(paras, unit{
			text:        text,
			sectionPath: append([]string(nil), headingStack...),
			boundary:    domain.BoundaryParagraph,
			pageNos:     []int{b.PageNo},
		})
	}

	if overlap <= 0 {
		return paras, nil
	}
	return applyOverlap(paras, overlap), nil
}

// applyOverlap prepends the trailing `overlap` characters of unit i-1 to
// unit i's text, so downstream retrieval never loses context at a chunk
// boundary. Overlap is stripped again by callers reconstructing source text
// (spec §4.B invariant: concatenation with overlap removed reproduces the
// source modulo whitespace).
func applyOverlap(units []unit, overlap int) []unit {
	out := make([]unit, len(units))
	for i, u := range units {
		if i == 0 {
			out[i] = u
			continue
		}
		prevRunes := []rune(units[i-1].text)
		tailLen := overlap
		if tailLen > len(prevRunes) {
			tailLen = len(prevRunes)
		}
		tail := string(prevRunes[len(prevRunes)-tailLen:])
		merged := u
		merged.text = tail + "\n" + u.text
		out[i] = merged
	}
	return out
}
