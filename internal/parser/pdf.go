package parser

import (
	"bytes"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"rag-orchestrator/internal/domain"
)

// PDFParser extracts text per page and reconstructs table rows by grouping
// glyphs with near-identical Y coordinates, so a logical row of a table
// becomes a single table_row block rather than one block per physical text
// fragment (spec §4.A).
type PDFParser struct{}

func NewPDFParser() *PDFParser { return &PDFParser{} }

func (p *PDFParser) Supports(ext string) bool { return ext == ".pdf" }

// rowTolerance is the maximum Y-coordinate delta (in PDF user-space units)
// between two text fragments for them to be considered part of the same
// visual row.
const rowTolerance = 2.0

// rowColumnGapThreshold is the minimum horizontal gap between two
// consecutive fragments on the same row for the row to be classified as a
// table row rather than ordinary wrapped prose.
const rowColumnGapThreshold = 20.0

func (p *PDFParser) Parse(filename string, data []byte) ([]domain.ParsedBlock, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewError(domain.KindParseError, filename+": open pdf", err)
	}

	var blocks []domain.ParsedBlock
	for pageNo := 1; pageNo <= reader.NumPage(); pageNo++ {
		page := reader.Page(pageNo)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		rows := groupIntoRows(content.Text)
		for _, row := range rows {
			text := strings.TrimSpace(row.text)
			if text == "" {
				continue
			}
			kind := domain.BlockParagraph
			if row.isTable {
				kind = domain.BlockTableRow
			}
			blocks = append(blocks, domain.ParsedBlock{Text: text, PageNo: pageNo, BlockKind: kind})
		}
	}

	if len(blocks) == 0 {
		return nil, domain.NewError(domain.KindParseError, filename+": no extractable text", nil)
	}
	return blocks, nil
}

type textRow struct {
	y       float64
	text    string
	isTable bool
}

// groupIntoRows aggregates raw glyph-level Text fragments into visual rows
// ordered top-to-bottom, so a semantic table row is a single record rather
// than many physical-line fragments.
func groupIntoRows(fragments []pdflib.Text) []textRow {
	sorted := append([]pdflib.Text(nil), fragments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if abs(sorted[i].Y-sorted[j].Y) > rowTolerance {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []textRow
	var cur []pdflib.Text
	flush := func() {
		if len(cur) == 0 {
			return
		}
		var b strings.Builder
		gaps := 0
		for i, f := range cur {
			if i > 0 {
				if cur[i].X-cur[i-1].X > rowColumnGapThreshold {
					b.WriteString("\t")
					gaps++
				}
			}
			b.WriteString(f.S)
		}
		rows = append(rows, textRow{y: cur[0].Y, text: b.String(), isTable: gaps >= 1})
		cur = nil
	}

	for _, f := range sorted {
		if len(cur) > 0 && abs(cur[0].Y-f.Y) > rowTolerance {
			flush()
		}
		cur = append(cur, f)
	}
	flush()
	return rows
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
