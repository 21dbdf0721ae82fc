package graph

import (
	"regexp"
	"strings"
)

// relationRecord is a candidate typed edge an extractor proposes before
// entity-value normalization and node/edge creation happen in the builder.
type relationRecord struct {
	SourceType, SourceValue string
	Relation                string
	TargetType, TargetValue string
	Confidence              float64
	Weight                  float64
	Bidirectional           bool
	ReverseRelation         string
}

// entityKey is a candidate (type, raw value) pair an extractor proposes.
type entityKey struct {
	Type  string
	Value string
}

// chunkContext is the subset of chunk/document fields the extractors read.
type chunkContext struct {
	Text     string
	Title    string
	Filename string
	DocType  string
	Header   string
	Level1   string
	Level2   string
}

func (c chunkContext) merged() string {
	return c.Title + "\n" + c.Filename + "\n" + c.Text
}

var (
	yearPattern   = regexp.MustCompile(`(?:19|20)\d{2}`)
	clausePattern = regexp.MustCompile(`第[一二三四五六七八九十百千万零0-9]+条`)
	amountPattern = regexp.MustCompile(`\d+(?:\.\d+)?(?:亿元|万元|元)`)
)

var riskKeywords = []string{"违规", "风险", "内控", "合规", "数据安全", "网络安全", "个人信息", "采购", "预算", "资金"}

// extractor is implemented by each doc-type-specific extraction strategy.
type extractor interface {
	ExtractEntities(c chunkContext) []entityKey
	ExtractRelations(c chunkContext) []relationRecord
}

// baseExtractor supplies the shared regex helpers and the entity set common
// to every doc type; it is also the extractor used for doc types with no
// specialised strategy.
type baseExtractor struct{}

func (baseExtractor) ExtractEntities(c chunkContext) []entityKey { return basicEntities(c) }
func (baseExtractor) ExtractRelations(c chunkContext) []relationRecord { return nil }

func basicEntities(c chunkContext) []entityKey {
	var out []entityKey
	if c.DocType != "" {
		out = append(out, entityKey{EntityDocType, c.DocType})
	}
	for y := range uniqueMatches(yearPattern, c.merged()) {
		out = append(out, entityKey{EntityYear, y})
	}
	for cl := range uniqueMatches(clausePattern, truncate(c.Text, 6000)) {
		out = append(out, entityKey{EntityClause, cl})
	}
	for r := range extractRiskTypes(c.merged()) {
		out = append(out, entityKey{EntityRiskType, r})
	}
	if h := strings.TrimSpace(c.Header); h != "" {
		out = append(out, entityKey{EntitySection, truncate(h, 80)})
	}
	if l := strings.TrimSpace(c.Level1); l != "" {
		out = append(out, entityKey{EntitySection, truncate(l, 80)})
	}
	if l := strings.TrimSpace(c.Level2); l != "" {
		out = append(out, entityKey{EntitySection, truncate(l, 80)})
	}
	return out
}

func uniqueMatches(re *regexp.Regexp, text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, m := range re.FindAllString(text, -1) {
		out[m] = struct{}{}
	}
	return out
}

func extractRiskTypes(text string) map[string]struct{} {
	lowered := strings.ToLower(text)
	out := make(map[string]struct{})
	for _, kw := range riskKeywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			out[kw] = struct{}{}
		}
	}
	return out
}

func extractClauses(text string, maxChars int) []string {
	set := uniqueMatches(clausePattern, truncate(text, maxChars))
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func extractYears(text string) []string {
	set := uniqueMatches(yearPattern, text)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func extractAmounts(text string, maxChars int) []string {
	set := uniqueMatches(amountPattern, truncate(text, maxChars))
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

var sentenceSplitRe = regexp.MustCompile(`[。；;!?\n]`)

func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
