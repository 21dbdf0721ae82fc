package graph

import "strings"

// regulationExtractor mines control requirements (sentences carrying an
// obligation marker) and links them to clauses/risk types found in the same
// chunk (spec §10.1, grounded on the regulation-specific extraction pass).
type regulationExtractor struct{ baseExtractor }

var requirementMarkers = []string{"应当", "应", "需", "必须", "不得", "禁止"}

func (regulationExtractor) ExtractEntities(c chunkContext) []entityKey {
	out := basicEntities(c)
	for _, r := range extractRequirements(c.Text, requirementMarkers, 8, 4) {
		out = append(out, entityKey{EntityControlRequirement, r})
	}
	return out
}

func (regulationExtractor) ExtractRelations(c chunkContext) []relationRecord {
	requirements := extractRequirements(c.Text, requirementMarkers, 8, 4)
	clauses := extractClauses(c.Text, 1<<20)
	risks := setToSlice(extractRiskTypes(c.Text))

	var out []relationRecord
	for _, req := range requirements {
		for _, cl := range clauses {
			out = append(out, relationRecord{
				SourceType: EntityControlRequirement, SourceValue: req,
				Relation:   RelRelatedClause,
				TargetType: EntityClause, TargetValue: cl,
				Confidence: 0.85, Weight: 1.1, Bidirectional: true, ReverseRelation: RelClauseRelatedBy,
			})
		}
		for _, risk := range risks {
			out = append(out, relationRecord{
				SourceType: EntityControlRequirement, SourceValue: req,
				Relation:   RelAddressesRisk,
				TargetType: EntityRiskType, TargetValue: risk,
				Confidence: 0.75, Weight: 1.05, Bidirectional: true, ReverseRelation: RelRiskAddressedBy,
			})
		}
	}
	for _, cl := range clauses {
		for _, risk := range risks {
			out = append(out, relationRecord{
				SourceType: EntityClause, SourceValue: cl,
				Relation:   RelAddressesRisk,
				TargetType: EntityRiskType, TargetValue: risk,
				Confidence: 0.72, Weight: 1.05, Bidirectional: true, ReverseRelation: RelRiskAddressedBy,
			})
		}
	}
	return out
}

func extractRequirements(text string, markers []string, minLen, maxItems int) []string {
	var out []string
	for _, sentence := range splitSentences(text) {
		if len([]rune(sentence)) < minLen {
			continue
		}
		if !containsAny(sentence, markers) {
			continue
		}
		out = append(out, truncate(sentence, 160))
		if len(out) >= maxItems {
			break
		}
	}
	return out
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
