package graph

// auditReportExtractor mines control requirements and topical themes from
// report prose and links them to clauses, risk types, and the years they
// reference.
type auditReportExtractor struct{ baseExtractor }

var auditReportRequirementMarkers = []string{"应当", "应", "需", "必须", "不得"}

var auditReportTopicRules = []topicRule{
	{"采购", "采购管理"},
	{"预算", "预算执行"},
	{"数据", "数据治理"},
	{"网络安全", "网络安全"},
	{"内控", "内部控制"},
	{"合规", "合规管理"},
	{"整改", "整改管理"},
}

type topicRule struct{ keyword, topic string }

func matchTopics(text string, rules []topicRule) []string {
	var out []string
	for _, r := range rules {
		if containsFoldASCII(text, r.keyword) {
			out = append(out, r.topic)
		}
	}
	return out
}

func containsFoldASCII(text, needle string) bool {
	return len(needle) > 0 && (indexOf(text, needle) >= 0)
}

func indexOf(text, needle string) int {
	tr := []rune(text)
	nr := []rune(needle)
	for i := 0; i+len(nr) <= len(tr); i++ {
		match := true
		for j := range nr {
			if tr[i+j] != nr[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func (auditReportExtractor) ExtractEntities(c chunkContext) []entityKey {
	out := basicEntities(c)
	for _, r := range extractRequirements(c.Text, auditReportRequirementMarkers, 10, 4) {
		out = append(out, entityKey{EntityControlRequirement, r})
	}
	for _, t := range matchTopics(c.merged(), auditReportTopicRules) {
		out = append(out, entityKey{EntityIssueTopic, t})
	}
	for _, a := range extractAmounts(c.merged(), 4000) {
		out = append(out, entityKey{EntityAmount, a})
	}
	return out
}

func (auditReportExtractor) ExtractRelations(c chunkContext) []relationRecord {
	requirements := extractRequirements(c.Text, auditReportRequirementMarkers, 10, 4)
	clauses := extractClauses(c.Text, 6000)
	topics := matchTopics(c.merged(), auditReportTopicRules)
	years := extractYears(c.merged())

	var out []relationRecord
	for _, req := range requirements {
		for _, cl := range clauses {
			out = append(out, relationRecord{
				SourceType: EntityControlRequirement, SourceValue: req,
				Relation:   RelRelatedClause,
				TargetType: EntityClause, TargetValue: cl,
				Confidence: 0.82, Weight: 1.1, Bidirectional: true, ReverseRelation: RelClauseRelatedBy,
			})
		}
		for risk := range extractRiskTypes(req) {
			out = append(out, relationRecord{
				SourceType: EntityControlRequirement, SourceValue: req,
				Relation:   RelAddressesRisk,
				TargetType: EntityRiskType, TargetValue: risk,
				Confidence: 0.75, Weight: 1.05, Bidirectional: true, ReverseRelation: RelRiskAddressedBy,
			})
		}
	}
	for _, topic := range topics {
		for _, cl := range clauses {
			out = append(out, relationRecord{
				SourceType: EntityIssueTopic, SourceValue: topic,
				Relation:   RelRelatedClause,
				TargetType: EntityClause, TargetValue: cl,
				Confidence: 0.76, Weight: 1.08, Bidirectional: true, ReverseRelation: RelClauseRelatedBy,
			})
		}
		for _, year := range years {
			out = append(out, relationRecord{
				SourceType: EntityIssueTopic, SourceValue: topic,
				Relation:   RelOccursInYear,
				TargetType: EntityYear, TargetValue: year,
				Confidence: 0.7, Weight: 0.95,
			})
		}
	}
	return out
}
