package graph

import (
	"regexp"
	"strings"
)

// auditIssueExtractor mines the department/issue/rectification-action/status
// quadruple out of an audit-issue chunk and links them together, along with
// the clauses, years, amounts, and risk types the issue text references
// (spec §10.1).
type auditIssueExtractor struct{ baseExtractor }

var (
	deptPattern   = regexp.MustCompile(`(?:部门单位|部门)\s*[:：]\s*([^\n]{2,80})`)
	issuePattern  = regexp.MustCompile(`(?:问题摘要|问题描述)\s*[:：]\s*([^\n]{4,220})`)
	actionPattern = regexp.MustCompile(`(?:整改情况|整改措施|整改结果)\s*[:：]\s*([^\n]{4,240})`)
)

var statusRules = []struct{ keyword, status string }{
	{"已整改", "completed"},
	{"整改完成", "completed"},
	{"完成整改", "completed"},
	{"持续整改", "in_progress"},
	{"正在整改", "in_progress"},
	{"推进整改", "in_progress"},
	{"未整改", "pending"},
	{"尚未整改", "pending"},
	{"待整改", "pending"},
}

var auditIssueTopicRules = []topicRule{
	{"采购", "采购管理"},
	{"预算", "预算执行"},
	{"资金", "资金管理"},
	{"数据", "数据治理"},
	{"网络", "网络安全"},
	{"内控", "内部控制"},
	{"个人信息", "个人信息保护"},
	{"项目", "项目管理"},
}

func extractIssue(text string) string {
	if m := issuePattern.FindStringSubmatch(text); m != nil {
		return truncate(strings.TrimSpace(m[1]), 160)
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) >= 12 && (strings.Contains(line, "问题") || strings.Contains(line, "违规") || strings.Contains(line, "整改")) {
			return truncate(line, 160)
		}
	}
	return ""
}

func extractAction(text string) string {
	if m := actionPattern.FindStringSubmatch(text); m != nil {
		return truncate(strings.TrimSpace(m[1]), 160)
	}
	return ""
}

func extractStatus(text string) string {
	sample := truncate(text, 1500)
	for _, r := range statusRules {
		if strings.Contains(sample, r.keyword) {
			return r.status
		}
	}
	return ""
}

func extractDepartments(text string) []string {
	sample := truncate(text, 5000)
	var out []string
	for _, m := range deptPattern.FindAllStringSubmatch(sample, -1) {
		if v := strings.TrimSpace(m[1]); v != "" {
			out = append(out, truncate(v, 80))
		}
	}
	return out
}

func (auditIssueExtractor) ExtractEntities(c chunkContext) []entityKey {
	out := basicEntities(c)
	for _, d := range extractDepartments(c.Text) {
		out = append(out, entityKey{EntityDepartment, d})
	}
	if issue := extractIssue(c.Text); issue != "" {
		out = append(out, entityKey{EntityIssue, issue})
	}
	if action := extractAction(c.Text); action != "" {
		out = append(out, entityKey{EntityRectAction, action})
	}
	if status := extractStatus(c.Text); status != "" {
		out = append(out, entityKey{EntityRectStatus, status})
	}
	for _, a := range extractAmounts(c.merged(), 4000) {
		out = append(out, entityKey{EntityAmount, a})
	}
	for _, t := range matchTopics(c.merged(), auditIssueTopicRules) {
		out = append(out, entityKey{EntityIssueTopic, t})
	}
	return out
}

func (auditIssueExtractor) ExtractRelations(c chunkContext) []relationRecord {
	issue := extractIssue(c.Text)
	if issue == "" {
		return nil
	}

	var out []relationRecord
	for _, dept := range extractDepartments(c.Text) {
		out = append(out, relationRecord{
			SourceType: EntityIssue, SourceValue: issue,
			Relation:   RelBelongsToDepartment,
			TargetType: EntityDepartment, TargetValue: dept,
			Confidence: 0.95, Weight: 1.2, Bidirectional: true, ReverseRelation: RelHasIssue,
		})
	}

	if action := extractAction(c.Text); action != "" {
		out = append(out, relationRecord{
			SourceType: EntityIssue, SourceValue: issue,
			Relation:   RelRequiresAction,
			TargetType: EntityRectAction, TargetValue: action,
			Confidence: 0.9, Weight: 1.2, Bidirectional: true, ReverseRelation: RelActionForIssue,
		})
		if status := extractStatus(c.Text); status != "" {
			out = append(out, relationRecord{
				SourceType: EntityRectAction, SourceValue: action,
				Relation:   RelHasStatus,
				TargetType: EntityRectStatus, TargetValue: status,
				Confidence: 0.88, Weight: 1.0, Bidirectional: true, ReverseRelation: RelStatusOfAction,
			})
		}
	}

	for _, cl := range extractClauses(c.Text, 1<<20) {
		out = append(out, relationRecord{
			SourceType: EntityIssue, SourceValue: issue,
			Relation:   RelViolatesClause,
			TargetType: EntityClause, TargetValue: cl,
			Confidence: 0.86, Weight: 1.25, Bidirectional: true, ReverseRelation: RelViolatedByIssue,
		})
	}

	merged := c.merged()
	for _, year := range extractYears(merged) {
		out = append(out, relationRecord{
			SourceType: EntityIssue, SourceValue: issue,
			Relation:   RelOccursInYear,
			TargetType: EntityYear, TargetValue: year,
			Confidence: 0.8, Weight: 0.95, Bidirectional: true, ReverseRelation: RelYearOfIssue,
		})
	}
	for _, amount := range extractAmounts(merged, 4000) {
		out = append(out, relationRecord{
			SourceType: EntityIssue, SourceValue: issue,
			Relation:   RelHasAmount,
			TargetType: EntityAmount, TargetValue: amount,
			Confidence: 0.82, Weight: 1.0, Bidirectional: true, ReverseRelation: RelAmountForIssue,
		})
	}
	for risk := range extractRiskTypes(merged) {
		out = append(out, relationRecord{
			SourceType: EntityIssue, SourceValue: issue,
			Relation:   RelHasRiskType,
			TargetType: EntityRiskType, TargetValue: risk,
			Confidence: 0.78, Weight: 1.1, Bidirectional: true, ReverseRelation: RelRiskTypeOfIssue,
		})
	}
	return out
}
