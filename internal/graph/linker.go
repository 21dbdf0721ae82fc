package graph

import (
	"regexp"
	"strings"
)

// departmentAliases collapses well-known department name variants to a
// canonical form so mentions across documents merge onto one graph node.
var departmentAliases = map[string]string{
	"国家发展改革委":  "国家发展和改革委员会",
	"国家发改委":    "国家发展和改革委员会",
	"发改委":      "国家发展和改革委员会",
	"财政部机关司局":  "财政部",
	"中国人民银行":   "中国人民银行",
	"央行":       "中国人民银行",
}

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	deptPrefixRe    = regexp.MustCompile(`^(部门单位|部门)\s*[:：]`)
	parenRe         = regexp.MustCompile(`[（(].*?[）)]`)
	amountNumberRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)(亿元|万元|元)`)
)

// normalizeEntityValue canonicalises a raw extracted value before it is
// used as (or looked up as) a graph node identity, so that e.g. "发改委" and
// "国家发展改革委" resolve to the same department node (spec §10.1).
func normalizeEntityValue(entityType, value string) string {
	text := normalizeWhitespace(value)
	if text == "" {
		return ""
	}

	switch entityType {
	case EntityDepartment:
		text = normalizeDepartment(text)
	case EntityClause:
		text = normalizeClause(text)
	case EntityAmount:
		text = normalizeAmount(text)
	case EntityIssue, EntityRectAction, EntityControlRequirement, EntitySection:
		text = truncate(text, 120)
	case EntityDocType:
		text = strings.ToLower(text)
	}
	return text
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "　", " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return strings.Trim(text, "，。；;:：,./\\|[]()（）")
}

func normalizeDepartment(text string) string {
	text = deptPrefixRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(parenRe.ReplaceAllString(text, ""))
	if canonical, ok := departmentAliases[text]; ok {
		return canonical
	}
	for alias, canonical := range departmentAliases {
		if strings.Contains(text, alias) {
			return canonical
		}
	}
	return truncate(text, 60)
}

func normalizeClause(text string) string {
	if m := clausePattern.FindString(text); m != "" {
		return m
	}
	return truncate(text, 40)
}

func normalizeAmount(text string) string {
	text = strings.ReplaceAll(text, ",", "")
	if m := amountNumberRe.FindStringSubmatch(text); m != nil {
		return m[1] + m[2]
	}
	return truncate(text, 40)
}
