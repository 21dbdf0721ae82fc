// Package graph implements the spec §4.F/4.G Graph Store and Graph
// Retriever: a typed multigraph of entities and relations extracted from
// chunks, plus bounded-hop seeded traversal for graph-side retrieval.
package graph

// Entity types (spec §10.1), ported from the ontology this system's
// extraction pipeline was distilled from.
const (
	EntityDocument           = "document"
	EntityChunk              = "chunk"
	EntityDocType            = "doc_type"
	EntityYear               = "year"
	EntityClause             = "clause"
	EntitySection            = "section"
	EntityDepartment         = "department"
	EntityIssueTopic         = "issue_topic"
	EntityIssue              = "issue"
	EntityRectAction         = "rectification_action"
	EntityRectStatus         = "rectification_status"
	EntityControlRequirement = "control_requirement"
	EntityRiskType           = "risk_type"
	EntityAmount             = "amount"
)

// Relation types.
const (
	RelContains  = "contains"
	RelPartOf    = "part_of"
	RelMentions  = "mentions"
	RelMentioned = "mentioned_by"

	RelBelongsToDepartment = "belongs_to_department"
	RelHasIssue            = "has_issue"
	RelRequiresAction      = "requires_action"
	RelActionForIssue      = "action_for_issue"
	RelHasStatus           = "has_status"
	RelStatusOfAction      = "status_of_action"
	RelOccursInYear        = "occurs_in_year"
	RelYearOfIssue         = "year_of_issue"
	RelHasAmount           = "has_amount"
	RelAmountForIssue      = "amount_for_issue"
	RelHasRiskType         = "has_risk_type"
	RelRiskTypeOfIssue     = "risk_type_of_issue"

	RelRelatedClause    = "related_clause"
	RelClauseRelatedBy  = "clause_related_by"
	RelViolatesClause   = "violates_clause"
	RelViolatedByIssue  = "violated_by_issue"
	RelAddressesRisk    = "addresses_risk"
	RelRiskAddressedBy  = "risk_addressed_by"
)

// RelationWeights are the per-relation edge weights the builder assigns
// (spec §10.1); an extractor record may carry its own weight for a forward
// edge, and a relation with no entry here defaults to 1.0. The graph
// retriever uses edge weight only to order each node's neighbours during
// expansion; a chunk's score does not depend on it.
var RelationWeights = map[string]float64{
	RelContains:  0.70,
	RelPartOf:    0.70,
	RelMentions:  0.90,
	RelMentioned: 0.90,

	RelBelongsToDepartment: 1.15,
	RelHasIssue:            1.15,
	RelRequiresAction:      1.20,
	RelActionForIssue:      1.20,
	RelHasStatus:           1.00,
	RelStatusOfAction:      1.00,
	RelOccursInYear:        0.95,
	RelYearOfIssue:         0.95,
	RelHasAmount:           1.00,
	RelAmountForIssue:      1.00,
	RelHasRiskType:         1.10,
	RelRiskTypeOfIssue:     1.10,

	RelRelatedClause:   1.12,
	RelClauseRelatedBy: 1.12,
	RelViolatesClause:  1.25,
	RelViolatedByIssue: 1.25,
	RelAddressesRisk:   1.05,
	RelRiskAddressedBy: 1.05,
}

// MaxEdgeWeight caps the accumulated weight of a coalesced edge (spec §3:
// "Duplicate (source,target,relation) across chunks merge: weights sum
// (capped)"). Without a cap a relation mentioned across hundreds of chunks
// would dominate every BFS traversal decision regardless of relation type.
const MaxEdgeWeight = 5.0

func relationWeight(relation string) float64 {
	if w, ok := RelationWeights[relation]; ok {
		return w
	}
	return 1.0
}

// EntityTypeLabels are the bilingual display labels carried forward per
// spec §12.
var EntityTypeLabels = map[string]string{
	EntityDocument:           "文档",
	EntityChunk:              "分块",
	EntityDocType:            "文档类型",
	EntityYear:               "年份",
	EntityClause:             "条款",
	EntitySection:            "章节",
	EntityDepartment:         "部门",
	EntityIssueTopic:         "问题主题",
	EntityIssue:              "问题",
	EntityRectAction:         "整改措施",
	EntityRectStatus:         "整改状态",
	EntityControlRequirement: "管控要求",
	EntityRiskType:           "风险类型",
	EntityAmount:             "金额",
}

// RelationLabels are the bilingual display labels for relation types.
var RelationLabels = map[string]string{
	RelContains:  "包含",
	RelPartOf:    "属于",
	RelMentions:  "提及",
	RelMentioned: "被提及于",

	RelBelongsToDepartment: "归属部门",
	RelHasIssue:            "有问题",
	RelRequiresAction:      "需要整改措施",
	RelActionForIssue:      "措施对应问题",
	RelHasStatus:           "具有状态",
	RelStatusOfAction:      "状态对应措施",
	RelOccursInYear:        "发生于年份",
	RelYearOfIssue:         "年份对应问题",
	RelHasAmount:           "涉及金额",
	RelAmountForIssue:      "金额对应问题",
	RelHasRiskType:         "涉及风险类型",
	RelRiskTypeOfIssue:     "风险类型对应问题",

	RelRelatedClause:   "关联条款",
	RelClauseRelatedBy: "被关联条款",
	RelViolatesClause:  "违反条款",
	RelViolatedByIssue: "被问题违反",
	RelAddressesRisk:   "应对风险",
	RelRiskAddressedBy: "被用于应对风险",
}

// EntityTypeLabel returns the display label for an entity type, or the raw
// type string if unmapped.
func EntityTypeLabel(entityType string) string {
	if l, ok := EntityTypeLabels[entityType]; ok {
		return l
	}
	return entityType
}

// RelationLabel returns the display label for a relation type, or the raw
// relation string if unmapped.
func RelationLabel(relation string) string {
	if l, ok := RelationLabels[relation]; ok {
		return l
	}
	return relation
}
