package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"rag-orchestrator/internal/domain"
)

// Builder extracts entities and relations from chunked documents and writes
// them into a domain.GraphStore, selecting an extraction strategy by
// document type (spec §4.F).
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

func selectExtractor(docType domain.DocType) extractor {
	switch docType {
	case domain.DocTypeAuditIssue:
		return auditIssueExtractor{}
	case domain.DocTypeInternalReport, domain.DocTypeExternalReport:
		return auditReportExtractor{}
	case domain.DocTypeInternalRegulation, domain.DocTypeExternalRegulation:
		return regulationExtractor{}
	default:
		return baseExtractor{}
	}
}

// BuildDocument indexes every chunk of one document into store: a document
// node, one chunk node per chunk, contains/part_of edges between them, and
// the entities/relations the doc-type extractor proposes.
func (b *Builder) BuildDocument(ctx context.Context, store domain.GraphStore, doc domain.Document, chunks []domain.Chunk) error {
	docNodeID := EntityDocument + ":" + doc.DocID
	title := doc.Title
	if title == "" {
		title = doc.Filename
	}
	store.AddNode(domain.GraphNode{
		NodeID: docNodeID,
		Type:   EntityDocument,
		Name:   title,
		Attrs: map[string]string{
			"doc_id":   doc.DocID,
			"doc_type": string(doc.DocType),
			"filename": doc.Filename,
		},
	})

	ext := selectExtractor(doc.DocType)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return domain.NewError(domain.KindCancelled, "graph build cancelled", err)
		}
		b.buildChunk(store, ext, doc, docNodeID, chunk)
	}
	return nil
}

func (b *Builder) buildChunk(store domain.GraphStore, ext extractor, doc domain.Document, docNodeID string, chunk domain.Chunk) {
	chunkNodeID := EntityChunk + ":" + chunk.ChunkID
	evidence := []domain.Evidence{{DocID: doc.DocID, ChunkID: chunk.ChunkID, Extractor: "graph_builder", Confidence: 1.0}}

	store.AddNode(domain.GraphNode{
		NodeID: chunkNodeID,
		Type:   EntityChunk,
		Name:   chunk.ChunkID,
		Attrs: map[string]string{
			"chunk_id":          chunk.ChunkID,
			"doc_id":            doc.DocID,
			"doc_type":          string(doc.DocType),
			"filename":          doc.Filename,
			"title":             doc.Title,
			"semantic_boundary": string(chunk.SemanticBoundary),
		},
		Evidence: evidence,
	})

	store.AddEdge(domain.GraphEdge{Source: docNodeID, Target: chunkNodeID, Relation: RelContains, Weight: relationWeight(RelContains), Evidence: evidence})
	store.AddEdge(domain.GraphEdge{Source: chunkNodeID, Target: docNodeID, Relation: RelPartOf, Weight: relationWeight(RelPartOf), Evidence: evidence})

	cctx := chunkContext{
		Text:     chunk.Text,
		Title:    doc.Title,
		Filename: doc.Filename,
		DocType:  string(doc.DocType),
		Header:   chunk.Header,
	}
	if len(chunk.SectionPath) > 0 {
		cctx.Level1 = chunk.SectionPath[0]
	}
	if len(chunk.SectionPath) > 1 {
		cctx.Level2 = chunk.SectionPath[1]
	}

	entityNodes := make(map[entityKey]string)
	for _, e := range ext.ExtractEntities(cctx) {
		value := normalizeEntityValue(e.Type, e.Value)
		if value == "" {
			continue
		}
		key := entityKey{e.Type, value}
		nodeID := entityNodeID(e.Type, value)
		entityNodes[key] = nodeID

		store.AddNode(domain.GraphNode{NodeID: nodeID, Type: e.Type, Name: value})
		mentionEvidence := []domain.Evidence{{DocID: doc.DocID, ChunkID: chunk.ChunkID, Extractor: "entity_mention", Confidence: 0.7}}
		store.AddEdge(domain.GraphEdge{Source: chunkNodeID, Target: nodeID, Relation: RelMentions, Weight: relationWeight(RelMentions), Evidence: mentionEvidence})
		store.AddEdge(domain.GraphEdge{Source: nodeID, Target: chunkNodeID, Relation: RelMentioned, Weight: relationWeight(RelMentioned), Evidence: mentionEvidence})
	}

	for _, rec := range ext.ExtractRelations(cctx) {
		b.addRelation(store, rec, entityNodes, doc.DocID, chunk.ChunkID)
	}
}

func (b *Builder) addRelation(store domain.GraphStore, rec relationRecord, entityNodes map[entityKey]string, docID, chunkID string) {
	sourceValue := normalizeEntityValue(rec.SourceType, rec.SourceValue)
	targetValue := normalizeEntityValue(rec.TargetType, rec.TargetValue)
	if sourceValue == "" || targetValue == "" {
		return
	}

	sourceID, ok := entityNodes[entityKey{rec.SourceType, sourceValue}]
	if !ok {
		sourceID = entityNodeID(rec.SourceType, sourceValue)
		store.AddNode(domain.GraphNode{NodeID: sourceID, Type: rec.SourceType, Name: sourceValue})
	}
	targetID, ok := entityNodes[entityKey{rec.TargetType, targetValue}]
	if !ok {
		targetID = entityNodeID(rec.TargetType, targetValue)
		store.AddNode(domain.GraphNode{NodeID: targetID, Type: rec.TargetType, Name: targetValue})
	}

	evidence := []domain.Evidence{{DocID: docID, ChunkID: chunkID, Extractor: "relation_extractor", Confidence: rec.Confidence}}
	weight := rec.Weight
	if weight == 0 {
		weight = relationWeight(rec.Relation)
	}
	store.AddEdge(domain.GraphEdge{Source: sourceID, Target: targetID, Relation: rec.Relation, Weight: weight, Evidence: evidence})
	if rec.Bidirectional {
		reverse := rec.ReverseRelation
		if reverse == "" {
			reverse = rec.Relation
		}
		store.AddEdge(domain.GraphEdge{Source: targetID, Target: sourceID, Relation: reverse, Weight: relationWeight(reverse), Evidence: evidence})
	}
}

// entityNodeID derives a stable node id from an entity's (type, canonical
// value), so repeated mentions across chunks/documents resolve to the same
// node instead of duplicating it.
func entityNodeID(entityType, value string) string {
	digest := sha256.Sum256([]byte(entityType + ":" + value))
	return entityType + ":" + hex.EncodeToString(digest[:])[:16]
}
