package domain

import "time"

// DocType enumerates the five concrete document types a Document row may
// carry. "audit_report" as used by intent classification is a query-facing
// grouping over {internal_report, external_report}, never a stored value.
type DocType string

const (
	DocTypeInternalRegulation DocType = "internal_regulation"
	DocTypeExternalRegulation DocType = "external_regulation"
	DocTypeInternalReport     DocType = "internal_report"
	DocTypeExternalReport     DocType = "external_report"
	DocTypeAuditIssue         DocType = "audit_issue"
)

// DocStatus is the registry-level lifecycle state of a Document.
type DocStatus string

const (
	DocStatusActive  DocStatus = "active"
	DocStatusDeleted DocStatus = "deleted"
)

// SemanticBoundary tags the structural unit a Chunk was cut along.
type SemanticBoundary string

const (
	BoundaryArticle   SemanticBoundary = "article"
	BoundarySection   SemanticBoundary = "section"
	BoundaryParagraph SemanticBoundary = "paragraph"
	BoundaryRow       SemanticBoundary = "row"
	BoundaryGeneric   SemanticBoundary = "generic"
)

// Document is the registry's unit of dedup/versioning per spec §3.
type Document struct {
	DocID        string
	Filename     string
	DocType      DocType
	Title        string
	ContentHash  string
	FileSize     int64
	UploadedAt   time.Time
	Version      int
	Status       DocStatus
	ChunkCount   int
	Tags         []string
}

// Chunk is the minimal unit of retrieval per spec §3. ChunkID is derived as
// "{DocID}:{Ordinal}" at emission time and never recomputed afterward.
type Chunk struct {
	ChunkID          string
	DocID            string
	Ordinal          int
	Text             string
	CharCount        int
	PageNos          []int
	Header           string
	SectionPath      []string
	SemanticBoundary SemanticBoundary
	Embedding        []float32
}

// ParsedBlock is a single unit of extracted structure a Parser emits, ahead
// of chunking.
type ParsedBlock struct {
	Text      string
	PageNo    int
	BlockKind BlockKind
}

// BlockKind classifies a ParsedBlock.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockHeading   BlockKind = "heading"
	BlockTableRow  BlockKind = "table_row"
)

// VectorEntry is a single row of the Vector Store: a chunk's embedding plus
// the metadata needed to filter and to hydrate a SearchResult without a
// round trip to the registry.
type VectorEntry struct {
	ChunkID  string
	DocID    string
	Vector   []float32
	Metadata VectorMetadata
}

// VectorMetadata is the filterable projection of a Chunk/Document pair
// carried alongside each vector.
type VectorMetadata struct {
	DocType     DocType
	Title       string
	Filename    string
	PageNos     []int
	Header      string
	SectionPath []string
}

// VectorFilter is an AND of the optional predicates a vector search may
// apply.
type VectorFilter struct {
	DocType       DocType
	DocIDs        map[string]struct{}
	TitleContains string
}

func (f VectorFilter) IsZero() bool {
	return f.DocType == "" && len(f.DocIDs) == 0 && f.TitleContains == ""
}

// SearchResult is a single scored hit returned by any retrieval component
// (vector, graph, or fused hybrid).
type SearchResult struct {
	ChunkID  string
	Score    float64
	Text     string
	Metadata VectorMetadata
	DocID    string

	// RetrievalMethod records which stage produced this hit before fusion:
	// "vector", "graph", or "hybrid" once merged.
	RetrievalMethod string
}

// Evidence links a graph node or edge back to the chunk that justified its
// extraction.
type Evidence struct {
	DocID      string
	ChunkID    string
	Extractor  string
	Confidence float64
}

// GraphNode is a node of the typed multigraph per spec §3.
type GraphNode struct {
	NodeID   string
	Type     string
	Name     string
	Attrs    map[string]string
	Evidence []Evidence
}

// GraphEdge is a directed, typed, evidence-carrying edge.
type GraphEdge struct {
	Source        string
	Target        string
	Relation      string
	Weight        float64
	Evidence      []Evidence
	EvidenceCount int
}

// Turn is a single message in a Session's bounded history.
type Turn struct {
	Role    string
	Content string
	At      time.Time
}

// Session is a per-conversation bounded FIFO of Turns.
type Session struct {
	SessionID   string
	Turns       []Turn
	LastTouched time.Time
}

// RetrievalMode selects which side(s) of the hybrid retriever run.
type RetrievalMode string

const (
	ModeVector RetrievalMode = "vector"
	ModeGraph  RetrievalMode = "graph"
	ModeHybrid RetrievalMode = "hybrid"
)

// RetrievalOptions is the single enumerated options struct for a retrieval
// request; no implicit kwargs per spec §9.
//
// Alpha is a pointer so the hybrid retriever can distinguish "caller left it
// unset" (nil, falls back to DefaultAlpha) from "caller explicitly asked for
// α=0.0" (pure graph fusion, testable property §8.6) — a plain float64 zero
// value cannot carry that distinction.
type RetrievalOptions struct {
	Mode          RetrievalMode
	Hops          int
	Alpha         *float64
	TopK          int
	GraphTopK     int
	RerankTopK    int
	UseGraph      bool
	UseRerank     bool
	DocTypeFilter []DocType
}

// ChunkerMode selects a structural chunking strategy.
type ChunkerMode string

const (
	ChunkerRegulation  ChunkerMode = "regulation"
	ChunkerAuditReport ChunkerMode = "audit_report"
	ChunkerAuditIssue  ChunkerMode = "audit_issue"
	ChunkerDefault     ChunkerMode = "default"
	ChunkerSmart       ChunkerMode = "smart"
)

// ChunkerOptions configures a chunking run.
type ChunkerOptions struct {
	Mode    ChunkerMode
	Size    int
	Overlap int
}

// IngestOptions configures a single-document ingest unit.
type IngestOptions struct {
	Chunker    ChunkerMode
	DocType    DocType
	SaveAfter  bool
	Title      string
}

// IngestOutcome classifies the result of one ingest unit.
type IngestOutcome string

const (
	OutcomeNew     IngestOutcome = "new"
	OutcomeSkipped IngestOutcome = "skipped"
	OutcomeUpdated IngestOutcome = "updated"
	OutcomeFailed  IngestOutcome = "failed"
)

// IngestResult is the per-file report the Orchestrator aggregates into a
// batch response.
type IngestResult struct {
	Filename   string
	DocID      string
	Outcome    IngestOutcome
	Version    int
	ChunkCount int
	Err        error
}
