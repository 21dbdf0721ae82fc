package domain

import "context"

// Registry is the Document Registry component (spec §4.E): content-hash
// dedup, version history, logical delete, chunk-range bookkeeping. The
// concrete implementation persists to registry.json under the data root.
type Registry interface {
	// IngestDecision classifies an incoming (hash, filename) pair against
	// the current active documents.
	IngestDecision(ctx context.Context, hash, filename string) (IngestDecision, error)

	CommitNew(ctx context.Context, doc Document, chunks []Chunk) error
	CommitUpdate(ctx context.Context, oldDocID string, doc Document, chunks []Chunk) error
	LogicalDelete(ctx context.Context, docID string) error

	List(ctx context.Context, filter RegistryListFilter) ([]Document, error)
	Get(ctx context.Context, docID string) (*Document, error)
	GetChunks(ctx context.Context, docID string) ([]Chunk, error)
	// GetChunk hydrates a single chunk by its "{doc_id}:{ordinal}" id, used
	// by the hybrid retriever to attach text to vector/graph hits that only
	// carry the chunk_id and filterable metadata.
	GetChunk(ctx context.Context, chunkID string) (*Chunk, error)
	Stats(ctx context.Context) (RegistryStats, error)

	Save(ctx context.Context) error
	Load(ctx context.Context) error
}

// IngestDecisionKind is the outcome of Registry.IngestDecision.
type IngestDecisionKind string

const (
	DecisionNew       IngestDecisionKind = "new"
	DecisionDuplicate IngestDecisionKind = "duplicate"
	DecisionUpdate    IngestDecisionKind = "update"
)

// IngestDecision is the routing decision Registry.IngestDecision returns.
type IngestDecision struct {
	Kind          IngestDecisionKind
	ExistingDocID string
	NextVersion   int
}

// RegistryListFilter narrows Registry.List.
type RegistryListFilter struct {
	DocType        DocType
	Keyword        string
	IncludeDeleted bool
}

// RegistryStats summarises the registry for the /info and /documents/stats
// endpoints.
type RegistryStats struct {
	ActiveDocuments  int
	DeletedDocuments int
	TotalChunks      int
	ByDocType        map[DocType]int
}

// VectorStore is the Vector Store component (spec §4.D): a persisted flat
// float matrix plus parallel metadata, exposed as an append-only write path
// and a filtered cosine top-k search.
type VectorStore interface {
	Add(ctx context.Context, entries []VectorEntry) error
	Search(ctx context.Context, queryVec []float32, topK int, filter VectorFilter) ([]SearchResult, error)
	DeleteByDoc(ctx context.Context, docID string) error
	Count(ctx context.Context) (int, error)

	Save(ctx context.Context) error
	Load(ctx context.Context) error

	// Reconcile drops vector entries whose chunk is not present in
	// liveChunkIDs, per spec §4.D's load-mismatch rule.
	Reconcile(ctx context.Context, liveChunkIDs map[string]struct{}) (dropped int, err error)
}

// GraphStore is the Graph Store component (spec §4.F): a persisted typed
// multigraph of entities and relations extracted from chunks.
type GraphStore interface {
	AddNode(node GraphNode) (merged bool)
	AddEdge(edge GraphEdge) (merged bool)
	GetNode(nodeID string) (GraphNode, bool)
	Neighbors(nodeID string) []GraphEdge
	FindNodesByQuery(query string, maxNodes int) []SeedMatch
	IterChunkNodes(docTypes []DocType) map[string]struct{}

	// DeleteByDoc removes evidence referencing docID from every node/edge,
	// dropping any node/edge whose evidence list becomes empty.
	DeleteByDoc(docID string) error

	// Clear discards every node and edge, used by a full rebuild.
	Clear()

	NodeCount() int
	EdgeCount() int

	Save(ctx context.Context) error
	Load(ctx context.Context) error
}

// SeedMatch is a graph node matched against a query during seed selection,
// scored by token-overlap/substring strength.
type SeedMatch struct {
	NodeID string
	Score  float64
}
