package graph

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"rag-orchestrator/internal/domain"
)

// Store is the concrete typed multigraph backing domain.GraphStore, coalescing
// repeated node/edge additions instead of appending duplicates the way the
// system's original JSON-backed property graph did, and persisting as a
// single gob file rather than JSON (spec §6 names graph.bin).
type Store struct {
	mu sync.RWMutex

	path string

	nodes map[string]*domain.GraphNode
	// edges is keyed by source node id; edgeIndex maps a
	// "source|relation|target" key to that edge's position in edges[source]
	// so repeated extraction of the same relation coalesces evidence instead
	// of duplicating rows.
	edges     map[string][]domain.GraphEdge
	edgeIndex map[string]int
}

var _ domain.GraphStore = (*Store)(nil)

// New builds a Store rooted at dataDir/graph.bin.
func New(dataDir string) *Store {
	return &Store{
		path:      filepath.Join(dataDir, "graph.bin"),
		nodes:     make(map[string]*domain.GraphNode),
		edges:     make(map[string][]domain.GraphEdge),
		edgeIndex: make(map[string]int),
	}
}

// Clear discards every node and edge, used by a full graph rebuild
// (spec §5's exclusive graph-rebuild operation) to start from an empty
// graph before re-extracting every active document.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*domain.GraphNode)
	s.edges = make(map[string][]domain.GraphEdge)
	s.edgeIndex = make(map[string]int)
}

// AddNode inserts a node, or merges attrs/evidence into an existing one with
// the same id. Returns true if merged into an existing node.
func (s *Store) AddNode(node domain.GraphNode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[node.NodeID]
	if !ok {
		cp := node
		s.nodes[node.NodeID] = &cp
		return false
	}
	if existing.Attrs == nil {
		existing.Attrs = make(map[string]string)
	}
	for k, v := range node.Attrs {
		existing.Attrs[k] = v
	}
	existing.Evidence = append(existing.Evidence, node.Evidence...)
	return true
}

// AddEdge inserts an edge, or coalesces evidence into an existing edge with
// the same (source, relation, target) key. Both endpoints must already
// exist as nodes; otherwise the edge is silently dropped, matching the
// original store's node-must-exist precondition.
func (s *Store) AddEdge(edge domain.GraphEdge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[edge.Source]; !ok {
		return false
	}
	if _, ok := s.nodes[edge.Target]; !ok {
		return false
	}

	key := edgeKey(edge.Source, edge.Relation, edge.Target)
	if idx, ok := s.edgeIndex[key]; ok {
		existing := &s.edges[edge.Source][idx]
		existing.Evidence = append(existing.Evidence, edge.Evidence...)
		existing.EvidenceCount = len(existing.Evidence)
		existing.Weight = minFloat(existing.Weight+edge.Weight, MaxEdgeWeight)
		return true
	}

	edge.EvidenceCount = len(edge.Evidence)
	s.edges[edge.Source] = append(s.edges[edge.Source], edge)
	s.edgeIndex[key] = len(s.edges[edge.Source]) - 1
	return false
}

func edgeKey(source, relation, target string) string {
	return source + "|" + relation + "|" + target
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func (s *Store) GetNode(nodeID string) (domain.GraphNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return domain.GraphNode{}, false
	}
	return *n, true
}

// Neighbors returns nodeID's outgoing edges ordered by weight descending, so
// a caller doing bounded traversal (spec §4.G: "preferring edges with higher
// weight") visits the strongest relations first when a visitation cap cuts
// the expansion short.
func (s *Store) Neighbors(nodeID string) []domain.GraphEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.GraphEdge(nil), s.edges[nodeID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// FindNodesByQuery scores non-chunk/document nodes by substring/token
// overlap against query, mirroring the seed-selection heuristic this
// system's graph retriever was distilled from (spec §10.2).
func (s *Store) FindNodesByQuery(query string, maxNodes int) []domain.SeedMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	tokens := queryTokens(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []domain.SeedMatch
	for id, n := range s.nodes {
		if n.Type == EntityChunk || n.Type == EntityDocument {
			continue
		}
		name := strings.ToLower(n.Name)
		if name == "" {
			continue
		}
		var score float64
		if strings.Contains(q, name) {
			score += 2.0
		}
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				score += 1.0
			}
		}
		if score > 0 {
			scored = append(scored, domain.SeedMatch{NodeID: id, Score: score})
		}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if maxNodes > 0 && len(scored) > maxNodes {
		scored = scored[:maxNodes]
	}
	return scored
}

// queryTokens splits on anything that is not an ASCII alphanumeric or a CJK
// codepoint, discarding fragments shorter than two runes.
func queryTokens(q string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			out = append(out, string(cur))
		}
		cur = nil
	}
	for _, r := range q {
		if isTokenRune(r) {
			cur = append(cur, r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func isTokenRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 0x4e00 && r <= 0x9fff:
		return true
	default:
		return false
	}
}

func (s *Store) IterChunkNodes(docTypes []domain.DocType) map[string]struct{} {
	allow := make(map[domain.DocType]struct{}, len(docTypes))
	for _, dt := range docTypes {
		allow[dt] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{})
	for id, n := range s.nodes {
		if n.Type != EntityChunk {
			continue
		}
		if len(allow) > 0 {
			if _, ok := allow[domain.DocType(n.Attrs["doc_type"])]; !ok {
				continue
			}
		}
		out[id] = struct{}{}
	}
	return out
}

// DeleteByDoc strips evidence referencing docID from every node/edge and
// drops any node/edge whose evidence list becomes empty as a result (spec
// §4.F). Document nodes, and nodes that carried no evidence, are kept.
func (s *Store) DeleteByDoc(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.nodes {
		hadEvidence := len(n.Evidence) > 0
		n.Evidence = filterEvidence(n.Evidence, docID)
		if hadEvidence && len(n.Evidence) == 0 && n.Type != EntityDocument {
			delete(s.nodes, id)
		}
	}

	for source, edges := range s.edges {
		kept := edges[:0:0]
		for _, e := range edges {
			e.Evidence = filterEvidence(e.Evidence, docID)
			e.EvidenceCount = len(e.Evidence)
			if len(e.Evidence) == 0 {
				delete(s.edgeIndex, edgeKey(e.Source, e.Relation, e.Target))
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(s.edges, source)
		} else {
			s.edges[source] = kept
			for i, e := range kept {
				s.edgeIndex[edgeKey(e.Source, e.Relation, e.Target)] = i
			}
		}
	}
	return nil
}

func filterEvidence(evidence []domain.Evidence, docID string) []domain.Evidence {
	out := evidence[:0:0]
	for _, ev := range evidence {
		if ev.DocID != docID {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, es := range s.edges {
		n += len(es)
	}
	return n
}

// persisted uses sorted slices rather than maps: gob (like plain map
// iteration) does not guarantee key order, so encoding s.nodes/s.edges
// directly would let two consecutive Save calls on an unchanged graph
// produce different byte streams. Sorting node ids / edge source keys
// before encoding keeps the on-disk graph.bin reproducible.
type persisted struct {
	Nodes []nodeEntry
	Edges []edgeEntry
}

type nodeEntry struct {
	ID   string
	Node domain.GraphNode
}

type edgeEntry struct {
	Source string
	Edges  []domain.GraphEdge
}

func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	nodeIDs := make([]string, 0, len(s.nodes))
	for k := range s.nodes {
		nodeIDs = append(nodeIDs, k)
	}
	sort.Strings(nodeIDs)
	nodes := make([]nodeEntry, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		nodes = append(nodes, nodeEntry{ID: id, Node: *s.nodes[id]})
	}

	sources := make([]string, 0, len(s.edges))
	for k := range s.edges {
		sources = append(sources, k)
	}
	sort.Strings(sources)
	edges := make([]edgeEntry, 0, len(sources))
	for _, src := range sources {
		edges = append(edges, edgeEntry{Source: src, Edges: append([]domain.GraphEdge(nil), s.edges[src]...)})
	}
	s.mu.RUnlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return domain.NewError(domain.KindGraphStoreError, "create graph.bin temp file", err)
	}
	tmpPath := tmp.Name()
	if err := gob.NewEncoder(tmp).Encode(persisted{Nodes: nodes, Edges: edges}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return domain.NewError(domain.KindGraphStoreError, "encode graph.bin", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return domain.NewError(domain.KindGraphStoreError, "close graph.bin temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return domain.NewError(domain.KindGraphStoreError, "rename graph.bin", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return domain.NewError(domain.KindGraphStoreError, "open graph.bin", err)
	}
	defer f.Close()

	var p persisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return domain.NewError(domain.KindGraphStoreError, "decode graph.bin", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*domain.GraphNode, len(p.Nodes))
	for _, ne := range p.Nodes {
		node := ne.Node
		s.nodes[ne.ID] = &node
	}
	s.edges = make(map[string][]domain.GraphEdge, len(p.Edges))
	for _, ee := range p.Edges {
		s.edges[ee.Source] = ee.Edges
	}
	s.edgeIndex = make(map[string]int)
	for source, edges := range s.edges {
		for i, e := range edges {
			s.edgeIndex[edgeKey(source, e.Relation, e.Target)] = i
		}
	}
	return nil
}
