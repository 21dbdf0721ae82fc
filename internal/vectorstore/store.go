// Package vectorstore implements the spec §4.D Vector Store: a dense float
// matrix plus parallel metadata, persisted as a paired (.index, .docs) file
// set via write-temp-then-rename, with an append-only write path and a
// filtered cosine top-k search.
package vectorstore

import (
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"rag-orchestrator/internal/domain"
)

// Store is the concrete flat-file VectorStore.
type Store struct {
	mu sync.RWMutex

	indexPath string
	docsPath  string

	vectors  [][]float32
	metadata []domain.VectorEntry
}

var _ domain.VectorStore = (*Store)(nil)

// New builds a Store rooted at dataDir, using dataDir/vector.index and
// dataDir/vector.docs as the paired persistence files (spec §6).
func New(dataDir string) *Store {
	return &Store{
		indexPath: filepath.Join(dataDir, "vector.index"),
		docsPath:  filepath.Join(dataDir, "vector.docs"),
	}
}

// Add appends vectors and metadata, in order, to the end of the store.
func (s *Store) Add(ctx context.Context, entries []domain.VectorEntry) error {
	select {
	case <-ctx.Done():
		return domain.NewError(domain.KindCancelled, "add cancelled", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.vectors = append(s.vectors, e.Vector)
		s.metadata = append(s.metadata, e)
	}
	return nil
}

// Search returns the top-k cosine-similarity matches to queryVec, filtered
// by an AND over doc_type/doc_id-set/title-substring.
func (s *Store) Search(ctx context.Context, queryVec []float32, topK int, filter domain.VectorFilter) ([]domain.SearchResult, error) {
	select {
	case <-ctx.Done():
		return nil, domain.NewError(domain.KindCancelled, "search cancelled", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		score float64
		idx   int
	}
	var candidates []scored
	for i, v := range s.vectors {
		if !matchesFilter(s.metadata[i], filter) {
			continue
		}
		candidates = append(candidates, scored{score: cosineSimilarity(queryVec, v), idx: i})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		e := s.metadata[c.idx]
		out = append(out, domain.SearchResult{
			ChunkID:         e.ChunkID,
			DocID:           e.DocID,
			Score:           c.score,
			Metadata:        e.Metadata,
			RetrievalMethod: "vector",
		})
	}
	return out, nil
}

func matchesFilter(e domain.VectorEntry, f domain.VectorFilter) bool {
	if f.IsZero() {
		return true
	}
	if f.DocType != "" && e.Metadata.DocType != f.DocType {
		return false
	}
	if len(f.DocIDs) > 0 {
		if _, ok := f.DocIDs[e.DocID]; !ok {
			return false
		}
	}
	if f.TitleContains != "" && !strings.Contains(e.Metadata.Title, f.TitleContains) {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// DeleteByDoc removes all entries whose metadata references docID and
// compacts the matrix.
func (s *Store) DeleteByDoc(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newVectors := s.vectors[:0:0]
	newMeta := s.metadata[:0:0]
	for i, e := range s.metadata {
		if e.DocID == docID {
			continue
		}
		newVectors = append(newVectors, s.vectors[i])
		newMeta = append(newMeta, e)
	}
	s.vectors = newVectors
	s.metadata = newMeta
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// persisted is the on-disk gob envelope for the .index/.docs pair.
type persisted struct {
	Vectors  [][]float32
	Metadata []domain.VectorEntry
}

// Save writes both files via write-temp-then-rename, so a crash mid-write
// never leaves a partially-written file visible under the real name.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	vectors := append([][]float32(nil), s.vectors...)
	metadata := append([]domain.VectorEntry(nil), s.metadata...)
	s.mu.RUnlock()

	if len(vectors) != len(metadata) {
		return domain.NewError(domain.KindVectorStoreError, "vector/metadata length mismatch before save", nil)
	}

	if err := atomicWriteGob(s.indexPath, persisted{Vectors: vectors}); err != nil {
		return domain.NewError(domain.KindVectorStoreError, "write vector.index", err)
	}
	if err := atomicWriteGob(s.docsPath, persisted{Metadata: metadata}); err != nil {
		return domain.NewError(domain.KindVectorStoreError, "write vector.docs", err)
	}
	return nil
}

// Load reads both files and rejects the pair if their lengths disagree
// (spec §4.D).
func (s *Store) Load(ctx context.Context) error {
	var indexData, docsData persisted

	if err := readGobIfExists(s.indexPath, &indexData); err != nil {
		return domain.NewError(domain.KindVectorStoreError, "read vector.index", err)
	}
	if err := readGobIfExists(s.docsPath, &docsData); err != nil {
		return domain.NewError(domain.KindVectorStoreError, "read vector.docs", err)
	}

	if len(indexData.Vectors) != len(docsData.Metadata) {
		return domain.NewError(domain.KindVectorStoreError, "vector.index/vector.docs length mismatch on load", nil)
	}

	s.mu.Lock()
	s.vectors = indexData.Vectors
	s.metadata = docsData.Metadata
	s.mu.Unlock()
	return nil
}

// Reconcile drops any vector entry whose chunk_id is not present in
// liveChunkIDs, per spec §4.D's load-mismatch recovery rule.
func (s *Store) Reconcile(ctx context.Context, liveChunkIDs map[string]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newVectors := s.vectors[:0:0]
	newMeta := s.metadata[:0:0]
	dropped := 0
	for i, e := range s.metadata {
		if _, ok := liveChunkIDs[e.ChunkID]; !ok {
			dropped++
			continue
		}
		newVectors = append(newVectors, s.vectors[i])
		newMeta = append(newMeta, e)
	}
	s.vectors = newVectors
	s.metadata = newMeta
	return dropped, nil
}

func atomicWriteGob(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	enc := gob.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func readGobIfExists(path string, v any) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}
