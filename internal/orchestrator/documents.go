package orchestrator

import (
	"context"

	"rag-orchestrator/internal/domain"
)

// ListDocuments, GetDocument, and DeleteDocument expose read/delete access
// to the registry the orchestrator owns exclusively (spec §5); the HTTP
// transport calls these rather than touching the registry directly.
func (o *Orchestrator) ListDocuments(ctx context.Context, filter domain.RegistryListFilter) ([]domain.Document, error) {
	return o.registry.List(ctx, filter)
}

func (o *Orchestrator) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	return o.registry.Get(ctx, docID)
}

func (o *Orchestrator) DeleteDocument(ctx context.Context, docID string) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	if err := o.registry.LogicalDelete(ctx, docID); err != nil {
		return err
	}
	if err := o.vectors.DeleteByDoc(ctx, docID); err != nil {
		return err
	}

	o.rebuildMu.RLock()
	err := o.graphs.DeleteByDoc(docID)
	o.rebuildMu.RUnlock()
	if err != nil {
		return err
	}

	if err := o.registry.Save(ctx); err != nil {
		return err
	}
	return o.vectors.Save(ctx)
}

func (o *Orchestrator) Stats(ctx context.Context) (domain.RegistryStats, error) {
	return o.registry.Stats(ctx)
}

// GetDocumentChunks returns a document's live chunks, blanking Text and
// Embedding when includeText is false to keep the response small for
// callers that only want structural metadata.
func (o *Orchestrator) GetDocumentChunks(ctx context.Context, docID string, includeText bool) ([]domain.Chunk, error) {
	chunks, err := o.registry.GetChunks(ctx, docID)
	if err != nil {
		return nil, err
	}
	if includeText {
		return chunks, nil
	}
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Text = ""
		c.Embedding = nil
		out[i] = c
	}
	return out, nil
}

// DeleteAllDocuments logically deletes every active document and clears
// both indices, the §6 "clear all" operation. It reuses DeleteDocument's
// per-document write path rather than a bespoke bulk path so the same
// invariants (index consistency, save-on-commit) hold for both.
func (o *Orchestrator) DeleteAllDocuments(ctx context.Context) (int, error) {
	docs, err := o.registry.List(ctx, domain.RegistryListFilter{})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, doc := range docs {
		if err := o.DeleteDocument(ctx, doc.DocID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// InfoResponse is the /info endpoint's payload: registry stats plus the
// live size of both indices.
type InfoResponse struct {
	Registry    domain.RegistryStats
	VectorCount int
	GraphNodes  int
	GraphEdges  int
}

func (o *Orchestrator) Info(ctx context.Context) (InfoResponse, error) {
	stats, err := o.registry.Stats(ctx)
	if err != nil {
		return InfoResponse{}, err
	}
	vecCount, err := o.vectors.Count(ctx)
	if err != nil {
		return InfoResponse{}, err
	}
	return InfoResponse{
		Registry:    stats,
		VectorCount: vecCount,
		GraphNodes:  o.graphs.NodeCount(),
		GraphEdges:  o.graphs.EdgeCount(),
	}, nil
}
