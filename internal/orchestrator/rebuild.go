package orchestrator

import (
	"context"

	"rag-orchestrator/internal/domain"
)

// RebuildGraph re-extracts the knowledge graph from every active document's
// chunks. It is exclusive: it holds the write lane and rebuildMu's write
// lock for its duration, so ask and search requests, which take rebuildMu's
// read lock, wait until the rebuild finishes instead of reading the graph
// while it is cleared and refilled. No earlier graph snapshot is kept for
// them to read in the meantime.
func (o *Orchestrator) RebuildGraph(ctx context.Context) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	docs, err := o.registry.List(ctx, domain.RegistryListFilter{})
	if err != nil {
		return err
	}

	o.rebuildMu.Lock()
	defer o.rebuildMu.Unlock()

	o.graphs.Clear()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return domain.NewError(domain.KindCancelled, "graph rebuild cancelled", err)
		}
		chunks, err := o.registry.GetChunks(ctx, doc.DocID)
		if err != nil {
			continue // documents with no live chunks (logically deleted) contribute nothing
		}
		if err := o.graphBuilder.BuildDocument(ctx, o.graphs, doc, chunks); err != nil {
			return err
		}
	}

	return o.graphs.Save(ctx)
}
