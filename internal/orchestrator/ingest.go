package orchestrator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"rag-orchestrator/internal/domain"
)

// IngestFile is one caller-submitted file plus the options it should be
// ingested under.
type IngestFile struct {
	Filename string
	Data     []byte
	Opts     domain.IngestOptions
}

// Ingest runs parse → chunk → dedup → embed → commit for each file,
// running up to cfg.IngestConcurrency units concurrently while each
// commits to the registry + indices under the write lane so ordering
// between commits is total (spec §5). Per-file outcomes are returned in
// submission order regardless of completion order (spec §4.M).
func (o *Orchestrator) Ingest(ctx context.Context, files []IngestFile) []domain.IngestResult {
	results := make([]domain.IngestResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.IngestConcurrency)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = o.ingestOne(gctx, f)
			return nil
		})
	}
	_ = g.Wait() // ingestOne never returns an error itself; one file's failure never aborts the batch.

	return results
}

func (o *Orchestrator) ingestOne(ctx context.Context, f IngestFile) domain.IngestResult {
	result := domain.IngestResult{Filename: f.Filename}

	if err := ctx.Err(); err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = domain.NewError(domain.KindCancelled, "ingest cancelled before start", err)
		return result
	}

	blocks, err := o.parser.Parse(f.Filename, f.Data)
	if err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = err
		return result
	}

	canonical := o.hasher.Canonicalize(joinBlocks(blocks))
	hash := o.hasher.ComputeDocID(canonical)

	decision, err := o.registry.IngestDecision(ctx, hash, f.Filename)
	if err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = err
		return result
	}
	if decision.Kind == domain.DecisionDuplicate {
		result.Outcome = domain.OutcomeSkipped
		result.DocID = decision.ExistingDocID
		return result
	}

	chunkerOpts := domain.ChunkerOptions{Mode: f.Opts.Chunker, Size: o.cfg.ChunkSize, Overlap: o.cfg.ChunkOverlap}
	if chunkerOpts.Mode == "" {
		chunkerOpts.Mode = domain.ChunkerSmart
	}
	chunks, err := o.chunker.Chunk(hash, blocks, chunkerOpts)
	if err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = err
		return result
	}

	if err := o.embedChunks(ctx, chunks); err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = err
		return result
	}

	doc := domain.Document{
		DocID:       hash,
		Filename:    f.Filename,
		DocType:     f.Opts.DocType,
		Title:       f.Opts.Title,
		ContentHash: hash,
		FileSize:    int64(len(f.Data)),
		Version:     decision.NextVersion,
	}
	if doc.Version == 0 {
		doc.Version = 1
	}

	o.writeMu.Lock()
	err = o.commitIngest(ctx, decision, doc, chunks, f.Opts.SaveAfter)
	o.writeMu.Unlock()
	if err != nil {
		result.Outcome = domain.OutcomeFailed
		result.Err = err
		return result
	}

	result.DocID = doc.DocID
	result.Version = doc.Version
	result.ChunkCount = len(chunks)
	if decision.Kind == domain.DecisionUpdate {
		result.Outcome = domain.OutcomeUpdated
	} else {
		result.Outcome = domain.OutcomeNew
	}
	return result
}

// commitIngest performs the registry commit, vector store append, and
// graph build for one ingest unit as a single logical write. Everything
// here runs under the caller's writeMu, so commits never interleave with
// each other or with deletes and rebuilds. Searches do not take writeMu: a
// search running during a commit can see the registry already updated
// while the vector or graph index is not yet.
// saveAfter controls whether the commit is flushed to disk immediately
// (spec §6's save_after_processing toggle) or left for a later explicit
// save; the in-memory stores are updated either way.
func (o *Orchestrator) commitIngest(ctx context.Context, decision domain.IngestDecision, doc domain.Document, chunks []domain.Chunk, saveAfter bool) error {
	entries := make([]domain.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.VectorEntry{
			ChunkID: c.ChunkID,
			DocID:   c.DocID,
			Vector:  c.Embedding,
			Metadata: domain.VectorMetadata{
				DocType: doc.DocType, Title: doc.Title, Filename: doc.Filename,
				PageNos: c.PageNos, Header: c.Header, SectionPath: c.SectionPath,
			},
		}
	}

	if decision.Kind == domain.DecisionUpdate {
		if err := o.registry.CommitUpdate(ctx, decision.ExistingDocID, doc, chunks); err != nil {
			return err
		}
		if err := o.vectors.DeleteByDoc(ctx, decision.ExistingDocID); err != nil {
			return err
		}
		if err := o.graphs.DeleteByDoc(decision.ExistingDocID); err != nil {
			return err
		}
	} else {
		if err := o.registry.CommitNew(ctx, doc, chunks); err != nil {
			return err
		}
	}

	if err := o.vectors.Add(ctx, entries); err != nil {
		return err
	}

	o.rebuildMu.RLock()
	err := o.graphBuilder.BuildDocument(ctx, o.graphs, doc, chunks)
	o.rebuildMu.RUnlock()
	if err != nil {
		return err
	}

	if !saveAfter {
		return nil
	}
	if err := o.registry.Save(ctx); err != nil {
		return err
	}
	if err := o.vectors.Save(ctx); err != nil {
		return err
	}
	if err := o.graphs.Save(ctx); err != nil {
		o.logger.Warn("graph_save_failed_after_commit", slog.String("doc_id", doc.DocID), slog.String("error", err.Error()))
	}
	return nil
}

func (o *Orchestrator) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := o.embed.Embed(ctx, texts)
	if err != nil {
		return domain.NewError(domain.KindEmbeddingError, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return domain.NewError(domain.KindEmbeddingError, "embedding count mismatch", nil)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

func joinBlocks(blocks []domain.ParsedBlock) string {
	var out []byte
	for _, b := range blocks {
		out = append(out, b.Text...)
		out = append(out, '\n')
	}
	return string(out)
}
