// Command auditctl is the offline operator surface for the audit-QA
// server: ingest documents, rebuild the graph index, print registry
// stats, or run the HTTP server itself, all against the same data
// directory the server uses. Grounded on the teacher's spf13/cobra
// dependency (declared but never wired by cmd/backfill-cli, which used
// plain flag parsing over a Postgres query instead).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"rag-orchestrator/internal/di"
	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/infra/config"
	"rag-orchestrator/internal/infra/logger"
	"rag-orchestrator/internal/orchestrator"
)

func main() {
	root := &cobra.Command{
		Use:   "auditctl",
		Short: "Operate the audit compliance question-answering server",
	}

	var chunkerMode, docType string
	ingestCmd := &cobra.Command{
		Use:   "ingest <files...>",
		Short: "Ingest one or more documents into the registry and indices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), args, chunkerMode, docType)
		},
	}
	ingestCmd.Flags().StringVar(&chunkerMode, "chunker", string(domain.ChunkerSmart), "chunker mode (regulation, audit_report, audit_issue, default, smart)")
	ingestCmd.Flags().StringVar(&docType, "doc-type", "", "document type (internal_regulation, external_regulation, internal_report, external_report, audit_issue, audit_report)")

	rebuildCmd := &cobra.Command{
		Use:   "rebuild-graph",
		Short: "Rebuild the knowledge graph index from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuildGraph(cmd.Context())
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print registry and index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (equivalent to cmd/server)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(ingestCmd, rebuildCmd, statsCmd, serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newOrchestrator() (*orchestrator.Orchestrator, *slog.Logger, error) {
	cfg := config.Load()
	log := logger.New()
	app := di.New(cfg, log)
	if err := app.Orchestrator.Start(context.Background()); err != nil {
		return nil, log, err
	}
	return app.Orchestrator, log, nil
}

func runIngest(ctx context.Context, paths []string, chunkerMode, docType string) error {
	orch, log, err := newOrchestrator()
	if err != nil {
		return err
	}

	files := make([]orchestrator.IngestFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, orchestrator.IngestFile{
			Filename: filepath.Base(p),
			Data:     data,
			Opts: domain.IngestOptions{
				Chunker:   domain.ChunkerMode(chunkerMode),
				DocType:   domain.DocType(docType),
				SaveAfter: true,
			},
		})
	}

	results := orch.Ingest(ctx, files)
	for _, r := range results {
		switch r.Outcome {
		case domain.OutcomeNew, domain.OutcomeUpdated:
			log.Info("ingested", "filename", r.Filename, "doc_id", r.DocID, "chunks", r.ChunkCount, "outcome", string(r.Outcome))
		case domain.OutcomeSkipped:
			log.Info("skipped", "filename", r.Filename, "doc_id", r.DocID)
		case domain.OutcomeFailed:
			log.Error("ingest_failed", "filename", r.Filename, "error", r.Err)
		}
	}
	return nil
}

func runRebuildGraph(ctx context.Context) error {
	orch, log, err := newOrchestrator()
	if err != nil {
		return err
	}
	if err := orch.RebuildGraph(ctx); err != nil {
		return err
	}
	log.Info("graph_rebuilt")
	return nil
}

func runStats(ctx context.Context) error {
	orch, _, err := newOrchestrator()
	if err != nil {
		return err
	}
	info, err := orch.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("active_documents: %d\n", info.Registry.ActiveDocuments)
	fmt.Printf("deleted_documents: %d\n", info.Registry.DeletedDocuments)
	fmt.Printf("total_chunks: %d\n", info.Registry.TotalChunks)
	fmt.Printf("vector_count: %d\n", info.VectorCount)
	fmt.Printf("graph_nodes: %d\n", info.GraphNodes)
	fmt.Printf("graph_edges: %d\n", info.GraphEdges)
	return nil
}

func runServe(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.New()
	slog.SetDefault(log)
	app := di.New(cfg, log)
	if err := app.Orchestrator.Start(ctx); err != nil {
		return err
	}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	app.HTTPServer.Register(e)

	go func() {
		log.Info("starting server", "addr", cfg.Server.ListenAddr)
		if err := e.Start(cfg.Server.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped unexpectedly", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
