// Package httpapi is the audit-QA server's HTTP transport: Echo route
// registration for the spec §6 surface (upload, search, ask, streamed chat
// completions, document CRUD, graph rebuild, info/health). Grounded on the
// teacher's internal/adapter/rag_http/handler.go for the handler-per-route
// shape and JSON request/response binding style, generalised from the
// teacher's openapi-generated ServerInterface (not present for this
// domain) to plain Echo handler funcs registered directly.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"rag-orchestrator/internal/orchestrator"
)

// Server holds the orchestrator and registers every §6 route on an *echo.Echo.
type Server struct {
	orch   *orchestrator.Orchestrator
	logger *slog.Logger
}

func New(orch *orchestrator.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{orch: orch, logger: logger}
}

// Register wires every route this server exposes onto e. A request-body
// validation middleware (built from an embedded OpenAPI document, per
// SPEC_FULL §10.4) is applied ahead of the handlers registered here.
func (s *Server) Register(e *echo.Echo) {
	e.Use(NewOpenAPIValidator(s.logger).Middleware())

	e.GET("/health", s.Health)
	e.GET("/info", s.Info)

	e.POST("/upload_store", s.UploadStore)
	e.POST("/search_with_intent", s.SearchWithIntent)
	e.POST("/ask", s.Ask)
	e.POST("/v1/chat/completions", s.ChatCompletions)

	e.GET("/documents", s.ListDocuments)
	e.GET("/documents/stats", s.DocumentStats)
	e.GET("/documents/:id", s.GetDocument)
	e.GET("/documents/:id/chunks", s.GetDocumentChunks)
	e.DELETE("/documents/:id", s.DeleteDocument)
	e.DELETE("/documents", s.DeleteAllDocuments)

	e.POST("/graph/rebuild", s.RebuildGraph)
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
