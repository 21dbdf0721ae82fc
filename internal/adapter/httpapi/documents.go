package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rag-orchestrator/internal/domain"
)

type documentDTO struct {
	DocID      string   `json:"doc_id"`
	Filename   string   `json:"filename"`
	DocType    string   `json:"doc_type"`
	Title      string   `json:"title"`
	Version    int      `json:"version"`
	Status     string   `json:"status"`
	ChunkCount int      `json:"chunk_count"`
	Tags       []string `json:"tags,omitempty"`
}

func toDocumentDTO(d domain.Document) documentDTO {
	return documentDTO{
		DocID: d.DocID, Filename: d.Filename, DocType: string(d.DocType), Title: d.Title,
		Version: d.Version, Status: string(d.Status), ChunkCount: d.ChunkCount, Tags: d.Tags,
	}
}

func (s *Server) ListDocuments(c echo.Context) error {
	filter := domain.RegistryListFilter{
		DocType:        domain.DocType(c.QueryParam("doc_type")),
		Keyword:        c.QueryParam("keyword"),
		IncludeDeleted: c.QueryParam("include_deleted") == "true",
	}
	docs, err := s.orch.ListDocuments(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	out := make([]documentDTO, len(docs))
	for i, d := range docs {
		out[i] = toDocumentDTO(d)
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) GetDocument(c echo.Context) error {
	doc, err := s.orch.GetDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, toDocumentDTO(*doc))
}

type chunkDTO struct {
	ChunkID string `json:"chunk_id"`
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text,omitempty"`
	PageNos []int  `json:"page_nos,omitempty"`
	Header  string `json:"header,omitempty"`
}

func (s *Server) GetDocumentChunks(c echo.Context) error {
	includeText := c.QueryParam("include_text") == "true"
	chunks, err := s.orch.GetDocumentChunks(c.Request().Context(), c.Param("id"), includeText)
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	out := make([]chunkDTO, len(chunks))
	for i, ch := range chunks {
		out[i] = chunkDTO{ChunkID: ch.ChunkID, Ordinal: ch.Ordinal, Text: ch.Text, PageNos: ch.PageNos, Header: ch.Header}
	}
	return c.JSON(http.StatusOK, map[string]any{"chunks": out})
}

func (s *Server) DeleteDocument(c echo.Context) error {
	if err := s.orch.DeleteDocument(c.Request().Context(), c.Param("id")); err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) DeleteAllDocuments(c echo.Context) error {
	n, err := s.orch.DeleteAllDocuments(c.Request().Context())
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) DocumentStats(c echo.Context) error {
	stats, err := s.orch.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) Info(c echo.Context) error {
	info, err := s.orch.Info(c.Request().Context())
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"active_documents":  info.Registry.ActiveDocuments,
		"deleted_documents": info.Registry.DeletedDocuments,
		"total_chunks":      info.Registry.TotalChunks,
		"vector_count":      info.VectorCount,
		"graph_nodes":       info.GraphNodes,
		"graph_edges":       info.GraphEdges,
	})
}

func (s *Server) RebuildGraph(c echo.Context) error {
	if err := s.orch.RebuildGraph(c.Request().Context()); err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rebuilt"})
}
