package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/orchestrator"
)

func (s *Server) SearchWithIntent(c echo.Context) error {
	var req struct {
		Query         string   `json:"query"`
		RetrievalMode string   `json:"retrieval_mode,omitempty"`
		GraphHops     int      `json:"graph_hops,omitempty"`
		HybridAlpha   *float64 `json:"hybrid_alpha,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, errorBody("query is required"))
	}

	var overrides orchestrator.AskOptions
	if req.RetrievalMode != "" {
		mode := domain.RetrievalMode(req.RetrievalMode)
		overrides.RetrievalMode = &mode
	}

	resp, err := s.orch.SearchWithIntent(c.Request().Context(), req.Query, overrides)
	if err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, toSearchWithIntentResponse(resp))
}
