package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rag-orchestrator/internal/answer"
	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/orchestrator"
)

// Ask handles POST /ask: the non-streaming answer endpoint. It drives the
// same Ask pipeline as the SSE endpoint but buffers every event instead of
// flushing them, returning one JSON response once generation finishes.
func (s *Server) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, errorBody("query is required"))
	}

	opts := askOptionsFromRequest(req.RetrievalMode, req.UseGraph, req.DocTypes)

	var sessionID, textOut string
	var citations []answer.Citation
	emit := func(e answer.Event) bool {
		switch e.Kind {
		case answer.EventSession:
			sessionID = e.Payload.(answer.SessionPayload).SessionID
		case answer.EventDelta:
			textOut += e.Payload.(string)
		case answer.EventCitations:
			citations = e.Payload.(answer.CitationsPayload).Citations
		}
		return true
	}

	if err := s.orch.Ask(c.Request().Context(), req.Query, opts, req.SessionID, emit); err != nil {
		return c.JSON(statusForError(err), errorBody(err.Error()))
	}
	if req.SessionID != "" {
		sessionID = req.SessionID
	}

	return c.JSON(http.StatusOK, askResponse{
		SessionID: sessionID,
		Answer:    textOut,
		Citations: toCitationsDTO(citations),
	})
}

// ChatCompletions handles POST /v1/chat/completions: the streamed,
// OpenAI-shaped SSE endpoint. Progress and session events precede the
// first content delta; citations precede the terminating "[DONE]" sentinel
// (spec §5 ordering guarantee). Grounded on the teacher's rag_http SSE
// writer loop, generalised from the teacher's single content-only stream
// to the four named event kinds this system emits.
func (s *Server) ChatCompletions(c echo.Context) error {
	var req chatCompletionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}
	query := lastUserMessage(req.Messages)
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorBody("messages must contain a user turn"))
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.Writer.(http.Flusher)

	opts := askOptionsFromRequest(req.RetrievalMode, req.UseGraph, nil)

	emit := func(e answer.Event) bool {
		if err := writeSSEEvent(w, sseEventName(e.Kind), e.Payload); err != nil {
			return false
		}
		if canFlush {
			flusher.Flush()
		}
		return c.Request().Context().Err() == nil
	}

	err := s.orch.Ask(c.Request().Context(), query, opts, req.SessionID, emit)
	if err != nil {
		_ = writeSSEEvent(w, "error", map[string]string{"error": err.Error()})
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	if canFlush {
		flusher.Flush()
	}
	return nil
}

func sseEventName(kind answer.EventKind) string {
	switch kind {
	case answer.EventProgress:
		return "progress"
	case answer.EventSession:
		return "session"
	case answer.EventDelta:
		return "delta.content"
	case answer.EventCitations:
		return "citations"
	default:
		return "error"
	}
}

func askOptionsFromRequest(retrievalMode string, useGraph *bool, docTypes []string) orchestrator.AskOptions {
	var opts orchestrator.AskOptions
	if retrievalMode != "" {
		mode := domain.RetrievalMode(retrievalMode)
		opts.RetrievalMode = &mode
	}
	opts.UseGraph = useGraph
	if len(docTypes) > 0 {
		opts.DocTypeFilter = parseDocTypes(docTypes)
	}
	return opts
}

func lastUserMessage(messages []chatMessageDTO) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			return messages[i].Content
		}
	}
	return ""
}

func toCitationsDTO(citations []answer.Citation) []citationDTO {
	out := make([]citationDTO, len(citations))
	for i, c := range citations {
		out[i] = citationDTO{SourceID: c.SourceID, ChunkID: c.ChunkID, Preview: c.Preview, PageNos: c.PageNos, Score: c.Score}
	}
	return out
}
