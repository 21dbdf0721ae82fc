package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/orchestrator"
)

// UploadStore handles POST /upload_store (multipart): files[], chunker_type,
// doc_type, optional title, optional save_after_processing (spec §6).
// Grounded on the teacher's rag_http.Backfill's field-presence validation
// style, generalised from a single-article JSON body to a multipart batch.
func (s *Server) UploadStore(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("expected multipart form"))
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody("files[] is required"))
	}

	chunkerType := domain.ChunkerMode(firstFormValue(form, "chunker_type", string(domain.ChunkerSmart)))
	docType := domain.DocType(firstFormValue(form, "doc_type", ""))
	title := firstFormValue(form, "title", "")
	saveAfter := firstFormValue(form, "save_after_processing", "true") != "false"

	files := make([]orchestrator.IngestFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("failed to open "+fh.Filename))
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("failed to read "+fh.Filename))
		}
		files = append(files, orchestrator.IngestFile{
			Filename: fh.Filename,
			Data:     data,
			Opts: domain.IngestOptions{
				Chunker:   chunkerType,
				DocType:   docType,
				Title:     title,
				SaveAfter: saveAfter,
			},
		})
	}

	results := s.orch.Ingest(c.Request().Context(), files)

	resp := uploadStoreResponse{ChunkerUsed: string(chunkerType)}
	for _, r := range results {
		switch r.Outcome {
		case domain.OutcomeNew:
			resp.Processed++
			resp.TotalChunks += r.ChunkCount
		case domain.OutcomeUpdated:
			resp.Updated++
			resp.TotalChunks += r.ChunkCount
		case domain.OutcomeSkipped:
			resp.Skipped++
		case domain.OutcomeFailed:
			resp.Failures = append(resp.Failures, uploadFailure{Filename: r.Filename, Error: r.Err.Error()})
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func firstFormValue(form *multipart.Form, key, fallback string) string {
	if vs, ok := form.Value[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return fallback
}
