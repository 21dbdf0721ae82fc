package httpapi

import (
	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/orchestrator"
)

type uploadStoreResponse struct {
	Processed   int    `json:"processed"`
	Skipped     int    `json:"skipped"`
	Updated     int    `json:"updated"`
	TotalChunks int    `json:"total_chunks"`
	ChunkerUsed string `json:"chunker_used"`
	Failures    []uploadFailure `json:"failures,omitempty"`
}

type uploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type searchResultDTO struct {
	ChunkID  string  `json:"chunk_id"`
	DocID    string  `json:"doc_id"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
	DocType  string  `json:"doc_type"`
	Title    string  `json:"title"`
	Method   string  `json:"retrieval_method"`
}

type searchWithIntentResponse struct {
	Intent          string            `json:"intent"`
	IntentReason    string            `json:"intent_reason"`
	SuggestedTopK   int               `json:"suggested_top_k"`
	RetrievalMode   string            `json:"retrieval_mode"`
	Results         []searchResultDTO `json:"results"`
}

type askRequest struct {
	Query         string   `json:"query"`
	SessionID     string   `json:"session_id,omitempty"`
	RetrievalMode string   `json:"retrieval_mode,omitempty"`
	UseGraph      *bool    `json:"use_graph,omitempty"`
	DocTypes      []string `json:"doc_types,omitempty"`
}

type askResponse struct {
	SessionID string          `json:"session_id"`
	Answer    string          `json:"answer"`
	Citations []citationDTO   `json:"citations"`
}

type citationDTO struct {
	SourceID string `json:"source_id"`
	ChunkID  string `json:"chunk_id"`
	Preview  string `json:"preview"`
	PageNos  []int  `json:"page_nos,omitempty"`
	Score    float64 `json:"score"`
}

type chatCompletionsRequest struct {
	Messages      []chatMessageDTO `json:"messages"`
	Stream        bool             `json:"stream"`
	SessionID     string           `json:"session_id,omitempty"`
	RetrievalMode string           `json:"retrieval_mode,omitempty"`
	UseGraph      *bool            `json:"use_graph,omitempty"`
}

type chatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toSearchResultsDTO(hits []domain.SearchResult) []searchResultDTO {
	out := make([]searchResultDTO, len(hits))
	for i, h := range hits {
		out[i] = searchResultDTO{
			ChunkID: h.ChunkID, DocID: h.DocID, Score: h.Score, Text: h.Text,
			DocType: string(h.Metadata.DocType), Title: h.Metadata.Title, Method: h.RetrievalMethod,
		}
	}
	return out
}

func toSearchWithIntentResponse(resp orchestrator.SearchResponse) searchWithIntentResponse {
	return searchWithIntentResponse{
		Intent:        string(resp.Classification.Intent),
		IntentReason:  resp.Classification.Reason,
		SuggestedTopK: resp.Classification.SuggestedTopK,
		RetrievalMode: string(resp.Options.Mode),
		Results:       toSearchResultsDTO(resp.Results),
	}
}

func parseDocTypes(raw []string) []domain.DocType {
	out := make([]domain.DocType, len(raw))
	for i, r := range raw {
		out[i] = domain.DocType(r)
	}
	return out
}
