package handlers

import (
	"net/http"

	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/retrieval"
	"lifeos-kb/internal/service"
	"lifeos-kb/internal/websearch"
)

// SearchHandler handles gated hybrid search.
type SearchHandler struct {
	svc service.KnowledgeService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc service.KnowledgeService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// SearchRequest represents the HTTP request payload for search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	QueryText   string `json:"query_text"`
	OwnerTenant int64  `json:"owner_tenant"`
	K           int    `json:"k,omitempty"`
}

// SearchResultResponse is one search result.
type SearchResultResponse struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	Title      string  `json:"title,omitempty"`
	NoteID     string  `json:"note_id"`
	ChunkIndex int     `json:"chunk_index,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Results     []SearchResultResponse `json:"results"`
	WebResults  []websearch.Snippet    `json:"web_results,omitempty"`
	SourceLabel string                 `json:"source_label"`
	Outcome     string                 `json:"outcome"`
	TopScore    float64                `json:"top_score"`
	Context     string                 `json:"context"`
}

func toResultResponses(items []retrieval.ResultItem) []SearchResultResponse {
	out := make([]SearchResultResponse, 0, len(items))
	for _, it := range items {
		out = append(out, SearchResultResponse{
			Type:       string(it.Type),
			Content:    it.Content,
			Source:     it.Source,
			Score:      it.Score,
			Title:      it.Title,
			NoteID:     it.NoteID,
			ChunkIndex: it.ChunkIndex,
		})
	}
	return out
}

// ServeHTTP runs a search for a tenant.
//
// swagger:route POST /api/search search
//
// Returns notes then supporting chunks, or web snippets when local
// knowledge scores below the relevance threshold.
//
// responses:
//
//	'200': SearchResponse
//	'400': ErrorResponse
//	'503': ErrorResponse
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.Search(ctx, service.SearchRequest{
		Query:  req.QueryText,
		Tenant: knowledge.TenantID(req.OwnerTenant),
		K:      req.K,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search")
		return
	}

	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Results:     toResultResponses(res.Results),
		WebResults:  res.WebResults,
		SourceLabel: res.SourceLabel,
		Outcome:     res.Outcome,
		TopScore:    res.TopScore,
		Context:     res.Context,
	})
}
