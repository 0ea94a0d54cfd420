package handlers

import (
	"net/http"
	"time"

	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/service"
	"lifeos-kb/internal/storage"
)

// SourcesHandler manages watched web sources.
type SourcesHandler struct {
	svc service.KnowledgeService
}

// NewSourcesHandler creates a new SourcesHandler.
func NewSourcesHandler(svc service.KnowledgeService) *SourcesHandler {
	return &SourcesHandler{svc: svc}
}

// WatchRequest represents the HTTP request payload for watching a URL.
//
// swagger:model WatchRequest
type WatchRequest struct {
	URL          string `json:"url"`
	OwnerTenant  int64  `json:"owner_tenant"`
	Scope        string `json:"scope"`
	RefreshHours int    `json:"refresh_hours,omitempty"`
}

// SourceResponse describes a watched source.
type SourceResponse struct {
	ID            int64           `json:"id"`
	URL           string          `json:"url"`
	OwnerTenant   int64           `json:"owner_tenant"`
	Scope         knowledge.Scope `json:"scope"`
	Title         string          `json:"title,omitempty"`
	RefreshHours  int             `json:"refresh_hours"`
	LastCrawledAt *time.Time      `json:"last_crawled_at,omitempty"`
	ErrorCount    int             `json:"error_count"`
	LastError     string          `json:"last_error,omitempty"`
}

// WatchResponse represents the HTTP response payload for watching a URL.
//
// swagger:model WatchResponse
type WatchResponse struct {
	Source     SourceResponse  `json:"source"`
	Created    bool            `json:"created"`
	Ingested   *IngestResponse `json:"ingested,omitempty"`
	CrawlError string          `json:"crawl_error,omitempty"`
}

func toSourceResponse(src *storage.Source) SourceResponse {
	return SourceResponse{
		ID:            src.ID,
		URL:           src.URL,
		OwnerTenant:   int64(src.OwnerTenant),
		Scope:         src.Scope,
		Title:         src.Title,
		RefreshHours:  src.RefreshHours,
		LastCrawledAt: src.LastCrawledAt,
		ErrorCount:    src.ErrorCount,
		LastError:     src.LastError,
	}
}

// Watch registers a URL and crawls it right away. A newly registered source
// answers 201, an existing one 200.
func (h *SourcesHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req WatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	scope, err := knowledge.ParseScope(req.Scope)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.WatchSource(ctx, service.WatchSourceRequest{
		URL:          req.URL,
		Tenant:       knowledge.TenantID(req.OwnerTenant),
		Scope:        scope,
		RefreshHours: req.RefreshHours,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to watch source")
		return
	}

	resp := WatchResponse{
		Source:     toSourceResponse(res.Source),
		Created:    res.Created,
		CrawlError: res.CrawlError,
	}
	if res.Ingested != nil {
		ingested := toIngestResponse(*res.Ingested)
		resp.Ingested = &ingested
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(ctx, w, status, resp)
}

// Run refreshes every stale source now.
func (h *SourcesHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.svc.RunWatcher(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to refresh sources")
		return
	}
	writeJSON(ctx, w, http.StatusOK, report)
}
