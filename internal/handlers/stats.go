package handlers

import (
	"net/http"

	"lifeos-kb/internal/service"
)

// StatsHandler reports index coverage for a tenant.
type StatsHandler struct {
	svc service.KnowledgeService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc service.KnowledgeService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, err := tenantParam(r, "tenant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := h.svc.Stats(ctx, tenant)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
