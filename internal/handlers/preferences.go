package handlers

import (
	"net/http"

	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/service"
)

// PreferencesHandler reads and updates agent preferences.
type PreferencesHandler struct {
	svc service.KnowledgeService
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(svc service.KnowledgeService) *PreferencesHandler {
	return &PreferencesHandler{svc: svc}
}

// Get returns the effective preferences of a tenant.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, err := tenantParam(r, "tenant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prefs, err := h.svc.GetPreferences(ctx, tenant)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load preferences")
		return
	}
	writeJSON(ctx, w, http.StatusOK, prefs)
}

// Patch updates only the fields present in the body.
func (h *PreferencesHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, err := tenantParam(r, "tenant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var update knowledge.PreferenceOverrides
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prefs, err := h.svc.UpdatePreferences(ctx, tenant, update)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update preferences")
		return
	}
	writeJSON(ctx, w, http.StatusOK, prefs)
}
