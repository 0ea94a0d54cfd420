package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/service"
)

// maxUploadSize limits multipart uploads (50 MB).
const maxUploadSize = 50 << 20

// IngestHandler handles document ingestion.
type IngestHandler struct {
	svc service.KnowledgeService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(svc service.KnowledgeService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// IngestTextRequest represents the HTTP request payload for text ingestion.
//
// swagger:model IngestTextRequest
type IngestTextRequest struct {
	RawText         string `json:"raw_text"`
	SourceReference string `json:"source_reference"`
	OwnerTenant     int64  `json:"owner_tenant"`
	Scope           string `json:"scope"`
	// StoreRaw keeps the raw chunks for detail search. Omitted means true.
	StoreRaw        *bool  `json:"store_raw,omitempty"`
}

// IngestURLRequest represents the HTTP request payload for URL ingestion.
//
// swagger:model IngestURLRequest
type IngestURLRequest struct {
	URL         string `json:"url"`
	OwnerTenant int64  `json:"owner_tenant"`
	Scope       string `json:"scope"`
}

// IngestResponse describes an ingested document.
//
// swagger:model IngestResponse
type IngestResponse struct {
	NoteID            string `json:"note_id"`
	Title             string `json:"title"`
	ChunkCount        int    `json:"chunk_count"`
	SkippedDuplicates int    `json:"skipped_duplicates,omitempty"`
	Truncated         bool   `json:"truncated,omitempty"`
}

func toIngestResponse(res service.IngestResponse) IngestResponse {
	return IngestResponse{
		NoteID:            res.NoteID,
		Title:             res.Title,
		ChunkCount:        res.ChunkCount,
		SkippedDuplicates: res.SkippedDuplicates,
		Truncated:         res.Truncated,
	}
}

// Text ingests raw text.
//
// swagger:route POST /api/ingest/text ingestText
//
// Summarizes the text into a note and optionally stores its raw chunks.
//
// responses:
//
//	'200': IngestResponse
//	'400': ErrorResponse
//	'502': ErrorResponse
//	'503': ErrorResponse
func (h *IngestHandler) Text(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IngestTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	scope, err := knowledge.ParseScope(req.Scope)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	storeRaw := true
	if req.StoreRaw != nil {
		storeRaw = *req.StoreRaw
	}

	res, err := h.svc.IngestText(ctx, service.IngestTextRequest{
		Text:            req.RawText,
		SourceReference: req.SourceReference,
		Tenant:          knowledge.TenantID(req.OwnerTenant),
		Scope:           scope,
		StoreRaw:        storeRaw,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to ingest text")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toIngestResponse(res))
}

// File ingests a multipart upload with fields file, owner_tenant, scope and
// optional store_raw (default true).
func (h *IngestHandler) File(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	tenant, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("owner_tenant")), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "owner_tenant must be an integer")
		return
	}
	scope, err := knowledge.ParseScope(r.FormValue("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	storeRaw := true
	if v := r.FormValue("store_raw"); v != "" {
		if storeRaw, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "store_raw must be a boolean")
			return
		}
	}

	res, err := h.svc.IngestFile(ctx, service.IngestFileRequest{
		Filename: header.Filename,
		Data:     data,
		Tenant:   knowledge.TenantID(tenant),
		Scope:    scope,
		StoreRaw: storeRaw,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to ingest file")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toIngestResponse(res))
}

// URL crawls a page once and ingests it.
func (h *IngestHandler) URL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IngestURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	scope, err := knowledge.ParseScope(req.Scope)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.IngestURL(ctx, service.IngestURLRequest{
		URL:    req.URL,
		Tenant: knowledge.TenantID(req.OwnerTenant),
		Scope:  scope,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to ingest URL")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toIngestResponse(res))
}
