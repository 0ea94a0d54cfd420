package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/rag"
	"lifeos-kb/internal/service"
	"lifeos-kb/internal/websearch"
)

// AskHandler handles question answering.
type AskHandler struct {
	svc service.KnowledgeService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(svc service.KnowledgeService) *AskHandler {
	return &AskHandler{svc: svc}
}

// AskRequest represents the HTTP request payload for questions.
//
// swagger:model AskRequest
type AskRequest struct {
	Question    string `json:"question"`
	OwnerTenant int64  `json:"owner_tenant"`
	K           int    `json:"k,omitempty"`
}

// AskResponse represents the HTTP response payload for questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`
	// Where the context came from
	SourceLabel string `json:"source_label"`
	// LOCAL or LOCAL_WEB
	Outcome string `json:"outcome"`
	// Local notes and chunks used as context
	Results []SearchResultResponse `json:"results"`
	// Web snippets used as context
	WebResults []websearch.Snippet `json:"web_results,omitempty"`
	// Effective preferences the answer was shaped by
	Preferences knowledge.Preferences `json:"preferences"`
}

func toAskResponse(res rag.AskResponse) AskResponse {
	return AskResponse{
		Answer:      res.Answer,
		SourceLabel: res.SourceLabel,
		Outcome:     string(res.Outcome),
		Results:     toResultResponses(res.Results),
		WebResults:  res.WebResults,
		Preferences: res.Preferences,
	}
}

// ServeHTTP answers a question. With ?stream=true the answer is sent as
// Server-Sent Events: data events with JSON-encoded answer chunks, one "meta"
// event with the source label, then "[DONE]".
//
// swagger:route POST /api/ask askQuestion
//
// # Ask a question
//
// Answers from the tenant's knowledge base, falling back to web search when
// local knowledge is weak.
//
// responses:
//
//	'200': AskResponse
//	'400': ErrorResponse
//	'502': ErrorResponse
//	'503': ErrorResponse
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	svcReq := service.AskRequest{
		Question: req.Question,
		Tenant:   knowledge.TenantID(req.OwnerTenant),
		K:        req.K,
	}

	if r.URL.Query().Get("stream") == "true" {
		h.stream(w, r, svcReq)
		return
	}

	res, err := h.svc.Ask(ctx, svcReq)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to answer question")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toAskResponse(res))
}

// stream sends the answer as Server-Sent Events.
func (h *AskHandler) stream(w http.ResponseWriter, r *http.Request, req service.AskRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	res, err := h.svc.StreamAsk(ctx, req, func(chunk string) error {
		start()
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			handleServiceError(w, ctx, err, "Failed to answer question")
			return
		}
		logger.ErrorContext(ctx, "error streaming answer", "error", err)
		msg, _ := json.Marshal(ErrorResponse{Error: "stream interrupted"})
		_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", msg)
		flusher.Flush()
		return
	}

	start()
	meta, _ := json.Marshal(struct {
		SourceLabel string `json:"source_label"`
		Outcome     string `json:"outcome"`
	}{res.SourceLabel, string(res.Outcome)})
	_, _ = fmt.Fprintf(w, "event: meta\ndata: %s\n\n", meta)
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
