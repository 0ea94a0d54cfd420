package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/service"
)

// NoteHandler serves summary notes as JSON, Markdown or rendered HTML.
type NoteHandler struct {
	svc      service.KnowledgeService
	markdown goldmark.Markdown
	template *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   string
	Source  string
	Scope   knowledge.Scope
	Chunks  int
	Content template.HTML
}

// NoteResponse is the JSON form of a note.
type NoteResponse struct {
	Note     *knowledge.SummaryNote `json:"note"`
	Chunks   []*knowledge.RawChunk  `json:"chunks,omitempty"`
	Markdown string                 `json:"markdown"`
}

// NoteListResponse lists notes visible to a tenant.
type NoteListResponse struct {
	Notes []*knowledge.SummaryNote `json:"notes"`
}

// NewNoteHandler creates a new handler for serving notes.
func NewNoteHandler(svc service.KnowledgeService) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    article {
      background: rgba(12, 19, 35, 0.85);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 16px;
      padding: 2rem;
    }
    article h2 {
      color: #c7d2fe;
      margin-top: 1.5rem;
    }
    a {
      color: #60a5fa;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
    }
  </style>
</head>
<body>
  <article>{{.Content}}</article>
  <p class="meta">{{.Scope}} &middot; {{.Chunks}} raw chunks &middot; {{.Source}}</p>
</body>
</html>`))

	return &NoteHandler{
		svc: svc,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// Get serves GET /api/notes/{id}?tenant=T&format=json|markdown|html.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	tenant, err := tenantParam(r, "tenant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.svc.GetNote(ctx, id, tenant)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get note")
		return
	}
	md := knowledge.FormatMarkdown(detail.Note)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(ctx, w, http.StatusOK, NoteResponse{Note: detail.Note, Chunks: detail.Chunks, Markdown: md})

	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(md))

	case "html":
		htmlContent, err := h.renderMarkdown([]byte(md))
		if err != nil {
			logger.ErrorContext(ctx, "failed to render markdown", "note_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to render note")
			return
		}
		var page bytes.Buffer
		err = h.template.Execute(&page, notePageData{
			Title:   detail.Note.Title,
			Source:  detail.Note.SourceReference,
			Scope:   detail.Note.Scope,
			Chunks:  len(detail.Chunks),
			Content: template.HTML(htmlContent),
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to execute note template", "note_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to render note")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page.Bytes())

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

// List serves GET /api/notes?tenant=T&limit=N.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenant, err := tenantParam(r, "tenant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	notes, err := h.svc.ListNotes(ctx, tenant, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list notes")
		return
	}
	if notes == nil {
		notes = []*knowledge.SummaryNote{}
	}
	writeJSON(ctx, w, http.StatusOK, NoteListResponse{Notes: notes})
}

func (h *NoteHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
