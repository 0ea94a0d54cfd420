package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lifeos-kb/internal/handlers"
	"lifeos-kb/internal/service"
)

// defaultRequestTimeout bounds a request when Deps.RequestTimeout is zero.
// Summarization of a long document is the slowest path.
const defaultRequestTimeout = 3 * time.Minute

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Service        service.KnowledgeService
	HealthChecks   map[string]handlers.CheckFunc
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(middleware.Timeout(timeout))

	ingestHandler := handlers.NewIngestHandler(deps.Service)
	preferencesHandler := handlers.NewPreferencesHandler(deps.Service)
	sourcesHandler := handlers.NewSourcesHandler(deps.Service)
	noteHandler := handlers.NewNoteHandler(deps.Service)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ingest", func(r chi.Router) {
			r.Post("/text", ingestHandler.Text)
			r.Post("/file", ingestHandler.File)
			r.Post("/url", ingestHandler.URL)
		})
		r.Method(http.MethodPost, "/search", handlers.NewSearchHandler(deps.Service))
		r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.Service))

		r.Get("/preferences/{tenant}", preferencesHandler.Get)
		r.Patch("/preferences/{tenant}", preferencesHandler.Patch)

		r.Post("/sources/watch", sourcesHandler.Watch)
		r.Post("/sources/run", sourcesHandler.Run)

		r.Get("/notes", noteHandler.List)
		r.Get("/notes/{id}", noteHandler.Get)

		r.Method(http.MethodGet, "/stats/{tenant}", handlers.NewStatsHandler(deps.Service))
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.HealthChecks))
	})

	return r
}
