package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lifeos-kb/internal/config"
	"lifeos-kb/internal/crawler"
	"lifeos-kb/internal/gate"
	"lifeos-kb/internal/handlers"
	"lifeos-kb/internal/http"
	"lifeos-kb/internal/index"
	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/llm"
	"lifeos-kb/internal/rag"
	"lifeos-kb/internal/retrieval"
	"lifeos-kb/internal/service"
	"lifeos-kb/internal/sources"
	"lifeos-kb/internal/storage"
	"lifeos-kb/internal/summarize"
	"lifeos-kb/internal/websearch"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests documents into a tenant-scoped two-tier knowledge base and
// answers questions from it, falling back to web search when local knowledge is weak.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: LifeOS Knowledge Base API
//   description: |
//     Hybrid retrieval and ingestion API. Documents are summarized into atomic
//     notes with deduplicated raw chunks; queries search notes first, then
//     supporting chunks, and are gated to web search below a relevance threshold.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	noteRepo := storage.NewNoteRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	sourceRepo := storage.NewSourceRepo(db)
	preferenceRepo := storage.NewPreferenceRepo(db)

	// Embeddings
	var embedder index.Embedder
	embeddingModel := "hash"
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderHTTP:
		client := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
		if err := client.Probe(ctx); err != nil {
			log.Fatalf("Failed to validate embedding client: %v", err)
		}
		embedder = client
		embeddingModel = cfg.EmbeddingModelName
	default:
		embedder = llm.NewHashEmbedder(cfg.VectorSize)
	}
	slog.Info("Embedder ready", "provider", cfg.EmbeddingProvider, "model", embeddingModel, "vector_size", cfg.VectorSize)

	// Index backend
	var idx index.Index
	switch cfg.IndexBackend {
	case config.IndexBackendQdrant:
		qdrantIndex, err := index.NewQdrantIndex(cfg.QdrantURL, embedder, cfg.QdrantNotesCollection, cfg.QdrantChunksCollection)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		if err := qdrantIndex.EnsureCollections(ctx, cfg.VectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collections: %v", err)
		}
		slog.Info("Qdrant collections ready",
			"notes", cfg.QdrantNotesCollection,
			"chunks", cfg.QdrantChunksCollection,
			"vector_size", cfg.VectorSize,
		)
		idx = qdrantIndex
	default:
		idx = index.NewSQLIndex(db, embedder)
		slog.Info("SQLite index ready")
	}

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Ingestion pipeline
	splitter, err := indexer.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}
	pipeline := indexer.NewPipeline(
		noteRepo,
		chunkRepo,
		idx,
		summarize.NewLLMSummarizer(llmClient, cfg.LLMModelName),
		splitter,
		indexer.Options{
			TokenBudget:      cfg.SummaryTokenBudget,
			SummarizeTimeout: cfg.SummarizeTimeout,
			Concurrency:      cfg.IngestConcurrency,
		},
	)

	// Retrieval and gate. Without an API key web search is disabled and weak
	// local results are returned as they are.
	var web gate.WebSearcher
	if cfg.WebSearchAPIKey != "" {
		web = websearch.NewClient(cfg.WebSearchURL, cfg.WebSearchAPIKey, cfg.WebSearchMaxResults, cfg.WebSearchRPS)
	} else {
		slog.Warn("WEB_SEARCH_API_KEY not set, web fallback disabled")
	}
	queryGate := gate.New(
		retrieval.NewOrchestrator(idx, cfg.HybridAlpha),
		web,
		cfg.RelevanceThreshold,
		cfg.WebSearchTimeout,
	)

	defaults := knowledge.DefaultPreferences()
	defaults.Model = cfg.LLMModelName
	ragEngine := rag.NewEngine(queryGate, preferenceRepo, llmClient, defaults)
	slog.Info("RAG engine initialized")

	// Sources
	pageCrawler := crawler.New(0, 0)
	webWatcher := sources.NewWebWatcher(sourceRepo, pageCrawler, pipeline)
	folderSync := sources.NewFolderSync(pipeline)

	svc := service.NewKnowledgeService(service.Deps{
		Ingester:       pipeline,
		Searcher:       queryGate,
		Engine:         ragEngine,
		Watcher:        webWatcher,
		Crawler:        pageCrawler,
		Notes:          noteRepo,
		Chunks:         chunkRepo,
		Preferences:    preferenceRepo,
		Defaults:       defaults,
		EmbeddingModel: embeddingModel,
	})

	router := http.NewRouter(&http.Deps{
		Service: svc,
		HealthChecks: map[string]handlers.CheckFunc{
			"database": db.PingContext,
			"index":    idx.Ping,
		},
	})

	// Start background feeders after the router is ready
	var background sync.WaitGroup
	var watchers []*sources.FolderWatcher
	for _, wf := range cfg.WatchFolders {
		folder := sources.Folder{Root: wf.Path, Tenant: wf.Tenant, Scope: wf.Scope}
		watcher := sources.NewFolderWatcher(folderSync, folder, 0)
		if err := watcher.Start(ctx); err != nil {
			slog.Error("Failed to watch folder", "path", wf.Path, "error", err)
			continue
		}
		watchers = append(watchers, watcher)

		background.Add(1)
		go func() {
			defer background.Done()
			slog.Info("Starting initial folder sync", "path", folder.Root, "tenant", folder.Tenant)
			report, err := folderSync.Sync(ctx, folder)
			if err != nil {
				slog.Error("Folder sync failed", "path", folder.Root, "error", err)
				return
			}
			slog.Info("Folder sync completed",
				"path", folder.Root,
				"files", report.Files,
				"ingested", report.Ingested,
				"failed", len(report.Failed),
			)
		}()
	}

	background.Add(1)
	go func() {
		defer background.Done()
		webWatcher.Run(ctx, cfg.SourceRefreshInterval)
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	for _, w := range watchers {
		w.Stop()
	}
	background.Wait()
	slog.Info("Shutdown complete")
}
