package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_knowledge_service.go -package=mocks -mock_names=KnowledgeService=MockKnowledgeService lifeos-kb/internal/service KnowledgeService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks lifeos-kb/internal/service Ingester,ContextSearcher,SourceWatcher,PageCrawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/crawler"
	"lifeos-kb/internal/extract"
	"lifeos-kb/internal/gate"
	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/rag"
	"lifeos-kb/internal/sources"
	"lifeos-kb/internal/storage"
)

// Ingester runs the ingestion pipeline and reports index coverage.
type Ingester interface {
	Ingest(ctx context.Context, req indexer.Request) (*indexer.Result, error)
	CoverageStats(ctx context.Context, tenant knowledge.TenantID, embeddingModel string) (*indexer.CoverageStats, error)
}

// ContextSearcher runs the gated hybrid search.
type ContextSearcher interface {
	AnswerContext(ctx context.Context, query string, tenant knowledge.TenantID, k int) (*gate.Context, error)
}

// SourceWatcher registers and refreshes watched web sources.
type SourceWatcher interface {
	Watch(ctx context.Context, req sources.WatchRequest) (*sources.WatchResult, error)
	RunCycle(ctx context.Context) (*sources.CycleReport, error)
}

// PageCrawler fetches a web page as text.
type PageCrawler interface {
	Crawl(ctx context.Context, rawURL string) (*crawler.Page, error)
}

// KnowledgeService is the application facade over ingestion, retrieval and answering.
type KnowledgeService interface {
	IngestText(ctx context.Context, req IngestTextRequest) (IngestResponse, error)
	IngestFile(ctx context.Context, req IngestFileRequest) (IngestResponse, error)
	IngestURL(ctx context.Context, req IngestURLRequest) (IngestResponse, error)
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	Ask(ctx context.Context, req AskRequest) (rag.AskResponse, error)
	StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (rag.AskResponse, error)
	GetPreferences(ctx context.Context, tenant knowledge.TenantID) (knowledge.Preferences, error)
	UpdatePreferences(ctx context.Context, tenant knowledge.TenantID, update knowledge.PreferenceOverrides) (knowledge.Preferences, error)
	WatchSource(ctx context.Context, req WatchSourceRequest) (WatchSourceResponse, error)
	RunWatcher(ctx context.Context) (*sources.CycleReport, error)
	Stats(ctx context.Context, tenant knowledge.TenantID) (*indexer.CoverageStats, error)
	GetNote(ctx context.Context, id string, tenant knowledge.TenantID) (*NoteDetail, error)
	ListNotes(ctx context.Context, tenant knowledge.TenantID, limit int) ([]*knowledge.SummaryNote, error)
}

// Deps are the collaborators of the knowledge service.
type Deps struct {
	Ingester       Ingester
	Searcher       ContextSearcher
	Engine         rag.Engine
	Watcher        SourceWatcher
	Crawler        PageCrawler
	Notes          storage.NoteStore
	Chunks         storage.ChunkStore
	Preferences    storage.PreferenceStore
	Defaults       knowledge.Preferences
	EmbeddingModel string
}

type knowledgeService struct {
	deps Deps
}

// NewKnowledgeService creates a KnowledgeService.
func NewKnowledgeService(deps Deps) KnowledgeService {
	return &knowledgeService{deps: deps}
}

func (s *knowledgeService) IngestText(ctx context.Context, req IngestTextRequest) (IngestResponse, error) {
	if err := validateRequest(req); err != nil {
		return IngestResponse{}, err
	}
	return s.ingest(ctx, indexer.Request{
		Text:            req.Text,
		SourceReference: req.SourceReference,
		OwnerTenant:     req.Tenant,
		Scope:           req.Scope,
		StoreRaw:        req.StoreRaw,
	})
}

// IngestFile extracts text from an upload by extension. The file name is the
// source reference.
func (s *knowledgeService) IngestFile(ctx context.Context, req IngestFileRequest) (IngestResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateRequest(req); err != nil {
		return IngestResponse{}, err
	}
	text, err := extract.Text(req.Data, req.Filename)
	if err != nil {
		logger.WarnContext(ctx, "upload rejected", "filename", req.Filename, "error", err)
		return IngestResponse{}, WrapError(err, "failed to extract upload")
	}
	return s.ingest(ctx, indexer.Request{
		Text:            text,
		SourceReference: req.Filename,
		OwnerTenant:     req.Tenant,
		Scope:           req.Scope,
		StoreRaw:        req.StoreRaw,
	})
}

// IngestURL crawls a page once, without registering it as a watched source.
func (s *knowledgeService) IngestURL(ctx context.Context, req IngestURLRequest) (IngestResponse, error) {
	if err := validateRequest(req); err != nil {
		return IngestResponse{}, err
	}
	if s.deps.Crawler == nil {
		return IngestResponse{}, fmt.Errorf("crawler is not configured: %w", ErrExternalService)
	}

	page, err := s.deps.Crawler.Crawl(ctx, req.URL)
	if err != nil {
		if errors.Is(err, knowledge.ErrExtraction) {
			return IngestResponse{}, WrapError(err, "failed to extract page")
		}
		return IngestResponse{}, fmt.Errorf("failed to crawl %s: %w: %w", req.URL, ErrExternalService, err)
	}
	return s.ingest(ctx, indexer.Request{
		Text:            page.Content,
		SourceReference: page.SourceURL,
		OwnerTenant:     req.Tenant,
		Scope:           req.Scope,
		StoreRaw:        true,
	})
}

func (s *knowledgeService) ingest(ctx context.Context, req indexer.Request) (IngestResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	res, err := s.deps.Ingester.Ingest(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "source", req.SourceReference, "error", err)
		return IngestResponse{}, WrapError(err, "failed to ingest document")
	}
	return toIngestResponse(res), nil
}

func (s *knowledgeService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if err := validateRequest(req); err != nil {
		return SearchResponse{}, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return SearchResponse{}, &ValidationError{Field: "query_text", Message: "is required"}
	}

	gc, err := s.deps.Searcher.AnswerContext(ctx, req.Query, req.Tenant, req.K)
	if err != nil {
		return SearchResponse{}, WrapError(err, "failed to search")
	}
	return SearchResponse{
		Results:     gc.Results,
		WebResults:  gc.WebResults,
		SourceLabel: gc.SourceLabel,
		Outcome:     string(gc.Outcome),
		TopScore:    gc.TopScore,
		Context:     gc.Text,
	}, nil
}

func (s *knowledgeService) Ask(ctx context.Context, req AskRequest) (rag.AskResponse, error) {
	if err := validateRequest(req); err != nil {
		return rag.AskResponse{}, err
	}
	resp, err := s.deps.Engine.Ask(ctx, rag.AskRequest{Question: req.Question, Tenant: req.Tenant, K: req.K})
	if err != nil {
		return rag.AskResponse{}, wrapAnswerError(err)
	}
	return resp, nil
}

func (s *knowledgeService) StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (rag.AskResponse, error) {
	if err := validateRequest(req); err != nil {
		return rag.AskResponse{}, err
	}
	resp, err := s.deps.Engine.StreamAsk(ctx, rag.AskRequest{Question: req.Question, Tenant: req.Tenant, K: req.K}, callback)
	if err != nil {
		return rag.AskResponse{}, wrapAnswerError(err)
	}
	return resp, nil
}

// wrapAnswerError treats failures without a domain kind as LLM failures.
func wrapAnswerError(err error) error {
	if errorKind(err) == nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to answer question: %w: %w", ErrExternalService, err)
	}
	return WrapError(err, "failed to answer question")
}

func (s *knowledgeService) GetPreferences(ctx context.Context, tenant knowledge.TenantID) (knowledge.Preferences, error) {
	if tenant < 0 {
		return knowledge.Preferences{}, &ValidationError{Field: "tenant", Message: "must be at least 0"}
	}
	overrides, err := s.deps.Preferences.Get(ctx, tenant)
	if err != nil {
		return knowledge.Preferences{}, WrapError(err, "failed to load preferences")
	}
	return knowledge.Merge(s.deps.Defaults, overrides), nil
}

// UpdatePreferences applies the fields present in update and returns the
// effective preferences.
func (s *knowledgeService) UpdatePreferences(ctx context.Context, tenant knowledge.TenantID, update knowledge.PreferenceOverrides) (knowledge.Preferences, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if tenant < 0 {
		return knowledge.Preferences{}, &ValidationError{Field: "tenant", Message: "must be at least 0"}
	}
	if update.Mode != nil && !validMode(*update.Mode) {
		return knowledge.Preferences{}, &ValidationError{Field: "mode", Message: "must be one of productivity, academic, casual"}
	}

	current, err := s.deps.Preferences.Get(ctx, tenant)
	if err != nil {
		return knowledge.Preferences{}, WrapError(err, "failed to load preferences")
	}
	next := current.Apply(update)
	if err := s.deps.Preferences.Save(ctx, tenant, next); err != nil {
		return knowledge.Preferences{}, WrapError(err, "failed to save preferences")
	}

	logger.InfoContext(ctx, "preferences updated", "tenant", tenant)
	return knowledge.Merge(s.deps.Defaults, next), nil
}

func validMode(mode string) bool {
	switch strings.ToLower(mode) {
	case rag.ModeProductivity, rag.ModeAcademic, rag.ModeCasual:
		return true
	}
	return false
}

func (s *knowledgeService) WatchSource(ctx context.Context, req WatchSourceRequest) (WatchSourceResponse, error) {
	if err := validateRequest(req); err != nil {
		return WatchSourceResponse{}, err
	}
	res, err := s.deps.Watcher.Watch(ctx, sources.WatchRequest{
		URL:          req.URL,
		Tenant:       req.Tenant,
		Scope:        req.Scope,
		RefreshHours: req.RefreshHours,
	})
	if err != nil {
		return WatchSourceResponse{}, WrapError(err, "failed to watch source")
	}

	out := WatchSourceResponse{Source: res.Source, Created: res.Created}
	if res.Result != nil {
		ingested := toIngestResponse(res.Result)
		out.Ingested = &ingested
	}
	if res.CrawlError != nil {
		out.CrawlError = res.CrawlError.Error()
	}
	return out, nil
}

func (s *knowledgeService) RunWatcher(ctx context.Context) (*sources.CycleReport, error) {
	report, err := s.deps.Watcher.RunCycle(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to run watcher")
	}
	return report, nil
}

func (s *knowledgeService) Stats(ctx context.Context, tenant knowledge.TenantID) (*indexer.CoverageStats, error) {
	if tenant < 0 {
		return nil, &ValidationError{Field: "tenant", Message: "must be at least 0"}
	}
	stats, err := s.deps.Ingester.CoverageStats(ctx, tenant, s.deps.EmbeddingModel)
	if err != nil {
		return nil, WrapError(err, "failed to compute stats")
	}
	return stats, nil
}

// GetNote returns a note visible to tenant. Notes of other tenants are
// reported as not found.
func (s *knowledgeService) GetNote(ctx context.Context, id string, tenant knowledge.TenantID) (*NoteDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	note, err := s.deps.Notes.GetByID(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to get note")
	}
	if !knowledge.VisibleTo(note.OwnerTenant, note.Scope, tenant) {
		return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}

	chunks, err := s.deps.Chunks.ListByNotes(ctx, []string{id})
	if err != nil {
		return nil, WrapError(err, "failed to list chunks")
	}
	return &NoteDetail{Note: note, Chunks: chunks}, nil
}

func (s *knowledgeService) ListNotes(ctx context.Context, tenant knowledge.TenantID, limit int) ([]*knowledge.SummaryNote, error) {
	if tenant < 0 {
		return nil, &ValidationError{Field: "tenant", Message: "must be at least 0"}
	}
	notes, err := s.deps.Notes.ListByTenant(ctx, tenant, limit)
	if err != nil {
		return nil, WrapError(err, "failed to list notes")
	}
	return notes, nil
}
