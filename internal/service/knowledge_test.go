package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"lifeos-kb/internal/crawler"
	"lifeos-kb/internal/gate"
	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/rag"
	ragmocks "lifeos-kb/internal/rag/mocks"
	"lifeos-kb/internal/retrieval"
	"lifeos-kb/internal/service"
	"lifeos-kb/internal/service/mocks"
	"lifeos-kb/internal/sources"
	"lifeos-kb/internal/storage"
	storagemocks "lifeos-kb/internal/storage/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	ingester *mocks.MockIngester
	searcher *mocks.MockContextSearcher
	watcher  *mocks.MockSourceWatcher
	crawler  *mocks.MockPageCrawler
	engine   *ragmocks.MockEngine
	notes    *storagemocks.MockNoteStore
	chunks   *storagemocks.MockChunkStore
	prefs    *storagemocks.MockPreferenceStore
	svc      service.KnowledgeService
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		ingester: mocks.NewMockIngester(ctrl),
		searcher: mocks.NewMockContextSearcher(ctrl),
		watcher:  mocks.NewMockSourceWatcher(ctrl),
		crawler:  mocks.NewMockPageCrawler(ctrl),
		engine:   ragmocks.NewMockEngine(ctrl),
		notes:    storagemocks.NewMockNoteStore(ctrl),
		chunks:   storagemocks.NewMockChunkStore(ctrl),
		prefs:    storagemocks.NewMockPreferenceStore(ctrl),
	}
	f.svc = service.NewKnowledgeService(service.Deps{
		Ingester:       f.ingester,
		Searcher:       f.searcher,
		Engine:         f.engine,
		Watcher:        f.watcher,
		Crawler:        f.crawler,
		Notes:          f.notes,
		Chunks:         f.chunks,
		Preferences:    f.prefs,
		Defaults:       knowledge.DefaultPreferences(),
		EmbeddingModel: "hash-256",
	})
	return f
}

func ingestResult(id, title string, chunks int) *indexer.Result {
	return &indexer.Result{Note: &knowledge.SummaryNote{ID: id, Title: title}, ChunkCount: chunks}
}

func TestKnowledgeService_IngestText(t *testing.T) {
	tests := []struct {
		name      string
		req       service.IngestTextRequest
		mockSetup func(f *fixture)
		wantErr   error
		wantField string
		wantID    string
	}{
		{
			name: "ingests text",
			req:  service.IngestTextRequest{Text: "LifeOS", SourceReference: "intro.txt", Tenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true},
			mockSetup: func(f *fixture) {
				f.ingester.EXPECT().Ingest(gomock.Any(), indexer.Request{
					Text: "LifeOS", SourceReference: "intro.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true,
				}).Return(ingestResult("n1", "Intro", 2), nil)
			},
			wantID: "n1",
		},
		{
			name:      "missing text",
			req:       service.IngestTextRequest{SourceReference: "a", Tenant: 1, Scope: knowledge.ScopePrivate},
			mockSetup: func(*fixture) {},
			wantErr:   service.ErrInvalidInput,
			wantField: "raw_text",
		},
		{
			name:      "bad scope",
			req:       service.IngestTextRequest{Text: "x", SourceReference: "a", Tenant: 1, Scope: "SHARED"},
			mockSetup: func(*fixture) {},
			wantErr:   service.ErrInvalidInput,
			wantField: "scope",
		},
		{
			name:      "negative tenant",
			req:       service.IngestTextRequest{Text: "x", SourceReference: "a", Tenant: -1, Scope: knowledge.ScopeGlobal},
			mockSetup: func(*fixture) {},
			wantErr:   service.ErrInvalidInput,
			wantField: "owner_tenant",
		},
		{
			name: "summarizer failure",
			req:  service.IngestTextRequest{Text: "x", SourceReference: "a", Tenant: 1, Scope: knowledge.ScopeGlobal},
			mockSetup: func(f *fixture) {
				f.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).
					Return(nil, &knowledge.SummarizationError{Source: "a", Err: errors.New("timeout")})
			},
			wantErr: service.ErrExternalService,
		},
		{
			name: "index unavailable",
			req:  service.IngestTextRequest{Text: "x", SourceReference: "a", Tenant: 1, Scope: knowledge.ScopeGlobal},
			mockSetup: func(f *fixture) {
				f.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).
					Return(nil, knowledge.Unavailable("insert", errors.New("refused")))
			},
			wantErr: service.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mockSetup(f)

			got, err := f.svc.IngestText(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("IngestText() error = %v, want %v", err, tt.wantErr)
				}
				var verr *service.ValidationError
				if tt.wantField != "" && (!errors.As(err, &verr) || verr.Field != tt.wantField) {
					t.Errorf("IngestText() error = %v, want validation error on %s", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("IngestText() error = %v", err)
			}
			if got.NoteID != tt.wantID {
				t.Errorf("NoteID = %s, want %s", got.NoteID, tt.wantID)
			}
		})
	}
}

func TestKnowledgeService_IngestFile(t *testing.T) {
	f := newFixture(t)
	f.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req indexer.Request) (*indexer.Result, error) {
			if req.Text != "Focus blocks beat multitasking." || req.SourceReference != "focus.md" {
				t.Errorf("request = %+v", req)
			}
			return ingestResult("n2", "Focus", 1), nil
		})

	got, err := f.svc.IngestFile(context.Background(), service.IngestFileRequest{
		Filename: "focus.md",
		Data:     []byte("Focus blocks beat **multitasking**."),
		Tenant:   4,
		Scope:    knowledge.ScopePrivate,
		StoreRaw: true,
	})
	if err != nil {
		t.Fatalf("IngestFile() error = %v", err)
	}
	if got.NoteID != "n2" || got.ChunkCount != 1 {
		t.Errorf("IngestFile() = %+v", got)
	}

	_, err = f.svc.IngestFile(context.Background(), service.IngestFileRequest{
		Filename: "photo.png", Data: []byte{1, 2, 3}, Tenant: 4, Scope: knowledge.ScopePrivate,
	})
	if !errors.Is(err, service.ErrUnprocessable) || !errors.Is(err, knowledge.ErrExtraction) {
		t.Errorf("IngestFile() unsupported error = %v, want ErrUnprocessable", err)
	}
}

func TestKnowledgeService_IngestURL(t *testing.T) {
	f := newFixture(t)
	f.crawler.EXPECT().Crawl(gomock.Any(), "https://example.com/post").
		Return(&crawler.Page{Title: "Post", Content: "Article body", SourceURL: "https://example.com/post"}, nil)
	f.ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req indexer.Request) (*indexer.Result, error) {
			if req.SourceReference != "https://example.com/post" || req.OwnerTenant != 2 || !req.StoreRaw {
				t.Errorf("request = %+v", req)
			}
			return ingestResult("n3", "Post", 1), nil
		})

	if _, err := f.svc.IngestURL(context.Background(), service.IngestURLRequest{URL: "https://example.com/post", Tenant: 2, Scope: knowledge.ScopePrivate}); err != nil {
		t.Fatalf("IngestURL() error = %v", err)
	}

	f.crawler.EXPECT().Crawl(gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: refused"))
	_, err := f.svc.IngestURL(context.Background(), service.IngestURLRequest{URL: "https://down.example.com", Tenant: 2, Scope: knowledge.ScopePrivate})
	if !errors.Is(err, service.ErrExternalService) {
		t.Errorf("IngestURL() error = %v, want ErrExternalService", err)
	}

	_, err = f.svc.IngestURL(context.Background(), service.IngestURLRequest{URL: "not a url", Tenant: 2, Scope: knowledge.ScopePrivate})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("IngestURL() error = %v, want ErrInvalidInput", err)
	}
}

func TestKnowledgeService_Search(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().AnswerContext(gomock.Any(), "sleep", knowledge.TenantID(1), 0).Return(&gate.Context{
		Outcome:     gate.OutcomeLocal,
		SourceLabel: gate.LabelLocal,
		TopScore:    0.9,
		Results:     []retrieval.ResultItem{{Type: retrieval.ItemNote, Content: "Sleep", Score: 0.9}},
	}, nil)

	got, err := f.svc.Search(context.Background(), service.SearchRequest{Query: "sleep", Tenant: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got.SourceLabel != gate.LabelLocal || got.Outcome != "LOCAL" || len(got.Results) != 1 {
		t.Errorf("Search() = %+v", got)
	}

	for _, req := range []service.SearchRequest{
		{Query: "", Tenant: 1},
		{Query: "   ", Tenant: 1},
		{Query: "x", Tenant: 1, K: 21},
	} {
		if _, err := f.svc.Search(context.Background(), req); !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Search(%+v) error = %v, want ErrInvalidInput", req, err)
		}
	}
}

func TestKnowledgeService_Ask(t *testing.T) {
	f := newFixture(t)
	f.engine.EXPECT().Ask(gomock.Any(), rag.AskRequest{Question: "why?", Tenant: 3, K: 2}).
		Return(rag.AskResponse{Answer: "because", Outcome: gate.OutcomeLocal}, nil)
	f.engine.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(rag.AskResponse{}, errors.New("llm returned 500"))

	got, err := f.svc.Ask(context.Background(), service.AskRequest{Question: "why?", Tenant: 3, K: 2})
	if err != nil || got.Answer != "because" {
		t.Fatalf("Ask() = %+v, %v", got, err)
	}
	if _, err := f.svc.Ask(context.Background(), service.AskRequest{Question: "again?", Tenant: 3}); !errors.Is(err, service.ErrExternalService) {
		t.Errorf("Ask() error = %v, want ErrExternalService", err)
	}
	if _, err := f.svc.Ask(context.Background(), service.AskRequest{Tenant: 3}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Ask() error = %v, want ErrInvalidInput", err)
	}
}

func TestKnowledgeService_Preferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tone := "direct"
	stored := knowledge.PreferenceOverrides{Tone: &tone}
	f.prefs.EXPECT().Get(gomock.Any(), knowledge.TenantID(8)).Return(stored, nil).Times(2)

	got, err := f.svc.GetPreferences(ctx, 8)
	if err != nil {
		t.Fatalf("GetPreferences() error = %v", err)
	}
	if got.Tone != "direct" || got.Mode != "productivity" {
		t.Errorf("GetPreferences() = %+v", got)
	}

	mode := "casual"
	f.prefs.EXPECT().Save(gomock.Any(), knowledge.TenantID(8), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ knowledge.TenantID, o knowledge.PreferenceOverrides) error {
			if o.Tone == nil || *o.Tone != "direct" || o.Mode == nil || *o.Mode != "casual" {
				t.Errorf("saved overrides = %+v", o)
			}
			return nil
		})
	got, err = f.svc.UpdatePreferences(ctx, 8, knowledge.PreferenceOverrides{Mode: &mode})
	if err != nil {
		t.Fatalf("UpdatePreferences() error = %v", err)
	}
	if got.Mode != "casual" || got.Tone != "direct" || got.Model != "gpt-4o" {
		t.Errorf("UpdatePreferences() = %+v", got)
	}

	bad := "pirate"
	if _, err := f.svc.UpdatePreferences(ctx, 8, knowledge.PreferenceOverrides{Mode: &bad}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("UpdatePreferences() error = %v, want ErrInvalidInput", err)
	}
}

func TestKnowledgeService_WatchSource(t *testing.T) {
	f := newFixture(t)
	src := &storage.Source{ID: 1, URL: "https://example.com", OwnerTenant: knowledge.SystemTenant, Scope: knowledge.ScopeGlobal}
	f.watcher.EXPECT().Watch(gomock.Any(), sources.WatchRequest{URL: "https://example.com", Tenant: 5, Scope: knowledge.ScopeGlobal}).
		Return(&sources.WatchResult{Source: src, Created: true, CrawlError: errors.New("timeout")}, nil)

	got, err := f.svc.WatchSource(context.Background(), service.WatchSourceRequest{URL: "https://example.com", Tenant: 5, Scope: knowledge.ScopeGlobal})
	if err != nil {
		t.Fatalf("WatchSource() error = %v", err)
	}
	if !got.Created || got.CrawlError != "timeout" || got.Ingested != nil || got.Source.ID != 1 {
		t.Errorf("WatchSource() = %+v", got)
	}

	f.watcher.EXPECT().RunCycle(gomock.Any()).Return(&sources.CycleReport{Checked: 2, Updated: 2}, nil)
	report, err := f.svc.RunWatcher(context.Background())
	if err != nil || report.Updated != 2 {
		t.Errorf("RunWatcher() = %+v, %v", report, err)
	}
}

func TestKnowledgeService_GetNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	private := &knowledge.SummaryNote{ID: "p", OwnerTenant: 1, Scope: knowledge.ScopePrivate}
	f.notes.EXPECT().GetByID(gomock.Any(), "p").Return(private, nil).Times(2)
	f.chunks.EXPECT().ListByNotes(gomock.Any(), []string{"p"}).Return([]*knowledge.RawChunk{{ID: "c0", ParentNoteID: "p"}}, nil)

	got, err := f.svc.GetNote(ctx, "p", 1)
	if err != nil {
		t.Fatalf("GetNote() error = %v", err)
	}
	if got.Note.ID != "p" || len(got.Chunks) != 1 {
		t.Errorf("GetNote() = %+v", got)
	}

	if _, err := f.svc.GetNote(ctx, "p", 2); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("GetNote() other tenant error = %v, want ErrNotFound", err)
	}

	f.notes.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)
	if _, err := f.svc.GetNote(ctx, "missing", 1); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("GetNote() missing error = %v, want ErrNotFound", err)
	}
}

func TestKnowledgeService_Stats(t *testing.T) {
	f := newFixture(t)
	f.ingester.EXPECT().CoverageStats(gomock.Any(), knowledge.TenantID(1), "hash-256").
		Return(&indexer.CoverageStats{Notes: 3, Chunks: 9}, nil)

	got, err := f.svc.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if got.Notes != 3 || got.Chunks != 9 {
		t.Errorf("Stats() = %+v", got)
	}
	if _, err := f.svc.Stats(context.Background(), -1); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Stats() error = %v, want ErrInvalidInput", err)
	}
}
