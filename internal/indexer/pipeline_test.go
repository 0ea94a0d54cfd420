package indexer

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"lifeos-kb/internal/index"
	index_mocks "lifeos-kb/internal/index/mocks"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/llm"
	"lifeos-kb/internal/storage"
	summarize_mocks "lifeos-kb/internal/summarize/mocks"
)

type stores struct {
	db     *sql.DB
	notes  *storage.NoteRepo
	chunks *storage.ChunkRepo
}

// openStores opens a migrated SQLite database in a temp dir.
func openStores(t *testing.T) stores {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	return stores{db: db, notes: storage.NewNoteRepo(db), chunks: storage.NewChunkRepo(db)}
}

type testEnv struct {
	pipeline   *Pipeline
	notes      *storage.NoteRepo
	chunks     *storage.ChunkRepo
	index      *index.SQLIndex
	summarizer *summarize_mocks.MockSummarizer
}

func newTestEnv(t *testing.T, size, overlap int, opts Options) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	st := openStores(t)

	splitter, err := NewSplitter(size, overlap)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	env := &testEnv{
		notes:      st.notes,
		chunks:     st.chunks,
		index:      index.NewSQLIndex(st.db, llm.NewHashEmbedder(256)),
		summarizer: summarize_mocks.NewMockSummarizer(ctrl),
	}
	env.pipeline = NewPipeline(env.notes, env.chunks, env.index, env.summarizer, splitter, opts)
	return env
}

// summaryFor returns a fresh note per call, as a real summarizer would.
func summaryFor(title string) func(context.Context, string, string) (*knowledge.SummaryNote, error) {
	return func(_ context.Context, text, source string) (*knowledge.SummaryNote, error) {
		return &knowledge.SummaryNote{
			Title:           title,
			Keywords:        []string{"productivity"},
			Disciplines:     []string{"Personal Development"},
			Essence:         "A short abstract.",
			CoreIdea:        text,
			SourceReference: source,
		}, nil
	}
}

const lifeOSText = "LifeOS is a digital butler that helps you stay focused."

func TestPipeline_Ingest_TenantScenario(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{})
	ctx := context.Background()

	env.summarizer.EXPECT().Summarize(gomock.Any(), lifeOSText, "manual.txt").DoAndReturn(summaryFor("LifeOS"))

	res, err := env.pipeline.Ingest(ctx, Request{
		Text:            lifeOSText,
		SourceReference: "manual.txt",
		OwnerTenant:     1,
		Scope:           knowledge.ScopePrivate,
		StoreRaw:        true,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Note.ID != knowledge.NoteID("manual.txt", 1) {
		t.Errorf("Note.ID = %s, want deterministic id", res.Note.ID)
	}
	if res.ChunkCount != 1 || res.SkippedDuplicates != 0 || res.Truncated {
		t.Errorf("Result = %+v, want 1 chunk, no skips, not truncated", res)
	}

	stored, err := env.notes.GetByID(ctx, res.Note.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.HasRaw || stored.OwnerTenant != 1 || stored.Scope != knowledge.ScopePrivate {
		t.Errorf("stored note = %+v", stored)
	}

	query := "What does LifeOS help you do?"
	hits, err := env.index.HybridQuery(ctx, index.Query{Text: query, Kind: index.KindChunk, Tenant: 1, K: 3, Alpha: index.DefaultAlpha})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	found := false
	for _, h := range hits {
		if strings.Contains(h.Record.Text, "focused") || strings.Contains(h.Record.Text, "butler") {
			found = true
		}
	}
	if !found {
		t.Errorf("tenant 1 hits = %+v, want the LifeOS chunk", hits)
	}

	for _, kind := range []index.Kind{index.KindNote, index.KindChunk} {
		hits, err := env.index.HybridQuery(ctx, index.Query{Text: query, Kind: kind, Tenant: 2, K: 3, Alpha: index.DefaultAlpha})
		if err != nil {
			t.Fatalf("HybridQuery() error = %v", err)
		}
		if len(hits) != 0 {
			t.Errorf("tenant 2 %s hits = %d, want 0", kind, len(hits))
		}
	}
}

func TestPipeline_Ingest_Idempotent(t *testing.T) {
	env := newTestEnv(t, 40, 10, Options{})
	ctx := context.Background()
	text := "First paragraph about habits.\n\nSecond paragraph about focus.\n\nThird paragraph about rest."

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Habits")).Times(2)

	req := Request{Text: text, SourceReference: "habits.md", OwnerTenant: 7, Scope: knowledge.ScopePrivate, StoreRaw: true}
	first, err := env.pipeline.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	firstChunks, err := env.chunks.ListByNotes(ctx, []string{first.Note.ID})
	if err != nil {
		t.Fatalf("ListByNotes() error = %v", err)
	}

	second, err := env.pipeline.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if second.Note.ID != first.Note.ID {
		t.Errorf("note id changed: %s -> %s", first.Note.ID, second.Note.ID)
	}
	if second.SkippedDuplicates != 0 {
		t.Errorf("SkippedDuplicates = %d, want 0 on re-ingestion", second.SkippedDuplicates)
	}

	secondChunks, err := env.chunks.ListByNotes(ctx, []string{second.Note.ID})
	if err != nil {
		t.Fatalf("ListByNotes() error = %v", err)
	}
	if len(secondChunks) != len(firstChunks) || len(firstChunks) < 2 {
		t.Fatalf("chunk count = %d then %d, want equal and >= 2", len(firstChunks), len(secondChunks))
	}
	for i := range firstChunks {
		if firstChunks[i].ID != secondChunks[i].ID || firstChunks[i].Content != secondChunks[i].Content {
			t.Errorf("chunk %d differs: %+v vs %+v", i, firstChunks[i], secondChunks[i])
		}
	}

	notes, err := env.notes.ListByTenant(ctx, 7, 0)
	if err != nil {
		t.Fatalf("ListByTenant() error = %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("notes = %d, want 1", len(notes))
	}
}

func TestPipeline_Ingest_CrossDocumentDedup(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{})
	ctx := context.Background()

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Shared")).Times(3)

	if _, err := env.pipeline.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "a.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true}); err != nil {
		t.Fatalf("Ingest(a) error = %v", err)
	}
	before, _ := env.chunks.CountByTenant(ctx, 1)

	res, err := env.pipeline.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "b.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if err != nil {
		t.Fatalf("Ingest(b) error = %v", err)
	}
	if res.ChunkCount != 0 || res.SkippedDuplicates != 1 {
		t.Errorf("Result = %+v, want 0 chunks and 1 skipped duplicate", res)
	}
	after, _ := env.chunks.CountByTenant(ctx, 1)
	if after != before {
		t.Errorf("chunk count for tenant 1 = %d, want unchanged %d", after, before)
	}

	// Another tenant keeps its own copy.
	res, err = env.pipeline.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "a.txt", OwnerTenant: 2, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if err != nil {
		t.Fatalf("Ingest(tenant 2) error = %v", err)
	}
	if res.ChunkCount != 1 {
		t.Errorf("tenant 2 ChunkCount = %d, want 1", res.ChunkCount)
	}
}

func TestPipeline_Ingest_WithinDocumentDedup(t *testing.T) {
	env := newTestEnv(t, 20, 0, Options{})
	ctx := context.Background()
	text := "alpha beta gamma.\n\nalpha beta gamma.\n\ndelta epsilon zeta."

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Greek"))

	res, err := env.pipeline.Ingest(ctx, Request{Text: text, SourceReference: "greek.txt", OwnerTenant: 3, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.ChunkCount != 2 || res.SkippedDuplicates != 1 {
		t.Fatalf("Result = %+v, want 2 chunks and 1 skipped", res)
	}

	chunks, err := env.chunks.ListByNotes(ctx, []string{res.Note.ID})
	if err != nil {
		t.Fatalf("ListByNotes() error = %v", err)
	}
	if len(chunks) != 2 || chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 2 {
		t.Errorf("chunk indexes = %+v, want 0 and 2", chunks)
	}
}

func TestPipeline_Ingest_SummarizerFailure(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{})
	ctx := context.Background()

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("model overloaded"))

	_, err := env.pipeline.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "d.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if !errors.Is(err, knowledge.ErrSummarization) {
		t.Fatalf("Ingest() error = %v, want ErrSummarization", err)
	}

	if _, err := env.notes.GetByID(ctx, knowledge.NoteID("d.txt", 1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if n, _ := env.chunks.CountByTenant(ctx, 1); n != 0 {
		t.Errorf("chunk count = %d, want 0", n)
	}
	exists, err := env.index.ExistsHash(ctx, 1, knowledge.ContentHash(lifeOSText))
	if err != nil || exists {
		t.Errorf("ExistsHash() = %v, %v, want false", exists, err)
	}
}

func TestPipeline_Ingest_GlobalScope(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{})
	ctx := context.Background()

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Handbook"))

	res, err := env.pipeline.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "handbook.pdf", OwnerTenant: 5, Scope: knowledge.ScopeGlobal, StoreRaw: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Note.OwnerTenant != knowledge.SystemTenant {
		t.Errorf("OwnerTenant = %d, want system tenant", res.Note.OwnerTenant)
	}
	if res.Note.ID != knowledge.NoteID("handbook.pdf", knowledge.SystemTenant) {
		t.Errorf("Note.ID = %s, want id derived from the system tenant", res.Note.ID)
	}

	notes, err := env.notes.ListByTenant(ctx, 42, 0)
	if err != nil {
		t.Fatalf("ListByTenant() error = %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("tenant 42 sees %d notes, want the global one", len(notes))
	}
}

func TestPipeline_Ingest_SummaryOnly(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{})
	ctx := context.Background()

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Short"))

	res, err := env.pipeline.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "s.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.ChunkCount != 0 || res.Note.HasRaw {
		t.Errorf("Result = %+v, want no chunks", res)
	}
	hits, err := env.index.HybridQuery(ctx, index.Query{Text: "LifeOS", Kind: index.KindNote, Tenant: 1, K: 4, Alpha: index.DefaultAlpha})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Record.ID != res.Note.ID {
		t.Errorf("note hits = %+v, want the ingested note", hits)
	}
}

func TestPipeline_Ingest_Truncation(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{TokenBudget: 5})
	ctx := context.Background()
	text := strings.Repeat("word ", 40)

	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), "long.txt").DoAndReturn(
		func(ctx context.Context, input, source string) (*knowledge.SummaryNote, error) {
			if len(input) > 20 {
				t.Errorf("summarizer input has %d chars, want at most 20", len(input))
			}
			return summaryFor("Long")(ctx, input, source)
		})

	res, err := env.pipeline.Ingest(ctx, Request{Text: text, SourceReference: "long.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	chunks, _ := env.chunks.ListByNotes(ctx, []string{res.Note.ID})
	if len(chunks) != 1 || chunks[0].Content != strings.TrimSpace(text) {
		t.Errorf("chunks = %+v, want the full untruncated text", chunks)
	}
}

func TestPipeline_Ingest_InvalidRequest(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{})

	tests := []struct {
		name string
		req  Request
	}{
		{name: "missing source", req: Request{Text: "x", Scope: knowledge.ScopePrivate}},
		{name: "invalid scope", req: Request{Text: "x", SourceReference: "x", Scope: "TEAM"}},
		{name: "negative tenant", req: Request{Text: "x", SourceReference: "x", OwnerTenant: -1, Scope: knowledge.ScopePrivate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.pipeline.Ingest(context.Background(), tt.req); err == nil {
				t.Error("Ingest() expected error")
			}
		})
	}
}

func TestPipeline_Ingest_CompensatesFailedWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := openStores(t)
	notes := st.notes
	idx := index_mocks.NewMockIndex(ctrl)
	summarizer := summarize_mocks.NewMockSummarizer(ctrl)
	splitter, _ := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	p := NewPipeline(notes, st.chunks, idx, summarizer, splitter, Options{})

	noteID := knowledge.NoteID("fail.txt", 1)
	summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Fail"))
	idx.EXPECT().DeleteByParent(gomock.Any(), noteID).Return(nil).Times(2)
	idx.EXPECT().ExistsHash(gomock.Any(), knowledge.TenantID(1), gomock.Any()).Return(false, nil)
	idx.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	idx.EXPECT().Delete(gomock.Any(), noteID).Return(nil)

	_, err := p.Ingest(context.Background(), Request{Text: lifeOSText, SourceReference: "fail.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if !errors.Is(err, knowledge.ErrIndexUnavailable) {
		t.Fatalf("Ingest() error = %v, want ErrIndexUnavailable", err)
	}
	if _, err := notes.GetByID(context.Background(), noteID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want the note removed", err)
	}
}

// A failed re-ingestion removes the document entirely, including the version
// stored before it, so the document is never half old and half new.
func TestPipeline_Ingest_FailedReingestRemovesPriorVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	st := openStores(t)
	idx := index_mocks.NewMockIndex(ctrl)
	summarizer := summarize_mocks.NewMockSummarizer(ctrl)
	splitter, _ := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	p := NewPipeline(st.notes, st.chunks, idx, summarizer, splitter, Options{})

	noteID := knowledge.NoteID("handbook.txt", 1)
	prior := &knowledge.SummaryNote{ID: noteID, Title: "Old Handbook", SourceReference: "handbook.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, HasRaw: true}
	if _, err := st.notes.Upsert(ctx, prior); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	oldChunk := &knowledge.RawChunk{ID: knowledge.ChunkID(noteID, 0), ParentNoteID: noteID, OwnerTenant: 1, Scope: knowledge.ScopePrivate, Content: "old text", ContentHash: knowledge.ContentHash("old text")}
	if err := st.chunks.ReplaceForNote(ctx, noteID, []*knowledge.RawChunk{oldChunk}); err != nil {
		t.Fatalf("ReplaceForNote() error = %v", err)
	}

	summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("New Handbook"))
	idx.EXPECT().DeleteByParent(gomock.Any(), noteID).Return(nil).Times(2)
	idx.EXPECT().ExistsHash(gomock.Any(), knowledge.TenantID(1), gomock.Any()).Return(false, nil).AnyTimes()
	idx.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	idx.EXPECT().Delete(gomock.Any(), noteID).Return(nil)

	_, err := p.Ingest(ctx, Request{Text: lifeOSText, SourceReference: "handbook.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if !errors.Is(err, knowledge.ErrIndexUnavailable) {
		t.Fatalf("Ingest() error = %v, want ErrIndexUnavailable", err)
	}
	if _, err := st.notes.GetByID(ctx, noteID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want the prior version removed", err)
	}
	chunks, err := st.chunks.ListByNotes(ctx, []string{noteID})
	if err != nil {
		t.Fatalf("ListByNotes() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("ListByNotes() = %d chunks, want the prior chunks removed", len(chunks))
	}
}

func TestPipeline_Ingest_ConcurrentDuplicateRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := openStores(t)
	idx := index_mocks.NewMockIndex(ctrl)
	summarizer := summarize_mocks.NewMockSummarizer(ctrl)
	splitter, _ := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	p := NewPipeline(st.notes, st.chunks, idx, summarizer, splitter, Options{})

	summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(summaryFor("Race"))
	idx.EXPECT().DeleteByParent(gomock.Any(), gomock.Any()).Return(nil)
	idx.EXPECT().ExistsHash(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	idx.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, records ...index.Record) error {
		return &index.DuplicateError{Records: records[1:]}
	})

	res, err := p.Ingest(context.Background(), Request{Text: lifeOSText, SourceReference: "race.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.ChunkCount != 0 || res.SkippedDuplicates != 1 {
		t.Errorf("Result = %+v, want the rejected chunk counted as skipped", res)
	}
}

func TestPipeline_IngestBatch(t *testing.T) {
	env := newTestEnv(t, DefaultChunkSize, DefaultChunkOverlap, Options{Concurrency: 2})
	ctx := context.Background()

	var mu sync.Mutex
	seen := map[string]bool{}
	env.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, text, source string) (*knowledge.SummaryNote, error) {
			mu.Lock()
			seen[source] = true
			mu.Unlock()
			if source == "bad.txt" {
				return nil, errors.New("summarizer down")
			}
			return summaryFor("Batch " + source)(ctx, text, source)
		}).Times(3)

	reqs := []Request{
		{Text: "Notes on sleep and recovery.", SourceReference: "sleep.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true},
		{Text: "This one fails.", SourceReference: "bad.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true},
		{Text: "Notes on deep work and focus.", SourceReference: "focus.txt", OwnerTenant: 1, Scope: knowledge.ScopePrivate, StoreRaw: true},
	}
	results := env.pipeline.IngestBatch(ctx, reqs)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Request.SourceReference != reqs[i].SourceReference {
			t.Errorf("result %d is for %s, want %s", i, r.Request.SourceReference, reqs[i].SourceReference)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected errors: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, knowledge.ErrSummarization) {
		t.Errorf("results[1].Err = %v, want ErrSummarization", results[1].Err)
	}
	if len(seen) != 3 {
		t.Errorf("summarized %d sources, want 3", len(seen))
	}

	notes, _ := env.notes.ListByTenant(ctx, 1, 0)
	if len(notes) != 2 {
		t.Errorf("notes = %d, want 2", len(notes))
	}
}
