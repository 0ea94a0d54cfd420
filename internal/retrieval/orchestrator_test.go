package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"lifeos-kb/internal/index"
	index_mocks "lifeos-kb/internal/index/mocks"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/llm"
	"lifeos-kb/internal/storage"
)

func noteHit(id, source string, score float64) index.Hit {
	return index.Hit{
		Record: index.Record{ID: id, Kind: index.KindNote, Title: "Title " + id, Source: source, Text: "note " + id},
		Score:  score,
	}
}

func chunkHit(id, parent string, idx int, score float64) index.Hit {
	return index.Hit{
		Record: index.Record{ID: id, Kind: index.KindChunk, ParentID: parent, Source: "src", Text: "chunk " + id, ChunkIndex: idx},
		Score:  score,
	}
}

func TestOrchestrator_Search_TwoPhases(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	idx := index_mocks.NewMockIndex(ctrl)
	o := NewOrchestrator(idx, 0.5)
	ctx := context.Background()

	gomock.InOrder(
		idx.EXPECT().HybridQuery(ctx, index.Query{Text: "focus", Kind: index.KindNote, Tenant: 1, K: DefaultK, Alpha: 0.5}).
			Return([]index.Hit{noteHit("n1", "a.txt", 0.9), noteHit("n2", "b.txt", 0.4)}, nil),
		idx.EXPECT().HybridQuery(ctx, index.Query{Text: "focus", Kind: index.KindChunk, Tenant: 1, ParentIDs: []string{"n1", "n2"}, K: DetailFanOut, Alpha: 0.5}).
			Return([]index.Hit{chunkHit("c1", "n1", 2, 0.95)}, nil),
	)

	items, err := o.Search(ctx, "focus", 1, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Search() returned %d items, want 3", len(items))
	}
	// Notes come first even when a chunk scores higher.
	if items[0].Type != ItemNote || items[1].Type != ItemNote || items[2].Type != ItemChunk {
		t.Errorf("item types = %s, %s, %s; want note, note, chunk", items[0].Type, items[1].Type, items[2].Type)
	}
	if items[2].NoteID != "n1" || items[2].ChunkIndex != 2 {
		t.Errorf("chunk item = %+v, want parent n1 index 2", items[2])
	}
	if got := TopScore(items); got != 0.95 {
		t.Errorf("TopScore() = %v, want 0.95", got)
	}
}

func TestOrchestrator_Search_NoNotesSkipsDetailPhase(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	idx := index_mocks.NewMockIndex(ctrl)
	o := NewOrchestrator(idx, 0.5)

	idx.EXPECT().HybridQuery(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	items, err := o.Search(context.Background(), "anything", 1, 4)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Search() = %+v, want no items", items)
	}
}

func TestOrchestrator_Search_KBounds(t *testing.T) {
	tests := []struct {
		name  string
		k     int
		wantK int
	}{
		{name: "default", k: 0, wantK: DefaultK},
		{name: "negative", k: -3, wantK: DefaultK},
		{name: "explicit", k: 7, wantK: 7},
		{name: "capped", k: 500, wantK: MaxK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			idx := index_mocks.NewMockIndex(ctrl)
			idx.EXPECT().HybridQuery(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, q index.Query) ([]index.Hit, error) {
					if q.K != tt.wantK {
						t.Errorf("K = %d, want %d", q.K, tt.wantK)
					}
					return nil, nil
				})

			if _, err := NewOrchestrator(idx, 0.5).Search(context.Background(), "q", 1, tt.k); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
		})
	}
}

func TestOrchestrator_Search_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	idx := index_mocks.NewMockIndex(ctrl)
	o := NewOrchestrator(idx, 0.5)

	if _, err := o.Search(context.Background(), "   ", 1, 4); err == nil {
		t.Error("Search() with empty query expected error")
	}

	idx.EXPECT().HybridQuery(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	_, err := o.Search(context.Background(), "q", 1, 4)
	if !errors.Is(err, knowledge.ErrIndexUnavailable) {
		t.Errorf("Search() error = %v, want ErrIndexUnavailable", err)
	}

	idx.EXPECT().HybridQuery(gomock.Any(), gomock.Any()).Return([]index.Hit{noteHit("n1", "a", 0.8)}, nil)
	idx.EXPECT().HybridQuery(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
	_, err = o.Search(context.Background(), "q", 1, 4)
	if !errors.Is(err, knowledge.ErrIndexUnavailable) {
		t.Errorf("Search() detail error = %v, want ErrIndexUnavailable", err)
	}
}

func TestOrchestrator_Search_SQLIndex(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	idx := index.NewSQLIndex(db, llm.NewHashEmbedder(128))
	ctx := context.Background()

	// Chunks whose parent note is not indexed must never surface.
	err = idx.Insert(ctx,
		index.Record{ID: "orphan-1", Kind: index.KindChunk, ParentID: "missing", OwnerTenant: 1, Scope: knowledge.ScopePrivate, Text: "sleep schedule tips"},
		index.Record{ID: "n1", Kind: index.KindNote, OwnerTenant: 2, Scope: knowledge.ScopePrivate, Title: "Sleep", Text: "sleep schedule"},
	)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	o := NewOrchestrator(idx, index.DefaultAlpha)
	items, err := o.Search(ctx, "sleep schedule", 1, 4)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Search() = %+v, want nothing for tenant 1", items)
	}

	items, err = o.Search(ctx, "sleep schedule", 2, 4)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 1 || items[0].NoteID != "n1" {
		t.Errorf("Search() = %+v, want note n1 for tenant 2", items)
	}
}

func TestRender(t *testing.T) {
	items := []ResultItem{
		{Type: ItemNote, Title: "LifeOS", Source: "manual.txt", Content: "A digital butler."},
		{Type: ItemChunk, Title: "LifeOS", Source: "manual.txt", Content: "stay focused", ChunkIndex: 0},
	}
	got := Render(items)
	want := "[Concept] LifeOS (source: manual.txt)\nA digital butler.\n\n[Detail] LifeOS, part 1 (source: manual.txt)\nstay focused"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if Render(nil) != "" {
		t.Error("Render(nil) should be empty")
	}
	if !strings.HasPrefix(Render(items[1:]), "[Detail]") {
		t.Error("chunk should render as detail")
	}
}
