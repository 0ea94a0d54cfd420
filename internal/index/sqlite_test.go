package index

import (
	"context"
	"errors"
	"hash/fnv"
	"path/filepath"
	"testing"

	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/storage"
)

// wordEmbedder embeds texts as hashed bags of words.
type wordEmbedder struct {
	dims  int
	calls int
	err   error
}

func (e *wordEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dims)
		for _, token := range Tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(token))
			vec[h.Sum32()%uint32(e.dims)]++
		}
		out[i] = vec
	}
	return out, nil
}

func newTestIndex(t *testing.T) (*SQLIndex, *wordEmbedder) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	emb := &wordEmbedder{dims: 64}
	return NewSQLIndex(db, emb), emb
}

func noteRecord(id string, tenant knowledge.TenantID, scope knowledge.Scope, text string) Record {
	return Record{ID: id, Kind: KindNote, OwnerTenant: tenant, Scope: scope, Title: id, Text: text}
}

func chunkRecord(id, parent string, tenant knowledge.TenantID, text string) Record {
	return Record{ID: id, Kind: KindChunk, ParentID: parent, OwnerTenant: tenant, Scope: knowledge.ScopePrivate, Text: text}
}

func TestSQLIndex_TenantIsolation(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	err := idx.Insert(ctx,
		noteRecord("n1", 1, knowledge.ScopePrivate, "garden planning notes"),
		noteRecord("n2", 2, knowledge.ScopePrivate, "garden planning secrets"),
		noteRecord("g1", knowledge.SystemTenant, knowledge.ScopeGlobal, "garden planning handbook"),
	)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	tests := []struct {
		name   string
		tenant knowledge.TenantID
		want   map[string]bool
	}{
		{"owner sees own and global", 1, map[string]bool{"n1": true, "g1": true}},
		{"other tenant", 2, map[string]bool{"n2": true, "g1": true}},
		{"stranger sees only global", 9, map[string]bool{"g1": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.HybridQuery(ctx, Query{Text: "garden planning", Kind: KindNote, Tenant: tt.tenant, K: 10, Alpha: DefaultAlpha})
			if err != nil {
				t.Fatalf("HybridQuery() error = %v", err)
			}
			if len(hits) != len(tt.want) {
				t.Fatalf("HybridQuery() returned %d hits, want %d", len(hits), len(tt.want))
			}
			for _, h := range hits {
				if !tt.want[h.Record.ID] {
					t.Errorf("HybridQuery() leaked %s to tenant %d", h.Record.ID, tt.tenant)
				}
				if !knowledge.VisibleTo(h.Record.OwnerTenant, h.Record.Scope, tt.tenant) {
					t.Errorf("hit %s not visible to tenant %d", h.Record.ID, tt.tenant)
				}
			}
		})
	}
}

func TestSQLIndex_DuplicateChunks(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Insert(ctx, chunkRecord("c1", "n1", 1, "shared paragraph")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	exists, err := idx.ExistsHash(ctx, 1, knowledge.ContentHash("shared paragraph"))
	if err != nil {
		t.Fatalf("ExistsHash() error = %v", err)
	}
	if !exists {
		t.Error("ExistsHash() = false, want true")
	}
	exists, err = idx.ExistsHash(ctx, 2, knowledge.ContentHash("shared paragraph"))
	if err != nil {
		t.Fatalf("ExistsHash() error = %v", err)
	}
	if exists {
		t.Error("ExistsHash() for other tenant = true, want false")
	}

	err = idx.Insert(ctx,
		chunkRecord("c2", "n2", 1, "shared paragraph"),
		chunkRecord("c3", "n2", 1, "fresh paragraph"),
	)
	var dupErr *DuplicateError
	if !errors.As(err, &dupErr) {
		t.Fatalf("Insert() error = %v, want *DuplicateError", err)
	}
	if !errors.Is(err, knowledge.ErrDuplicateChunk) {
		t.Error("DuplicateError does not match ErrDuplicateChunk")
	}
	if _, ok := dupErr.IDs()["c2"]; !ok || len(dupErr.Records) != 1 {
		t.Errorf("DuplicateError records = %+v, want only c2", dupErr.Records)
	}

	// The non-duplicate in the same batch was stored.
	exists, err = idx.ExistsHash(ctx, 1, knowledge.ContentHash("fresh paragraph"))
	if err != nil {
		t.Fatalf("ExistsHash() error = %v", err)
	}
	if !exists {
		t.Error("fresh chunk was not stored")
	}

	// Same text for a different tenant is not a duplicate.
	if err := idx.Insert(ctx, chunkRecord("c4", "n3", 2, "shared paragraph")); err != nil {
		t.Errorf("Insert() for other tenant error = %v", err)
	}
}

func TestSQLIndex_ReinsertSameID(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	rec := chunkRecord("c1", "n1", 1, "paragraph")
	if err := idx.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := idx.Insert(ctx, rec); err != nil {
		t.Errorf("re-Insert() same id error = %v, want nil", err)
	}
}

func TestSQLIndex_ParentRestriction(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	err := idx.Insert(ctx,
		chunkRecord("a0", "na", 1, "focus techniques deep work"),
		chunkRecord("b0", "nb", 1, "focus techniques pomodoro"),
	)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	hits, err := idx.HybridQuery(ctx, Query{Text: "focus", Kind: KindChunk, Tenant: 1, ParentIDs: []string{"na"}, K: 3, Alpha: DefaultAlpha})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Record.ID != "a0" {
		t.Errorf("HybridQuery() with parent filter = %+v, want only a0", hits)
	}

	hits, err = idx.HybridQuery(ctx, Query{Text: "focus", Kind: KindChunk, Tenant: 1, ParentIDs: []string{}, K: 3, Alpha: DefaultAlpha})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("HybridQuery() with empty parent set returned %d hits, want 0", len(hits))
	}

	if err := idx.DeleteByParent(ctx, "na"); err != nil {
		t.Fatalf("DeleteByParent() error = %v", err)
	}
	hits, err = idx.HybridQuery(ctx, Query{Text: "focus", Kind: KindChunk, Tenant: 1, K: 3, Alpha: DefaultAlpha})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Record.ID != "b0" {
		t.Errorf("HybridQuery() after DeleteByParent = %+v, want only b0", hits)
	}
}

func TestSQLIndex_ScoresAreBlended(t *testing.T) {
	idx, emb := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Insert(ctx, noteRecord("n1", 1, knowledge.ScopePrivate, "sleep hygiene routine")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	calls := emb.calls
	hits, err := idx.HybridQuery(ctx, Query{Text: "sleep routine", Kind: KindNote, Tenant: 1, K: 1, Alpha: 0})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	if emb.calls != calls {
		t.Error("keyword-only query should not embed")
	}
	if len(hits) != 1 || hits[0].Score != hits[0].Keyword {
		t.Errorf("alpha 0 hit = %+v, want score == keyword", hits)
	}

	hits, err = idx.HybridQuery(ctx, Query{Text: "sleep routine", Kind: KindNote, Tenant: 1, K: 1, Alpha: 0.5})
	if err != nil {
		t.Fatalf("HybridQuery() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("HybridQuery() returned %d hits, want 1", len(hits))
	}
	h := hits[0]
	if want := Blend(0.5, h.Semantic, h.Keyword); h.Score != want {
		t.Errorf("Score = %v, want blend %v", h.Score, want)
	}
	if h.Score <= 0 || h.Score > 1 {
		t.Errorf("Score = %v, want in (0, 1]", h.Score)
	}
}

func TestSQLIndex_QueryValidation(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	tests := []struct {
		name string
		q    Query
	}{
		{"zero k", Query{Text: "x", Kind: KindNote, K: 0, Alpha: 0.5}},
		{"bad kind", Query{Text: "x", Kind: "doc", K: 1, Alpha: 0.5}},
		{"alpha too large", Query{Text: "x", Kind: KindNote, K: 1, Alpha: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := idx.HybridQuery(ctx, tt.q); err == nil {
				t.Error("HybridQuery() expected error")
			}
		})
	}
}

func TestSQLIndex_EmbedderFailure(t *testing.T) {
	idx, emb := newTestIndex(t)
	emb.err = errors.New("connection refused")

	err := idx.Insert(context.Background(), noteRecord("n1", 1, knowledge.ScopePrivate, "text"))
	if !errors.Is(err, knowledge.ErrIndexUnavailable) {
		t.Errorf("Insert() error = %v, want ErrIndexUnavailable", err)
	}
}

func TestSQLIndex_InvalidRecord(t *testing.T) {
	idx, _ := newTestIndex(t)
	tests := []struct {
		name string
		rec  Record
	}{
		{"missing id", Record{Kind: KindNote, Scope: knowledge.ScopePrivate}},
		{"chunk without parent", Record{ID: "c", Kind: KindChunk, Scope: knowledge.ScopePrivate}},
		{"bad scope", Record{ID: "n", Kind: KindNote, Scope: "TEAM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := idx.Insert(context.Background(), tt.rec); err == nil {
				t.Error("Insert() expected error")
			}
		})
	}
}
