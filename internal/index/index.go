// Package index stores searchable projections of notes and chunks and answers
// hybrid (semantic + keyword) queries over them, filtered by tenant visibility.
package index

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks lifeos-kb/internal/index Index,Embedder

import (
	"context"
	"fmt"

	"lifeos-kb/internal/knowledge"
)

// Kind distinguishes the two record tiers.
type Kind string

const (
	KindNote  Kind = "note"
	KindChunk Kind = "chunk"
)

// DefaultAlpha weights semantic and keyword scores equally.
const DefaultAlpha = 0.5

// Record is the unit stored by an Index.
type Record struct {
	ID          string
	Kind        Kind
	ParentID    string // note ID for chunks, empty for notes
	OwnerTenant knowledge.TenantID
	Scope       knowledge.Scope
	Title       string
	Source      string
	Text        string // searchable text, returned as content
	ContentHash string
	ChunkIndex  int
}

// Query describes one hybrid search.
type Query struct {
	Text   string
	Kind   Kind
	Tenant knowledge.TenantID
	// ParentIDs restricts chunk results to these notes when non-nil.
	// A non-nil empty slice matches nothing.
	ParentIDs []string
	K         int
	// Alpha is the semantic weight in [0, 1]; keyword weight is 1-Alpha.
	Alpha float64
}

// Hit is a ranked query result. Scores are in [0, 1], higher is more relevant.
type Hit struct {
	Record   Record
	Score    float64
	Semantic float64
	Keyword  float64
}

// Index is the embedding/keyword index primitive.
type Index interface {
	// Insert stores records. Chunk records whose content hash already exists for
	// their owner are not stored and are reported through a *DuplicateError;
	// the remaining records are stored.
	Insert(ctx context.Context, records ...Record) error
	// ExistsHash reports whether tenant already owns a chunk with hash.
	ExistsHash(ctx context.Context, tenant knowledge.TenantID, hash string) (bool, error)
	// HybridQuery returns up to K records visible to the query tenant, best first.
	HybridQuery(ctx context.Context, q Query) ([]Hit, error)
	// DeleteByParent removes every chunk record of a note.
	DeleteByParent(ctx context.Context, noteID string) error
	// Delete removes records by ID.
	Delete(ctx context.Context, ids ...string) error
	// Ping checks that the index is reachable.
	Ping(ctx context.Context) error
}

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DuplicateError lists chunk records rejected because their hash already exists for the owner.
type DuplicateError struct {
	Records []Record
}

func (e *DuplicateError) Error() string {
	if len(e.Records) == 1 {
		r := e.Records[0]
		return fmt.Sprintf("duplicate chunk %s for tenant %d (hash %s)", r.ID, r.OwnerTenant, r.ContentHash)
	}
	return fmt.Sprintf("%d duplicate chunks rejected", len(e.Records))
}

func (e *DuplicateError) Is(target error) bool { return target == knowledge.ErrDuplicateChunk }

// IDs returns the IDs of the rejected records.
func (e *DuplicateError) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(e.Records))
	for _, r := range e.Records {
		ids[r.ID] = struct{}{}
	}
	return ids
}

func (r *Record) validate() error {
	if r.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if r.Kind != KindNote && r.Kind != KindChunk {
		return fmt.Errorf("record %s: invalid kind %q", r.ID, r.Kind)
	}
	if !r.Scope.Valid() {
		return fmt.Errorf("record %s: invalid scope %q", r.ID, r.Scope)
	}
	if r.Kind == KindChunk && r.ParentID == "" {
		return fmt.Errorf("chunk record %s: parent id is required", r.ID)
	}
	if r.ContentHash == "" {
		r.ContentHash = knowledge.ContentHash(r.Text)
	}
	return nil
}

func (q *Query) validate() error {
	if q.K <= 0 {
		return fmt.Errorf("k must be greater than 0")
	}
	if q.Kind != KindNote && q.Kind != KindChunk {
		return fmt.Errorf("invalid kind %q", q.Kind)
	}
	if q.Alpha < 0 || q.Alpha > 1 {
		return fmt.Errorf("alpha must be between 0 and 1, got %v", q.Alpha)
	}
	return nil
}
