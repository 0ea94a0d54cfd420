package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks lifeos-kb/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lifeos-kb/internal/knowledge"
)

// ChunkStore defines the interface for raw chunk storage operations.
type ChunkStore interface {
	// ReplaceForNote deletes every chunk of noteID and inserts chunks in one transaction.
	ReplaceForNote(ctx context.Context, noteID string, chunks []*knowledge.RawChunk) error
	// ListByNotes returns the chunks of the given notes ordered by note then chunk_index.
	ListByNotes(ctx context.Context, noteIDs []string) ([]*knowledge.RawChunk, error)
	// CountByTenant returns the number of chunks owned by tenant.
	CountByTenant(ctx context.Context, tenant knowledge.TenantID) (int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForNote replaces the full chunk set of a note.
// Every chunk must reference noteID; the parent note must exist.
func (r *ChunkRepo) ReplaceForNote(ctx context.Context, noteID string, chunks []*knowledge.RawChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE parent_note_id = ?", noteID); err != nil {
		return fmt.Errorf("failed to delete chunks by note: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO chunks (id, parent_note_id, owner_tenant, scope, chunk_index, content, content_hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare chunk insert: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, c := range chunks {
			if c.ParentNoteID != noteID {
				return fmt.Errorf("chunk %s belongs to note %s, not %s", c.ID, c.ParentNoteID, noteID)
			}
			if _, err := stmt.ExecContext(ctx, c.ID, c.ParentNoteID, int64(c.OwnerTenant), string(c.Scope),
				c.ChunkIndex, c.Content, c.ContentHash); err != nil {
				return fmt.Errorf("failed to insert chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListByNotes returns an empty slice when noteIDs is empty.
func (r *ChunkRepo) ListByNotes(ctx context.Context, noteIDs []string) ([]*knowledge.RawChunk, error) {
	if len(noteIDs) == 0 {
		return []*knowledge.RawChunk{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(noteIDs)), ",")
	args := make([]any, len(noteIDs))
	for i, id := range noteIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_note_id, owner_tenant, scope, chunk_index, content, content_hash
		 FROM chunks WHERE parent_note_id IN (`+placeholders+`)
		 ORDER BY parent_note_id, chunk_index`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := make([]*knowledge.RawChunk, 0)
	for rows.Next() {
		var (
			c     knowledge.RawChunk
			owner int64
			scope string
		)
		if err := rows.Scan(&c.ID, &c.ParentNoteID, &owner, &scope, &c.ChunkIndex, &c.Content, &c.ContentHash); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.OwnerTenant = knowledge.TenantID(owner)
		c.Scope = knowledge.Scope(scope)
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return chunks, nil
}

// CountByTenant counts chunks owned by tenant. GLOBAL chunks count for SystemTenant.
func (r *ChunkRepo) CountByTenant(ctx context.Context, tenant knowledge.TenantID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE owner_tenant = ?", int64(tenant)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
