package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks lifeos-kb/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lifeos-kb/internal/knowledge"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// NoteStore defines the interface for summary note storage operations.
type NoteStore interface {
	// Upsert inserts the note or overwrites the note with the same ID.
	// The ID is derived from source reference and owner when empty.
	Upsert(ctx context.Context, note *knowledge.SummaryNote) (string, error)
	// GetByID returns ErrNotFound if the note does not exist.
	GetByID(ctx context.Context, id string) (*knowledge.SummaryNote, error)
	// ListByTenant returns notes visible to tenant, most recently updated first.
	ListByTenant(ctx context.Context, tenant knowledge.TenantID, limit int) ([]*knowledge.SummaryNote, error)
	// Delete removes the note and, by cascade, its chunks.
	Delete(ctx context.Context, id string) error
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db, now: time.Now}
}

const noteColumns = `id, title, keywords, disciplines, actions, essence, core_idea, action_items,
	source_reference, scope, owner_tenant, has_raw, created_at, updated_at`

// Upsert inserts a new note or updates an existing one.
// created_at is preserved across updates.
func (r *NoteRepo) Upsert(ctx context.Context, note *knowledge.SummaryNote) (string, error) {
	if note.ID == "" {
		note.ID = knowledge.NoteID(note.SourceReference, note.OwnerTenant)
	}
	if !note.Scope.Valid() {
		return "", fmt.Errorf("invalid scope %q", note.Scope)
	}

	keywords, err := marshalList(note.Keywords)
	if err != nil {
		return "", err
	}
	disciplines, err := marshalList(note.Disciplines)
	if err != nil {
		return "", err
	}
	actions, err := marshalList(note.Actions)
	if err != nil {
		return "", err
	}

	now := formatTime(r.now())
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 title = excluded.title, keywords = excluded.keywords, disciplines = excluded.disciplines,
		 actions = excluded.actions, essence = excluded.essence, core_idea = excluded.core_idea,
		 action_items = excluded.action_items, scope = excluded.scope, has_raw = excluded.has_raw,
		 updated_at = excluded.updated_at`,
		note.ID, note.Title, keywords, disciplines, actions, note.Essence, note.CoreIdea, note.ActionItems,
		note.SourceReference, string(note.Scope), int64(note.OwnerTenant), note.HasRaw, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert note: %w", err)
	}

	return note.ID, nil
}

// GetByID gets a note by ID.
func (r *NoteRepo) GetByID(ctx context.Context, id string) (*knowledge.SummaryNote, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// ListByTenant returns notes owned by tenant or GLOBAL.
func (r *NoteRepo) ListByTenant(ctx context.Context, tenant knowledge.TenantID, limit int) ([]*knowledge.SummaryNote, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE owner_tenant = ? OR scope = 'GLOBAL' ORDER BY updated_at DESC LIMIT ?",
		int64(tenant), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var notes []*knowledge.SummaryNote
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// Delete deletes a note. Deleting a missing note is not an error.
func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*knowledge.SummaryNote, error) {
	var (
		note                          knowledge.SummaryNote
		keywords, disciplines, action string
		scope                         string
		owner                         int64
		createdAt, updatedAt          string
	)
	err := row.Scan(&note.ID, &note.Title, &keywords, &disciplines, &action, &note.Essence, &note.CoreIdea,
		&note.ActionItems, &note.SourceReference, &scope, &owner, &note.HasRaw, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	note.Scope = knowledge.Scope(scope)
	note.OwnerTenant = knowledge.TenantID(owner)

	if note.Keywords, err = unmarshalList(keywords); err != nil {
		return nil, err
	}
	if note.Disciplines, err = unmarshalList(disciplines); err != nil {
		return nil, err
	}
	if note.Actions, err = unmarshalList(action); err != nil {
		return nil, err
	}
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &note, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func unmarshalList(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return items, nil
}
