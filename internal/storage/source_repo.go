package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source_store.go -package=mocks lifeos-kb/internal/storage SourceStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lifeos-kb/internal/knowledge"
)

// SourceStore defines the interface for watched source operations.
type SourceStore interface {
	// Create inserts a source and fills in its ID and CreatedAt.
	Create(ctx context.Context, src *Source) error
	GetByID(ctx context.Context, id int64) (*Source, error)
	// FindByURL returns ErrNotFound if owner does not watch url.
	FindByURL(ctx context.Context, url string, owner knowledge.TenantID) (*Source, error)
	// ListStale returns active sources due for a crawl at now.
	ListStale(ctx context.Context, now time.Time) ([]*Source, error)
	MarkCrawled(ctx context.Context, id int64, title string, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// SourceRepo provides methods for watched source operations.
type SourceRepo struct {
	db *sql.DB
}

// NewSourceRepo creates a new SourceRepo.
func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, url, owner_tenant, scope, title, refresh_hours, is_active, last_crawled_at,
	error_count, last_error, created_at`

// Create inserts a new watched source.
func (r *SourceRepo) Create(ctx context.Context, src *Source) error {
	if src.RefreshHours <= 0 {
		src.RefreshHours = 24
	}
	src.IsActive = true
	src.CreatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (url, owner_tenant, scope, title, refresh_hours, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		src.URL, int64(src.OwnerTenant), string(src.Scope), src.Title, src.RefreshHours, formatTime(src.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read source id: %w", err)
	}
	src.ID = id
	return nil
}

// GetByID gets a source by ID.
func (r *SourceRepo) GetByID(ctx context.Context, id int64) (*Source, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+sourceColumns+" FROM sources WHERE id = ?", id)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	return src, nil
}

// FindByURL gets the source watched by owner for url.
func (r *SourceRepo) FindByURL(ctx context.Context, url string, owner knowledge.TenantID) (*Source, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" FROM sources WHERE url = ? AND owner_tenant = ?", url, int64(owner))
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	return src, nil
}

// ListStale returns sources never crawled or older than their refresh interval.
func (r *SourceRepo) ListStale(ctx context.Context, now time.Time) ([]*Source, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sourceColumns+" FROM sources WHERE is_active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var stale []*Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		if src.Stale(now) {
			stale = append(stale, src)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}
	return stale, nil
}

// MarkCrawled records a successful crawl and resets the error count.
func (r *SourceRepo) MarkCrawled(ctx context.Context, id int64, title string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sources SET last_crawled_at = ?, error_count = 0, last_error = '',
		 title = CASE WHEN ? = '' THEN title ELSE ? END WHERE id = ?`,
		formatTime(at), title, title, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark source crawled: %w", err)
	}
	return nil
}

// MarkFailed increments the error count and records the reason.
func (r *SourceRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sources SET error_count = error_count + 1, last_error = ? WHERE id = ?", reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark source failed: %w", err)
	}
	return nil
}

func scanSource(row rowScanner) (*Source, error) {
	var (
		src         Source
		owner       int64
		scope       string
		lastCrawled sql.NullString
		createdAt   string
	)
	err := row.Scan(&src.ID, &src.URL, &owner, &scope, &src.Title, &src.RefreshHours, &src.IsActive,
		&lastCrawled, &src.ErrorCount, &src.LastError, &createdAt)
	if err != nil {
		return nil, err
	}
	src.OwnerTenant = knowledge.TenantID(owner)
	src.Scope = knowledge.Scope(scope)
	if lastCrawled.Valid {
		t, err := parseTime(lastCrawled.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_crawled_at timestamp: %w", err)
		}
		src.LastCrawledAt = &t
	}
	if src.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	return &src, nil
}
