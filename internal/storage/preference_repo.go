package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_preference_store.go -package=mocks lifeos-kb/internal/storage PreferenceStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lifeos-kb/internal/knowledge"
)

// PreferenceStore persists per-tenant preference overrides.
type PreferenceStore interface {
	// Get returns empty overrides when the tenant has none stored.
	Get(ctx context.Context, tenant knowledge.TenantID) (knowledge.PreferenceOverrides, error)
	Save(ctx context.Context, tenant knowledge.TenantID, o knowledge.PreferenceOverrides) error
}

// PreferenceRepo implements PreferenceStore on SQLite.
// Unset overrides are stored as NULL columns.
type PreferenceRepo struct {
	db *sql.DB
}

// NewPreferenceRepo creates a new PreferenceRepo.
func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get loads the overrides for tenant.
func (r *PreferenceRepo) Get(ctx context.Context, tenant knowledge.TenantID) (knowledge.PreferenceOverrides, error) {
	var mode, tone, refinement, model sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT mode, tone, refinement_level, model FROM preferences WHERE tenant = ?", int64(tenant),
	).Scan(&mode, &tone, &refinement, &model)
	if err == sql.ErrNoRows {
		return knowledge.PreferenceOverrides{}, nil
	}
	if err != nil {
		return knowledge.PreferenceOverrides{}, fmt.Errorf("failed to query preferences: %w", err)
	}

	return knowledge.PreferenceOverrides{
		Mode:            nullableString(mode),
		Tone:            nullableString(tone),
		RefinementLevel: nullableString(refinement),
		Model:           nullableString(model),
	}, nil
}

// Save replaces the stored overrides for tenant.
func (r *PreferenceRepo) Save(ctx context.Context, tenant knowledge.TenantID, o knowledge.PreferenceOverrides) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (tenant, mode, tone, refinement_level, model, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant) DO UPDATE SET
		 mode = excluded.mode, tone = excluded.tone, refinement_level = excluded.refinement_level,
		 model = excluded.model, updated_at = excluded.updated_at`,
		int64(tenant), toNull(o.Mode), toNull(o.Tone), toNull(o.RefinementLevel), toNull(o.Model),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
