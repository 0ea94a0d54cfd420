package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-sqlite3"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
)

// SQLIndex implements Index on the index_records table of the application database.
// Vectors are compared by brute force; a partial unique index on
// (owner_tenant, content_hash) for chunks makes duplicate rejection atomic.
type SQLIndex struct {
	db       *sql.DB
	embedder Embedder
}

// NewSQLIndex creates a SQLIndex. The schema is created by storage.Migrate.
func NewSQLIndex(db *sql.DB, embedder Embedder) *SQLIndex {
	return &SQLIndex{db: db, embedder: embedder}
}

const recordColumns = `id, kind, parent_id, owner_tenant, scope, title, source, content, content_hash, chunk_index`

// Insert embeds and stores records.
func (s *SQLIndex) Insert(ctx context.Context, records ...Record) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if err := records[i].validate(); err != nil {
			return err
		}
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return knowledge.Unavailable("embed", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(vectors))
	}

	var dups []Record
	for i, r := range records {
		err := s.insertOne(ctx, r, vectors[i])
		if isUniqueViolation(err) && r.Kind == KindChunk {
			logger.DebugContext(ctx, "duplicate chunk rejected", "id", r.ID, "tenant", r.OwnerTenant, "hash", r.ContentHash)
			dups = append(dups, r)
			continue
		}
		if err != nil {
			return knowledge.Unavailable("insert", err)
		}
	}

	if len(dups) > 0 {
		return &DuplicateError{Records: dups}
	}
	return nil
}

// insertOne replaces the record with the same ID.
func (s *SQLIndex) insertOne(ctx context.Context, r Record, vec []float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_records WHERE id = ?", r.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO index_records (`+recordColumns+`, vector) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.ParentID, int64(r.OwnerTenant), string(r.Scope), r.Title, r.Source,
		r.Text, r.ContentHash, r.ChunkIndex, encodeVector(vec),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ExistsHash reports whether tenant owns a chunk with hash.
func (s *SQLIndex) ExistsHash(ctx context.Context, tenant knowledge.TenantID, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM index_records WHERE kind = 'chunk' AND owner_tenant = ? AND content_hash = ? LIMIT 1",
		int64(tenant), hash,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, knowledge.Unavailable("exists_hash", err)
	}
	return true, nil
}

// HybridQuery scores every visible candidate and returns the best K.
func (s *SQLIndex) HybridQuery(ctx context.Context, q Query) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.ParentIDs != nil && len(q.ParentIDs) == 0 {
		return []Hit{}, nil
	}

	stmt := "SELECT " + recordColumns + ", vector FROM index_records WHERE kind = ? AND (owner_tenant = ? OR scope = 'GLOBAL')"
	args := []any{string(q.Kind), int64(q.Tenant)}
	if len(q.ParentIDs) > 0 {
		stmt += " AND parent_id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(q.ParentIDs)), ",") + ")"
		for _, id := range q.ParentIDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, knowledge.Unavailable("query", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	type candidate struct {
		record Record
		vector []float32
	}
	var candidates []candidate
	for rows.Next() {
		var (
			r      Record
			kind   string
			owner  int64
			scope  string
			vector []byte
		)
		if err := rows.Scan(&r.ID, &kind, &r.ParentID, &owner, &scope, &r.Title, &r.Source, &r.Text,
			&r.ContentHash, &r.ChunkIndex, &vector); err != nil {
			return nil, knowledge.Unavailable("query", err)
		}
		r.Kind = Kind(kind)
		r.OwnerTenant = knowledge.TenantID(owner)
		r.Scope = knowledge.Scope(scope)
		candidates = append(candidates, candidate{record: r, vector: decodeVector(vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, knowledge.Unavailable("query", err)
	}
	if len(candidates) == 0 {
		return []Hit{}, nil
	}

	var queryVec []float32
	if q.Alpha > 0 {
		vecs, err := s.embedder.EmbedTexts(ctx, []string{q.Text})
		if err != nil {
			return nil, knowledge.Unavailable("embed", err)
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embedding count mismatch: expected 1, got %d", len(vecs))
		}
		queryVec = vecs[0]
	}

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		semantic := 0.0
		if queryVec != nil {
			semantic = NormalizeScore(MetricCosine, Cosine(queryVec, c.vector))
		}
		hits = append(hits, scoreHit(q, c.record, semantic))
	}

	hits = rank(hits, q.K)
	logger.DebugContext(ctx, "hybrid query completed", "kind", q.Kind, "tenant", q.Tenant, "candidates", len(candidates), "results", len(hits))
	return hits, nil
}

// DeleteByParent removes the chunk records of a note.
func (s *SQLIndex) DeleteByParent(ctx context.Context, noteID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM index_records WHERE kind = 'chunk' AND parent_id = ?", noteID); err != nil {
		return knowledge.Unavailable("delete", err)
	}
	return nil
}

// Delete removes records by ID.
func (s *SQLIndex) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	stmt := "DELETE FROM index_records WHERE id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return knowledge.Unavailable("delete", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLIndex) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return knowledge.Unavailable("ping", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
