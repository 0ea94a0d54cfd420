package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"lifeos-kb/internal/knowledge"
)

const (
	// ChunkerVersion identifies the splitting algorithm.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v2.0"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0

	statsNoteLimit = 10000
)

// CoverageStats describes what a tenant can see in the knowledge base.
type CoverageStats struct {
	// Notes is the number of visible summary notes.
	Notes int `json:"notes"`
	// NotesWith0Chunks counts notes stored without raw chunks.
	NotesWith0Chunks int `json:"notes_with_0_chunks"`
	// Chunks is the number of raw chunks belonging to visible notes.
	Chunks int `json:"chunks"`
	// OwnedChunks is the number of chunks owned by the tenant itself.
	OwnedChunks int `json:"owned_chunks"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion  string          `json:"chunker_version"`
	// IndexVersion is a hash of chunker version, embedding model and split parameters.
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CoverageStats computes coverage statistics for the records visible to tenant.
func (p *Pipeline) CoverageStats(ctx context.Context, tenant knowledge.TenantID, embeddingModel string) (*CoverageStats, error) {
	notes, err := p.notes.ListByTenant(ctx, tenant, statsNoteLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	chunks, err := p.chunks.ListByNotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	owned, err := p.chunks.CountByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	withChunks := make(map[string]struct{}, len(notes))
	for _, c := range chunks {
		withChunks[c.ParentNoteID] = struct{}{}
	}

	return &CoverageStats{
		Notes:            len(notes),
		NotesWith0Chunks: len(notes) - len(withChunks),
		Chunks:           len(chunks),
		OwnedChunks:      owned,
		ChunkTokenStats:  ChunkStats(chunks),
		ChunkerVersion:   ChunkerVersion,
		IndexVersion:     p.IndexVersion(embeddingModel),
	}, nil
}

// IndexVersion identifies an index build (chunker + embedding model + params).
func (p *Pipeline) IndexVersion(embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|chunkOverlap=%d",
		ChunkerVersion, embeddingModel, p.splitter.size, p.splitter.overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// ChunkStats estimates token statistics for chunks.
func ChunkStats(chunks []*knowledge.RawChunk) ChunkTokenStats {
	if len(chunks) == 0 {
		return ChunkTokenStats{}
	}
	tokenCounts := make([]int, 0, len(chunks))
	for _, c := range chunks {
		tokenCount := int(math.Round(float64(utf8.RuneCountInString(c.Content)) / TokensPerRune))
		if tokenCount < 1 {
			tokenCount = 1
		}
		tokenCounts = append(tokenCounts, tokenCount)
	}
	return computeTokenStats(tokenCounts)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
