// Package retrieval runs two-phase hybrid search: summary notes first, then
// the raw chunks of the best notes as supporting detail.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/index"
	"lifeos-kb/internal/knowledge"
)

const (
	// DefaultK is the number of notes returned by the concept phase.
	DefaultK = 4
	// MaxK caps the concept phase.
	MaxK = 20
	// DetailFanOut is the number of chunks returned by the detail phase.
	DetailFanOut = 3
)

// ItemType tells notes and chunks apart in a result list.
type ItemType string

const (
	ItemNote  ItemType = "note"
	ItemChunk ItemType = "chunk"
)

// ResultItem is one entry of a search result. Scores are in [0, 1], higher is better.
type ResultItem struct {
	Type       ItemType `json:"type"`
	Content    string   `json:"content"`
	Source     string   `json:"source"`
	Score      float64  `json:"score"`
	Title      string   `json:"title,omitempty"`
	NoteID     string   `json:"note_id"`
	ChunkIndex int      `json:"chunk_index,omitempty"`
}

// Orchestrator runs hybrid searches against an index.
type Orchestrator struct {
	index index.Index
	alpha float64
}

// NewOrchestrator creates an orchestrator blending semantic and keyword scores with alpha.
func NewOrchestrator(idx index.Index, alpha float64) *Orchestrator {
	return &Orchestrator{index: idx, alpha: alpha}
}

// Search returns the top k notes visible to tenant followed by up to
// DetailFanOut chunks drawn only from those notes. Notes and chunks are
// ranked separately and never merged into one score space.
func (o *Orchestrator) Search(ctx context.Context, query string, tenant knowledge.TenantID, k int) ([]ResultItem, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	notes, err := o.index.HybridQuery(ctx, index.Query{
		Text:   query,
		Kind:   index.KindNote,
		Tenant: tenant,
		K:      k,
		Alpha:  o.alpha,
	})
	if err != nil {
		return nil, knowledge.Unavailable("concept search", err)
	}

	items := make([]ResultItem, 0, len(notes)+DetailFanOut)
	targetIDs := make([]string, 0, len(notes))
	for _, h := range notes {
		targetIDs = append(targetIDs, h.Record.ID)
		items = append(items, ResultItem{
			Type:    ItemNote,
			Content: h.Record.Text,
			Source:  h.Record.Source,
			Score:   h.Score,
			Title:   h.Record.Title,
			NoteID:  h.Record.ID,
		})
	}

	if len(targetIDs) == 0 {
		logger.DebugContext(ctx, "no notes matched, skipping detail phase", "tenant", tenant)
		return items, nil
	}

	chunks, err := o.index.HybridQuery(ctx, index.Query{
		Text:      query,
		Kind:      index.KindChunk,
		Tenant:    tenant,
		ParentIDs: targetIDs,
		K:         DetailFanOut,
		Alpha:     o.alpha,
	})
	if err != nil {
		return nil, knowledge.Unavailable("detail search", err)
	}
	for _, h := range chunks {
		items = append(items, ResultItem{
			Type:       ItemChunk,
			Content:    h.Record.Text,
			Source:     h.Record.Source,
			Score:      h.Score,
			Title:      h.Record.Title,
			NoteID:     h.Record.ParentID,
			ChunkIndex: h.Record.ChunkIndex,
		})
	}

	logger.DebugContext(ctx, "hybrid search completed",
		"tenant", tenant,
		"notes", len(notes),
		"chunks", len(chunks))
	return items, nil
}

// TopScore returns the best score among items, or 0 when there are none.
func TopScore(items []ResultItem) float64 {
	var top float64
	for _, it := range items {
		if it.Score > top {
			top = it.Score
		}
	}
	return top
}

// Render formats items as prompt context: notes as concepts, chunks as cited details.
func Render(items []ResultItem) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch it.Type {
		case ItemNote:
			fmt.Fprintf(&b, "[Concept] %s (source: %s)\n%s", it.Title, it.Source, it.Content)
		default:
			fmt.Fprintf(&b, "[Detail] %s, part %d (source: %s)\n%s", it.Title, it.ChunkIndex+1, it.Source, it.Content)
		}
	}
	return b.String()
}
