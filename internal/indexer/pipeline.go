package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/index"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/storage"
	"lifeos-kb/internal/summarize"
)

// DefaultSummarizeTimeout bounds a single summarizer call.
const DefaultSummarizeTimeout = 90 * time.Second

// Options tunes a Pipeline. Zero values select the defaults.
type Options struct {
	TokenBudget      int
	SummarizeTimeout time.Duration
	Concurrency      int
}

func (o Options) withDefaults() Options {
	if o.TokenBudget <= 0 {
		o.TokenBudget = summarize.DefaultTokenBudget
	}
	if o.SummarizeTimeout <= 0 {
		o.SummarizeTimeout = DefaultSummarizeTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Request is one document to ingest.
type Request struct {
	Text            string
	SourceReference string
	OwnerTenant     knowledge.TenantID
	Scope           knowledge.Scope
	StoreRaw        bool
}

// Result describes a completed ingestion.
type Result struct {
	Note              *knowledge.SummaryNote
	ChunkCount        int
	SkippedDuplicates int
	Truncated         bool
}

// Pipeline turns raw documents into a summary note plus deduplicated raw
// chunks, written to the document store and the index.
type Pipeline struct {
	notes      storage.NoteStore
	chunks     storage.ChunkStore
	index      index.Index
	summarizer summarize.Summarizer
	splitter   *Splitter
	opts       Options
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	notes storage.NoteStore,
	chunks storage.ChunkStore,
	idx index.Index,
	summarizer summarize.Summarizer,
	splitter *Splitter,
	opts Options,
) *Pipeline {
	return &Pipeline{
		notes:      notes,
		chunks:     chunks,
		index:      idx,
		summarizer: summarizer,
		splitter:   splitter,
		opts:       opts.withDefaults(),
	}
}

func (r Request) validate() error {
	if r.SourceReference == "" {
		return fmt.Errorf("source reference is required")
	}
	if !r.Scope.Valid() {
		return fmt.Errorf("invalid scope %q", r.Scope)
	}
	if r.OwnerTenant < 0 {
		return fmt.Errorf("owner tenant must not be negative")
	}
	return nil
}

// Ingest summarizes and indexes one document. A document is either fully
// indexed or absent afterwards: summarizer failures happen before any write,
// and a failed write removes everything stored for the note.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest request: %w", err)
	}
	owner := knowledge.EffectiveOwner(req.Scope, req.OwnerTenant)

	input, truncated := summarize.TruncateTokens(req.Text, p.opts.TokenBudget)
	if truncated {
		logger.WarnContext(ctx, "document truncated for summarization",
			"source", req.SourceReference,
			"budget_tokens", p.opts.TokenBudget,
			"original_chars", len(req.Text),
			"kept_chars", len(input))
	}

	note, err := p.summarizeWithTimeout(ctx, input, req.SourceReference)
	if err != nil {
		logger.ErrorContext(ctx, "summarization failed", "source", req.SourceReference, "error", err)
		return nil, err
	}

	note.ID = knowledge.NoteID(req.SourceReference, owner)
	note.OwnerTenant = owner
	note.Scope = req.Scope
	note.SourceReference = req.SourceReference
	note.HasRaw = req.StoreRaw

	var pieces []string
	if req.StoreRaw {
		pieces = p.splitter.Split(req.Text)
	}

	result := &Result{Note: note, Truncated: truncated}
	if err := p.write(ctx, note, pieces, result); err != nil {
		logger.ErrorContext(ctx, "ingestion failed, removing note", "note_id", note.ID, "error", err)
		p.compensate(ctx, note.ID)
		return nil, err
	}

	logger.InfoContext(ctx, "document ingested",
		"note_id", note.ID,
		"source", req.SourceReference,
		"owner_tenant", owner,
		"scope", req.Scope,
		"chunks", result.ChunkCount,
		"skipped_duplicates", result.SkippedDuplicates)
	return result, nil
}

func (p *Pipeline) summarizeWithTimeout(ctx context.Context, text, source string) (*knowledge.SummaryNote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.SummarizeTimeout)
	defer cancel()

	note, err := p.summarizer.Summarize(ctx, text, source)
	if err != nil {
		if errors.Is(err, knowledge.ErrSummarization) {
			return nil, err
		}
		return nil, &knowledge.SummarizationError{Source: source, Err: err}
	}
	if note == nil {
		return nil, &knowledge.SummarizationError{Source: source, Err: fmt.Errorf("summarizer returned no note")}
	}
	return note, nil
}

// write stores the note, then its deduplicated chunks, in the store and the index.
func (p *Pipeline) write(ctx context.Context, note *knowledge.SummaryNote, pieces []string, result *Result) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := p.notes.Upsert(ctx, note); err != nil {
		return knowledge.Unavailable("upsert note", err)
	}
	if err := p.index.DeleteByParent(ctx, note.ID); err != nil {
		return knowledge.Unavailable("delete prior chunks", err)
	}

	candidates, err := p.dedup(ctx, note, pieces, result)
	if err != nil {
		return err
	}

	records := make([]index.Record, 0, len(candidates)+1)
	records = append(records, index.Record{
		ID:          note.ID,
		Kind:        index.KindNote,
		OwnerTenant: note.OwnerTenant,
		Scope:       note.Scope,
		Title:       note.Title,
		Source:      note.SourceReference,
		Text:        note.SearchText(),
	})
	for _, c := range candidates {
		records = append(records, index.Record{
			ID:          c.ID,
			Kind:        index.KindChunk,
			ParentID:    note.ID,
			OwnerTenant: c.OwnerTenant,
			Scope:       c.Scope,
			Title:       note.Title,
			Source:      note.SourceReference,
			Text:        c.Content,
			ContentHash: c.ContentHash,
			ChunkIndex:  c.ChunkIndex,
		})
	}

	kept := candidates
	if err := p.index.Insert(ctx, records...); err != nil {
		var dupErr *index.DuplicateError
		if !errors.As(err, &dupErr) {
			return knowledge.Unavailable("index records", err)
		}
		// Another ingestion stored the same text after the hash check.
		rejected := dupErr.IDs()
		kept = make([]*knowledge.RawChunk, 0, len(candidates))
		for _, c := range candidates {
			if _, ok := rejected[c.ID]; ok {
				result.SkippedDuplicates++
				logger.InfoContext(ctx, "duplicate chunk skipped", "note_id", note.ID, "chunk_index", c.ChunkIndex)
				continue
			}
			kept = append(kept, c)
		}
	}

	if err := p.chunks.ReplaceForNote(ctx, note.ID, kept); err != nil {
		return knowledge.Unavailable("replace chunks", err)
	}
	result.ChunkCount = len(kept)
	return nil
}

// dedup builds chunk rows for pieces, dropping text repeated inside the
// document and text the owner already has indexed. Chunk indexes keep the
// split order, so skipped pieces leave gaps.
func (p *Pipeline) dedup(ctx context.Context, note *knowledge.SummaryNote, pieces []string, result *Result) ([]*knowledge.RawChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	seen := make(map[string]struct{}, len(pieces))
	chunks := make([]*knowledge.RawChunk, 0, len(pieces))
	for i, text := range pieces {
		hash := knowledge.ContentHash(text)
		if _, ok := seen[hash]; ok {
			result.SkippedDuplicates++
			continue
		}
		seen[hash] = struct{}{}

		exists, err := p.index.ExistsHash(ctx, note.OwnerTenant, hash)
		if err != nil {
			return nil, knowledge.Unavailable("check chunk hash", err)
		}
		if exists {
			result.SkippedDuplicates++
			logger.InfoContext(ctx, "duplicate chunk skipped", "note_id", note.ID, "chunk_index", i)
			continue
		}

		chunks = append(chunks, &knowledge.RawChunk{
			ID:           knowledge.ChunkID(note.ID, i),
			ParentNoteID: note.ID,
			OwnerTenant:  note.OwnerTenant,
			Scope:        note.Scope,
			ChunkIndex:   i,
			Content:      text,
			ContentHash:  hash,
		})
	}
	return chunks, nil
}

// compensate removes a partially written note, together with any version
// stored before this ingestion. It runs on a fresh context so that cleanup
// still happens when the request was cancelled.
func (p *Pipeline) compensate(ctx context.Context, noteID string) {
	logger := contextutil.LoggerFromContext(ctx)
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := p.index.DeleteByParent(cleanupCtx, noteID); err != nil {
		logger.ErrorContext(ctx, "failed to remove chunk records", "note_id", noteID, "error", err)
	}
	if err := p.index.Delete(cleanupCtx, noteID); err != nil {
		logger.ErrorContext(ctx, "failed to remove note record", "note_id", noteID, "error", err)
	}
	if err := p.notes.Delete(cleanupCtx, noteID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.ErrorContext(ctx, "failed to remove note", "note_id", noteID, "error", err)
	}
}
