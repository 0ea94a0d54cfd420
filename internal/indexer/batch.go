package indexer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lifeos-kb/internal/contextutil"
)

// DefaultConcurrency is the number of documents ingested in parallel by IngestBatch.
const DefaultConcurrency = 4

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// IngestBatch ingests independent documents concurrently. Each document
// succeeds or fails on its own; results are returned in request order.
func (p *Pipeline) IngestBatch(ctx context.Context, reqs []Request) []BatchResult {
	logger := contextutil.LoggerFromContext(ctx)
	results := make([]BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := p.Ingest(ctx, req)
			results[i] = BatchResult{Request: req, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.InfoContext(ctx, "batch ingestion complete", "documents", len(reqs), "failed", failed)
	return results
}
