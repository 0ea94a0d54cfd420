package sources

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/crawler"
	"lifeos-kb/internal/indexer"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/storage"
)

const (
	// DefaultRefreshInterval is how often Run checks for stale sources.
	DefaultRefreshInterval = 24 * time.Hour
	cycleConcurrency       = 4
)

// WatchRequest registers a web page to keep in the knowledge base.
type WatchRequest struct {
	URL          string
	Tenant       knowledge.TenantID
	Scope        knowledge.Scope
	RefreshHours int
}

// WatchResult is the outcome of Watch. CrawlError is set when the source was
// registered but its first crawl failed; the next cycle retries it.
type WatchResult struct {
	Source     *storage.Source
	Created    bool
	Result     *indexer.Result
	CrawlError error
}

// CycleReport summarizes one refresh cycle.
type CycleReport struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// WebWatcher keeps watched web sources fresh by re-crawling stale ones.
type WebWatcher struct {
	sources  storage.SourceStore
	crawler  PageCrawler
	ingester Ingester
	now      func() time.Time
}

// NewWebWatcher creates a web watcher.
func NewWebWatcher(sources storage.SourceStore, c PageCrawler, ingester Ingester) *WebWatcher {
	return &WebWatcher{
		sources:  sources,
		crawler:  c,
		ingester: ingester,
		now:      time.Now,
	}
}

// Watch registers req.URL and crawls it right away. A URL the owner already
// watches is returned as is, without a crawl. GLOBAL sources belong to the
// system tenant.
func (w *WebWatcher) Watch(ctx context.Context, req WatchRequest) (*WatchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	u, err := crawler.ParseURL(req.URL)
	if err != nil {
		return nil, err
	}
	if !req.Scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", req.Scope)
	}
	owner := knowledge.EffectiveOwner(req.Scope, req.Tenant)

	existing, err := w.sources.FindByURL(ctx, u.String(), owner)
	if err == nil {
		return &WatchResult{Source: existing}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up source: %w", err)
	}

	src := &storage.Source{
		URL:          u.String(),
		OwnerTenant:  owner,
		Scope:        req.Scope,
		RefreshHours: req.RefreshHours,
	}
	if err := w.sources.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	logger.InfoContext(ctx, "source registered", "source_id", src.ID, "url", src.URL, "scope", src.Scope)

	out := &WatchResult{Source: src, Created: true}
	res, err := w.refresh(ctx, src)
	if err != nil {
		out.CrawlError = err
		return out, nil
	}
	out.Result = res
	if updated, err := w.sources.GetByID(ctx, src.ID); err == nil {
		out.Source = updated
	}
	return out, nil
}

// RunCycle re-crawls and re-ingests every stale source. Failures are recorded
// on the source and counted; they do not stop the cycle.
func (w *WebWatcher) RunCycle(ctx context.Context) (*CycleReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	stale, err := w.sources.ListStale(ctx, w.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sources: %w", err)
	}
	logger.InfoContext(ctx, "watcher scanning for stale sources", "stale", len(stale))

	report := &CycleReport{Checked: len(stale)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(cycleConcurrency)
	for _, src := range stale {
		g.Go(func() error {
			_, err := w.refresh(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
			} else {
				report.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.InfoContext(ctx, "watcher cycle complete",
		"checked", report.Checked,
		"updated", report.Updated,
		"failed", report.Failed)
	return report, nil
}

// Run executes a cycle immediately and then every interval until ctx is done.
func (w *WebWatcher) Run(ctx context.Context, interval time.Duration) {
	logger := contextutil.LoggerFromContext(ctx)
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunCycle(ctx); err != nil {
			logger.ErrorContext(ctx, "watcher cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// refresh crawls one source and ingests its content under the source's owner.
func (w *WebWatcher) refresh(ctx context.Context, src *storage.Source) (*indexer.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	res, title, err := w.crawlAndIngest(ctx, src)
	if err != nil {
		logger.WarnContext(ctx, "source update failed", "source_id", src.ID, "url", src.URL, "error", err)
		if markErr := w.sources.MarkFailed(ctx, src.ID, err.Error()); markErr != nil {
			logger.ErrorContext(ctx, "failed to record source error", "source_id", src.ID, "error", markErr)
		}
		return nil, err
	}

	if err := w.sources.MarkCrawled(ctx, src.ID, title, w.now()); err != nil {
		return nil, fmt.Errorf("failed to mark source crawled: %w", err)
	}
	logger.InfoContext(ctx, "source updated", "source_id", src.ID, "url", src.URL, "note_id", res.Note.ID)
	return res, nil
}

func (w *WebWatcher) crawlAndIngest(ctx context.Context, src *storage.Source) (*indexer.Result, string, error) {
	page, err := w.crawler.Crawl(ctx, src.URL)
	if err != nil {
		return nil, "", err
	}
	res, err := w.ingester.Ingest(ctx, indexer.Request{
		Text:            page.Content,
		SourceReference: src.URL,
		OwnerTenant:     src.OwnerTenant,
		Scope:           src.Scope,
		StoreRaw:        true,
	})
	if err != nil {
		return nil, "", err
	}
	return res, page.Title, nil
}
