// Package sources feeds documents into the ingestion pipeline from local
// folders and watched web pages.
package sources

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_sources.go -package=mocks lifeos-kb/internal/sources Ingester,PageCrawler

import (
	"context"

	"lifeos-kb/internal/crawler"
	"lifeos-kb/internal/indexer"
)

// Ingester is the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req indexer.Request) (*indexer.Result, error)
	IngestBatch(ctx context.Context, reqs []indexer.Request) []indexer.BatchResult
}

// PageCrawler fetches readable web pages.
type PageCrawler interface {
	Crawl(ctx context.Context, url string) (*crawler.Page, error)
}
