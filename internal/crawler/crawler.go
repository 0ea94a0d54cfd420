// Package crawler fetches web pages and extracts their readable text.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/extract"
	"lifeos-kb/internal/knowledge"
)

const (
	defaultTimeout = 15 * time.Second
	// DefaultMaxBytes caps how much of a response body is read (5 MB).
	DefaultMaxBytes = 5 << 20
	userAgent       = "Mozilla/5.0 (compatible; LifeOSBot/1.0)"
)

// Page is the readable content of a fetched URL.
type Page struct {
	Title     string
	Content   string
	SourceURL string
}

// Crawler downloads pages over HTTP.
type Crawler struct {
	client   *http.Client
	maxBytes int64
}

// New creates a crawler with the given request timeout. Non-positive values
// select the defaults.
func New(timeout time.Duration, maxBytes int64) *Crawler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Crawler{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Crawl fetches rawURL and extracts its main text. HTML goes through
// readability with a tag-stripping fallback; plain text and PDF responses are
// extracted directly.
func (c *Crawler) Crawl(ctx context.Context, rawURL string) (*Page, error) {
	logger := contextutil.LoggerFromContext(ctx)

	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, &knowledge.ExtractionError{
			Filename: u.String(),
			Reason:   fmt.Sprintf("page exceeds %d byte limit", c.maxBytes),
		}
	}

	page := &Page{SourceURL: u.String()}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mediaType {
	case "text/plain", "text/markdown":
		page.Content = extract.Normalize(string(body))
	case "application/pdf":
		text, err := extract.PDF(body)
		if err != nil {
			return nil, &knowledge.ExtractionError{Filename: u.String(), Reason: "corrupt pdf", Err: err}
		}
		page.Content = extract.Normalize(text)
	default:
		doc, err := extract.HTML(bytes.NewReader(body), u)
		if err != nil {
			return nil, &knowledge.ExtractionError{Filename: u.String(), Reason: "unparseable html", Err: err}
		}
		page.Title = doc.Title
		page.Content = doc.Text
	}

	if page.Content == "" {
		return nil, &knowledge.ExtractionError{Filename: u.String(), Reason: "no readable content"}
	}
	if page.Title == "" {
		page.Title = fallbackTitle(u)
	}

	logger.InfoContext(ctx, "page crawled", "url", page.SourceURL, "title", page.Title, "chars", len(page.Content))
	return page, nil
}

// ParseURL accepts absolute http and https URLs only.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	return u, nil
}

func fallbackTitle(u *url.URL) string {
	if p := strings.Trim(u.Path, "/"); p != "" {
		return u.Host + "/" + p
	}
	return u.Host
}
