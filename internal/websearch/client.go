// Package websearch queries a Tavily-compatible web search API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lifeos-kb/internal/knowledge"
)

const (
	// DefaultURL is the Tavily search endpoint.
	DefaultURL        = "https://api.tavily.com/search"
	DefaultMaxResults = 10
	defaultTimeout    = 10 * time.Second
	maxErrorBody      = 4096
)

// Snippet is one web search result.
type Snippet struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Client calls the search API, spacing requests with a token bucket.
type Client struct {
	URL        string
	APIKey     string
	MaxResults int
	limiter    *rate.Limiter
	client     *http.Client
}

// NewClient creates a search client allowing rps requests per second.
func NewClient(url, apiKey string, maxResults int, rps float64) *Client {
	if url == "" {
		url = DefaultURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		URL:        url,
		APIKey:     apiKey,
		MaxResults: maxResults,
		limiter:    rate.NewLimiter(limit, 1),
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []Snippet `json:"results"`
}

// Search returns up to MaxResults snippets for query. Every failure is a
// *knowledge.WebSearchError.
func (c *Client) Search(ctx context.Context, query string) ([]Snippet, error) {
	snippets, err := c.search(ctx, query)
	if err != nil {
		return nil, &knowledge.WebSearchError{Query: query, Err: err}
	}
	return snippets, nil
}

func (c *Client) search(ctx context.Context, query string) ([]Snippet, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("web search api key is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: c.MaxResults, SearchDepth: "basic"})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	snippets := make([]Snippet, 0, len(out.Results))
	for _, s := range out.Results {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		snippets = append(snippets, s)
		if len(snippets) == c.MaxResults {
			break
		}
	}
	return snippets, nil
}

// Render formats snippets as prompt context.
func Render(snippets []Snippet) string {
	var b strings.Builder
	for i, s := range snippets {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Web] %s (%s)\n%s", s.Title, s.URL, s.Content)
	}
	return b.String()
}
