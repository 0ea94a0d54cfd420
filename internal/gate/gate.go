// Package gate decides whether local knowledge is good enough to answer a
// query or whether web search results must be added.
package gate

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_gate.go -package=mocks lifeos-kb/internal/gate Retriever,WebSearcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/retrieval"
	"lifeos-kb/internal/websearch"
)

const (
	// DefaultThreshold is the minimum top score for a local-only answer.
	DefaultThreshold = 0.5
	// DefaultWebTimeout bounds a single web search.
	DefaultWebTimeout = 10 * time.Second

	LabelLocal    = "local knowledge base"
	LabelLocalWeb = "web search + weak local context"
	// NoContext is the context text used when the web search fallback fails.
	NoContext = "no relevant context found"
)

var errNoWebSearch = errors.New("web search is not configured")

// Outcome is the terminal state of a gate decision.
type Outcome string

const (
	OutcomeLocal    Outcome = "LOCAL"
	OutcomeLocalWeb Outcome = "LOCAL_WEB"
)

// Retriever runs the local hybrid search.
type Retriever interface {
	Search(ctx context.Context, query string, tenant knowledge.TenantID, k int) ([]retrieval.ResultItem, error)
}

// WebSearcher fetches web snippets for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]websearch.Snippet, error)
}

// Context is the answer context assembled for a query.
type Context struct {
	Outcome     Outcome                `json:"outcome"`
	SourceLabel string                 `json:"source_label"`
	Text        string                 `json:"context"`
	TopScore    float64                `json:"top_score"`
	Results     []retrieval.ResultItem `json:"results"`
	WebResults  []websearch.Snippet    `json:"web_results,omitempty"`
	// WebFailed is set when the web fallback was attempted and failed.
	WebFailed bool `json:"web_failed,omitempty"`
}

// Gate routes queries to LOCAL or LOCAL_WEB. A nil web searcher behaves as an
// always-failing one.
type Gate struct {
	retriever  Retriever
	web        WebSearcher
	threshold  float64
	webTimeout time.Duration
}

// New creates a gate. Non-positive webTimeout selects DefaultWebTimeout.
func New(retriever Retriever, web WebSearcher, threshold float64, webTimeout time.Duration) *Gate {
	if webTimeout <= 0 {
		webTimeout = DefaultWebTimeout
	}
	return &Gate{
		retriever:  retriever,
		web:        web,
		threshold:  threshold,
		webTimeout: webTimeout,
	}
}

// AnswerContext searches local knowledge and falls back to the web when the
// best local score is below the threshold. Retrieval errors are returned; web
// search errors never are.
func (g *Gate) AnswerContext(ctx context.Context, query string, tenant knowledge.TenantID, k int) (*Context, error) {
	logger := contextutil.LoggerFromContext(ctx)

	items, err := g.retriever.Search(ctx, query, tenant, k)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []retrieval.ResultItem{}
	}

	top := retrieval.TopScore(items)
	if len(items) > 0 && top >= g.threshold {
		logger.DebugContext(ctx, "answering from local knowledge", "top_score", top, "results", len(items))
		return &Context{
			Outcome:     OutcomeLocal,
			SourceLabel: LabelLocal,
			Text:        retrieval.Render(items),
			TopScore:    top,
			Results:     items,
		}, nil
	}

	out := &Context{
		Outcome:     OutcomeLocalWeb,
		SourceLabel: LabelLocalWeb,
		TopScore:    top,
		Results:     items,
	}

	snippets, err := g.searchWeb(ctx, query)
	if err != nil {
		logger.WarnContext(ctx, "web search failed, continuing without context",
			"top_score", top,
			"threshold", g.threshold,
			"error", err)
		out.WebFailed = true
		out.Text = NoContext
		return out, nil
	}

	out.WebResults = snippets
	parts := make([]string, 0, 2)
	if local := retrieval.Render(items); local != "" {
		parts = append(parts, local)
	}
	if web := websearch.Render(snippets); web != "" {
		parts = append(parts, web)
	}
	out.Text = strings.Join(parts, "\n\n")
	if out.Text == "" {
		out.Text = NoContext
	}

	logger.InfoContext(ctx, "local context weak, added web results",
		"top_score", top,
		"threshold", g.threshold,
		"web_results", len(snippets))
	return out, nil
}

func (g *Gate) searchWeb(ctx context.Context, query string) ([]websearch.Snippet, error) {
	if g.web == nil {
		return nil, &knowledge.WebSearchError{Query: query, Err: errNoWebSearch}
	}
	ctx, cancel := context.WithTimeout(ctx, g.webTimeout)
	defer cancel()
	return g.web.Search(ctx, query)
}
