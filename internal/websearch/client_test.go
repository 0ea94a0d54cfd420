package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lifeos-kb/internal/knowledge"
)

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "deep work" || req.MaxResults != 2 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{Results: []Snippet{
			{Title: "A", URL: "https://a.test", Content: "first", Score: 0.9},
			{Title: "Empty", URL: "https://e.test", Content: "  "},
			{Title: "B", URL: "https://b.test", Content: "second", Score: 0.5},
			{Title: "C", URL: "https://c.test", Content: "third", Score: 0.1},
		}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", 2, 0)
	got, err := c.Search(context.Background(), "deep work")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[0].Title != "A" || got[1].Title != "B" {
		t.Errorf("Search() = %+v, want A and B", got)
	}
}

func TestClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		apiKey  string
	}{
		{
			name:    "missing api key",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			apiKey:  "",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
			apiKey: "k",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			apiKey: "k",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewClient(server.URL, tt.apiKey, 5, 0).Search(context.Background(), "q")
			if !errors.Is(err, knowledge.ErrWebSearch) {
				t.Errorf("Search() error = %v, want ErrWebSearch", err)
			}
			var wsErr *knowledge.WebSearchError
			if !errors.As(err, &wsErr) || wsErr.Query != "q" {
				t.Errorf("Search() error = %#v, want WebSearchError for q", err)
			}
		})
	}
}

func TestClient_SearchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, "k", 5, 0).Search(ctx, "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Search() error = %v, want deadline exceeded", err)
	}
}

func TestClient_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "k", 5, 0.001)
	if _, err := c.Search(context.Background(), "first"); err != nil {
		t.Fatalf("first Search() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Search(ctx, "second"); err == nil {
		t.Error("second Search() should fail while rate limited")
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want 1", calls)
	}
}

func TestRender(t *testing.T) {
	got := Render([]Snippet{{Title: "T", URL: "https://t.test", Content: "body"}})
	if got != "[Web] T (https://t.test)\nbody" {
		t.Errorf("Render() = %q", got)
	}
}
