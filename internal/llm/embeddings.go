package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEmbeddingBatch is the number of texts sent per embeddings request.
const DefaultEmbeddingBatch = 64

// EmbeddingsClient embeds note summaries, chunks and queries through an
// OpenAI-compatible /v1/embeddings endpoint.
type EmbeddingsClient struct {
	BaseURL   string
	APIKey    string
	Model     string
	Size      int // vector size every returned embedding must have
	BatchSize int
	client    *http.Client
}

// NewEmbeddingsClient creates an embeddings client whose vectors must have
// exactly size dimensions.
func NewEmbeddingsClient(baseURL, apiKey, model string, size int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		Model:     model,
		Size:      size,
		BatchSize: DefaultEmbeddingBatch,
		client:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// EmbedTexts returns one vector per text, in input order. Large inputs are
// split into BatchSize requests.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	batch := c.BatchSize
	if batch <= 0 {
		batch = DefaultEmbeddingBatch
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := min(start+batch, len(texts))
		vecs, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Probe embeds a fixed string and reports whether the server's vectors match
// the configured size.
func (c *EmbeddingsClient) Probe(ctx context.Context) error {
	_, err := c.embedBatch(ctx, []string{"probe"})
	return err
}

func (c *EmbeddingsClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingsRequest{Model: c.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(decoded.Data))
	}

	// Servers that omit "index" leave every entry at zero; use response order then.
	indexed := false
	for _, d := range decoded.Data {
		if d.Index != 0 {
			indexed = true
			break
		}
	}

	vecs := make([][]float32, len(texts))
	for pos, d := range decoded.Data {
		i := pos
		if indexed {
			i = d.Index
		}
		if i < 0 || i >= len(texts) || vecs[i] != nil {
			return nil, fmt.Errorf("embedding index %d out of range or repeated", d.Index)
		}
		if len(d.Embedding) != c.Size {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(d.Embedding), c.Size)
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}
	return vecs, nil
}
