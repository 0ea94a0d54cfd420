package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// HashEmbedder produces deterministic embeddings by feature hashing words and
// character trigrams into a fixed number of dimensions. It needs no model
// server, so it serves offline deployments and tests.
type HashEmbedder struct {
	Size int
}

// NewHashEmbedder creates a HashEmbedder producing vectors of the given size.
func NewHashEmbedder(size int) *HashEmbedder {
	return &HashEmbedder{Size: size}
}

// EmbedTexts returns one L2-normalised vector per text.
func (e *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}
	if e.Size <= 0 {
		return nil, fmt.Errorf("invalid embedding size %d", e.Size)
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result[i] = e.embed(text)
	}
	return result, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.Size)
	for _, word := range words(text) {
		e.add(vec, "w:"+word, 1)
		padded := " " + word + " "
		runes := []rune(padded)
		for j := 0; j+3 <= len(runes); j++ {
			e.add(vec, "t:"+string(runes[j:j+3]), 0.5)
		}
	}

	var norm2 float64
	for _, v := range vec {
		norm2 += float64(v) * float64(v)
	}
	if norm2 == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm2))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// add hashes feature into a bucket; a second hash bit picks the sign.
func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.Size))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(norm.NFKC.String(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
