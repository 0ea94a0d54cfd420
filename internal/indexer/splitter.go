package indexer

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target chunk length in runes.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of runes shared by consecutive chunks.
	DefaultChunkOverlap = 100
)

// separators are tried in order when looking for a place to cut a chunk.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter cuts text into overlapping chunks of a fixed target size.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter. overlap must be smaller than size.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split returns the chunks of text in document order. Each chunk holds at most
// size runes; cuts prefer paragraph, line, sentence and word boundaries found
// in the second half of the window.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.boundary(runes, start, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}

		next := end - s.overlap
		// Start the overlap on a word.
		for next > start && next < end && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		if next <= start || next >= end {
			next = end
		}
		start = next
	}
	return chunks
}

// boundary returns the cut position in (start, end]: just after the last
// separator found at or beyond the window midpoint, or end when none exists.
func (s *Splitter) boundary(runes []rune, start, end int) int {
	floor := start + s.size/2
	for _, sep := range separators {
		sr := []rune(sep)
		for i := end - len(sr); i >= floor; i-- {
			if hasRunes(runes[i:], sr) {
				return i + len(sr)
			}
		}
	}
	return end
}

func hasRunes(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
