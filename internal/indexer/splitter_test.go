package indexer

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSplitter(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "defaults", size: DefaultChunkSize, overlap: DefaultChunkOverlap},
		{name: "no overlap", size: 10, overlap: 0},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "overlap equals size", size: 10, overlap: 10, wantErr: true},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.size, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSplitter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitter_Split(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{
			name: "empty",
			size: 10,
			text: "   ",
			want: nil,
		},
		{
			name: "fits in one chunk",
			size: 100,
			text: "  short text  ",
			want: []string{"short text"},
		},
		{
			name: "paragraph boundary",
			size: 20,
			text: "alpha beta gamma.\n\ndelta epsilon zeta.",
			want: []string{"alpha beta gamma.", "delta epsilon zeta."},
		},
		{
			name: "word boundary",
			size: 12,
			text: "one two three four five",
			want: []string{"one two", "three four", "five"},
		},
		{
			name: "hard cut without separators",
			size: 4,
			text: "abcdefghij",
			want: []string{"abcd", "efgh", "ij"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSplitter(tt.size, tt.overlap)
			if err != nil {
				t.Fatalf("NewSplitter() error = %v", err)
			}
			got := s.Split(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitter_SplitOverlap(t *testing.T) {
	s, err := NewSplitter(30, 10)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}
	words := make([]string, 20)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	chunks := s.Split(strings.Join(words, " "))
	want := []string{
		"word0 word1 word2 word3 word4",
		"word4 word5 word6 word7 word8",
		"word8 word9 word10 word11",
		"word11 word12 word13 word14",
		"word14 word15 word16 word17",
		"word17 word18 word19",
	}
	if len(chunks) != len(want) {
		t.Fatalf("Split() = %q, want %q", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("Split()[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 30 {
			t.Errorf("chunk %d has %d runes, want <= 30", i, n)
		}
	}
}

func TestSplitter_SplitMultibyte(t *testing.T) {
	s, _ := NewSplitter(5, 0)
	chunks := s.Split("日本語のテキストです")
	if strings.Join(chunks, "") != "日本語のテキストです" {
		t.Errorf("Split() = %q, want runes preserved", chunks)
	}
	for _, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %q is not valid UTF-8", c)
		}
	}
}
