// Package extract converts uploaded documents into plain text for ingestion.
package extract

import (
	"bytes"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"lifeos-kb/internal/knowledge"
)

type extractorFunc func(data []byte) (string, error)

var extractors = map[string]extractorFunc{
	".txt":      plainText,
	".text":     plainText,
	".csv":      plainText,
	".md":       Markdown,
	".markdown": Markdown,
	".html":     htmlText,
	".htm":      htmlText,
	".pdf":      PDF,
	".docx":     DOCX,
}

// SupportedExtensions lists the file extensions Text accepts, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether filename has an extension Text can handle.
func Supported(filename string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Text extracts plain text from data, choosing the format by the file extension.
// Unsupported, corrupt or empty documents return a *knowledge.ExtractionError.
func Text(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	fn, ok := extractors[ext]
	if !ok {
		return "", &knowledge.ExtractionError{Filename: filename, Reason: "unsupported file type " + quoteExt(ext)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", &knowledge.ExtractionError{Filename: filename, Reason: "empty document"}
	}

	text, err := fn(data)
	if err != nil {
		return "", &knowledge.ExtractionError{Filename: filename, Reason: "corrupt or unreadable " + quoteExt(ext), Err: err}
	}

	text = Normalize(text)
	if text == "" {
		return "", &knowledge.ExtractionError{Filename: filename, Reason: "no text found"}
	}
	return text, nil
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Normalize converts text to NFC, replaces invalid UTF-8, and collapses
// trailing whitespace and runs of blank lines.
func Normalize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func plainText(data []byte) (string, error) {
	return string(data), nil
}

func htmlText(data []byte) (string, error) {
	doc, err := HTML(bytes.NewReader(data), nil)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

func quoteExt(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return ext
}
