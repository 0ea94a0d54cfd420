package knowledge

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Typed errors below match them with errors.Is.
var (
	ErrSummarization    = errors.New("summarization failed")
	ErrExtraction       = errors.New("extraction failed")
	ErrDuplicateChunk   = errors.New("duplicate chunk")
	ErrIndexUnavailable = errors.New("index unavailable")
	ErrWebSearch        = errors.New("web search failed")
)

// SummarizationError reports a failed summarizer call for a source.
type SummarizationError struct {
	Source string
	Err    error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed for %s: %v", e.Source, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

func (e *SummarizationError) Is(target error) bool { return target == ErrSummarization }

// ExtractionError reports unsupported or corrupt input.
type ExtractionError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Filename, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// IndexUnavailableError reports that storage or the index could not be reached.
type IndexUnavailableError struct {
	Op  string
	Err error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index unavailable during %s: %v", e.Op, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

func (e *IndexUnavailableError) Is(target error) bool { return target == ErrIndexUnavailable }

// WebSearchError reports a failed external search. The query gate recovers from it.
type WebSearchError struct {
	Query string
	Err   error
}

func (e *WebSearchError) Error() string {
	return fmt.Sprintf("web search failed for %q: %v", e.Query, e.Err)
}

func (e *WebSearchError) Unwrap() error { return e.Err }

func (e *WebSearchError) Is(target error) bool { return target == ErrWebSearch }

// Unavailable wraps err as an IndexUnavailableError unless it already is one.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIndexUnavailable) {
		return err
	}
	return &IndexUnavailableError{Op: op, Err: err}
}
