// Package summarize distills raw document text into a structured SummaryNote
// using a chat completion model.
package summarize

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_summarize.go -package=mocks lifeos-kb/internal/summarize Summarizer,ChatClient

import (
	"context"
	"fmt"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/llm"
)

// Summarizer turns raw text into a SummaryNote. Only the content fields and
// SourceReference are filled; identity and tenancy are the caller's concern.
type Summarizer interface {
	Summarize(ctx context.Context, text, sourceRef string) (*knowledge.SummaryNote, error)
}

// ChatClient is the subset of the LLM client the summarizer needs.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

const systemPrompt = `You are an expert knowledge manager.
Analyze the provided document and distill it into an atomic note.

Identify the broad disciplines (e.g. Economics, Physics), extract specific keywords,
write the essence as a 2-5 sentence abstract, detail the core idea, and extract
concrete action items if the content implies a task or project.

Respond with a single JSON object and nothing else:
{
  "title": "clear and descriptive title",
  "keywords": ["topic tags without #"],
  "disciplines": ["broad academic or professional domains"],
  "actions": ["action tags without @"],
  "essence": "high-level abstract",
  "core_idea": "the detailed insight",
  "action_idea": "next steps, or empty",
  "reference": "the source URL or filename provided"
}

Refuse to hallucinate. If the document is empty or noise, set every text field to "N/A".`

// LLMSummarizer implements Summarizer with a chat completion model.
type LLMSummarizer struct {
	chat  ChatClient
	model string
}

// NewLLMSummarizer creates a summarizer. An empty model uses the client default.
func NewLLMSummarizer(chat ChatClient, model string) *LLMSummarizer {
	return &LLMSummarizer{chat: chat, model: model}
}

// Summarize asks the model for an atomic note and parses its reply.
func (s *LLMSummarizer) Summarize(ctx context.Context, text, sourceRef string) (*knowledge.SummaryNote, error) {
	logger := contextutil.LoggerFromContext(ctx)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Source: %s\n\nCONTENT:\n%s", sourceRef, text)},
	}

	reply, err := s.chat.ChatWithMessages(ctx, messages, llm.ChatParams{
		Model:       s.model,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, &knowledge.SummarizationError{Source: sourceRef, Err: err}
	}

	result := ParseNote(reply)
	if result.Failure != nil {
		logger.WarnContext(ctx, "summary reply rejected", "source", sourceRef, "reason", result.Failure.Reason)
		return nil, &knowledge.SummarizationError{Source: sourceRef, Err: result.Failure}
	}

	note := result.Note
	note.SourceReference = sourceRef
	logger.DebugContext(ctx, "summary generated", "source", sourceRef, "title", note.Title, "keywords", len(note.Keywords))
	return note, nil
}
