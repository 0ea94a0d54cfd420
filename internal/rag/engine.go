// Package rag generates answers from the context the query gate assembles,
// shaped by the tenant's agent preferences.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag.go -package=mocks lifeos-kb/internal/rag Engine,ContextBuilder,ChatClient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/gate"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/llm"
	"lifeos-kb/internal/storage"
)

// ErrEmptyQuestion is returned for a blank question.
var ErrEmptyQuestion = errors.New("question is required")

// Engine answers questions over the knowledge base.
type Engine interface {
	// Ask answers a question with context from the gate.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// StreamAsk answers like Ask but streams the answer through callback.
	// The returned response carries the full answer once streaming is done.
	StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResponse, error)
}

// ContextBuilder assembles answer context for a query.
type ContextBuilder interface {
	AnswerContext(ctx context.Context, query string, tenant knowledge.TenantID, k int) (*gate.Context, error)
}

// ChatClient is the subset of the LLM client the engine needs.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
	StreamChat(ctx context.Context, messages []llm.Message, params llm.ChatParams, callback func(chunk string) error) error
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	gate        ContextBuilder
	preferences storage.PreferenceStore
	chat        ChatClient
	defaults    knowledge.Preferences
}

// NewEngine creates a RAG engine. defaults are the preferences of a tenant
// without overrides.
func NewEngine(builder ContextBuilder, preferences storage.PreferenceStore, chat ChatClient, defaults knowledge.Preferences) Engine {
	return &ragEngine{
		gate:        builder,
		preferences: preferences,
		chat:        chat,
		defaults:    defaults,
	}
}

// Ask answers a question using the gate context and the tenant's preferences.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	resp, messages, params, err := e.prepare(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	answer, err := e.chat.ChatWithMessages(ctx, messages, params)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	resp.Answer = strings.TrimSpace(answer)

	logger.InfoContext(ctx, "question answered",
		"tenant", req.Tenant,
		"outcome", resp.Outcome,
		"results", len(resp.Results),
		"answer_length", len(resp.Answer))
	return resp, nil
}

// StreamAsk answers a question and streams the answer.
func (e *ragEngine) StreamAsk(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	resp, messages, params, err := e.prepare(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	var answer strings.Builder
	err = e.chat.StreamChat(ctx, messages, params, func(chunk string) error {
		answer.WriteString(chunk)
		return callback(chunk)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to stream LLM response: %w", err)
	}
	resp.Answer = answer.String()

	logger.InfoContext(ctx, "streamed answer",
		"tenant", req.Tenant,
		"outcome", resp.Outcome,
		"answer_length", len(resp.Answer))
	return resp, nil
}

// prepare gathers context and preferences and builds the LLM request.
func (e *ragEngine) prepare(ctx context.Context, req AskRequest) (AskResponse, []llm.Message, llm.ChatParams, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, nil, llm.ChatParams{}, ErrEmptyQuestion
	}

	answerCtx, err := e.gate.AnswerContext(ctx, question, req.Tenant, req.K)
	if err != nil {
		return AskResponse{}, nil, llm.ChatParams{}, fmt.Errorf("failed to build answer context: %w", err)
	}

	overrides, err := e.preferences.Get(ctx, req.Tenant)
	if err != nil {
		return AskResponse{}, nil, llm.ChatParams{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	prefs := knowledge.Merge(e.defaults, overrides)

	system := systemPrompt(prefs)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: userPrompt(answerCtx.Text, question)},
	}
	params := llm.ChatParams{
		Model:       prefs.Model,
		Temperature: preset(prefs.Mode).temperature,
	}

	logger.DebugContext(ctx, "prepared LLM request",
		"mode", prefs.Mode,
		"model", prefs.Model,
		"outcome", answerCtx.Outcome,
		"context_length", len(answerCtx.Text),
		"system_prompt_length", len(system))

	return AskResponse{
		SourceLabel: answerCtx.SourceLabel,
		Outcome:     answerCtx.Outcome,
		Results:     answerCtx.Results,
		WebResults:  answerCtx.WebResults,
		Preferences: prefs,
	}, messages, params, nil
}
