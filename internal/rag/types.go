package rag

import (
	"lifeos-kb/internal/gate"
	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/retrieval"
	"lifeos-kb/internal/websearch"
)

// AskRequest is a question asked on behalf of a tenant.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// Tenant scopes retrieval and selects the preferences.
	Tenant knowledge.TenantID `json:"owner_tenant"`
	// K is the number of notes retrieved. Zero selects the retrieval default.
	K int `json:"k,omitempty"`
}

// AskResponse is a generated answer and the context it was grounded on.
type AskResponse struct {
	// Answer is the generated answer from the LLM.
	Answer string `json:"answer"`
	// SourceLabel tells the user where the context came from.
	SourceLabel string `json:"source_label"`
	// Outcome is the gate decision for the question.
	Outcome gate.Outcome `json:"outcome"`
	// Results are the local notes and chunks used as context.
	Results []retrieval.ResultItem `json:"results"`
	// WebResults are the web snippets used as context, if any.
	WebResults []websearch.Snippet `json:"web_results,omitempty"`
	// Preferences are the effective preferences the answer was shaped by.
	Preferences knowledge.Preferences `json:"preferences"`
}
