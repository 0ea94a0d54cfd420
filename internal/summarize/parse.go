package summarize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"lifeos-kb/internal/knowledge"
)

// FailureReason classifies why a summarizer reply could not become a note.
type FailureReason string

const (
	ReasonEmptyResponse FailureReason = "empty_response"
	ReasonInvalidJSON   FailureReason = "invalid_json"
	ReasonMissingFields FailureReason = "missing_fields"
	ReasonNotApplicable FailureReason = "not_applicable"
)

// ParseError describes a rejected summarizer reply.
type ParseError struct {
	Reason FailureReason
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unusable summary: %s", e.Reason)
	}
	return fmt.Sprintf("unusable summary: %s: %s", e.Reason, e.Detail)
}

// Result carries either a parsed note or the reason parsing failed.
type Result struct {
	Note    *knowledge.SummaryNote
	Failure *ParseError
}

type atomicNote struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Keywords    []string `json:"keywords" validate:"dive,required"`
	Disciplines []string `json:"disciplines" validate:"dive,required"`
	Actions     []string `json:"actions"`
	Essence     string   `json:"essence" validate:"required"`
	CoreIdea    string   `json:"core_idea" validate:"required"`
	ActionIdea  string   `json:"action_idea"`
	Reference   string   `json:"reference"`
}

var validate = validator.New()

// ParseNote converts a model reply into a note. Replies wrapped in a fenced
// code block are accepted.
func ParseNote(raw string) Result {
	body := stripFence(strings.TrimSpace(raw))
	if body == "" {
		return fail(ReasonEmptyResponse, "")
	}

	var n atomicNote
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return fail(ReasonInvalidJSON, err.Error())
	}

	n.Title = strings.TrimSpace(n.Title)
	n.Essence = strings.TrimSpace(n.Essence)
	n.CoreIdea = strings.TrimSpace(n.CoreIdea)
	n.Keywords = cleanTags(n.Keywords, "#")
	n.Disciplines = cleanTags(n.Disciplines, "")
	n.Actions = cleanTags(n.Actions, "@")

	if isNA(n.Title) && isNA(n.Essence) && isNA(n.CoreIdea) {
		return fail(ReasonNotApplicable, "document is empty or noise")
	}

	if err := validate.Struct(n); err != nil {
		return fail(ReasonMissingFields, err.Error())
	}

	actionIdea := strings.TrimSpace(n.ActionIdea)
	if isNA(actionIdea) {
		actionIdea = ""
	}

	return Result{Note: &knowledge.SummaryNote{
		Title:       n.Title,
		Keywords:    n.Keywords,
		Disciplines: n.Disciplines,
		Actions:     n.Actions,
		Essence:     n.Essence,
		CoreIdea:    n.CoreIdea,
		ActionItems: actionIdea,
	}}
}

func fail(reason FailureReason, detail string) Result {
	return Result{Failure: &ParseError{Reason: reason, Detail: detail}}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func isNA(s string) bool {
	return strings.EqualFold(s, "N/A") || s == ""
}

// cleanTags trims each tag and its marker, dropping empties and duplicates.
func cleanTags(tags []string, marker string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if marker != "" {
			tag = strings.TrimSpace(strings.TrimLeft(tag, marker))
		}
		if tag == "" || isNA(tag) {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
