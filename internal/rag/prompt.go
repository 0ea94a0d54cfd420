package rag

import (
	"fmt"
	"strings"

	"lifeos-kb/internal/knowledge"
)

// Agent modes.
const (
	ModeProductivity = "productivity"
	ModeAcademic     = "academic"
	ModeCasual       = "casual"
)

// NoInfoAnswer is what the model is told to say when the context lacks the answer.
const NoInfoAnswer = "I don't have that info in your database."

type modePreset struct {
	persona     string
	temperature float32
	refinement  string
}

var modePresets = map[string]modePreset{
	ModeProductivity: {
		persona:     "You are a ruthless productivity coach. Focus on action items, deadlines, and blocking distractions. Be direct.",
		temperature: 0.3,
		refinement:  "bullet-points",
	},
	ModeAcademic: {
		persona:     "You are a senior academic researcher. Cite sources, use formal language, and prioritise nuance and accuracy.",
		temperature: 0.5,
		refinement:  "detailed",
	},
	ModeCasual: {
		persona:     "You are a supportive friend. Use emojis, be empathetic, and keep things light.",
		temperature: 0.9,
		refinement:  "concise",
	},
}

var refinementStyles = map[string]string{
	"concise":       "Keep the answer short: two or three sentences.",
	"detailed":      "Give a thorough answer and explain your reasoning.",
	"bullet-points": "Format the answer as a bulleted list.",
}

// preset returns the preset for mode, falling back to productivity.
func preset(mode string) modePreset {
	if p, ok := modePresets[strings.ToLower(mode)]; ok {
		return p
	}
	return modePresets[ModeProductivity]
}

// systemPrompt builds the system message for prefs. A "standard" or empty
// refinement level keeps the mode's own refinement.
func systemPrompt(prefs knowledge.Preferences) string {
	p := preset(prefs.Mode)

	var b strings.Builder
	b.WriteString(p.persona)
	if tone := strings.TrimSpace(prefs.Tone); tone != "" {
		fmt.Fprintf(&b, "\nUse a %s tone.", tone)
	}

	refinement := strings.ToLower(strings.TrimSpace(prefs.RefinementLevel))
	if refinement == "" || refinement == "standard" {
		refinement = p.refinement
	}
	if style, ok := refinementStyles[refinement]; ok {
		b.WriteString("\n" + style)
	}

	b.WriteString("\n\nAnswer the user's question based ONLY on the context provided by the user.")
	fmt.Fprintf(&b, "\nIf the answer isn't in the context, say %q", NoInfoAnswer)
	return b.String()
}

// userPrompt combines the gathered context and the question.
func userPrompt(contextText, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, question)
}
