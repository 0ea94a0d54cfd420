package summarize

import "unicode"

// DefaultTokenBudget leaves room for the prompt and reply in a 128k context window.
const DefaultTokenBudget = 110000

// charsPerToken is the estimate used to convert a token budget to characters.
const charsPerToken = 4

// TruncateTokens keeps the longest prefix of text made of whole
// whitespace-delimited tokens that fits in budget tokens.
// It reports whether anything was cut.
func TruncateTokens(text string, budget int) (string, bool) {
	if budget <= 0 {
		return text, false
	}
	limit := budget * charsPerToken
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}

	cut := limit
	// Back up to the last whitespace so the final token stays whole.
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		// A single token longer than the budget; keep a hard cut.
		cut = limit
	}
	for cut > 0 && unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	return string(runes[:cut]), true
}
