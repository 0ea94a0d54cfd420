package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	titleMatchBonus = 0.1
	minPrefixLen    = 4
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
	"what": {}, "does": {}, "do": {}, "did": {}, "how": {}, "why": {}, "who": {}, "when": {}, "where": {},
	"which": {}, "you": {}, "your": {}, "i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "can": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "about": {}, "into": {}, "its": {}, "they": {},
	"them": {}, "their": {}, "there": {}, "so": {}, "if": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "am": {}, "not": {}, "no": {},
}

// KeywordScore scores text against query in [0, 1].
// It is the fraction of distinct query terms found in text, plus a bonus per
// term found in title, capped at 1.
func KeywordScore(query, text, title string) float64 {
	terms := uniqueTerms(query)
	if len(terms) == 0 {
		return 0
	}

	textTokens := Tokenize(text)
	titleTokens := Tokenize(title)
	if len(textTokens) == 0 && len(titleTokens) == 0 {
		return 0
	}

	var matched, titleMatched int
	for _, term := range terms {
		if containsTerm(textTokens, term) {
			matched++
		}
		if containsTerm(titleTokens, term) {
			titleMatched++
		}
	}

	score := float64(matched)/float64(len(terms)) + float64(titleMatched)*titleMatchBonus
	if score > 1 {
		return 1
	}
	return score
}

// Tokenize lowercases and NFKC-folds text and splits it on anything that is
// not a letter or digit.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(norm.NFKC.String(text)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func uniqueTerms(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := stopwords[token]; isStop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

// containsTerm matches exactly, or by prefix for terms long enough that
// "help" also matches "helps" and "helpful".
func containsTerm(tokens []string, term string) bool {
	for _, token := range tokens {
		if token == term {
			return true
		}
		if len(term) >= minPrefixLen && strings.HasPrefix(token, term) {
			return true
		}
	}
	return false
}
