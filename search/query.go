package search

import (
	"strings"
	"unicode"
)

// cjkParticles are single-character function words that carry no search
// signal on their own (的 了 与 and friends).
var cjkParticles = map[rune]bool{
	'的': true, '了': true, '与': true, '和': true, '是': true,
	'在': true, '于': true, '及': true, '或': true, '对': true,
	'把': true, '被': true, '吗': true, '呢': true, '啊': true,
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func hasCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}

// tokenizeQuery splits a query into maximal runs of letters and digits,
// matching how the FTS5 unicode61 tokenizer segments indexed text. A run
// like 第3章 stays intact; punctuation and whitespace separate runs.
func tokenizeQuery(query string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// splitQueryTerms returns the significant search terms of a query.
// CJK runs are kept whole (the index stores them as single tokens, so a
// query term must reproduce the exact run to match); Latin words go
// through the usual length and stop-word filters.
func splitQueryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, tok := range tokenizeQuery(query) {
		if hasCJK(tok) {
			runes := []rune(tok)
			if len(runes) == 1 && cjkParticles[runes[0]] {
				continue
			}
		} else {
			lower := strings.ToLower(tok)
			if len(lower) <= 2 || isStopWord(lower) {
				continue
			}
		}
		key := strings.ToLower(tok)
		if !seen[key] {
			seen[key] = true
			terms = append(terms, tok)
		}
	}
	return terms
}

// sanitizeFTSQuery builds an FTS5 MATCH expression from free text: a
// quoted full phrase for exact matches plus the individual significant
// terms, joined with OR. All FTS5 operator characters are dropped by the
// tokenization step.
func sanitizeFTSQuery(query string) string {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return query
	}

	var parts []string
	if len(tokens) > 1 {
		parts = append(parts, "\""+strings.Join(tokens, " ")+"\"")
	}
	parts = append(parts, splitQueryTerms(query)...)

	if len(parts) == 0 {
		return strings.Join(tokens, " OR ")
	}
	return strings.Join(parts, " OR ")
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "been": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "can": true,
	"this": true, "that": true, "these": true, "those": true, "what": true,
	"which": true, "who": true, "where": true, "when": true, "how": true,
	"why": true, "not": true, "nor": true, "then": true, "than": true,
	"about": true, "into": true, "between": true, "with": true, "from": true,
}

func isStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}
