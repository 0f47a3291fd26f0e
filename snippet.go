package deckagent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// snippetMaxLen is the approximate maximum character length for a snippet.
const snippetMaxLen = 300

// extractSnippet returns the one or two sentences of text most relevant
// to the query terms. Returns empty string if nothing matches.
func extractSnippet(text string, terms []string) string {
	if len(terms) == 0 || text == "" {
		return ""
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	scores := make([]int, len(sentences))
	for i, s := range sentences {
		scores[i] = overlapScore(s, terms)
	}

	bestIdx := 0
	for i, sc := range scores {
		if sc > scores[bestIdx] {
			bestIdx = i
		}
	}
	if scores[bestIdx] == 0 {
		return ""
	}

	result := sentences[bestIdx]

	// Add the better-scoring adjacent sentence when it fits within the limit.
	if len(result) < snippetMaxLen && len(sentences) > 1 {
		adjIdx, adjScore := -1, 0
		for _, delta := range []int{1, -1} {
			if j := bestIdx + delta; j >= 0 && j < len(sentences) && scores[j] > adjScore {
				adjIdx, adjScore = j, scores[j]
			}
		}
		if adjIdx >= 0 && adjScore > 0 {
			combined := result + " " + sentences[adjIdx]
			if adjIdx < bestIdx {
				combined = sentences[adjIdx] + " " + result
			}
			if len(combined) <= snippetMaxLen {
				result = combined
			}
		}
	}

	// A single sentence longer than the limit is cut at a rune boundary.
	if len(result) > snippetMaxLen {
		cut := snippetMaxLen
		for cut > 0 && !utf8.RuneStart(result[cut]) {
			cut--
		}
		result = result[:cut] + "…"
	}
	return result
}

// overlapScore counts how many query terms occur in the sentence. CJK
// terms match as substrings; Latin terms match whole words only.
func overlapScore(sentence string, terms []string) int {
	lower := strings.ToLower(sentence)
	var words map[string]bool
	score := 0
	for _, term := range terms {
		if hasHanRune(term) {
			if strings.Contains(sentence, term) {
				score++
			}
			continue
		}
		if words == nil {
			words = latinWords(lower)
		}
		if words[strings.ToLower(term)] {
			score++
		}
	}
	return score
}

// latinWords returns the set of letter/digit words in already-lowercased
// text.
func latinWords(lower string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	return words
}

// splitSentences splits text at sentence terminators. CJK terminators end
// a sentence unconditionally; Latin ones only before whitespace or end of
// text, so decimals and section numbers stay intact.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		switch r {
		case '。', '！', '？', '；':
			flush()
		case '.', '?', '!':
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()
	return sentences
}

// cjkParticles are function characters that separate content words inside
// a run of CJK text.
const cjkParticles = "的了与和是在于及或对把被吗呢啊"

// queryTerms extracts the matchable terms of a query: maximal letter or
// digit runs, with CJK runs split at particles, short Latin words and
// stop words dropped, deduplicated in order.
func queryTerms(query string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(term string) {
		key := strings.ToLower(term)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		terms = append(terms, term)
	}

	for _, run := range letterDigitRuns(query) {
		if hasHanRune(run) {
			for _, piece := range splitCJKRun(run) {
				add(piece)
			}
			continue
		}
		if utf8.RuneCountInString(run) <= 2 || snippetStopWords[strings.ToLower(run)] {
			continue
		}
		add(run)
	}
	return terms
}

// letterDigitRuns splits text into maximal letter/digit runs.
func letterDigitRuns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// splitCJKRun cuts a CJK run at particle characters.
func splitCJKRun(run string) []string {
	return strings.FieldsFunc(run, func(r rune) bool {
		return strings.ContainsRune(cjkParticles, r)
	})
}

func hasHanRune(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// snippetStopWords are common English words excluded from term matching.
var snippetStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "these": true, "those": true,
	"what": true, "which": true, "where": true, "when": true,
	"how": true, "why": true, "who": true,
	"are": true, "was": true, "were": true, "been": true,
	"will": true, "would": true, "could": true, "should": true,
	"have": true, "has": true, "had": true, "can": true, "does": true,
	"about": true, "into": true, "between": true,
}
