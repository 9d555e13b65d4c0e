// Package keyword extracts lexical keywords for hybrid reranking and the
// extractive answerer.
package keyword

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’_][\p{L}\p{N}]+)*`)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		// вопросительные слова и служебные глаголы вопросов
		"what", "which", "who", "whom", "when", "where", "why", "how", "did", "do", "does", "has",
		"have", "had", "any", "all", "there", "i", "me", "my", "we", "our", "you", "your", "show",
		"tell", "list", "give", "please", "happened", "occurred", "occur", "get", "got",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Tokenize lower-cases text and splits it into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// IsStopword reports whether a lower-cased token carries no lexical signal.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// Stem strips common English suffixes. Stems shorter than 3 runes are not produced.
func Stem(tok string) string {
	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 5:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "ing") && len(tok) >= 6:
		return tok[:len(tok)-3]
	case strings.HasSuffix(tok, "ed") && len(tok) >= 5:
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "s") && len(tok) >= 4 &&
		!strings.HasSuffix(tok, "ss") && !strings.HasSuffix(tok, "us") && !strings.HasSuffix(tok, "is"):
		return tok[:len(tok)-1]
	}
	return tok
}

// Set is a set of stemmed keywords.
type Set map[string]struct{}

// Extract returns the stemmed, stopword-free keywords of text.
// Single-character tokens are dropped.
func Extract(text string) Set {
	out := Set{}
	for _, tok := range Tokenize(text) {
		if len(tok) < 2 || IsStopword(tok) {
			continue
		}
		out[Stem(tok)] = struct{}{}
	}
	return out
}

// Overlap returns |q ∩ t| / |q| in [0,1]. An empty q yields 0.
func Overlap(q, t Set) float64 {
	if len(q) == 0 {
		return 0
	}
	hits := 0
	for k := range q {
		if _, ok := t[k]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// Count returns how many tokens of text are in q, counting repeats.
func Count(q Set, text string) int {
	n := 0
	for _, tok := range Tokenize(text) {
		if _, ok := q[Stem(tok)]; ok {
			n++
		}
	}
	return n
}
