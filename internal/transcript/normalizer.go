// Package transcript handles transcript cleaning, chunking, and live accumulation
package transcript

import (
	"strings"
)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {},
}

// Clean normalizes raw speech-to-text output: runs of 3+ newlines collapse
// to exactly two, all other whitespace runs collapse to a single space, and
// leading/trailing whitespace is trimmed.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	newlines := 0
	spacePending := false
	for _, r := range s {
		switch r {
		case '\n':
			newlines++
			spacePending = false
		case ' ', '\t', '\r', '\v', '\f':
			if newlines == 0 {
				spacePending = true
			}
		default:
			if newlines >= 3 {
				b.WriteString("\n\n")
			} else if newlines > 0 {
				for i := 0; i < newlines; i++ {
					b.WriteByte('\n')
				}
			} else if spacePending {
				b.WriteByte(' ')
			}
			newlines = 0
			spacePending = false
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), " \t\n\r\v\f")
}

// Chunk splits cleaned text into sentence-bounded chunks of at most maxLen
// characters. A single sentence longer than maxLen becomes its own chunk;
// sentences are never split.
func Chunk(s string, maxLen int) []string {
	cleaned := Clean(s)
	if cleaned == "" {
		return nil
	}

	sentences := splitSentences(cleaned)
	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		need := len(sentence)
		if current.Len() > 0 {
			need += current.Len() + 1
		}
		if need <= maxLen || current.Len() == 0 {
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(sentence)
			if current.Len() > maxLen {
				chunks = append(chunks, current.String())
				current.Reset()
			}
		} else {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(sentence)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(s string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(s) && !isSpace(s[i+1]) {
			continue
		}
		sentences = append(sentences, strings.TrimSpace(s[start:i+1]))
		j := i + 1
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(s) {
		if tail := strings.TrimSpace(s[start:]); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// WordCount returns the number of whitespace-delimited words in the cleaned text.
func WordCount(s string) int {
	return len(strings.Fields(Clean(s)))
}

// CharCount returns the length of the cleaned text.
func CharCount(s string) int {
	return len(Clean(s))
}

// KeyTerms returns up to ten frequency-ranked terms of at least minLength
// characters, excluding common stopwords.
func KeyTerms(s string, minLength int) []string {
	if minLength <= 0 {
		minLength = 3
	}
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, word := range strings.Fields(strings.ToLower(Clean(s))) {
		term := stripNonAlnum(word)
		if len(term) < minLength {
			continue
		}
		if _, common := stopwords[term]; common {
			continue
		}
		if _, seen := counts[term]; !seen {
			order = append(order, term)
		}
		counts[term]++
	}

	// Stable sort by count descending, first occurrence wins ties.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	if len(order) > 10 {
		order = order[:10]
	}
	return order
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
