package chunker

import (
	"strings"
	"unicode"
)

// Span is a half-open [Start, End) byte range into the source text.
type Span struct {
	Start int
	End   int
}

// Abbreviations that end with a period but do not terminate a sentence.
// Scientific prose is full of these; the list is deliberately small and
// matched case-insensitively against the token preceding the period.
var abbreviations = map[string]bool{
	"e.g":  true,
	"i.e":  true,
	"al":   true, // et al.
	"etc":  true,
	"cf":   true,
	"vs":   true,
	"fig":  true,
	"figs": true,
	"eq":   true,
	"no":   true,
	"pp":   true,
	"dr":   true,
	"prof": true,
}

// splitSentences partitions text into sentence spans. Every byte of the
// input belongs to exactly one span: trailing whitespace after a sentence
// terminator is folded into the preceding span so that concatenating the
// spans in order reproduces the text exactly.
func splitSentences(text string) []Span {
	var spans []Span
	n := len(text)

	start := 0
	i := 0
	for i < n {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			// Consume closing quotes/brackets attached to the terminator.
			j := i + 1
			for j < n && (text[j] == ')' || text[j] == ']' || text[j] == '"' || text[j] == '\'') {
				j++
			}
			if j >= n {
				i = j
				continue
			}
			if !isBoundary(text, i, j) {
				i++
				continue
			}
			// Fold trailing whitespace into this sentence.
			for j < n && isSpaceByte(text[j]) {
				j++
			}
			spans = append(spans, Span{Start: start, End: j})
			start = j
			i = j
			continue
		}
		if c == '\n' && i+1 < n && text[i+1] == '\n' {
			// Paragraph break terminates a sentence even without punctuation
			// (headings, list items, OCR artifacts).
			j := i
			for j < n && isSpaceByte(text[j]) {
				j++
			}
			if j > start {
				spans = append(spans, Span{Start: start, End: j})
				start = j
			}
			i = j
			continue
		}
		i++
	}

	if start < n {
		spans = append(spans, Span{Start: start, End: n})
	}
	return spans
}

// isBoundary reports whether the period at index dot (with attached
// punctuation running through end) closes a sentence.
func isBoundary(text string, dot, end int) bool {
	if text[dot] != '.' {
		return true // '!' and '?' are unambiguous
	}
	if !isSpaceByte(text[end]) {
		return false // "3.14", "v2.0", "section.4"
	}

	// Token immediately before the period.
	k := dot - 1
	for k >= 0 && !isSpaceByte(text[k]) && text[k] != '(' {
		k--
	}
	token := strings.ToLower(strings.Trim(text[k+1:dot], ".,;:()[]"))
	if abbreviations[token] {
		return false
	}
	// Single-letter initials ("J. Smith").
	if len(token) == 1 && unicode.IsLetter(rune(token[0])) {
		return false
	}
	return true
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
