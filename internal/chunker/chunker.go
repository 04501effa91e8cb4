// Package chunker splits text that exceeds the DeepL web input limit into
// pieces that are translated one after another and joined back together.
package chunker

import (
	"strings"
	"unicode"
)

// Chunk splits text into pieces each no longer than maxChars unicode
// code points. Splits are attempted (in order of preference) at:
//  1. Paragraph boundaries (\n\n)
//  2. Sentence-ending punctuation (. ! ? and their CJK forms)
//  3. Whitespace (word boundary)
//  4. Hard cut at maxChars if no suitable boundary is found
//
// If text fits entirely within maxChars, a single-element slice is returned.
// If maxChars ≤ 0 it is treated as unlimited.
func Chunk(text string, maxChars int) []string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for len(runes) > maxChars {
		split := findSplit(runes[:maxChars])
		if piece := strings.TrimSpace(string(runes[:split])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[split:])))
	}

	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// findSplit returns the rune count of the prefix of candidate to emit.
func findSplit(candidate []rune) int {
	n := len(candidate)

	for i := n - 1; i > 0; i-- {
		if candidate[i] == '\n' && candidate[i-1] == '\n' {
			return i + 1
		}
	}

	for i := n - 2; i > 0; i-- {
		if isSentenceEnd(candidate[i]) && unicode.IsSpace(candidate[i+1]) {
			return i + 1
		}
		if isFullWidthSentenceEnd(candidate[i]) {
			return i + 1
		}
	}

	for i := n - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return i
		}
	}

	return n
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Full-width punctuation is not followed by a space in CJK text.
func isFullWidthSentenceEnd(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}
