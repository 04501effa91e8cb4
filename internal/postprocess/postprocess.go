// Package postprocess cleans text scraped from the DeepL web translator
// before it is returned to clients.
package postprocess

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean removes page artifacts from text in three phases and returns the
// trimmed, NFC-normalized result:
//  1. Invisible character removal
//  2. Space normalization
//  3. Line cleanup
func Clean(text string) string {
	text = removeInvisible(text)
	text = normalizeSpaces(text)
	text = cleanLines(text)
	return norm.NFC.String(strings.TrimSpace(text))
}

// --- Phase 1: invisible characters ---

// invisibleReplacer drops zero-width characters, the byte order mark and soft
// hyphens that the rich-text target field leaves behind.
var invisibleReplacer = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
	"\u00ad", "",
)

func removeInvisible(text string) string {
	return invisibleReplacer.Replace(text)
}

// --- Phase 2: spaces ---

// spaceReplacer maps the non-breaking spaces DeepL inserts before French
// punctuation and in number groups to plain spaces.
var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u202f", " ",
	"\u2009", " ",
	"\r\n", "\n",
	"\r", "\n",
)

func normalizeSpaces(text string) string {
	return spaceReplacer.Replace(text)
}

// --- Phase 3: lines ---

var (
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// cleanLines strips trailing whitespace from every line and collapses runs
// of blank lines to a single paragraph break.
func cleanLines(text string) string {
	text = trailingSpaceRe.ReplaceAllString(text, "")
	return blankRunRe.ReplaceAllString(text, "\n\n")
}
