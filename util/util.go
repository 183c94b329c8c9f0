// Package util holds small helpers shared by the converter and the parser.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Choose returns a when cond is true and b otherwise.
func Choose[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	dashRun       = regexp.MustCompile(`-+`)
	nonWord       = regexp.MustCompile(`[^\w\-]+`)
)

// NormalizeString turns arbitrary text into a valid identifier: it decomposes
// accented characters, maps runs of spaces, dashes and other non-word
// characters to "_" and prefixes names starting with a digit.
func NormalizeString(text string) string {
	if text != "" && unicode.IsDigit(rune(text[0])) {
		text = "_" + text
	}
	text = strings.TrimSpace(norm.NFKD.String(text))
	text = whitespaceRun.ReplaceAllString(text, "_")
	text = dashRun.ReplaceAllString(text, "_")
	return nonWord.ReplaceAllString(text, "_")
}
