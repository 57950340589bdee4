// Package terms tokenizes user-entered search terms.
//
// A term wrapped in double quotes is kept as one phrase token; unquoted text
// splits on commas and whitespace. All tokens are case-folded so matching is
// case-insensitive without each caller folding again
package terms

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Fold lower-cases s with full Unicode case folding
func Fold(s string) string { return folder.String(s) }

// Tokenize splits raw rule text into folded tokens. Quoted phrases come
// first, then the remaining words; empty tokens are dropped
func Tokenize(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var tokens []string
	var rest strings.Builder

	for {
		open := strings.IndexByte(raw, '"')
		if open < 0 {
			rest.WriteString(raw)
			break
		}
		close := strings.IndexByte(raw[open+1:], '"')
		if close < 0 {
			// unbalanced quote, treat the rest as plain words
			rest.WriteString(raw)
			break
		}
		rest.WriteString(raw[:open])
		rest.WriteByte(' ')
		if phrase := strings.TrimSpace(raw[open+1 : open+1+close]); phrase != "" {
			tokens = append(tokens, Fold(phrase))
		}
		raw = raw[open+close+2:]
	}

	for _, w := range strings.FieldsFunc(rest.String(), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		if w = strings.TrimSpace(w); w != "" {
			tokens = append(tokens, Fold(w))
		}
	}
	return tokens
}
