// Package markup normalizes the small markup vocabulary completion models emit
// (bold runs, ----headings----, numbered and dashed lists) for display and narration.
package markup

import "regexp"

var (
	emphasisRe = regexp.MustCompile(`\*([^*]+)\*`)
	headingRe  = regexp.MustCompile(`----([^-\n]+)----`)
	listItemRe = regexp.MustCompile(`(\d+\.\s|-\s)`)
)

// Format strips emphasis and heading markers and puts every list marker on its own line.
// Unterminated markers are left as they are, so formatting a growing buffer is safe:
// a marker is only rewritten once its closing half has arrived.
func Format(raw string) string {
	s := emphasisRe.ReplaceAllString(raw, "${1}")
	s = headingRe.ReplaceAllString(s, "${1}")
	return listItemRe.ReplaceAllString(s, "\n${1}")
}
