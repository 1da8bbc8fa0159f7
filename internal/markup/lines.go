package markup

import (
	"regexp"
	"strings"
)

type LineKind int

const (
	LinePlain LineKind = iota
	LineBold
	LineHeading
	LineListItem
)

func (k LineKind) String() string {
	switch k {
	case LineBold:
		return "bold"
	case LineHeading:
		return "heading"
	case LineListItem:
		return "list_item"
	default:
		return "plain"
	}
}

// Line is one classified display line.
type Line struct {
	Kind        LineKind
	Text        string
	Highlighted bool
}

var listPrefixRe = regexp.MustCompile(`^(\d+\.\s|-\s)`)

// RenderLines splits content on newlines and classifies each line by its raw markers.
// highlight marks the line currently being narrated; pass -1 for none.
func RenderLines(content string, highlight int) []Line {
	raw := strings.Split(content, "\n")
	lines := make([]Line, 0, len(raw))
	for i, l := range raw {
		line := Line{Kind: LinePlain, Text: l, Highlighted: i == highlight}
		switch {
		case len(l) > 2 && strings.HasPrefix(l, "*") && strings.HasSuffix(l, "*"):
			line.Kind = LineBold
			line.Text = l[1 : len(l)-1]
		case len(l) > 8 && strings.HasPrefix(l, "----") && strings.HasSuffix(l, "----"):
			line.Kind = LineHeading
			line.Text = l[4 : len(l)-4]
		case listPrefixRe.MatchString(l):
			line.Kind = LineListItem
		}
		lines = append(lines, line)
	}
	return lines
}

// NarrationLines returns the non-blank lines of content in the order a narrator reads them.
func NarrationLines(content string) []string {
	var out []string
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
