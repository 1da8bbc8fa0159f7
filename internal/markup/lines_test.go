package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLines(t *testing.T) {
	content := "*Bold*\n----Heading----\n1. first\n- dash\nplain text\n**"
	lines := RenderLines(content, 2)
	require.Len(t, lines, 6)

	want := []Line{
		{Kind: LineBold, Text: "Bold"},
		{Kind: LineHeading, Text: "Heading"},
		{Kind: LineListItem, Text: "1. first", Highlighted: true},
		{Kind: LineListItem, Text: "- dash"},
		{Kind: LinePlain, Text: "plain text"},
		{Kind: LinePlain, Text: "**"},
	}
	assert.Equal(t, want, lines)
}

func TestRenderLinesNoHighlight(t *testing.T) {
	for _, l := range RenderLines("a\nb", -1) {
		assert.False(t, l.Highlighted)
	}
}

func TestNarrationLines(t *testing.T) {
	got := NarrationLines("\nfirst\n  \nsecond\n")
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Nil(t, NarrationLines(" \n"))
}

func TestLineKindString(t *testing.T) {
	assert.Equal(t, "bold", LineBold.String())
	assert.Equal(t, "heading", LineHeading.String())
	assert.Equal(t, "list_item", LineListItem.String())
	assert.Equal(t, "plain", LinePlain.String())
}
