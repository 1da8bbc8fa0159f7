package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"exact", "hello", 5, []string{"hello"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"newline split", "aaaa\nbbbbbb", 8, []string{"aaaa\n", "bbbbbb"}},
		{"newline too early", "a\nbbbbbbbbb", 8, []string{"a\nbbbbbb", "bbb"}},
		{"multibyte", "ééééé", 2, []string{"éé", "éé", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitMessage(tt.text, tt.maxLen))
		})
	}
}

func TestSplitMessageKeepsContent(t *testing.T) {
	text := strings.Repeat("строка текста\n", 500)
	parts := SplitMessage(text, 100)
	assert.Equal(t, text, strings.Join(parts, ""))
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 100)
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "abc…", Preview("abcdefgh", 4))
	assert.Equal(t, "пр…", Preview("привет", 3))
}
