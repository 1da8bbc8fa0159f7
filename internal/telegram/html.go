package telegram

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/set-night/streamchat/internal/markup"
)

// RenderHTML turns formatted reply content into Telegram HTML, one line per
// classified line.
func RenderHTML(content string) string {
	lines := markup.RenderLines(content, -1)
	out := make([]string, len(lines))
	for i, l := range lines {
		text := html.EscapeString(l.Text)
		switch l.Kind {
		case markup.LineBold:
			out[i] = "<b>" + text + "</b>"
		case markup.LineHeading:
			out[i] = "<b><u>" + text + "</u></b>"
		case markup.LineListItem:
			if rest, ok := strings.CutPrefix(text, "- "); ok {
				text = "• " + rest
			}
			out[i] = text
		default:
			out[i] = text
		}
	}
	return strings.Join(out, "\n")
}

// PlainText strips markup from rendered HTML. It is the fallback when Telegram
// rejects the entities of a message.
func PlainText(htmlText string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + htmlText + "</div>"))
	if err != nil {
		return htmlText
	}
	return doc.Find("div").First().Text()
}
