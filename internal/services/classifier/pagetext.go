package classifier

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// maxPageChars caps extracted page text before prompt-level truncation.
const maxPageChars = 6000

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// PageTextFromHTML converts page HTML to markdown text suitable for a
// classification prompt. Markdown keeps headings and link text, which carry
// most of the signal on municipal pages.
func PageTextFromHTML(html string) string {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "nav", "noscript")

	text, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}

	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text
}
