package search

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultPage = `
<html><body>
<div class="result result--ad">
  <a class="result__a" href="https://ads.example.com/buy">Sponsored thing</a>
</div>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fnewtonfreelibrary.net%2F&amp;rut=abc">Newton Free Library</a>
  <a class="result__snippet">The official website of the Newton Free Library.</a>
</div>
<div class="result">
  <a class="result__a" href="https://www.newtonma.gov/government/library">Library | Newton, MA</a>
  <a class="result__snippet">City of Newton library page.</a>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultPage))
	require.NoError(t, err)

	results := parseResults(doc, 5)
	require.Len(t, results, 2, "ads must be skipped")

	assert.Equal(t, "https://newtonfreelibrary.net/", results[0].URL)
	assert.Equal(t, "Newton Free Library", results[0].Title)
	assert.Contains(t, results[0].Snippet, "official website")

	assert.Equal(t, "https://www.newtonma.gov/government/library", results[1].URL)
}

func TestParseResultsLimit(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultPage))
	require.NoError(t, err)

	results := parseResults(doc, 1)
	assert.Len(t, results, 1)
}

func TestDecodeRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"wrapped redirect", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fevents&rut=xyz", "https://example.org/events"},
		{"plain https", "https://example.org/", "https://example.org/"},
		{"plain http", "http://example.org/", "http://example.org/"},
		{"redirect without target", "//duckduckgo.com/l/?rut=xyz", ""},
		{"javascript href", "javascript:void(0)", ""},
		{"garbage", "::::", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeRedirect(tt.href))
		})
	}
}
