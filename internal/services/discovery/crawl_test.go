package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestCrawlerDepthZeroScansStartPageOnly(t *testing.T) {
	server := newEventsServer(t, map[string]string{
		"/deeper": `<html><body><a href="/hidden-calendar">Event Calendar</a></body></html>`,
	})
	startHTML := `<html><body>
	<a href="/events">Upcoming Events</a>
	<a href="/deeper">Site Map</a>
	</body></html>`

	crawler := NewCrawler(newTestFetcher(t), arbor.NewLogger())
	links := crawler.FindEventCandidates(context.Background(), server.URL+"/", startHTML, CrawlOptions{MaxDepth: 0})

	require.Len(t, links, 1)
	assert.Equal(t, server.URL+"/events", links[0].URL)
}

func TestCrawlerFollowsFrontierToDepth(t *testing.T) {
	server := newEventsServer(t, map[string]string{
		"/events": `<html><body>
		<a href="/events/calendar">Event Calendar</a>
		</body></html>`,
	})
	startHTML := `<html><body><a href="/events">Upcoming Events</a></body></html>`

	crawler := NewCrawler(newTestFetcher(t), arbor.NewLogger())
	links := crawler.FindEventCandidates(context.Background(), server.URL+"/", startHTML, CrawlOptions{MaxDepth: 1})

	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	assert.Contains(t, urls, server.URL+"/events")
	assert.Contains(t, urls, server.URL+"/events/calendar")
}

func TestCrawlerSkipsExternalWhenNotAllowed(t *testing.T) {
	startHTML := `<html><body>
	<a href="https://other.example.com/events">Upcoming Events</a>
	</body></html>`

	crawler := NewCrawler(newTestFetcher(t), arbor.NewLogger())
	links := crawler.FindEventCandidates(context.Background(), "https://example.org/", startHTML, CrawlOptions{
		MaxDepth:       1,
		FollowExternal: false,
		MaxPages:       3,
	})

	// The external link is still reported as a candidate; it is just never
	// fetched as a frontier page.
	require.Len(t, links, 1)
	assert.True(t, links[0].IsExternal)
}
