package discovery

import (
	"context"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/httpclient"
)

// CrawlOptions bound the homepage crawl.
type CrawlOptions struct {
	// MaxDepth is how many link hops from the start page are followed.
	// Depth 0 scans only the start page itself.
	MaxDepth int

	// FollowExternal allows hopping to other domains (hosted calendar
	// platforms live off-site).
	FollowExternal bool

	// MaxPages caps total pages fetched across the whole crawl.
	MaxPages int
}

type frontierEntry struct {
	url   string
	depth int
}

// Crawler walks a site looking for event links, breadth-first with an
// explicit frontier and visited set so termination is bounded by depth and
// page count rather than recursion.
type Crawler struct {
	fetcher *httpclient.Fetcher
	logger  arbor.ILogger
}

func NewCrawler(fetcher *httpclient.Fetcher, logger arbor.ILogger) *Crawler {
	return &Crawler{fetcher: fetcher, logger: logger}
}

// FindEventCandidates crawls from the start page and returns every
// high-confidence event link discovered, deduplicated and sorted best-first.
// startHTML is the already-rendered start page; pages beyond it are fetched
// plainly.
func (c *Crawler) FindEventCandidates(ctx context.Context, startURL, startHTML string, opts CrawlOptions) []ScoredLink {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}

	visited := map[string]bool{startURL: true}
	frontier := []frontierEntry{}
	pagesFetched := 0

	seen := make(map[string]bool)
	var candidates []ScoredLink

	collect := func(pageURL, html string, depth int) {
		for _, link := range FindEventLinks(html, pageURL) {
			if link.HighConfidence() && !seen[link.URL] {
				seen[link.URL] = true
				candidates = append(candidates, link)
			}
			if depth < opts.MaxDepth && !visited[link.URL] {
				if link.IsExternal && !opts.FollowExternal {
					continue
				}
				visited[link.URL] = true
				frontier = append(frontier, frontierEntry{url: link.URL, depth: depth + 1})
			}
		}
	}

	collect(startURL, startHTML, 0)

	for len(frontier) > 0 && pagesFetched < opts.MaxPages {
		if ctx.Err() != nil {
			break
		}
		entry := frontier[0]
		frontier = frontier[1:]

		fetched, err := c.fetcher.Fetch(ctx, entry.url)
		if err != nil || !fetched.Accessible || fetched.HTML == "" {
			continue
		}
		pagesFetched++

		collect(entry.url, fetched.HTML, entry.depth)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
