package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
)

// maxAttempts is how many times a query is retried before the rate-limit
// condition is surfaced to the caller.
const maxAttempts = 3

// Service implements SearchService against the DuckDuckGo HTML endpoint.
// The HTML endpoint needs no API key but throttles aggressively; throttling
// is surfaced as interfaces.ErrRateLimited so the worker can slow down
// instead of failing the POI.
type Service struct {
	client     *http.Client
	endpoint   string
	region     string
	maxResults int
	userAgent  string
	logger     arbor.ILogger
}

// NewService creates a search service from the search configuration.
func NewService(config *common.SearchConfig, logger arbor.ILogger) interfaces.SearchService {
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Service{
		client:     httpclient.NewDefaultHTTPClient(timeout),
		endpoint:   config.Endpoint,
		region:     config.Region,
		maxResults: config.MaxResults,
		userAgent:  config.UserAgent,
		logger:     logger,
	}
}

func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			// Back off between attempts; throttling usually clears quickly.
			delay := time.Duration(attempt-1) * 5 * time.Second
			s.logger.Debug().Int("attempt", attempt).Dur("delay", delay).Msg("Retrying search after backoff")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		results, err := s.searchOnce(ctx, query)
		if err == nil {
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, lastErr
}

func (s *Service) searchOnce(ctx context.Context, query string) ([]models.SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)
	if s.region != "" {
		form.Set("kl", s.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	// The HTML endpoint signals throttling with a 202 challenge page or a
	// redirect instead of a normal result page.
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("search returned status %d: %w", resp.StatusCode, interfaces.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := parseResults(doc, s.maxResults)
	if len(results) == 0 {
		// An empty result page for a reasonable query is the throttle
		// serving a stub, not a genuine zero-hit query.
		if doc.Find(".no-results").Length() == 0 {
			return nil, fmt.Errorf("search returned no result elements: %w", interfaces.ErrRateLimited)
		}
	}

	return results, nil
}

// parseResults extracts organic results from a DuckDuckGo HTML result page.
func parseResults(doc *goquery.Document, limit int) []models.SearchResult {
	var results []models.SearchResult

	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}

		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}

		target := decodeRedirect(href)
		if target == "" {
			return true
		}

		results = append(results, models.SearchResult{
			URL:     target,
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return limit <= 0 || len(results) < limit
	})

	return results
}

// decodeRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the real
// target URL. Plain URLs pass through unchanged.
func decodeRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if strings.Contains(u.Host, "duckduckgo.com") && u.Path == "/l/" {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		return u.String()
	}
	return ""
}
