package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/navigator/internal/common"
	"golang.org/x/time/rate"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// FetchResult is the outcome of fetching a page.
type FetchResult struct {
	StatusCode  int
	ContentType string
	HTML        string

	// Accessible means the site answered in a way that proves it exists.
	// A 403 from a trusted TLD counts: institutional sites often block
	// bots but the domain is still the right answer.
	Accessible bool
}

// Fetcher fetches pages with browser-like headers and a per-domain rate
// limit. Many municipal sites throttle or block crawlers that hit them
// back-to-back.
type Fetcher struct {
	client    *http.Client
	userAgent string
	perDomain float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a Fetcher from the fetch configuration.
func NewFetcher(config *common.FetchConfig) *Fetcher {
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	perDomain := config.RequestsPerSec
	if perDomain <= 0 {
		perDomain = 1.0
	}

	return &Fetcher{
		client:    NewDefaultHTTPClient(timeout),
		userAgent: config.UserAgent,
		perDomain: perDomain,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (f *Fetcher) limiter(domain string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[domain]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.perDomain), 1)
		f.limiters[domain] = l
	}
	return l
}

// Fetch retrieves the URL and reports whether the page is an accessible HTML
// document. Non-HTML responses (PDFs and the like) are never accessible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	domain := common.ExtractDomain(rawURL)
	if domain == "" {
		return nil, fmt.Errorf("invalid URL: %s", rawURL)
	}

	if err := f.limiter(domain).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	result := &FetchResult{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
	}

	// Institutional sites (.gov, .edu, .org) commonly 403 automated
	// requests. The domain is still reachable and valid, we just cannot
	// read the page body.
	if resp.StatusCode == http.StatusForbidden && common.HasTrustedTLD(domain) {
		result.Accessible = true
		return result, nil
	}

	if resp.StatusCode != http.StatusOK {
		return result, nil
	}
	if !isHTML(contentType) {
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	result.HTML = string(body)
	result.Accessible = true
	return result, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
