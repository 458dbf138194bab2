package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/navigator/internal/models"
)

// ErrRateLimited is returned by SearchService when the provider signals
// exhaustion. The worker's pacing controller reacts to it; it is not a POI
// failure.
var ErrRateLimited = errors.New("search provider rate limited")

// SearchService wraps the web search provider.
type SearchService interface {
	// Search runs a query and returns results in provider order. A
	// rate-limit condition is surfaced as ErrRateLimited (possibly wrapped)
	// so the caller can distinguish it from ordinary failures.
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// BrowserService wraps the headless browser used for screenshots and for
// rendering JavaScript-heavy homepages during link crawling.
type BrowserService interface {
	// Screenshot navigates to the URL and captures a viewport screenshot.
	Screenshot(ctx context.Context, url string) ([]byte, error)

	// RenderHTML navigates to the URL and returns the rendered DOM.
	RenderHTML(ctx context.Context, url string) (string, error)

	Close() error
}

// SyncService pushes venues to the backend.
type SyncService interface {
	// SyncVenue upserts the POI as a venue keyed by its OSM identity and
	// returns the backend venue ID.
	SyncVenue(ctx context.Context, poi *models.POI) (int64, error)

	// Enabled reports whether sync is configured (API token present).
	Enabled() bool
}

// BlocklistService answers domain-blocked queries and records auto-blocks.
type BlocklistService interface {
	// IsBlocked reports whether the URL's domain (or a parent domain) is
	// blocked, either by the stored blocklist or the compiled-in
	// never-official set.
	IsBlocked(rawURL string) bool

	// IsDomainBlocked is IsBlocked for a bare domain.
	IsDomainBlocked(domain string) bool

	// AutoBlock adds the domain to the blocklist unless it carries a
	// protected TLD. Returns true if the domain was added.
	AutoBlock(ctx context.Context, domain, reason string) bool

	// Refresh reloads the stored blocklist.
	Refresh(ctx context.Context) error
}
