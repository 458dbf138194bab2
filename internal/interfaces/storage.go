package interfaces

import (
	"context"

	"github.com/ternarybob/navigator/internal/models"
)

// POIUpdate carries a field-scoped partial update for a POI. Only non-nil
// fields are written, so a crash mid-phase never clobbers fields owned by
// another phase.
type POIUpdate struct {
	VenueStatus    *models.VenueSyncStatus
	VenueID        *int64
	VenueSyncError *string

	WebsiteStatus         *models.WebsiteStatus
	DiscoveredWebsite     *string
	WebsiteDiscoveryNotes *string

	SourceStatus        *models.SourceStatus
	EventsURL           *string
	EventsURLMethod     *string
	EventsURLConfidence *float64
	EventsURLNotes      *string
}

// POIFilter selects POIs by simple field predicates. Zero values mean "any".
type POIFilter struct {
	Category      models.Category
	City          string // matched case-insensitively
	WebsiteStatus models.WebsiteStatus
	SourceStatus  models.SourceStatus
	Limit         int
}

// POIStorage persists POI records.
type POIStorage interface {
	// UpsertPOI inserts or replaces a POI keyed by its OSM identity.
	UpsertPOI(ctx context.Context, poi *models.POI) error

	// GetPOI returns the POI with the given ID, or an error if not found.
	GetPOI(ctx context.Context, id string) (*models.POI, error)

	// UpdatePOI applies a field-scoped partial update to the POI.
	UpdatePOI(ctx context.Context, id string, update *POIUpdate) error

	// ListPOIs returns POIs matching the filter.
	ListPOIs(ctx context.Context, filter *POIFilter) ([]*models.POI, error)

	// NextWebsiteCandidate returns the next POI needing website discovery:
	// no source website, website phase not started, city present, category
	// not excluded. Returns nil when there is no work.
	NextWebsiteCandidate(ctx context.Context, excluded []models.Category) (*models.POI, error)

	// NextEventsCandidate returns the next POI needing events-URL discovery:
	// effective website present, source phase not started, city present,
	// category not excluded. Returns nil when there is no work.
	NextEventsCandidate(ctx context.Context, excluded []models.Category) (*models.POI, error)

	// FindSibling returns another POI in the same city (case-insensitive)
	// and category whose operator matches per the reuse rules and for which
	// hasValue returns true. Returns nil when no sibling qualifies.
	FindSibling(ctx context.Context, poi *models.POI, hasValue func(*models.POI) bool) (*models.POI, error)

	// CountPOIs returns the number of POIs matching the filter.
	CountPOIs(ctx context.Context, filter *POIFilter) (int, error)
}

// BlocklistStorage persists the domain blocklist.
type BlocklistStorage interface {
	// AddDomain inserts a blocked domain; adding an existing domain is a no-op.
	AddDomain(ctx context.Context, domain, reason string) error

	// RemoveDomain deletes a blocked domain.
	RemoveDomain(ctx context.Context, domain string) error

	// ListDomains returns every blocked domain.
	ListDomains(ctx context.Context) ([]*models.BlockedDomain, error)
}

// WorkerStorage persists worker status rows.
type WorkerStorage interface {
	// GetOrCreateWorker returns the status row for the worker type,
	// creating it if absent.
	GetOrCreateWorker(ctx context.Context, workerType models.WorkerType) (*models.WorkerStatus, error)

	// SaveWorker upserts the worker status row.
	SaveWorker(ctx context.Context, status *models.WorkerStatus) error
}

// StorageManager aggregates the storage interfaces behind a single
// lifecycle.
type StorageManager interface {
	POIStorage() POIStorage
	BlocklistStorage() BlocklistStorage
	WorkerStorage() WorkerStorage
	Close() error
}
