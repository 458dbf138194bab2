package models

import (
	"fmt"
	"time"
)

// Category is the closed set of POI categories extracted from OpenStreetMap.
type Category string

const (
	CategoryLibrary         Category = "library"
	CategoryMuseum          Category = "museum"
	CategoryCommunityCentre Category = "community_centre"
	CategoryTheatre         Category = "theatre"
	CategoryArtsCentre      Category = "arts_centre"
	CategorySchool          Category = "school"
	CategoryUniversity      Category = "university"
	CategoryPark            Category = "park"
	CategoryPlayground      Category = "playground"
	CategorySportsCentre    Category = "sports_centre"
	CategoryTownHall        Category = "townhall"
)

// Categories lists every valid POI category.
var Categories = []Category{
	CategoryLibrary, CategoryMuseum, CategoryCommunityCentre, CategoryTheatre,
	CategoryArtsCentre, CategorySchool, CategoryUniversity, CategoryPark,
	CategoryPlayground, CategorySportsCentre, CategoryTownHall,
}

// VenueSyncStatus tracks whether a POI has been pushed to the backend as a venue.
type VenueSyncStatus string

const (
	VenueSyncPending VenueSyncStatus = "pending"
	VenueSyncSynced  VenueSyncStatus = "synced"
	VenueSyncFailed  VenueSyncStatus = "failed"
)

// WebsiteStatus tracks the website discovery phase for a POI.
type WebsiteStatus string

const (
	WebsiteNotStarted WebsiteStatus = "not_started"
	WebsiteProcessing WebsiteStatus = "processing"
	WebsiteFound      WebsiteStatus = "found"
	WebsiteValidated  WebsiteStatus = "validated"
	WebsiteRejected   WebsiteStatus = "rejected"
	WebsiteNotFound   WebsiteStatus = "not_found"
	WebsiteFailed     WebsiteStatus = "failed"
)

// SourceStatus tracks the events-URL discovery phase for a POI.
type SourceStatus string

const (
	SourceNotStarted SourceStatus = "not_started"
	SourceProcessing SourceStatus = "processing"
	SourceDiscovered SourceStatus = "discovered"
	SourceValidated  SourceStatus = "validated"
	SourceRejected   SourceStatus = "rejected"
	SourceNoEvents   SourceStatus = "no_events"
	SourceSkipped    SourceStatus = "skipped"
)

// Discovery method tags recorded on events_url_method.
const (
	MethodReused     = "reused"
	MethodDirectPath = "direct_path"
	MethodLinkCrawl  = "link_crawl"
)

// POI is a point of interest extracted from OpenStreetMap. Navigator keeps
// its own copy; venues are synced to the backend via the sync service and
// event sources are discovered in a separate phase.
type POI struct {
	ID string `json:"id" badgerhold:"key"`

	// OSM identity (unique pair)
	OSMType string `json:"osm_type" badgerhold:"index"`
	OSMID   int64  `json:"osm_id"`

	Name     string   `json:"name"`
	Category Category `json:"category" badgerhold:"index"`

	// Location
	StreetAddress string   `json:"street_address,omitempty"`
	City          string   `json:"city,omitempty" badgerhold:"index"`
	State         string   `json:"state,omitempty"`
	PostalCode    string   `json:"postal_code,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`

	// From OSM tags
	SourceWebsite string `json:"source_website,omitempty"`
	Phone         string `json:"phone,omitempty"`
	OpeningHours  string `json:"opening_hours,omitempty"`
	Operator      string `json:"operator,omitempty"`

	// Venue sync (step 1)
	VenueStatus    VenueSyncStatus `json:"venue_status" badgerhold:"index"`
	VenueID        int64           `json:"venue_id,omitempty"`
	VenueSyncedAt  *time.Time      `json:"venue_synced_at,omitempty"`
	VenueSyncError string          `json:"venue_sync_error,omitempty"`

	// Website discovery (step 2)
	WebsiteStatus         WebsiteStatus `json:"website_status" badgerhold:"index"`
	DiscoveredWebsite     string        `json:"discovered_website,omitempty"`
	WebsiteDiscoveryNotes string        `json:"website_discovery_notes,omitempty"`

	// Events URL discovery (step 3)
	SourceStatus        SourceStatus `json:"source_status" badgerhold:"index"`
	EventsURL           string       `json:"events_url,omitempty"`
	EventsURLMethod     string       `json:"events_url_method,omitempty"`
	EventsURLConfidence float64      `json:"events_url_confidence,omitempty"`
	EventsURLNotes      string       `json:"events_url_notes,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the unique OSM identity key for a POI.
func (p *POI) Key() string {
	return fmt.Sprintf("%s/%d", p.OSMType, p.OSMID)
}

// EffectiveWebsite returns the best available website: the OSM-provided one
// if present, otherwise the discovered one.
func (p *POI) EffectiveWebsite() string {
	if p.SourceWebsite != "" {
		return p.SourceWebsite
	}
	return p.DiscoveredWebsite
}

// HasWebsite reports whether the POI has any usable website.
func (p *POI) HasWebsite() bool {
	return p.EffectiveWebsite() != ""
}

// OSMURL returns the OpenStreetMap page for this POI.
func (p *POI) OSMURL() string {
	return fmt.Sprintf("https://www.openstreetmap.org/%s/%d", p.OSMType, p.OSMID)
}

// IsValidCategory reports whether s is a known POI category.
func IsValidCategory(s string) bool {
	for _, c := range Categories {
		if Category(s) == c {
			return true
		}
	}
	return false
}
