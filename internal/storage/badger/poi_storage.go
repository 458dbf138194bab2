package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// POIStorage implements the POIStorage interface for Badger
type POIStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPOIStorage creates a new POIStorage instance
func NewPOIStorage(db *BadgerDB, logger arbor.ILogger) interfaces.POIStorage {
	return &POIStorage{
		db:     db,
		logger: logger,
	}
}

func (s *POIStorage) UpsertPOI(ctx context.Context, poi *models.POI) error {
	if poi.OSMType == "" || poi.OSMID == 0 {
		return fmt.Errorf("POI OSM identity is required")
	}
	if poi.ID == "" {
		poi.ID = poi.Key()
	}
	if poi.ExtractedAt.IsZero() {
		poi.ExtractedAt = time.Now()
	}
	poi.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(poi.ID, poi); err != nil {
		return fmt.Errorf("failed to save POI: %w", err)
	}
	return nil
}

func (s *POIStorage) GetPOI(ctx context.Context, id string) (*models.POI, error) {
	var poi models.POI
	if err := s.db.Store().Get(id, &poi); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("POI not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get POI: %w", err)
	}
	return &poi, nil
}

// UpdatePOI applies only the non-nil fields of the update. Writes are
// field-scoped so concurrent phases never clobber each other's columns.
func (s *POIStorage) UpdatePOI(ctx context.Context, id string, update *interfaces.POIUpdate) error {
	var poi models.POI
	if err := s.db.Store().Get(id, &poi); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("POI not found: %s", id)
		}
		return fmt.Errorf("failed to get POI for update: %w", err)
	}

	if update.VenueStatus != nil {
		poi.VenueStatus = *update.VenueStatus
		if *update.VenueStatus == models.VenueSyncSynced {
			now := time.Now()
			poi.VenueSyncedAt = &now
		}
	}
	if update.VenueID != nil {
		poi.VenueID = *update.VenueID
	}
	if update.VenueSyncError != nil {
		poi.VenueSyncError = *update.VenueSyncError
	}
	if update.WebsiteStatus != nil {
		poi.WebsiteStatus = *update.WebsiteStatus
	}
	if update.DiscoveredWebsite != nil {
		poi.DiscoveredWebsite = *update.DiscoveredWebsite
	}
	if update.WebsiteDiscoveryNotes != nil {
		poi.WebsiteDiscoveryNotes = *update.WebsiteDiscoveryNotes
	}
	if update.SourceStatus != nil {
		poi.SourceStatus = *update.SourceStatus
	}
	if update.EventsURL != nil {
		poi.EventsURL = *update.EventsURL
	}
	if update.EventsURLMethod != nil {
		poi.EventsURLMethod = *update.EventsURLMethod
	}
	if update.EventsURLConfidence != nil {
		poi.EventsURLConfidence = *update.EventsURLConfidence
	}
	if update.EventsURLNotes != nil {
		poi.EventsURLNotes = *update.EventsURLNotes
	}

	poi.UpdatedAt = time.Now()

	if err := s.db.Store().Update(poi.ID, &poi); err != nil {
		return fmt.Errorf("failed to update POI: %w", err)
	}
	return nil
}

func (s *POIStorage) ListPOIs(ctx context.Context, filter *interfaces.POIFilter) ([]*models.POI, error) {
	pois, err := s.findFiltered(filter)
	if err != nil {
		return nil, err
	}
	if filter != nil && filter.Limit > 0 && len(pois) > filter.Limit {
		pois = pois[:filter.Limit]
	}
	return pois, nil
}

func (s *POIStorage) CountPOIs(ctx context.Context, filter *interfaces.POIFilter) (int, error) {
	pois, err := s.findFiltered(filter)
	if err != nil {
		return 0, err
	}
	return len(pois), nil
}

func (s *POIStorage) findFiltered(filter *interfaces.POIFilter) ([]*models.POI, error) {
	query := badgerhold.Where("ID").Ne("")
	if filter != nil {
		if filter.Category != "" {
			query = query.And("Category").Eq(filter.Category)
		}
		if filter.WebsiteStatus != "" {
			query = query.And("WebsiteStatus").Eq(filter.WebsiteStatus)
		}
		if filter.SourceStatus != "" {
			query = query.And("SourceStatus").Eq(filter.SourceStatus)
		}
	}

	var pois []models.POI
	if err := s.db.Store().Find(&pois, query); err != nil {
		return nil, fmt.Errorf("failed to list POIs: %w", err)
	}

	result := make([]*models.POI, 0, len(pois))
	for i := range pois {
		// City matching is case-insensitive; badgerhold compares exactly, so
		// filter here.
		if filter != nil && filter.City != "" && !strings.EqualFold(pois[i].City, filter.City) {
			continue
		}
		result = append(result, &pois[i])
	}
	return result, nil
}

// NextWebsiteCandidate selects the next POI needing website discovery.
// Ordering matches the extraction worker: category, then city, then name,
// so related POIs are processed together and reuse hits are maximized.
func (s *POIStorage) NextWebsiteCandidate(ctx context.Context, excluded []models.Category) (*models.POI, error) {
	var pois []models.POI
	query := badgerhold.Where("WebsiteStatus").Eq(models.WebsiteNotStarted).
		And("City").Ne("")
	if err := s.db.Store().Find(&pois, query); err != nil {
		return nil, fmt.Errorf("failed to query website candidates: %w", err)
	}

	return pickFirst(pois, func(p *models.POI) bool {
		return p.SourceWebsite == "" && !categoryExcluded(p.Category, excluded)
	}), nil
}

// NextEventsCandidate selects the next POI needing events-URL discovery. The
// effective-website gate is enforced here: a POI with no usable website is
// never returned.
func (s *POIStorage) NextEventsCandidate(ctx context.Context, excluded []models.Category) (*models.POI, error) {
	var pois []models.POI
	query := badgerhold.Where("SourceStatus").Eq(models.SourceNotStarted).
		And("City").Ne("")
	if err := s.db.Store().Find(&pois, query); err != nil {
		return nil, fmt.Errorf("failed to query events candidates: %w", err)
	}

	return pickFirst(pois, func(p *models.POI) bool {
		return p.HasWebsite() && !categoryExcluded(p.Category, excluded)
	}), nil
}

// FindSibling locates another POI in the same city and category whose
// operator matches the reuse rules: exact case-insensitive operator match
// when the POI has one, otherwise only other operator-less POIs.
func (s *POIStorage) FindSibling(ctx context.Context, poi *models.POI, hasValue func(*models.POI) bool) (*models.POI, error) {
	var pois []models.POI
	query := badgerhold.Where("Category").Eq(poi.Category)
	if err := s.db.Store().Find(&pois, query); err != nil {
		return nil, fmt.Errorf("failed to query siblings: %w", err)
	}

	candidates := make([]models.POI, 0)
	for i := range pois {
		other := &pois[i]
		if other.ID == poi.ID {
			continue
		}
		if !strings.EqualFold(other.City, poi.City) {
			continue
		}
		if poi.Operator != "" {
			if !strings.EqualFold(other.Operator, poi.Operator) {
				continue
			}
		} else if other.Operator != "" {
			continue
		}
		if !hasValue(other) {
			continue
		}
		candidates = append(candidates, *other)
	}

	return pickFirst(candidates, func(*models.POI) bool { return true }), nil
}

// pickFirst sorts by category/city/name and returns the first POI matching
// keep, or nil.
func pickFirst(pois []models.POI, keep func(*models.POI) bool) *models.POI {
	kept := make([]*models.POI, 0, len(pois))
	for i := range pois {
		if keep(&pois[i]) {
			kept = append(kept, &pois[i])
		}
	}
	if len(kept) == 0 {
		return nil
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Category != kept[j].Category {
			return kept[i].Category < kept[j].Category
		}
		if ci, cj := strings.ToLower(kept[i].City), strings.ToLower(kept[j].City); ci != cj {
			return ci < cj
		}
		return kept[i].Name < kept[j].Name
	})
	return kept[0]
}

func categoryExcluded(category models.Category, excluded []models.Category) bool {
	for _, c := range excluded {
		if category == c {
			return true
		}
	}
	return false
}
