package discovery

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
)

// reusableCategories are municipally-operated categories where every POI in
// a city shares the same department website. Parks in Needham all point at
// the Needham parks and recreation page; searching for each one individually
// wastes search quota and classifier calls.
var reusableCategories = map[models.Category]bool{
	models.CategoryPark:       true,
	models.CategoryPlayground: true,
}

// ReuseResolver answers discovery phases from already-resolved siblings
// before any network work happens.
type ReuseResolver struct {
	pois   interfaces.POIStorage
	logger arbor.ILogger
}

func NewReuseResolver(pois interfaces.POIStorage, logger arbor.ILogger) *ReuseResolver {
	return &ReuseResolver{pois: pois, logger: logger}
}

// ResolveWebsite returns a reused website discovery if a sibling POI already
// has one, or nil when the POI must go through full discovery.
func (r *ReuseResolver) ResolveWebsite(ctx context.Context, poi *models.POI) (*models.WebsiteDiscovery, error) {
	if !reusableCategories[poi.Category] {
		return nil, nil
	}

	sibling, err := r.pois.FindSibling(ctx, poi, func(p *models.POI) bool {
		if p.EffectiveWebsite() == "" {
			return false
		}
		if p.SourceWebsite != "" {
			return true
		}
		return p.WebsiteStatus == models.WebsiteValidated || p.WebsiteStatus == models.WebsiteFound
	})
	if err != nil {
		return nil, fmt.Errorf("sibling lookup failed: %w", err)
	}
	if sibling == nil {
		return nil, nil
	}

	r.logger.Info().
		Str("poi", poi.ID).
		Str("sibling", sibling.ID).
		Str("website", sibling.EffectiveWebsite()).
		Msg("Reusing website from sibling")

	return &models.WebsiteDiscovery{
		Website:    sibling.EffectiveWebsite(),
		Confidence: 0.9,
		Reused:     true,
		Notes:      fmt.Sprintf("Reused from %s (%s)", sibling.Name, sibling.ID),
	}, nil
}

// ResolveEventsURL returns a reused events discovery if a sibling POI
// already has a discovered or validated events URL, or nil otherwise.
func (r *ReuseResolver) ResolveEventsURL(ctx context.Context, poi *models.POI) (*models.EventsDiscovery, error) {
	if !reusableCategories[poi.Category] {
		return nil, nil
	}

	sibling, err := r.pois.FindSibling(ctx, poi, func(p *models.POI) bool {
		if p.EventsURL == "" {
			return false
		}
		return p.SourceStatus == models.SourceDiscovered || p.SourceStatus == models.SourceValidated
	})
	if err != nil {
		return nil, fmt.Errorf("sibling lookup failed: %w", err)
	}
	if sibling == nil {
		return nil, nil
	}

	r.logger.Info().
		Str("poi", poi.ID).
		Str("sibling", sibling.ID).
		Str("events_url", sibling.EventsURL).
		Msg("Reusing events URL from sibling")

	return &models.EventsDiscovery{
		EventsURL:  sibling.EventsURL,
		Method:     models.MethodReused,
		Confidence: sibling.EventsURLConfidence,
		Notes:      fmt.Sprintf("Reused from %s (%s)", sibling.Name, sibling.ID),
	}, nil
}
