package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/ternarybob/navigator/internal/services/discovery"
)

// Revalidator periodically re-checks discovered events URLs. Sites get
// restructured and calendars move; a URL that validated months ago may now
// 404 or hold no events at all.
type Revalidator struct {
	pois    interfaces.POIStorage
	fetcher *httpclient.Fetcher
	limit   int
	logger  arbor.ILogger
}

func NewRevalidator(pois interfaces.POIStorage, fetcher *httpclient.Fetcher, config *common.RevalidateConfig, logger arbor.ILogger) *Revalidator {
	limit := config.Limit
	if limit <= 0 {
		limit = 50
	}
	return &Revalidator{
		pois:    pois,
		fetcher: fetcher,
		limit:   limit,
		logger:  logger,
	}
}

// Schedule registers the sweep on the cron runner. The caller owns starting
// and stopping the runner.
func (r *Revalidator) Schedule(ctx context.Context, runner *cron.Cron, spec string) error {
	_, err := runner.AddFunc(spec, func() {
		if err := r.Sweep(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Revalidation sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid revalidation schedule %q: %w", spec, err)
	}
	return nil
}

// Sweep re-fetches up to limit validated events URLs and downgrades the ones
// that no longer show events.
func (r *Revalidator) Sweep(ctx context.Context) error {
	pois, err := r.pois.ListPOIs(ctx, &interfaces.POIFilter{
		SourceStatus: models.SourceValidated,
		Limit:        r.limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list validated POIs: %w", err)
	}

	checked, downgraded := 0, 0
	for _, poi := range pois {
		if ctx.Err() != nil {
			break
		}
		if poi.EventsURL == "" {
			continue
		}
		checked++

		fetched, err := r.fetcher.Fetch(ctx, poi.EventsURL)
		if err != nil || !fetched.Accessible {
			r.downgrade(ctx, poi, "Revalidation: events URL no longer reachable")
			downgraded++
			continue
		}
		if fetched.HTML == "" {
			// Trusted-TLD 403: reachable but unreadable, leave it alone.
			continue
		}

		validation := discovery.ValidatePage(fetched.HTML)
		if !validation.HasEvents {
			r.downgrade(ctx, poi, fmt.Sprintf("Revalidation: no event content (score %.1f)", validation.Score))
			downgraded++
		}
	}

	r.logger.Info().Int("checked", checked).Int("downgraded", downgraded).Msg("Revalidation sweep complete")
	return nil
}

// downgrade drops the POI back to discovered so the next sweep (or a manual
// pass) can confirm before the URL is removed outright.
func (r *Revalidator) downgrade(ctx context.Context, poi *models.POI, reason string) {
	discovered := models.SourceDiscovered
	if err := r.pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
		SourceStatus:   &discovered,
		EventsURLNotes: &reason,
	}); err != nil {
		r.logger.Warn().Err(err).Str("poi", poi.ID).Msg("Failed to downgrade events URL")
		return
	}
	r.logger.Info().Str("poi", poi.ID).Str("events_url", poi.EventsURL).Str("reason", reason).Msg("Events URL downgraded")
}
