package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	stdsync "sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/ternarybob/navigator/internal/services/discovery"
)

// Worker runs the discovery loop: pick the next POI needing work, resolve it
// by reuse or full discovery, persist the outcome, and pace itself off the
// search provider's rate-limit signals.
type Worker struct {
	config    *common.Config
	storage   interfaces.StorageManager
	websites  *discovery.WebsiteFinder
	events    *discovery.EventsFinder
	reuse     *discovery.ReuseResolver
	blocklist interfaces.BlocklistService
	venues    interfaces.SyncService
	logger    arbor.ILogger

	pacing  *PacingController
	breaker *CircuitBreaker

	mu     stdsync.Mutex
	status *models.WorkerStatus

	heartbeatInterval time.Duration
	idleSleep         time.Duration
	excluded          []models.Category
}

// New assembles the worker from its collaborators.
func New(config *common.Config, storage interfaces.StorageManager, websites *discovery.WebsiteFinder, events *discovery.EventsFinder, blocklist interfaces.BlocklistService, venues interfaces.SyncService, logger arbor.ILogger) *Worker {
	heartbeat, err := time.ParseDuration(config.Worker.HeartbeatInterval)
	if err != nil || heartbeat <= 0 {
		heartbeat = 10 * time.Second
	}
	idle, err := time.ParseDuration(config.Worker.IdleSleep)
	if err != nil || idle <= 0 {
		idle = 30 * time.Second
	}

	var excluded []models.Category
	for _, c := range config.Worker.ExcludedCategory {
		if models.IsValidCategory(c) {
			excluded = append(excluded, models.Category(c))
		} else {
			logger.Warn().Str("category", c).Msg("Ignoring unknown excluded category")
		}
	}

	return &Worker{
		config:            config,
		storage:           storage,
		websites:          websites,
		events:            events,
		reuse:             discovery.NewReuseResolver(storage.POIStorage(), logger),
		blocklist:         blocklist,
		venues:            venues,
		logger:            logger,
		pacing:            NewPacingController(),
		breaker:           NewCircuitBreaker(),
		heartbeatInterval: heartbeat,
		idleSleep:         idle,
		excluded:          excluded,
	}
}

// Run executes the worker loop until the context is cancelled. Cancellation
// is graceful: the in-flight POI finishes (or is reset) and the status row is
// marked stopped before returning.
func (w *Worker) Run(ctx context.Context) error {
	status, err := w.storage.WorkerStorage().GetOrCreateWorker(ctx, models.WorkerTypeURLDiscovery)
	if err != nil {
		return fmt.Errorf("failed to load worker status: %w", err)
	}

	now := time.Now()
	hostname, _ := os.Hostname()
	status.Hostname = hostname
	status.PID = os.Getpid()
	status.IsRunning = true
	status.StartedAt = &now
	status.LastHeartbeat = &now

	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
	if err := w.saveStatus(ctx); err != nil {
		return err
	}

	if err := w.recoverStalled(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to recover stalled POIs")
	}

	var wg stdsync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.heartbeatLoop(ctx)
	}()
	defer wg.Wait()

	w.logger.Info().
		Str("heartbeat", w.heartbeatInterval.String()).
		Str("idle_sleep", w.idleSleep.String()).
		Bool("vision", w.config.Worker.UseVision).
		Msg("Discovery worker started")

	for {
		if ctx.Err() != nil {
			return w.shutdown()
		}

		if pause := w.breaker.PauseRemaining(); pause > 0 {
			w.logger.Warn().Str("pause", pause.String()).Msg("Circuit breaker open, pausing")
			if !sleepCtx(ctx, pause) {
				return w.shutdown()
			}
			continue
		}

		worked, err := w.processNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return w.shutdown()
			}
			w.withStatus(func(s *models.WorkerStatus) { s.Errors++ })
			if w.breaker.OnError() {
				w.logger.Error().Err(err).Msg("Consecutive error threshold reached, tripping circuit breaker")
			} else {
				w.logger.Error().Err(err).Msg("POI processing failed")
			}
		}

		if !worked {
			if !sleepCtx(ctx, w.idleSleep) {
				return w.shutdown()
			}
			continue
		}

		if !sleepCtx(ctx, w.pacing.Delay()) {
			return w.shutdown()
		}
	}
}

// heartbeatLoop refreshes the status row so a dashboard (or a second worker
// instance) can tell a live worker from a dead one.
func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			w.withStatus(func(s *models.WorkerStatus) {
				s.LastHeartbeat = &now
				s.SleepSeconds = w.pacing.Delay().Seconds()
			})
			if err := w.saveStatus(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Warn().Err(err).Msg("Heartbeat save failed")
			}
		}
	}
}

// processNext claims and processes one POI. Website discovery takes priority
// over events discovery so every POI has a site before any gets a calendar.
func (w *Worker) processNext(ctx context.Context) (bool, error) {
	pois := w.storage.POIStorage()

	poi, err := pois.NextWebsiteCandidate(ctx, w.excluded)
	if err != nil {
		return false, fmt.Errorf("website candidate lookup failed: %w", err)
	}
	if poi != nil {
		return true, w.processWebsite(ctx, poi)
	}

	poi, err = pois.NextEventsCandidate(ctx, w.excluded)
	if err != nil {
		return false, fmt.Errorf("events candidate lookup failed: %w", err)
	}
	if poi != nil {
		return true, w.processEvents(ctx, poi)
	}

	return false, nil
}

func (w *Worker) processWebsite(ctx context.Context, poi *models.POI) error {
	w.setCurrent(ctx, poi, "website")
	defer w.clearCurrent(ctx)

	pois := w.storage.POIStorage()
	processing := models.WebsiteProcessing
	if err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{WebsiteStatus: &processing}); err != nil {
		return fmt.Errorf("failed to claim POI %s: %w", poi.ID, err)
	}

	reused, err := w.reuse.ResolveWebsite(ctx, poi)
	if err != nil {
		w.resetWebsite(ctx, poi.ID)
		return err
	}
	if reused != nil && w.blocklist != nil && w.blocklist.IsBlocked(reused.Website) {
		// The sibling's domain was blocked after its own write. Fall through
		// to full discovery instead of propagating the bad URL.
		w.logger.Warn().Str("poi", poi.ID).Str("website", reused.Website).Msg("Sibling website is now blocked, ignoring reuse")
		reused = nil
	}
	if reused != nil {
		found := models.WebsiteFound
		err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
			WebsiteStatus:         &found,
			DiscoveredWebsite:     &reused.Website,
			WebsiteDiscoveryNotes: &reused.Notes,
		})
		if err != nil {
			return err
		}
		w.withStatus(func(s *models.WorkerStatus) {
			s.POIsProcessed++
			s.DiscoveriesReused++
			s.WebsitesFound++
		})
		w.breaker.OnSuccess()
		poi.DiscoveredWebsite = reused.Website
		w.syncVenue(ctx, poi)
		return nil
	}

	result, err := w.websites.FindWebsite(ctx, poi)
	if err != nil {
		// Transient failure: put the POI back in the queue rather than
		// burying it under a failed status.
		w.resetWebsite(ctx, poi.ID)
		return err
	}

	if result.RateLimited {
		w.pacing.OnRateLimit()
		w.resetWebsite(ctx, poi.ID)
		w.logger.Warn().
			Str("poi", poi.ID).
			Str("delay", w.pacing.Delay().String()).
			Msg("Search rate limited, backing off")
		return nil
	}

	w.pacing.OnSuccess()
	w.breaker.OnSuccess()
	w.withStatus(func(s *models.WorkerStatus) { s.POIsProcessed++ })

	if result.Website != "" {
		validated := models.WebsiteValidated
		err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
			WebsiteStatus:         &validated,
			DiscoveredWebsite:     &result.Website,
			WebsiteDiscoveryNotes: &result.Notes,
		})
		if err != nil {
			return err
		}
		w.withStatus(func(s *models.WorkerStatus) {
			s.DiscoveriesFound++
			s.WebsitesFound++
		})
		w.logger.Info().
			Str("poi", poi.ID).
			Str("name", poi.Name).
			Str("website", result.Website).
			Float64("confidence", result.Confidence).
			Msg("Website discovered")
		poi.DiscoveredWebsite = result.Website
		poi.WebsiteStatus = validated
		w.syncVenue(ctx, poi)
		return nil
	}

	notFound := models.WebsiteNotFound
	if err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
		WebsiteStatus:         &notFound,
		WebsiteDiscoveryNotes: &result.Notes,
	}); err != nil {
		return err
	}
	w.withStatus(func(s *models.WorkerStatus) { s.WebsitesNotFound++ })
	w.logger.Info().Str("poi", poi.ID).Str("name", poi.Name).Str("notes", result.Notes).Msg("No website found")
	return nil
}

func (w *Worker) processEvents(ctx context.Context, poi *models.POI) error {
	w.setCurrent(ctx, poi, "events")
	defer w.clearCurrent(ctx)

	pois := w.storage.POIStorage()

	// A blocked website can never yield an acceptable events page.
	if w.blocklist != nil && w.blocklist.IsBlocked(poi.EffectiveWebsite()) {
		skipped := models.SourceSkipped
		notes := "Website domain is blocked"
		if err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
			SourceStatus:   &skipped,
			EventsURLNotes: &notes,
		}); err != nil {
			return err
		}
		w.withStatus(func(s *models.WorkerStatus) { s.POIsProcessed++ })
		w.logger.Info().Str("poi", poi.ID).Str("name", poi.Name).Str("website", poi.EffectiveWebsite()).Msg("Skipping events discovery, website domain is blocked")
		return nil
	}

	processing := models.SourceProcessing
	if err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{SourceStatus: &processing}); err != nil {
		return fmt.Errorf("failed to claim POI %s: %w", poi.ID, err)
	}

	reused, err := w.reuse.ResolveEventsURL(ctx, poi)
	if err != nil {
		w.resetEvents(ctx, poi.ID)
		return err
	}
	if reused != nil && w.blocklist != nil && w.blocklist.IsBlocked(reused.EventsURL) {
		w.logger.Warn().Str("poi", poi.ID).Str("events_url", reused.EventsURL).Msg("Sibling events URL is now blocked, ignoring reuse")
		reused = nil
	}
	if reused != nil {
		discovered := models.SourceDiscovered
		err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
			SourceStatus:        &discovered,
			EventsURL:           &reused.EventsURL,
			EventsURLMethod:     &reused.Method,
			EventsURLConfidence: &reused.Confidence,
			EventsURLNotes:      &reused.Notes,
		})
		if err != nil {
			return err
		}
		w.withStatus(func(s *models.WorkerStatus) {
			s.POIsProcessed++
			s.DiscoveriesReused++
		})
		w.breaker.OnSuccess()
		return nil
	}

	result, err := w.events.FindEventsPage(ctx, poi)
	if err != nil {
		w.resetEvents(ctx, poi.ID)
		return err
	}

	w.pacing.OnSuccess()
	w.breaker.OnSuccess()
	w.withStatus(func(s *models.WorkerStatus) { s.POIsProcessed++ })

	if result.Found() {
		status := models.SourceDiscovered
		if result.VisionVerified {
			status = models.SourceValidated
		}
		err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
			SourceStatus:        &status,
			EventsURL:           &result.EventsURL,
			EventsURLMethod:     &result.Method,
			EventsURLConfidence: &result.Confidence,
			EventsURLNotes:      &result.Notes,
		})
		if err != nil {
			return err
		}
		w.withStatus(func(s *models.WorkerStatus) { s.DiscoveriesFound++ })
		w.logger.Info().
			Str("poi", poi.ID).
			Str("name", poi.Name).
			Str("events_url", result.EventsURL).
			Str("method", result.Method).
			Float64("confidence", result.Confidence).
			Msg("Events page discovered")
		if status == models.SourceValidated {
			poi.EventsURL = result.EventsURL
			poi.SourceStatus = status
			w.syncVenue(ctx, poi)
		}
		return nil
	}

	// Candidates existed but every one was rejected, versus nothing to try.
	status := models.SourceNoEvents
	if result.HasEvents != nil {
		status = models.SourceRejected
	}
	if err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
		SourceStatus:   &status,
		EventsURLNotes: &result.Notes,
	}); err != nil {
		return err
	}
	w.logger.Info().Str("poi", poi.ID).Str("name", poi.Name).Str("notes", result.Notes).Msg("No events page")
	return nil
}

// syncVenue pushes the POI to the backend when sync is configured. A sync
// failure is recorded as a real venue failure, not a retryable discovery
// error.
func (w *Worker) syncVenue(ctx context.Context, poi *models.POI) {
	if w.venues == nil || !w.venues.Enabled() {
		return
	}

	venueID, err := w.venues.SyncVenue(ctx, poi)
	pois := w.storage.POIStorage()
	if err != nil {
		failed := models.VenueSyncFailed
		msg := err.Error()
		if uerr := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{VenueStatus: &failed, VenueSyncError: &msg}); uerr != nil {
			w.logger.Warn().Err(uerr).Str("poi", poi.ID).Msg("Failed to record venue sync failure")
		}
		w.logger.Warn().Err(err).Str("poi", poi.ID).Msg("Venue sync failed")
		return
	}

	synced := models.VenueSyncSynced
	empty := ""
	if err := pois.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{VenueStatus: &synced, VenueID: &venueID, VenueSyncError: &empty}); err != nil {
		w.logger.Warn().Err(err).Str("poi", poi.ID).Msg("Failed to record venue sync")
	}
}

// recoverStalled resets POIs left in a processing state by a previous run.
func (w *Worker) recoverStalled(ctx context.Context) error {
	pois := w.storage.POIStorage()

	stalled, err := pois.ListPOIs(ctx, &interfaces.POIFilter{WebsiteStatus: models.WebsiteProcessing})
	if err != nil {
		return err
	}
	for _, poi := range stalled {
		w.resetWebsite(ctx, poi.ID)
	}

	stalledEvents, err := pois.ListPOIs(ctx, &interfaces.POIFilter{SourceStatus: models.SourceProcessing})
	if err != nil {
		return err
	}
	for _, poi := range stalledEvents {
		w.resetEvents(ctx, poi.ID)
	}

	if n := len(stalled) + len(stalledEvents); n > 0 {
		w.logger.Info().Int("count", n).Msg("Reset POIs stalled in processing")
	}
	return nil
}

func (w *Worker) resetWebsite(ctx context.Context, id string) {
	notStarted := models.WebsiteNotStarted
	if err := w.storage.POIStorage().UpdatePOI(ctx, id, &interfaces.POIUpdate{WebsiteStatus: &notStarted}); err != nil {
		w.logger.Warn().Err(err).Str("poi", id).Msg("Failed to reset website status")
	}
}

func (w *Worker) resetEvents(ctx context.Context, id string) {
	notStarted := models.SourceNotStarted
	if err := w.storage.POIStorage().UpdatePOI(ctx, id, &interfaces.POIUpdate{SourceStatus: &notStarted}); err != nil {
		w.logger.Warn().Err(err).Str("poi", id).Msg("Failed to reset source status")
	}
}

func (w *Worker) withStatus(apply func(*models.WorkerStatus)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	apply(w.status)
}

func (w *Worker) setCurrent(ctx context.Context, poi *models.POI, phase string) {
	w.withStatus(func(s *models.WorkerStatus) {
		s.CurrentPOIID = poi.ID
		s.CurrentPOIName = poi.Name
		s.CurrentPhase = phase
	})
	_ = w.saveStatus(ctx)
}

func (w *Worker) clearCurrent(ctx context.Context) {
	w.withStatus(func(s *models.WorkerStatus) {
		s.CurrentPOIID = ""
		s.CurrentPOIName = ""
		s.CurrentPhase = ""
	})
	_ = w.saveStatus(ctx)
}

func (w *Worker) saveStatus(ctx context.Context) error {
	w.mu.Lock()
	snapshot := *w.status
	w.mu.Unlock()
	return w.storage.WorkerStorage().SaveWorker(ctx, &snapshot)
}

// shutdown marks the status row stopped. Uses a fresh context because the
// run context is already cancelled.
func (w *Worker) shutdown() error {
	w.mu.Lock()
	processed := w.status.POIsProcessed
	found := w.status.DiscoveriesFound
	reused := w.status.DiscoveriesReused
	errCount := w.status.Errors
	now := time.Now()
	w.status.IsRunning = false
	w.status.LastHeartbeat = &now
	w.mu.Unlock()

	w.logger.Info().
		Int("processed", processed).
		Int("found", found).
		Int("reused", reused).
		Int("errors", errCount).
		Msg("Discovery worker stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.saveStatus(ctx); err != nil {
		return fmt.Errorf("failed to save final worker status: %w", err)
	}
	return nil
}

// sleepCtx sleeps for d, returning false if the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
