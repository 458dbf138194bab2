package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/ternarybob/navigator/internal/services/blocklist"
	"github.com/ternarybob/navigator/internal/services/browser"
	"github.com/ternarybob/navigator/internal/services/classifier"
	"github.com/ternarybob/navigator/internal/services/discovery"
	"github.com/ternarybob/navigator/internal/services/search"
	"github.com/ternarybob/navigator/internal/services/sync"
	storagebadger "github.com/ternarybob/navigator/internal/storage/badger"
	"github.com/ternarybob/navigator/internal/worker"
)

type configPaths []string

func (c *configPaths) String() string { return strings.Join(*c, ",") }
func (c *configPaths) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	var configs configPaths
	flag.Var(&configs, "config", "Path to a TOML config file (repeatable; later files override earlier)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	importFile := flag.String("import", "", "Import POIs from a JSON file and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(common.GetFullVersion())
		return
	}

	config, err := common.LoadFromFiles(configs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	storage, err := storagebadger.NewManager(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer storage.Close()

	if *importFile != "" {
		if err := importPOIs(context.Background(), storage.POIStorage(), *importFile, logger); err != nil {
			logger.Fatal().Err(err).Msg("POI import failed")
		}
		return
	}

	runID := uuid.NewString()
	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("run_id", runID).
		Str("environment", config.Environment).
		Msg("Starting navigator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocklistSvc, err := blocklist.NewService(ctx, storage.BlocklistStorage(), &config.Blocklist, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize blocklist")
	}

	classifierSvc, err := classifier.NewService(&config.Claude, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize classifier (is ANTHROPIC_API_KEY set?)")
	}
	defer classifierSvc.Close()

	browserSvc, err := browser.NewService(&config.Browser, config.Fetch.UserAgent, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start headless browser")
	}
	defer browserSvc.Close()

	searchSvc := search.NewService(&config.Search, logger)
	fetcher := httpclient.NewFetcher(&config.Fetch)
	syncSvc := sync.NewService(&config.Sync, logger)

	websiteFinder := discovery.NewWebsiteFinder(searchSvc, fetcher, classifierSvc, blocklistSvc, logger)
	eventsFinder := discovery.NewEventsFinder(fetcher, browserSvc, classifierSvc, blocklistSvc, config.Worker.UseVision, logger)

	var cronRunner *cron.Cron
	if config.Revalidate.Enabled {
		cronRunner = cron.New()
		revalidator := worker.NewRevalidator(storage.POIStorage(), fetcher, &config.Revalidate, logger)
		if err := revalidator.Schedule(ctx, cronRunner, config.Revalidate.Schedule); err != nil {
			logger.Fatal().Err(err).Msg("Failed to schedule revalidation")
		}
		cronRunner.Start()
		logger.Info().Str("schedule", config.Revalidate.Schedule).Msg("Revalidation sweep scheduled")
	}

	w := worker.New(config, storage, websiteFinder, eventsFinder, blocklistSvc, syncSvc, logger)

	// First signal stops gracefully after the in-flight POI; a second one
	// forces exit.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info().Str("signal", sig.String()).Msg("Shutdown requested, finishing current POI")
		cancel()
		sig = <-signals
		logger.Warn().Str("signal", sig.String()).Msg("Forced exit")
		os.Exit(1)
	}()

	err = w.Run(ctx)

	if cronRunner != nil {
		stopCtx := cronRunner.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			logger.Warn().Msg("Timed out waiting for revalidation sweep to finish")
		}
	}

	if err != nil {
		logger.Error().Err(err).Msg("Worker exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("Navigator stopped")
}

// importPOIs loads a JSON array of POIs into storage. Existing records are
// replaced; IDs default to the OSM identity key.
func importPOIs(ctx context.Context, pois interfaces.POIStorage, path string, logger arbor.ILogger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []*models.POI
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	imported, skipped := 0, 0
	for _, poi := range records {
		if poi.Name == "" || poi.OSMType == "" || poi.OSMID == 0 {
			skipped++
			continue
		}
		if !models.IsValidCategory(string(poi.Category)) {
			logger.Warn().Str("name", poi.Name).Str("category", string(poi.Category)).Msg("Skipping POI with unknown category")
			skipped++
			continue
		}
		if poi.ID == "" {
			poi.ID = poi.Key()
		}
		if poi.VenueStatus == "" {
			poi.VenueStatus = models.VenueSyncPending
		}
		if poi.WebsiteStatus == "" {
			poi.WebsiteStatus = models.WebsiteNotStarted
		}
		if poi.SourceStatus == "" {
			poi.SourceStatus = models.SourceNotStarted
		}
		if poi.ExtractedAt.IsZero() {
			poi.ExtractedAt = time.Now()
		}
		if err := pois.UpsertPOI(ctx, poi); err != nil {
			return fmt.Errorf("failed to import %s: %w", poi.ID, err)
		}
		imported++
	}

	logger.Info().Int("imported", imported).Int("skipped", skipped).Msg("POI import complete")
	return nil
}
