package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/interfaces"
)

// Service implements BrowserService with a single shared headless Chrome
// instance. Navigation runs in a fresh tab per call; the browser process is
// reused across POIs to avoid the multi-second startup cost.
type Service struct {
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	navigateTimeout time.Duration
	settleDelay     time.Duration
	viewportWidth   int
	viewportHeight  int

	mu     sync.Mutex
	logger arbor.ILogger
}

// NewService launches the headless browser from the browser configuration.
func NewService(config *common.BrowserConfig, userAgent string, logger arbor.ILogger) (interfaces.BrowserService, error) {
	navigateTimeout, err := time.ParseDuration(config.NavigateTimeout)
	if err != nil || navigateTimeout <= 0 {
		navigateTimeout = 15 * time.Second
	}
	settleDelay, err := time.ParseDuration(config.SettleDelay)
	if err != nil || settleDelay < 0 {
		settleDelay = 1500 * time.Millisecond
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", config.DisableGPU),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Start the browser process now so failures surface at startup, not on
	// the first POI.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Headless).
		Int("viewport_width", config.ViewportWidth).
		Int("viewport_height", config.ViewportHeight).
		Msg("Headless browser started")

	return &Service{
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		navigateTimeout: navigateTimeout,
		settleDelay:     settleDelay,
		viewportWidth:   config.ViewportWidth,
		viewportHeight:  config.ViewportHeight,
		logger:          logger,
	}, nil
}

// Screenshot navigates to the URL and captures a JPEG viewport screenshot.
func (s *Service) Screenshot(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabCtx, cancel := s.newTab(ctx)
	defer cancel()

	var screenshot []byte
	err := chromedp.Run(tabCtx,
		s.setViewport(),
		chromedp.Navigate(url),
		chromedp.Sleep(s.settleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			screenshot, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(80).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Screenshot failed")
		return nil, fmt.Errorf("screenshot failed for %s: %w", url, err)
	}
	return screenshot, nil
}

// RenderHTML navigates to the URL and returns the rendered DOM. Needed for
// homepages that build their navigation with JavaScript.
func (s *Service) RenderHTML(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tabCtx, cancel := s.newTab(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(tabCtx,
		s.setViewport(),
		chromedp.Navigate(url),
		chromedp.Sleep(s.settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Render failed")
		return "", fmt.Errorf("render failed for %s: %w", url, err)
	}
	return html, nil
}

func (s *Service) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, s.navigateTimeout+s.settleDelay)

	// Propagate caller cancellation into the tab context.
	stop := context.AfterFunc(ctx, timeoutCancel)

	return timeoutCtx, func() {
		stop()
		timeoutCancel()
		tabCancel()
	}
}

func (s *Service) setViewport() chromedp.Action {
	width, height := s.viewportWidth, s.viewportHeight
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 800
	}
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1.0, false).Do(ctx)
	})
}

func (s *Service) Close() error {
	s.logger.Debug().Msg("Closing headless browser")
	s.browserCancel()
	s.allocatorCancel()
	return nil
}
