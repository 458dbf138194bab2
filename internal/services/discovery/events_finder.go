package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/ternarybob/navigator/internal/services/classifier"
)

// maxEventsCandidates is how many candidate pages are collected before
// validation begins.
const maxEventsCandidates = 3

// eventsPathPatterns are conventional events-page paths probed directly
// against the site root, in order.
var eventsPathPatterns = []string{
	"/events",
	"/calendar",
	"/events-calendar",
	"/whats-happening",
	"/programs",
	"/programs-events",
	"/upcoming-events",
	"/schedule",
	"/activities",
	"/programs-and-events",
	"/happenings",
	"/whats-on",
}

// eventsCandidate is one page under consideration as the events URL.
type eventsCandidate struct {
	url    string
	method string
	html   string
}

// EventsFinder discovers the events page on a POI's website via direct-path
// probing and homepage link crawling, validated by the classifier with
// optional vision confirmation.
type EventsFinder struct {
	fetcher    *httpclient.Fetcher
	browser    interfaces.BrowserService
	classifier interfaces.ClassifierService
	blocklist  interfaces.BlocklistService
	crawler    *Crawler
	useVision  bool
	logger     arbor.ILogger
}

// NewEventsFinder wires the events-URL discovery pipeline.
func NewEventsFinder(fetcher *httpclient.Fetcher, browser interfaces.BrowserService, cls interfaces.ClassifierService, blocklist interfaces.BlocklistService, useVision bool, logger arbor.ILogger) *EventsFinder {
	return &EventsFinder{
		fetcher:    fetcher,
		browser:    browser,
		classifier: cls,
		blocklist:  blocklist,
		crawler:    NewCrawler(fetcher, logger),
		useVision:  useVision,
		logger:     logger,
	}
}

// FindEventsPage runs events-URL discovery for one POI. The POI must have
// an effective website. "No events page found" (candidates existed but were
// all rejected) is reported distinctly from "no candidates found".
func (f *EventsFinder) FindEventsPage(ctx context.Context, poi *models.POI) (*models.EventsDiscovery, error) {
	website := poi.EffectiveWebsite()
	if website == "" {
		return &models.EventsDiscovery{Notes: "No website available"}, nil
	}

	candidates := f.directPathCandidates(ctx, website)
	if len(candidates) == 0 {
		if candidate := f.linkCrawlCandidate(ctx, website); candidate != nil {
			candidates = append(candidates, *candidate)
		}
	}

	if len(candidates) == 0 {
		return &models.EventsDiscovery{Notes: "No candidates found via direct paths or link crawling"}, nil
	}

	for _, candidate := range candidates {
		result := f.validateCandidate(ctx, poi, candidate)
		if result != nil {
			return result, nil
		}
	}

	falseVal := false
	zero := 0
	return &models.EventsDiscovery{
		HasEvents:      &falseVal,
		EventCount:     &zero,
		VisionVerified: f.useVision,
		Notes:          "No events page found: candidate URLs rejected by validation",
	}, nil
}

// directPathCandidates probes conventional paths off the site root. A path
// qualifies when it returns 200 HTML and passes the keyword pre-check.
func (f *EventsFinder) directPathCandidates(ctx context.Context, website string) []eventsCandidate {
	var candidates []eventsCandidate

	for _, path := range eventsPathPatterns {
		url := common.ResolveURL(website, path)
		if url == "" || f.blocklist.IsBlocked(url) {
			continue
		}

		fetched, err := f.fetcher.Fetch(ctx, url)
		if err != nil || fetched.StatusCode != 200 || fetched.HTML == "" {
			continue
		}
		if !HasEventsContent(fetched.HTML) {
			continue
		}

		f.logger.Debug().Str("url", url).Msg("Found candidate via direct path")
		candidates = append(candidates, eventsCandidate{
			url:    url,
			method: models.MethodDirectPath,
			html:   fetched.HTML,
		})
		if len(candidates) >= maxEventsCandidates {
			break
		}
	}

	return candidates
}

// linkCrawlCandidate renders the homepage in the browser (navigation is
// often built client-side) and follows the best-scoring event link.
func (f *EventsFinder) linkCrawlCandidate(ctx context.Context, website string) *eventsCandidate {
	html, err := f.browser.RenderHTML(ctx, website)
	if err != nil {
		f.logger.Debug().Err(err).Str("url", website).Msg("Homepage render failed")
		return nil
	}

	// Depth 0: scan only the rendered homepage. Hosted calendars are still
	// reachable because the scan itself follows the scored link.
	links := f.crawler.FindEventCandidates(ctx, website, html, CrawlOptions{
		MaxDepth:       0,
		FollowExternal: true,
		MaxPages:       5,
	})

	for _, link := range links {
		if f.blocklist.IsBlocked(link.URL) {
			continue
		}
		fetched, err := f.fetcher.Fetch(ctx, link.URL)
		if err != nil || fetched.StatusCode != 200 || fetched.HTML == "" {
			continue
		}
		if !HasEventsContent(fetched.HTML) {
			continue
		}

		f.logger.Debug().Str("url", link.URL).Str("via", link.DetectionMethods).Msg("Found candidate via link crawl")
		return &eventsCandidate{
			url:    link.URL,
			method: models.MethodLinkCrawl,
			html:   fetched.HTML,
		}
	}
	return nil
}

// validateCandidate runs the classifier (and optionally vision) against one
// candidate. nil means rejected; move on to the next.
func (f *EventsFinder) validateCandidate(ctx context.Context, poi *models.POI, candidate eventsCandidate) *models.EventsDiscovery {
	var textReason string

	if candidate.html != "" {
		verdict, err := f.classifier.Classify(ctx, &interfaces.ClassifyRequest{
			Task:     interfaces.TaskEventsPage,
			Name:     poi.Name,
			City:     poi.City,
			Category: string(poi.Category),
			PageURL:  candidate.url,
			PageText: classifier.PageTextFromHTML(candidate.html),
		})
		if err != nil {
			f.logger.Warn().Err(err).Str("url", candidate.url).Msg("Classifier call failed, skipping candidate")
			return nil
		}
		if verdict.Verdict == interfaces.VerdictNo {
			f.logger.Info().Str("url", candidate.url).Str("reason", verdict.Reason).Msg("Classifier rejected events candidate")
			return nil
		}
		textReason = verdict.Reason
	}

	if !f.useVision {
		trueVal := true
		notes := "Classifier verified: " + truncateText(textReason, 80)
		result := &models.EventsDiscovery{
			EventsURL:  candidate.url,
			Method:     candidate.method,
			Confidence: 0.75,
			Notes:      notes,
		}
		if candidate.html != "" {
			result.HasEvents = &trueVal
		}
		return result
	}

	return f.verifyWithVision(ctx, poi, candidate)
}

// verifyWithVision screenshots the candidate and requires an affirmative
// vision verdict before acceptance.
func (f *EventsFinder) verifyWithVision(ctx context.Context, poi *models.POI, candidate eventsCandidate) *models.EventsDiscovery {
	screenshot, err := f.browser.Screenshot(ctx, candidate.url)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", candidate.url).Msg("Screenshot failed, skipping candidate")
		return nil
	}

	verdict, err := f.classifier.Classify(ctx, &interfaces.ClassifyRequest{
		Task:       interfaces.TaskVisibleEvents,
		Name:       poi.Name,
		City:       poi.City,
		Category:   string(poi.Category),
		PageURL:    candidate.url,
		Screenshot: screenshot,
	})
	if err != nil {
		f.logger.Warn().Err(err).Str("url", candidate.url).Msg("Vision classifier call failed, skipping candidate")
		return nil
	}

	if verdict.Verdict != interfaces.VerdictYes {
		f.logger.Info().Str("url", candidate.url).Str("reason", verdict.Reason).Msg("Vision rejected events candidate")
		return nil
	}

	confidence := 0.85
	if verdict.Confidence == interfaces.ConfidenceHigh {
		confidence = 0.95
	}

	trueVal := true
	return &models.EventsDiscovery{
		EventsURL:      candidate.url,
		Method:         candidate.method,
		Confidence:     confidence,
		HasEvents:      &trueVal,
		EventCount:     verdict.EventCount,
		VisionVerified: true,
		Notes:          fmt.Sprintf("Classifier+vision verified: %s", truncateText(strings.TrimSpace(verdict.Reason), 80)),
	}
}
