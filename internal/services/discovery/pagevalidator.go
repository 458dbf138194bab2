package discovery

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// contentIndicators are quick-check words suggesting an events page.
var contentIndicators = []string{"event", "calendar", "workshop", "meeting"}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2}(?:,? \d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)[,\s]+\w+\s+\d{1,2}\b`),
}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(?:AM|PM|am|pm)\b`),
	regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),
}

// eventSelectors match event-like structural elements.
var eventSelectors = []string{
	".event", ".calendar-event", ".program", ".workshop",
	`[class*="event"]`, `[class*="calendar"]`, ".activity",
}

// iframeCalendarIndicators flag iframe src values worth following.
var iframeCalendarIndicators = []string{
	"calendar", "events", "event", "libcal", "eventbrite",
	"assabetinteractive", "calendar.google", "outlook.live",
	"schedule", "booking", "registration",
}

// PageValidation is the structural event-likelihood analysis of one page.
// It is independent of the classifier: it scores signals the page itself
// carries (structured data, widgets, dates) rather than judging ownership.
type PageValidation struct {
	Score              float64
	HasEvents          bool
	EventCountEstimate int

	ContentIndicatorsFound []string
	DateMatches            int
	TimeMatches            int
	EventElements          int
	StructuredDataFound    bool
	CalendarWidgets        int

	// IframeURLs are embedded calendar URLs to validate separately. They are
	// reported alongside the score, not merged into another page's result.
	IframeURLs []string

	DetailLinks []DetailLink
}

// ValidatePage scores a fetched page for event-likelihood.
//
// Note the iframe bonus is awarded on sight of a calendar-looking iframe,
// before the iframe content itself has been validated. A page embedding an
// unrelated widget can therefore score as "has events"; follow the iframe
// URL to confirm.
func ValidatePage(html string) *PageValidation {
	result := &PageValidation{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result
	}

	pageText := strings.ToLower(doc.Text())

	result.IframeURLs = findCalendarIframes(doc)
	if len(result.IframeURLs) > 0 {
		result.Score += 8.0
		result.EventCountEstimate += 5
	}

	result.DetailLinks = findDetailLinks(doc)
	if len(result.DetailLinks) > 0 {
		result.Score += capped(float64(len(result.DetailLinks))*0.5, 3.0)
	}

	for _, indicator := range contentIndicators {
		if strings.Contains(pageText, indicator) {
			result.ContentIndicatorsFound = append(result.ContentIndicatorsFound, indicator)
			result.Score += 1.0
		}
	}

	for _, pattern := range datePatterns {
		result.DateMatches += len(pattern.FindAllString(pageText, -1))
	}
	result.Score += capped(float64(result.DateMatches)*0.5, 5.0)

	for _, pattern := range timePatterns {
		result.TimeMatches += len(pattern.FindAllString(pageText, -1))
	}
	result.Score += capped(float64(result.TimeMatches)*0.3, 3.0)

	for _, selector := range eventSelectors {
		result.EventElements += doc.Find(selector).Length()
	}
	result.Score += capped(float64(result.EventElements)*0.8, 8.0)
	if est := max(result.EventElements, result.DateMatches/2); est > result.EventCountEstimate {
		result.EventCountEstimate = est
	}

	structuredCount := countStructuredEvents(doc)
	if structuredCount > 0 {
		result.StructuredDataFound = true
		result.Score += 10.0
		result.EventCountEstimate += structuredCount
	}

	result.CalendarWidgets = doc.Find(".calendar, .event-calendar, .fc-event, .tribe-events").Length()
	if result.CalendarWidgets > 0 {
		result.Score += 5.0
	}

	result.HasEvents = determineHasEvents(result)
	return result
}

// determineHasEvents applies the layered decision rule: definitive signals
// first, then the overall score, then two-of-three weak evidence.
func determineHasEvents(v *PageValidation) bool {
	if v.StructuredDataFound {
		return true
	}
	if v.CalendarWidgets > 0 {
		return true
	}
	if v.Score >= 8.0 {
		return true
	}

	evidence := 0
	if len(v.ContentIndicatorsFound) >= 2 {
		evidence++
	}
	if v.DateMatches >= 3 && v.TimeMatches >= 2 {
		evidence++
	}
	if v.EventElements >= 5 {
		evidence++
	}
	return evidence >= 2
}

// countStructuredEvents counts JSON-LD Event records embedded in the page.
func countStructuredEvents(doc *goquery.Document) int {
	count := 0
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := sel.Text()

		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			if single["@type"] == "Event" {
				count++
			}
			return
		}

		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, item := range list {
				if obj, ok := item.(map[string]any); ok && obj["@type"] == "Event" {
					count++
				}
			}
		}
	})
	return count
}

// findCalendarIframes returns absolute iframe src URLs that look like
// embedded calendars.
func findCalendarIframes(doc *goquery.Document) []string {
	var urls []string
	doc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return
		}
		srcLower := strings.ToLower(src)
		for _, indicator := range iframeCalendarIndicators {
			if strings.Contains(srcLower, indicator) {
				urls = append(urls, src)
				return
			}
		}
	})
	return urls
}

func capped(value, cap float64) float64 {
	if value > cap {
		return cap
	}
	return value
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// DetailLink is a link to an individual event's page found inside an
// event-like container. Detail pages are better extraction targets than
// listing pages.
type DetailLink struct {
	URL      string
	Text     string
	Priority float64
}

var detailTextPatterns = []string{
	"more info", "details", "learn more", "read more", "view details",
	"full details", "see details", "more", "register", "buy tickets",
	"get tickets", "book now", "sign up", "rsvp", "join us",
}

var detailClassPatterns = []string{
	"detail", "more", "info", "read-more", "learn-more", "view-more",
	"register", "ticket", "event-link", "event-detail", "btn-secondary",
}

var detailURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/calendar/[^/]+$`),
	regexp.MustCompile(`/events?/[^/]+$`),
	regexp.MustCompile(`/programs?/[^/]+$`),
	regexp.MustCompile(`[^/]+/event-\d+`),
	regexp.MustCompile(`[^/]+/\d{4}/\d{2}/\d{2}`),
}

var (
	highPriorityTexts   = []string{"more info", "details", "full details", "view details"}
	mediumPriorityTexts = []string{"register", "buy tickets", "get tickets", "sign up"}
	lowPriorityTexts    = []string{"more", "learn more", "read more"}
)

// findDetailLinks extracts event-detail links from event-like containers,
// sorted by priority.
func findDetailLinks(doc *goquery.Document) []DetailLink {
	var links []DetailLink

	containers := doc.Find(`.event, .calendar-event, .program, .activity, [class*="event"], [class*="calendar"]`)
	containers.Each(func(_ int, container *goquery.Selection) {
		container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href := strings.TrimSpace(link.AttrOr("href", ""))
			if href == "" {
				return
			}

			text := strings.ToLower(strings.TrimSpace(link.Text()))
			classes := strings.ToLower(link.AttrOr("class", ""))

			matched := false
			urlMatched := false
			for _, pattern := range detailTextPatterns {
				if strings.Contains(text, pattern) {
					matched = true
					break
				}
			}
			if !matched {
				for _, pattern := range detailClassPatterns {
					if strings.Contains(classes, pattern) {
						matched = true
						break
					}
				}
			}
			if !matched {
				for _, pattern := range detailURLPatterns {
					if pattern.MatchString(href) {
						matched = true
						urlMatched = true
						break
					}
				}
			}
			if !matched {
				return
			}

			links = append(links, DetailLink{
				URL:      href,
				Text:     truncateText(text, 50),
				Priority: detailLinkPriority(text, urlMatched),
			})
		})
	})

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Priority > links[j].Priority
	})
	return links
}

// detailLinkPriority ranks detail links: explicit "details" phrasing beats
// registration links beats bare "more".
func detailLinkPriority(text string, urlMatched bool) float64 {
	priority := 0.0
	for _, t := range highPriorityTexts {
		if strings.Contains(text, t) {
			priority += 3.0
			break
		}
	}
	for _, t := range mediumPriorityTexts {
		if strings.Contains(text, t) {
			priority += 2.0
			break
		}
	}
	for _, t := range lowPriorityTexts {
		if strings.Contains(text, t) {
			priority += 1.0
			break
		}
	}
	if urlMatched {
		priority += 1.0
	}
	return priority
}

// truncateText cuts s to at most n bytes without splitting a rune.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
