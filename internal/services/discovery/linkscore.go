package discovery

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/navigator/internal/common"
)

// HighConfidenceThreshold marks a scored link as a strong events-page
// candidate.
const HighConfidenceThreshold = 2.0

// Detection methods recorded on scored links.
const (
	DetectURLKeyword     = "url_keyword"
	DetectLinkText       = "link_text"
	DetectTitleAttribute = "title_attribute"
	DetectCalendarDomain = "external_calendar_domain"
	DetectURLPattern     = "url_pattern"
)

// urlKeywords are matched against the raw href.
var urlKeywords = []string{
	"calendar", "events", "event", "schedule", "programming",
	"activities", "workshops", "classes", "programs",
}

// textKeywords are matched against visible link text and title attributes.
var textKeywords = []string{
	"calendar", "events", "event calendar", "program calendar",
	"upcoming events", "what's on", "activities", "schedule",
	"workshops", "classes", "programming", "happenings",
}

// externalCalendarDomains are hosted calendar platforms commonly used by
// libraries and museums. A link out to one of these is a strong signal.
var externalCalendarDomains = []string{
	"libcal.com", "events.constantcontact.com", "eventbrite.com",
	"calendar.google.com", "outlook.live.com", "brownpapertickets.com",
}

// skipKeywords penalize obviously non-event URLs.
var skipKeywords = []string{
	"about", "contact", "staff", "admin", "login",
	"privacy", "terms", "policy", "donate", "membership",
}

var (
	eventsSuffixRe   = regexp.MustCompile(`/events?/?$`)
	calendarSuffixRe = regexp.MustCompile(`/calendar/?$`)
	programsSuffixRe = regexp.MustCompile(`/programs?/?$`)
)

// ScoredLink is one candidate events link found on a page.
type ScoredLink struct {
	URL        string
	Text       string
	Title      string
	Score      float64
	IsExternal bool

	// DetectionMethods lists which rules fired, joined with "+".
	DetectionMethods string
}

// HighConfidence reports whether the link cleared the candidate threshold.
func (l *ScoredLink) HighConfidence() bool {
	return l.Score >= HighConfidenceThreshold
}

// FindEventLinks scans a page for links likely to lead to events, scores
// them, and returns them sorted best-first. Scoring is deterministic for a
// fixed document and base URL.
func FindEventLinks(html, baseURL string) []ScoredLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	baseDomain := common.ExtractDomain(baseURL)
	seen := make(map[string]bool)
	var links []ScoredLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}

		fullURL := common.ResolveURL(baseURL, href)
		if fullURL == "" || seen[fullURL] {
			return
		}
		seen[fullURL] = true

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		title := strings.ToLower(sel.AttrOr("title", ""))

		score := scoreLink(href, text, title, fullURL)
		if score <= 0 {
			return
		}

		linkDomain := common.ExtractDomain(fullURL)
		links = append(links, ScoredLink{
			URL:              fullURL,
			Text:             text,
			Title:            title,
			Score:            score,
			IsExternal:       linkDomain != "" && linkDomain != baseDomain,
			DetectionMethods: detectionMethods(href, text, title, fullURL),
		})
	})

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Score > links[j].Score
	})

	return links
}

// scoreLink computes the additive link score. Each rule fires at most once.
func scoreLink(href, linkText, linkTitle, fullURL string) float64 {
	score := 0.0
	hrefLower := strings.ToLower(href)

	for _, keyword := range urlKeywords {
		if strings.Contains(hrefLower, keyword) {
			score += 3.0
			break
		}
	}

	for _, keyword := range textKeywords {
		if strings.Contains(linkText, keyword) {
			score += 2.0
			if keyword == linkText {
				score += 1.0
			}
			break
		}
	}

	for _, keyword := range textKeywords {
		if strings.Contains(linkTitle, keyword) {
			score += 1.5
			break
		}
	}

	if isExternalCalendarDomain(fullURL) {
		score += 4.0
	}

	if eventsSuffixRe.MatchString(hrefLower) || calendarSuffixRe.MatchString(hrefLower) {
		score += 2.0
	} else if programsSuffixRe.MatchString(hrefLower) {
		score += 1.0
	}

	for _, pattern := range skipKeywords {
		if strings.Contains(hrefLower, pattern) {
			score -= 2.0
			if score < 0 {
				score = 0
			}
		}
	}

	return score
}

func isExternalCalendarDomain(rawURL string) bool {
	domain := common.ExtractDomain(rawURL)
	for _, calendarDomain := range externalCalendarDomains {
		if strings.Contains(domain, calendarDomain) {
			return true
		}
	}
	return false
}

func detectionMethods(href, linkText, linkTitle, fullURL string) string {
	var methods []string
	hrefLower := strings.ToLower(href)

	for _, keyword := range urlKeywords {
		if strings.Contains(hrefLower, keyword) {
			methods = append(methods, DetectURLKeyword)
			break
		}
	}
	for _, keyword := range textKeywords {
		if strings.Contains(linkText, keyword) {
			methods = append(methods, DetectLinkText)
			break
		}
	}
	for _, keyword := range textKeywords {
		if strings.Contains(linkTitle, keyword) {
			methods = append(methods, DetectTitleAttribute)
			break
		}
	}
	if isExternalCalendarDomain(fullURL) {
		methods = append(methods, DetectCalendarDomain)
	}
	if eventsSuffixRe.MatchString(hrefLower) || calendarSuffixRe.MatchString(hrefLower) {
		methods = append(methods, DetectURLPattern)
	}

	if len(methods) == 0 {
		return "low_score"
	}
	return strings.Join(methods, "+")
}
