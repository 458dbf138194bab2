package discovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/models"
)

// officialSiteIndicators are domain patterns suggesting an official website.
var officialSiteIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\.gov$`),
	regexp.MustCompile(`\.edu$`),
	regexp.MustCompile(`\.org$`),
	regexp.MustCompile(`library\.`),
	regexp.MustCompile(`parks\.`),
	regexp.MustCompile(`recreation\.`),
	regexp.MustCompile(`\.us$`),
}

var nameSuffixRe = regexp.MustCompile(`(?i)\s+(park|library|museum|center|centre|school|theater|theatre)$`)

// ScoreSearchResult rates a search result's likelihood of being the POI's
// official website, from URL and title alone. Returns a value in [0, 1].
func ScoreSearchResult(url, title, poiName, poiCity string) float64 {
	score := 0.5
	domain := common.ExtractDomain(url)
	titleLower := strings.ToLower(title)
	nameLower := strings.ToLower(poiName)
	cityLower := strings.ToLower(poiCity)

	for _, pattern := range officialSiteIndicators {
		if pattern.MatchString(domain) {
			score += 0.15
			break
		}
	}

	// City baked into the domain, e.g. needhamma.gov
	if slug := common.CitySlug(poiCity); slug != "" && strings.Contains(domain, slug) {
		score += 0.2
	}

	cleanName := strings.TrimSpace(nameSuffixRe.ReplaceAllString(nameLower, ""))
	if (cleanName != "" && strings.Contains(titleLower, cleanName)) || strings.Contains(titleLower, nameLower) {
		score += 0.25
	}

	if cityLower != "" && strings.Contains(titleLower, cityLower) {
		score += 0.1
	}

	for _, aggregator := range []string{"trip", "travel", "review", "directory", "listing"} {
		if strings.Contains(domain, aggregator) {
			score -= 0.3
			break
		}
	}
	if strings.Contains(domain, "chamber") {
		score -= 0.4
	}

	urlLower := strings.ToLower(url)
	for _, path := range []string{"/members/", "/business/", "/directory/", "/listing/", "/biz/"} {
		if strings.Contains(urlLower, path) {
			score -= 0.3
			break
		}
	}

	if score > 1.0 {
		return 1.0
	}
	if score < 0.0 {
		return 0.0
	}
	return score
}

// ContentCheck is the fast keyword pre-check verdict for a candidate page.
type ContentCheck struct {
	Valid      bool
	Confidence float64
	Reason     string
}

// categoryKeywords carry per-category vocabulary for the content pre-check.
var categoryKeywords = map[models.Category][]string{
	models.CategoryPark:            {"park", "recreation", "trails", "playground", "picnic"},
	models.CategoryPlayground:      {"playground", "park", "recreation", "children"},
	models.CategoryLibrary:         {"library", "books", "catalog", "borrowing", "circulation"},
	models.CategoryMuseum:          {"museum", "exhibit", "collection", "admission", "gallery"},
	models.CategoryTheatre:         {"theatre", "theater", "performance", "show", "ticket", "stage"},
	models.CategoryArtsCentre:      {"arts", "gallery", "exhibit", "artist", "performance"},
	models.CategoryCommunityCentre: {"community", "programs", "classes", "recreation"},
	models.CategorySportsCentre:    {"sports", "gym", "fitness", "recreation", "athletic"},
	models.CategoryTownHall:        {"town", "city", "municipal", "government", "permit", "clerk"},
	models.CategoryUniversity:      {"university", "college", "campus", "student", "academic"},
}

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bdefinition of\b`), regexp.MustCompile(`\bdictionary\b`),
	regexp.MustCompile(`\bencyclopedia\b`), regexp.MustCompile(`\bmeaning of\b`),
	regexp.MustCompile(`\bwhat does .+ mean\b`), regexp.MustCompile(`\bsynonyms for\b`),
	regexp.MustCompile(`\bantonyms for\b`), regexp.MustCompile(`\bpronunciation\b`),
	regexp.MustCompile(`\betymology\b`), regexp.MustCompile(`\bword origin\b`),
	regexp.MustCompile(`\bdefine:\b`),
}

var newsIndicators = []string{"subscribe", "journalist", "reporter", "newsroom", "breaking news"}

var socialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`subreddit`), regexp.MustCompile(`reddit\.com/r/`), regexp.MustCompile(`/r/\w+`),
	regexp.MustCompile(`\bupvote\b`), regexp.MustCompile(`\bdownvote\b`), regexp.MustCompile(`\bkarma\b`),
	regexp.MustCompile(`\bretweet\b`), regexp.MustCompile(`tweet this`),
	regexp.MustCompile(`posted by u/`), regexp.MustCompile(`submitted \d+ \w+ ago`),
	regexp.MustCompile(`join the discussion`), regexp.MustCompile(`leave a comment`),
	regexp.MustCompile(`member since \d`), regexp.MustCompile(`\buser profile\b`), regexp.MustCompile(`\bview profile\b`),
}

// CheckPageContent is the fast keyword pre-check run before the classifier.
// It scores name/city/category overlap and penalizes reference, news, and
// forum content. An empty page (trusted-TLD 403) passes at 0.5 since there
// is nothing to judge.
func CheckPageContent(html string, poi *models.POI) *ContentCheck {
	if html == "" {
		return &ContentCheck{Valid: true, Confidence: 0.5, Reason: "No HTML to validate (403 from trusted domain)"}
	}

	htmlLower := strings.ToLower(html)
	nameLower := strings.ToLower(poi.Name)
	cityLower := strings.ToLower(poi.City)

	cleanName := strings.TrimSpace(nameSuffixRe.ReplaceAllString(nameLower, ""))
	var nameWords []string
	for _, word := range strings.Fields(cleanName) {
		if len(word) > 3 {
			nameWords = append(nameWords, word)
		}
	}

	score := 0.0
	var reasons []string

	switch {
	case strings.Contains(htmlLower, nameLower):
		score += 0.4
		reasons = append(reasons, "exact name match")
	case cleanName != "" && strings.Contains(htmlLower, cleanName):
		score += 0.3
		reasons = append(reasons, "clean name match")
	case anyWordIn(nameWords, htmlLower):
		score += 0.15
		reasons = append(reasons, "partial name match")
	}

	if cityLower != "" && strings.Contains(htmlLower, cityLower) {
		score += 0.2
		reasons = append(reasons, "city match")
	}

	keywordMatches := 0
	for _, keyword := range categoryKeywords[poi.Category] {
		if strings.Contains(htmlLower, keyword) {
			keywordMatches++
		}
	}
	if keywordMatches >= 2 {
		score += 0.2
		reasons = append(reasons, fmt.Sprintf("%d category keywords", keywordMatches))
	} else if keywordMatches == 1 {
		score += 0.1
		reasons = append(reasons, "1 category keyword")
	}

	if poi.StreetAddress != "" {
		addrMatches := 0
		for _, part := range strings.Fields(strings.ToLower(poi.StreetAddress)) {
			if len(part) > 3 && strings.Contains(htmlLower, part) {
				addrMatches++
			}
		}
		if addrMatches >= 2 {
			score += 0.15
			reasons = append(reasons, "address match")
		}
	}

	if strings.Contains(htmlLower, "massachusetts") || strings.Contains(htmlLower, ", ma") || strings.Contains(htmlLower, " ma ") {
		score += 0.05
		reasons = append(reasons, "MA reference")
	}

	refMatches := 0
	for _, pattern := range referencePatterns {
		if pattern.MatchString(htmlLower) {
			refMatches++
		}
	}
	if refMatches >= 2 {
		score -= 0.5
		reasons = append(reasons, fmt.Sprintf("reference site indicators (%d)", refMatches))
	}

	newsMatches := 0
	for _, indicator := range newsIndicators {
		if strings.Contains(htmlLower, indicator) {
			newsMatches++
		}
	}
	if newsMatches >= 2 {
		score -= 0.3
		reasons = append(reasons, "news site indicators")
	}

	socialMatches := 0
	for _, pattern := range socialPatterns {
		if pattern.MatchString(htmlLower) {
			socialMatches++
		}
	}
	if socialMatches >= 2 {
		score -= 0.5
		reasons = append(reasons, fmt.Sprintf("social/forum indicators (%d)", socialMatches))
	}

	confidence := score
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.0 {
		confidence = 0.0
	}

	reason := "no matches"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return &ContentCheck{
		Valid:      score >= 0.3,
		Confidence: confidence,
		Reason:     reason,
	}
}

func anyWordIn(words []string, text string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// eventContentIndicators drive the quick events-page keyword check.
var eventContentIndicators = []string{"event", "calendar", "upcoming", "schedule", "program", "register", "rsvp"}

// HasEventsContent reports whether a page looks like an events page from
// keywords alone: at least 2 indicator words present.
func HasEventsContent(html string) bool {
	htmlLower := strings.ToLower(html)
	matches := 0
	for _, indicator := range eventContentIndicators {
		if strings.Contains(htmlLower, indicator) {
			matches++
		}
	}
	return matches >= 2
}
