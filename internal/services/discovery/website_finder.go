package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/ternarybob/navigator/internal/services/classifier"
)

// maxWebsiteCandidates is how many scored search results get the full
// fetch/pre-check/classifier treatment.
const maxWebsiteCandidates = 3

// searchExcludeDomains are stripped from search results at the query level
// with -site: operators.
var searchExcludeDomains = []string{
	"wikipedia.org", "facebook.com", "yelp.com", "yelp.ca",
	"tripadvisor.com", "yellowpages.com", "mapquest.com", "mapcarta.com",
	"latlong.net", "cualbondi.org", "superpages.com", "usnews.com",
	"niche.com", "greatschools.org", "chamberofcommerce.com", "allbiz.com",
	"buzzfile.com", "countyoffice.org", "usaopps.com", "manta.com",
	"dandb.com", "loc8nearme.com", "muckrock.com", "artscopemagazine.com",
	"patch.com", "wickedlocal.com",
}

// categorySearchTemplates build the query per category. {name} and {city}
// are substituted.
var categorySearchTemplates = map[models.Category]string{
	models.CategoryPark:            "{name} {city} MA parks recreation",
	models.CategoryPlayground:      "{name} {city} MA parks recreation",
	models.CategoryLibrary:         "{name} library {city} MA",
	models.CategoryMuseum:          "{name} museum {city} MA",
	models.CategoryCommunityCentre: "{name} {city} MA community center",
	models.CategoryTheatre:         "{name} theatre theater {city} MA",
	models.CategoryArtsCentre:      "{name} arts center {city} MA",
	models.CategorySchool:          "{name} school {city} MA",
	models.CategoryUniversity:      "{name} university {city} MA",
	models.CategorySportsCentre:    "{name} {city} MA recreation",
	models.CategoryTownHall:        "{city} MA town hall official",
}

// WebsiteFinder discovers official websites for POIs via web search,
// fetch-and-precheck, and classifier confirmation.
type WebsiteFinder struct {
	search     interfaces.SearchService
	fetcher    *httpclient.Fetcher
	classifier interfaces.ClassifierService
	blocklist  interfaces.BlocklistService
	logger     arbor.ILogger
}

// NewWebsiteFinder wires the website discovery pipeline.
func NewWebsiteFinder(search interfaces.SearchService, fetcher *httpclient.Fetcher, cls interfaces.ClassifierService, blocklist interfaces.BlocklistService, logger arbor.ILogger) *WebsiteFinder {
	return &WebsiteFinder{
		search:     search,
		fetcher:    fetcher,
		classifier: cls,
		blocklist:  blocklist,
		logger:     logger,
	}
}

// BuildQuery assembles the category-templated search query with address
// disambiguation and -site: exclusions.
func BuildQuery(poi *models.POI) string {
	template, ok := categorySearchTemplates[poi.Category]
	if !ok {
		template = "{name} {city} MA official website"
	}
	query := strings.ReplaceAll(template, "{name}", poi.Name)
	query = strings.ReplaceAll(query, "{city}", poi.City)

	if poi.StreetAddress != "" {
		query += " " + poi.StreetAddress
	}

	var exclusions []string
	for _, domain := range searchExcludeDomains {
		exclusions = append(exclusions, "-site:"+domain)
	}
	return query + " " + strings.Join(exclusions, " ")
}

type scoredResult struct {
	url    string
	title  string
	domain string
	score  float64
}

// FindWebsite runs the full website discovery pipeline for one POI.
// A rate-limit signal from search is recorded on the result rather than
// returned as an error, so the caller can both persist the miss and back
// off.
func (f *WebsiteFinder) FindWebsite(ctx context.Context, poi *models.POI) (*models.WebsiteDiscovery, error) {
	if poi.Name == "" || poi.City == "" {
		return &models.WebsiteDiscovery{Notes: "Missing name or city"}, nil
	}

	query := BuildQuery(poi)
	f.logger.Info().Str("poi", poi.ID).Str("query", truncateText(query, 120)).Msg("Searching for official website")

	results, err := f.search.Search(ctx, query)
	if err != nil {
		if errors.Is(err, interfaces.ErrRateLimited) {
			return &models.WebsiteDiscovery{Notes: "No search results found - ratelimit", RateLimited: true}, nil
		}
		return nil, fmt.Errorf("website search failed: %w", err)
	}
	if len(results) == 0 {
		return &models.WebsiteDiscovery{Notes: "No search results found"}, nil
	}

	scored := f.scoreResults(results, poi)
	if len(scored) == 0 {
		return &models.WebsiteDiscovery{Notes: "All results were blocked domains"}, nil
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > maxWebsiteCandidates {
		scored = scored[:maxWebsiteCandidates]
	}

	for i, candidate := range scored {
		discovery, done := f.tryCandidate(ctx, poi, candidate, i)
		if done {
			return discovery, nil
		}
	}

	return &models.WebsiteDiscovery{Notes: "All candidates failed validation"}, nil
}

func (f *WebsiteFinder) scoreResults(results []models.SearchResult, poi *models.POI) []scoredResult {
	var scored []scoredResult
	for _, result := range results {
		domain := common.ExtractDomain(result.URL)
		if domain == "" {
			continue
		}
		if f.blocklist.IsDomainBlocked(domain) {
			f.logger.Debug().Str("domain", domain).Msg("Skipping blocked domain")
			continue
		}
		scored = append(scored, scoredResult{
			url:    result.URL,
			title:  result.Title,
			domain: domain,
			score:  ScoreSearchResult(result.URL, result.Title, poi.Name, poi.City),
		})
	}
	return scored
}

// tryCandidate runs fetch, pre-check, and classifier for one candidate.
// done=true means the pipeline has a final answer (accepted); done=false
// means move on to the next candidate.
func (f *WebsiteFinder) tryCandidate(ctx context.Context, poi *models.POI, candidate scoredResult, index int) (*models.WebsiteDiscovery, bool) {
	fetched, err := f.fetcher.Fetch(ctx, candidate.url)
	if err != nil || !fetched.Accessible {
		f.logger.Debug().Int("candidate", index+1).Str("url", candidate.url).Msg("Candidate not accessible")
		return nil, false
	}

	check := CheckPageContent(fetched.HTML, poi)
	f.logger.Info().
		Str("url", candidate.url).
		Bool("valid", check.Valid).
		Float64("confidence", check.Confidence).
		Msg("Content pre-check")

	if check.Confidence < 0.2 {
		// Definitely garbage; block the domain so no other POI wastes a
		// cycle on it.
		f.blocklist.AutoBlock(ctx, candidate.domain, "Auto-blocked: "+truncateText(check.Reason, 100))
		return nil, false
	}

	verdict, err := f.classifier.Classify(ctx, &interfaces.ClassifyRequest{
		Task:     taskForCategory(poi.Category),
		Name:     poi.Name,
		City:     poi.City,
		Category: string(poi.Category),
		PageURL:  candidate.url,
		PageText: classifier.PageTextFromHTML(fetched.HTML),
	})
	if err != nil {
		f.logger.Warn().Err(err).Str("url", candidate.url).Msg("Classifier call failed, skipping candidate")
		return nil, false
	}

	switch verdict.Verdict {
	case interfaces.VerdictYes:
		return &models.WebsiteDiscovery{
			Website:    candidate.url,
			Confidence: confidenceForTier(verdict.Confidence),
			Notes:      "Classifier validated: " + truncateText(verdict.Reason, 100),
		}, true
	case interfaces.VerdictNo:
		if check.Confidence < 0.4 {
			f.blocklist.AutoBlock(ctx, candidate.domain, "Classifier rejected: "+truncateText(verdict.Reason, 100))
		}
		return nil, false
	default:
		// Uncertain is neither acceptance nor rejection; just move on.
		return nil, false
	}
}

// taskForCategory picks the classification framing: park-like categories are
// usually served by a municipal department site rather than their own.
func taskForCategory(category models.Category) interfaces.ClassifyTask {
	switch category {
	case models.CategoryPark, models.CategoryPlayground, models.CategoryTownHall:
		return interfaces.TaskGovernmentSite
	default:
		return interfaces.TaskOfficialWebsite
	}
}

func confidenceForTier(tier interfaces.ConfidenceTier) float64 {
	switch tier {
	case interfaces.ConfidenceHigh:
		return 0.9
	case interfaces.ConfidenceMedium:
		return 0.8
	default:
		return 0.6
	}
}
