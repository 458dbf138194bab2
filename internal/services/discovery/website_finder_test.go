package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
)

func testPOI() *models.POI {
	return &models.POI{
		ID:       "way/100",
		OSMType:  "way",
		OSMID:    100,
		Name:     "Cutler Park",
		Category: models.CategoryPark,
		City:     "Needham",
	}
}

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBuildQuery(t *testing.T) {
	poi := testPOI()
	query := BuildQuery(poi)

	assert.Contains(t, query, "Cutler Park Needham MA parks recreation")
	assert.Contains(t, query, "-site:wikipedia.org")
	assert.Contains(t, query, "-site:yelp.com")

	poi.StreetAddress = "84 Kendrick St"
	assert.Contains(t, BuildQuery(poi), "84 Kendrick St")

	// Unknown category falls back to the generic template
	town := &models.POI{Name: "Acme Hall", City: "Needham", Category: models.Category("unknown")}
	assert.Contains(t, BuildQuery(town), "Acme Hall Needham MA official website")
}

func TestFindWebsiteAcceptsValidatedCandidate(t *testing.T) {
	server := serveHTML(t, `<html><body>
	<h1>Cutler Park</h1>
	<p>Needham parks and recreation. Trails and playground areas.</p>
	</body></html>`)

	search := &fakeSearch{results: []models.SearchResult{
		{URL: server.URL + "/", Title: "Cutler Park | Needham Parks"},
	}}
	cls := &fakeClassifier{verdicts: []*interfaces.Classification{
		{Verdict: interfaces.VerdictYes, Confidence: interfaces.ConfidenceHigh, Reason: "Municipal parks page covering this park"},
	}}
	blocklist := newFakeBlocklist()

	finder := NewWebsiteFinder(search, newTestFetcher(t), cls, blocklist, arbor.NewLogger())
	result, err := finder.FindWebsite(context.Background(), testPOI())

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/", result.Website)
	assert.Equal(t, 0.9, result.Confidence)
	assert.False(t, result.RateLimited)

	// Park-like categories use the government-site framing
	require.Len(t, cls.requests, 1)
	assert.Equal(t, interfaces.TaskGovernmentSite, cls.requests[0].Task)
}

func TestFindWebsiteRateLimited(t *testing.T) {
	search := &fakeSearch{err: fmt.Errorf("search: %w", interfaces.ErrRateLimited)}
	finder := NewWebsiteFinder(search, newTestFetcher(t), &fakeClassifier{}, newFakeBlocklist(), arbor.NewLogger())

	result, err := finder.FindWebsite(context.Background(), testPOI())
	require.NoError(t, err)
	assert.True(t, result.RateLimited)
	assert.Empty(t, result.Website)
	assert.Contains(t, result.Notes, "ratelimit")
}

func TestFindWebsiteNoResults(t *testing.T) {
	finder := NewWebsiteFinder(&fakeSearch{}, newTestFetcher(t), &fakeClassifier{}, newFakeBlocklist(), arbor.NewLogger())

	result, err := finder.FindWebsite(context.Background(), testPOI())
	require.NoError(t, err)
	assert.Empty(t, result.Website)
	assert.Contains(t, result.Notes, "No search results")
}

func TestFindWebsiteAllResultsBlocked(t *testing.T) {
	search := &fakeSearch{results: []models.SearchResult{
		{URL: "https://www.yelp.com/biz/cutler-park", Title: "Cutler Park - Yelp"},
	}}
	finder := NewWebsiteFinder(search, newTestFetcher(t), &fakeClassifier{}, newFakeBlocklist("yelp.com"), arbor.NewLogger())

	result, err := finder.FindWebsite(context.Background(), testPOI())
	require.NoError(t, err)
	assert.Empty(t, result.Website)
	assert.Contains(t, result.Notes, "blocked")
}

func TestFindWebsiteAutoBlocksGarbageBeforeClassifier(t *testing.T) {
	server := serveHTML(t, `<html><body><p>Totally unrelated content about cooking recipes.</p></body></html>`)

	search := &fakeSearch{results: []models.SearchResult{
		{URL: server.URL + "/", Title: "Recipes"},
	}}
	cls := &fakeClassifier{}
	blocklist := newFakeBlocklist()

	finder := NewWebsiteFinder(search, newTestFetcher(t), cls, blocklist, arbor.NewLogger())
	result, err := finder.FindWebsite(context.Background(), testPOI())

	require.NoError(t, err)
	assert.Empty(t, result.Website)
	assert.Empty(t, cls.requests, "classifier must not run on garbage pages")
	require.Len(t, blocklist.autoBlocked, 1)
	assert.Contains(t, blocklist.autoBlocked[0].reason, "Auto-blocked")
}

func TestFindWebsiteClassifierRejectionAutoBlocks(t *testing.T) {
	// City mention alone puts the pre-check at 0.2: past the garbage cutoff
	// but under the rejection auto-block bar.
	server := serveHTML(t, `<html><body><p>News from Needham and nearby towns.</p></body></html>`)

	search := &fakeSearch{results: []models.SearchResult{
		{URL: server.URL + "/", Title: "Local News"},
	}}
	cls := &fakeClassifier{verdicts: []*interfaces.Classification{
		{Verdict: interfaces.VerdictNo, Confidence: interfaces.ConfidenceHigh, Reason: "News site, not a parks page"},
	}}
	blocklist := newFakeBlocklist()

	finder := NewWebsiteFinder(search, newTestFetcher(t), cls, blocklist, arbor.NewLogger())
	result, err := finder.FindWebsite(context.Background(), testPOI())

	require.NoError(t, err)
	assert.Empty(t, result.Website)
	assert.Contains(t, result.Notes, "failed validation")
	require.Len(t, blocklist.autoBlocked, 1)
	assert.Contains(t, blocklist.autoBlocked[0].reason, "Classifier rejected")
}

func TestFindWebsiteUncertainVerdictSkipsWithoutBlocking(t *testing.T) {
	server := serveHTML(t, `<html><body>
	<h1>Cutler Park</h1><p>Needham recreation and trails.</p>
	</body></html>`)

	search := &fakeSearch{results: []models.SearchResult{
		{URL: server.URL + "/", Title: "Cutler Park"},
	}}
	cls := &fakeClassifier{verdicts: []*interfaces.Classification{
		{Verdict: interfaces.VerdictUncertain, Confidence: interfaces.ConfidenceLow},
	}}
	blocklist := newFakeBlocklist()

	finder := NewWebsiteFinder(search, newTestFetcher(t), cls, blocklist, arbor.NewLogger())
	result, err := finder.FindWebsite(context.Background(), testPOI())

	require.NoError(t, err)
	assert.Empty(t, result.Website)
	assert.Empty(t, blocklist.autoBlocked, "uncertain is not a rejection")
}

func TestFindWebsiteMissingNameOrCity(t *testing.T) {
	finder := NewWebsiteFinder(&fakeSearch{}, newTestFetcher(t), &fakeClassifier{}, newFakeBlocklist(), arbor.NewLogger())

	poi := testPOI()
	poi.City = ""
	result, err := finder.FindWebsite(context.Background(), poi)
	require.NoError(t, err)
	assert.Empty(t, result.Website)
	assert.Contains(t, result.Notes, "Missing name or city")
}

func TestConfidenceForTier(t *testing.T) {
	assert.Equal(t, 0.9, confidenceForTier(interfaces.ConfidenceHigh))
	assert.Equal(t, 0.8, confidenceForTier(interfaces.ConfidenceMedium))
	assert.Equal(t, 0.6, confidenceForTier(interfaces.ConfidenceLow))
}
