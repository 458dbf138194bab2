package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/navigator/internal/models"
)

func TestScoreSearchResult(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		title    string
		poiName  string
		poiCity  string
		expected float64
	}{
		{
			name: "official library domain with name and city in title",
			url:  "https://www.needhamlibrary.org/",
			// base 0.5 + .org 0.15 + city slug 0.2 + clean name 0.25 + city 0.1
			title:    "Needham Free Public Library | Needham MA",
			poiName:  "Needham Free Public Library",
			poiCity:  "Needham",
			expected: 1.0, // clamped from 1.2
		},
		{
			name:     "aggregator domain penalized",
			url:      "https://www.tripadvisor.com/Attraction-g1234",
			title:    "Needham Free Public Library Reviews",
			poiName:  "Needham Free Public Library",
			poiCity:  "Needham",
			expected: 0.55, // 0.5 + 0.25 name + 0.1 city in title - 0.3 aggregator
		},
		{
			name:     "chamber of commerce penalized",
			url:      "https://www.needhamchamber.com/members/library",
			title:    "Member Directory",
			poiName:  "Needham Free Public Library",
			poiCity:  "Needham",
			expected: 0.0, // 0.5 + 0.2 slug - 0.4 chamber - 0.3 directory path
		},
		{
			name:     "plain result no signals",
			url:      "https://example.com/page",
			title:    "Some Page",
			poiName:  "Cutler Park",
			poiCity:  "Needham",
			expected: 0.5,
		},
		{
			name:     "gov domain bonus",
			url:      "https://needhamma.gov/parks",
			title:    "Parks and Recreation",
			poiName:  "Cutler Park",
			poiCity:  "Needham",
			expected: 0.85, // 0.5 + 0.15 gov + 0.2 city slug
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSearchResult(tt.url, tt.title, tt.poiName, tt.poiCity)
			assert.InDelta(t, tt.expected, got, 0.001)
		})
	}
}

func TestScoreSearchResultDeterministic(t *testing.T) {
	url := "https://www.needhamlibrary.org/"
	title := "Needham Free Public Library"
	for i := 0; i < 3; i++ {
		assert.Equal(t,
			ScoreSearchResult(url, title, "Needham Free Public Library", "Needham"),
			ScoreSearchResult(url, title, "Needham Free Public Library", "Needham"))
	}
}

func TestCheckPageContentEmptyHTML(t *testing.T) {
	poi := &models.POI{Name: "Cutler Park", City: "Needham", Category: models.CategoryPark}

	check := CheckPageContent("", poi)
	assert.True(t, check.Valid)
	assert.Equal(t, 0.5, check.Confidence)
	assert.Contains(t, check.Reason, "403")
}

func TestCheckPageContentNameAndCategory(t *testing.T) {
	poi := &models.POI{Name: "Cutler Park", City: "Needham", Category: models.CategoryPark}
	html := `<html><body>
	<h1>Cutler Park</h1>
	<p>Needham's largest park with recreation trails and a playground.</p>
	<p>Located in Needham, Massachusetts.</p>
	</body></html>`

	check := CheckPageContent(html, poi)
	assert.True(t, check.Valid)
	// exact name 0.4 + city 0.2 + >=2 category keywords 0.2 + MA 0.05
	assert.InDelta(t, 0.85, check.Confidence, 0.001)
	assert.Contains(t, check.Reason, "exact name match")
}

func TestCheckPageContentDictionaryPage(t *testing.T) {
	poi := &models.POI{Name: "Cutler Park", City: "Needham", Category: models.CategoryPark}
	html := `<html><body>
	<h1>Park - definition of park</h1>
	<p>From the dictionary: a park is a public green space. Pronunciation and
	etymology of the word park.</p>
	</body></html>`

	check := CheckPageContent(html, poi)
	assert.False(t, check.Valid)
	assert.Contains(t, check.Reason, "reference site indicators")
}

func TestCheckPageContentForumPage(t *testing.T) {
	poi := &models.POI{Name: "Cutler Park", City: "Needham", Category: models.CategoryPark}
	html := `<html><body>
	<p>posted by u/hiker123 in the needham subreddit</p>
	<p>Cutler Park is great. upvote if you agree, downvote if not.</p>
	</body></html>`

	check := CheckPageContent(html, poi)
	assert.False(t, check.Valid)
	assert.Contains(t, check.Reason, "social/forum indicators")
}

func TestCheckPageContentConfidenceClamped(t *testing.T) {
	poi := &models.POI{Name: "Cutler Park", City: "Needham", Category: models.CategoryPark}

	// Heavy negative signals cannot push confidence below zero.
	html := `<html><body>
	<p>definition of dictionary encyclopedia pronunciation etymology</p>
	<p>subreddit upvote downvote karma retweet</p>
	</body></html>`
	check := CheckPageContent(html, poi)
	assert.GreaterOrEqual(t, check.Confidence, 0.0)
	assert.False(t, check.Valid)
}

func TestHasEventsContent(t *testing.T) {
	assert.True(t, HasEventsContent("<p>Upcoming events and programs. Register today.</p>"))
	assert.True(t, HasEventsContent("<p>Event calendar</p>"))
	assert.False(t, HasEventsContent("<p>About our organization and staff.</p>"))
	assert.False(t, HasEventsContent("<p>See our calendar.</p>"))
}
