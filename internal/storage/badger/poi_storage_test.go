package badger

import (
	"context"
	"os"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "badger-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func testPOI(osmID int64, name, city string, category models.Category) *models.POI {
	return &models.POI{
		OSMType:       "way",
		OSMID:         osmID,
		Name:          name,
		City:          city,
		Category:      category,
		VenueStatus:   models.VenueSyncPending,
		WebsiteStatus: models.WebsiteNotStarted,
		SourceStatus:  models.SourceNotStarted,
	}
}

func TestPOIUpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	poi := testPOI(101, "Newton Free Library", "Newton", models.CategoryLibrary)
	if err := storage.UpsertPOI(ctx, poi); err != nil {
		t.Fatalf("Failed to upsert POI: %v", err)
	}
	if poi.ID != "way/101" {
		t.Errorf("Expected ID way/101, got %s", poi.ID)
	}

	got, err := storage.GetPOI(ctx, "way/101")
	if err != nil {
		t.Fatalf("Failed to get POI: %v", err)
	}
	if got.Name != "Newton Free Library" {
		t.Errorf("Expected name preserved, got %s", got.Name)
	}

	// Re-upsert with the same OSM identity replaces, not duplicates
	poi.Name = "Newton Free Library (Main)"
	if err := storage.UpsertPOI(ctx, poi); err != nil {
		t.Fatalf("Failed to re-upsert POI: %v", err)
	}
	count, err := storage.CountPOIs(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to count POIs: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 POI after re-upsert, got %d", count)
	}
}

func TestPOIFieldScopedUpdate(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	poi := testPOI(102, "City Hall", "Waltham", models.CategoryTownHall)
	poi.DiscoveredWebsite = "https://walthamcityhall.gov"
	if err := storage.UpsertPOI(ctx, poi); err != nil {
		t.Fatal(err)
	}

	// Update only the source phase fields; the website fields must survive.
	status := models.SourceDiscovered
	eventsURL := "https://walthamcityhall.gov/events"
	method := models.MethodDirectPath
	confidence := 0.85
	err := storage.UpdatePOI(ctx, poi.ID, &interfaces.POIUpdate{
		SourceStatus:        &status,
		EventsURL:           &eventsURL,
		EventsURLMethod:     &method,
		EventsURLConfidence: &confidence,
	})
	if err != nil {
		t.Fatalf("Failed to update POI: %v", err)
	}

	got, err := storage.GetPOI(ctx, poi.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DiscoveredWebsite != "https://walthamcityhall.gov" {
		t.Errorf("Website field clobbered by source-phase update: %q", got.DiscoveredWebsite)
	}
	if got.SourceStatus != models.SourceDiscovered {
		t.Errorf("Expected source status discovered, got %s", got.SourceStatus)
	}
	if got.EventsURL != eventsURL || got.EventsURLMethod != models.MethodDirectPath {
		t.Errorf("Events URL fields not applied: %q %q", got.EventsURL, got.EventsURLMethod)
	}
	if got.EventsURLConfidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %f", got.EventsURLConfidence)
	}
}

func TestNextWebsiteCandidate(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	// Has an OSM website already, must not be selected
	withSite := testPOI(201, "Arlington Library", "Arlington", models.CategoryLibrary)
	withSite.SourceWebsite = "https://arlingtonlibrary.org"

	// No city, must not be selected
	noCity := testPOI(202, "Unknown Park", "", models.CategoryPark)

	// Excluded category
	school := testPOI(203, "Brackett School", "Arlington", models.CategorySchool)

	// The one that should win
	eligible := testPOI(204, "Menotomy Rocks Park", "Arlington", models.CategoryPark)

	for _, p := range []*models.POI{withSite, noCity, school, eligible} {
		if err := storage.UpsertPOI(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := storage.NextWebsiteCandidate(ctx, []models.Category{models.CategorySchool})
	if err != nil {
		t.Fatalf("Failed to select candidate: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a website candidate, got nil")
	}
	if got.Name != "Menotomy Rocks Park" {
		t.Errorf("Expected Menotomy Rocks Park, got %s", got.Name)
	}
}

func TestNextEventsCandidateRequiresWebsite(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	noSite := testPOI(301, "Siteless Museum", "Concord", models.CategoryMuseum)

	discovered := testPOI(302, "Concord Museum", "Concord", models.CategoryMuseum)
	discovered.DiscoveredWebsite = "https://concordmuseum.org"

	for _, p := range []*models.POI{noSite, discovered} {
		if err := storage.UpsertPOI(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := storage.NextEventsCandidate(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Expected an events candidate, got nil")
	}
	if got.Name != "Concord Museum" {
		t.Errorf("Expected the POI with a discovered website, got %s", got.Name)
	}

	// Discovered website counts the same as an OSM one
	if got.EffectiveWebsite() != "https://concordmuseum.org" {
		t.Errorf("Unexpected effective website: %s", got.EffectiveWebsite())
	}
}

func TestFindSiblingOperatorRules(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	target := testPOI(401, "Hurd Field Playground", "Arlington", models.CategoryPlayground)
	target.Operator = "Town of Arlington"

	match := testPOI(402, "Spy Pond Playground", "Arlington", models.CategoryPlayground)
	match.Operator = "town of arlington" // case differs, still a match
	match.EventsURL = "https://arlingtonma.gov/recreation/events"

	wrongOperator := testPOI(403, "Private Playground", "Arlington", models.CategoryPlayground)
	wrongOperator.Operator = "Playspace Inc"
	wrongOperator.EventsURL = "https://playspace.example.com/events"

	wrongCity := testPOI(404, "Lexington Playground", "Lexington", models.CategoryPlayground)
	wrongCity.Operator = "Town of Arlington"
	wrongCity.EventsURL = "https://lexingtonma.gov/events"

	for _, p := range []*models.POI{target, match, wrongOperator, wrongCity} {
		if err := storage.UpsertPOI(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	sibling, err := storage.FindSibling(ctx, target, func(p *models.POI) bool {
		return p.EventsURL != ""
	})
	if err != nil {
		t.Fatal(err)
	}
	if sibling == nil {
		t.Fatal("Expected a sibling, got nil")
	}
	if sibling.Name != "Spy Pond Playground" {
		t.Errorf("Expected Spy Pond Playground, got %s", sibling.Name)
	}
}

func TestFindSiblingOperatorlessOnlyMatchesOperatorless(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	target := testPOI(501, "North Park", "Medford", models.CategoryPark)

	operated := testPOI(502, "South Park", "Medford", models.CategoryPark)
	operated.Operator = "City of Medford"
	operated.DiscoveredWebsite = "https://medfordma.org"

	plain := testPOI(503, "East Park", "Medford", models.CategoryPark)
	plain.DiscoveredWebsite = "https://medfordparks.org"

	for _, p := range []*models.POI{target, operated, plain} {
		if err := storage.UpsertPOI(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	sibling, err := storage.FindSibling(ctx, target, func(p *models.POI) bool {
		return p.DiscoveredWebsite != ""
	})
	if err != nil {
		t.Fatal(err)
	}
	if sibling == nil {
		t.Fatal("Expected the operator-less sibling, got nil")
	}
	if sibling.Name != "East Park" {
		t.Errorf("Expected East Park (no operator), got %s", sibling.Name)
	}
}

func TestListPOIsCityCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	storage := NewPOIStorage(db, arbor.NewLogger())
	ctx := context.Background()

	a := testPOI(601, "A", "Somerville", models.CategoryLibrary)
	b := testPOI(602, "B", "SOMERVILLE", models.CategoryLibrary)
	c := testPOI(603, "C", "Cambridge", models.CategoryLibrary)

	for _, p := range []*models.POI{a, b, c} {
		if err := storage.UpsertPOI(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	pois, err := storage.ListPOIs(ctx, &interfaces.POIFilter{City: "somerville"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pois) != 2 {
		t.Errorf("Expected 2 Somerville POIs, got %d", len(pois))
	}
}
