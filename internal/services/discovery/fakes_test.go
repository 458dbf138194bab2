package discovery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/httpclient"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
)

func newTestFetcher(t *testing.T) *httpclient.Fetcher {
	t.Helper()
	return httpclient.NewFetcher(&common.FetchConfig{
		Timeout:        "5s",
		UserAgent:      "navigator-test",
		RequestsPerSec: 1000,
	})
}

type fakeSearch struct {
	results []models.SearchResult
	err     error
	queries []string
}

func (f *fakeSearch) Search(_ context.Context, query string) ([]models.SearchResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeClassifier returns canned classifications in call order, repeating the
// last one when the queue runs dry.
type fakeClassifier struct {
	verdicts []*interfaces.Classification
	requests []*interfaces.ClassifyRequest
	err      error
}

func (f *fakeClassifier) Classify(_ context.Context, req *interfaces.ClassifyRequest) (*interfaces.Classification, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.verdicts) == 0 {
		return &interfaces.Classification{Verdict: interfaces.VerdictUncertain, Confidence: interfaces.ConfidenceLow}, nil
	}
	v := f.verdicts[0]
	if len(f.verdicts) > 1 {
		f.verdicts = f.verdicts[1:]
	}
	return v, nil
}

func (f *fakeClassifier) HealthCheck(context.Context) error { return nil }
func (f *fakeClassifier) Close() error                      { return nil }

type autoBlockRecord struct {
	domain string
	reason string
}

type fakeBlocklist struct {
	blocked     map[string]bool
	autoBlocked []autoBlockRecord
}

func newFakeBlocklist(domains ...string) *fakeBlocklist {
	b := &fakeBlocklist{blocked: make(map[string]bool)}
	for _, d := range domains {
		b.blocked[d] = true
	}
	return b
}

func (f *fakeBlocklist) IsBlocked(rawURL string) bool {
	return f.IsDomainBlocked(common.ExtractDomain(rawURL))
}

func (f *fakeBlocklist) IsDomainBlocked(domain string) bool {
	for d := domain; strings.Contains(d, "."); d = d[strings.Index(d, ".")+1:] {
		if f.blocked[d] {
			return true
		}
	}
	return false
}

func (f *fakeBlocklist) AutoBlock(_ context.Context, domain, reason string) bool {
	if f.blocked[domain] {
		return false
	}
	f.blocked[domain] = true
	f.autoBlocked = append(f.autoBlocked, autoBlockRecord{domain: domain, reason: reason})
	return true
}

func (f *fakeBlocklist) Refresh(context.Context) error { return nil }

type fakeBrowser struct {
	html       string
	htmlErr    error
	screenshot []byte
	shotErr    error
	rendered   []string
	shots      []string
}

func (f *fakeBrowser) Screenshot(_ context.Context, url string) ([]byte, error) {
	f.shots = append(f.shots, url)
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	return f.screenshot, nil
}

func (f *fakeBrowser) RenderHTML(_ context.Context, url string) (string, error) {
	f.rendered = append(f.rendered, url)
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	return f.html, nil
}

func (f *fakeBrowser) Close() error { return nil }

// fakePOIStorage backs the reuse resolver tests with an in-memory sibling
// lookup applying the same city/category/operator rules as the real storage.
type fakePOIStorage struct {
	pois []*models.POI
}

func (f *fakePOIStorage) UpsertPOI(_ context.Context, poi *models.POI) error {
	poi.UpdatedAt = time.Now()
	f.pois = append(f.pois, poi)
	return nil
}

func (f *fakePOIStorage) GetPOI(_ context.Context, id string) (*models.POI, error) {
	for _, p := range f.pois {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, badgerholdNotFound{}
}

func (f *fakePOIStorage) UpdatePOI(context.Context, string, *interfaces.POIUpdate) error { return nil }

func (f *fakePOIStorage) ListPOIs(context.Context, *interfaces.POIFilter) ([]*models.POI, error) {
	return f.pois, nil
}

func (f *fakePOIStorage) NextWebsiteCandidate(context.Context, []models.Category) (*models.POI, error) {
	return nil, nil
}

func (f *fakePOIStorage) NextEventsCandidate(context.Context, []models.Category) (*models.POI, error) {
	return nil, nil
}

func (f *fakePOIStorage) FindSibling(_ context.Context, poi *models.POI, hasValue func(*models.POI) bool) (*models.POI, error) {
	for _, p := range f.pois {
		if p.ID == poi.ID || p.Category != poi.Category {
			continue
		}
		if !strings.EqualFold(p.City, poi.City) {
			continue
		}
		if poi.Operator != "" {
			if !strings.EqualFold(p.Operator, poi.Operator) {
				continue
			}
		} else if p.Operator != "" {
			continue
		}
		if hasValue(p) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePOIStorage) CountPOIs(context.Context, *interfaces.POIFilter) (int, error) {
	return len(f.pois), nil
}

type badgerholdNotFound struct{}

func (badgerholdNotFound) Error() string { return "not found" }
