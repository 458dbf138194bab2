package blocklist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/models"
)

// memoryStorage is an in-memory BlocklistStorage for tests.
type memoryStorage struct {
	mu      sync.Mutex
	domains map[string]*models.BlockedDomain
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{domains: make(map[string]*models.BlockedDomain)}
}

func (m *memoryStorage) AddDomain(_ context.Context, domain, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.domains[domain]; ok {
		return nil
	}
	m.domains[domain] = &models.BlockedDomain{Domain: domain, Reason: reason, CreatedAt: time.Now()}
	return nil
}

func (m *memoryStorage) RemoveDomain(_ context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.domains, domain)
	return nil
}

func (m *memoryStorage) ListDomains(_ context.Context) ([]*models.BlockedDomain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.BlockedDomain, 0, len(m.domains))
	for _, d := range m.domains {
		result = append(result, d)
	}
	return result, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), newMemoryStorage(), nil, arbor.NewLogger())
	require.NoError(t, err)
	return svc
}

func TestSeedDomainsBlocked(t *testing.T) {
	svc := newTestService(t)

	assert.True(t, svc.IsDomainBlocked("eventbrite.com"))
	assert.True(t, svc.IsDomainBlocked("yelp.com"))
	assert.True(t, svc.IsDomainBlocked("patch.com"))
	assert.False(t, svc.IsDomainBlocked("newtonfreelibrary.net"))
}

func TestSubdomainBlocked(t *testing.T) {
	svc := newTestService(t)

	assert.True(t, svc.IsDomainBlocked("www.yelp.com"))
	assert.True(t, svc.IsDomainBlocked("events.eventbrite.com"))
	assert.True(t, svc.IsBlocked("https://www.facebook.com/newtonlibrary"))
}

func TestNeverOfficialWithoutStorage(t *testing.T) {
	svc := newTestService(t)

	// Compiled-in set covers domains not in the stored seed
	assert.True(t, svc.IsDomainBlocked("worldcat.org"))
	assert.True(t, svc.IsDomainBlocked("greatschools.org"))
}

func TestAutoBlock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	added := svc.AutoBlock(ctx, "spammy-directory.com", "Low confidence candidate")
	assert.True(t, added)
	assert.True(t, svc.IsDomainBlocked("spammy-directory.com"))

	// Second add is a no-op
	assert.False(t, svc.AutoBlock(ctx, "spammy-directory.com", "again"))
}

func TestAutoBlockProtectedTLDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, domain := range []string{"newtonma.gov", "harvard.edu", "concordlibrary.org", "sudbury.ma.us"} {
		added := svc.AutoBlock(ctx, domain, "failed validation once")
		assert.False(t, added, "protected TLD %s must never be auto-blocked", domain)
		assert.False(t, svc.IsDomainBlocked(domain))
	}
}

func TestExtraDomainsFromConfig(t *testing.T) {
	cfg := &common.BlocklistConfig{ExtraDomains: []string{"localnews.example"}}

	svc, err := NewService(context.Background(), newMemoryStorage(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	assert.True(t, svc.IsDomainBlocked("localnews.example"))
}
