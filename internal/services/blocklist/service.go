package blocklist

import (
	"context"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/interfaces"
)

// Service implements BlocklistService over the stored blocklist plus the
// compiled-in never-official domain set. The stored list is cached in memory
// and refreshed whenever a domain is added.
type Service struct {
	storage interfaces.BlocklistStorage
	logger  arbor.ILogger

	mu      sync.RWMutex
	blocked map[string]bool
}

// NewService creates the blocklist service, seeds the stored blocklist on
// first run, and loads it into memory. Extra domains from configuration are
// added alongside the seed set.
func NewService(ctx context.Context, storage interfaces.BlocklistStorage, config *common.BlocklistConfig, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		storage: storage,
		logger:  logger,
		blocked: make(map[string]bool),
	}

	for _, entry := range seedDomains {
		if err := storage.AddDomain(ctx, entry.Domain, entry.Reason); err != nil {
			return nil, err
		}
	}
	if config != nil {
		for _, domain := range config.ExtraDomains {
			if err := storage.AddDomain(ctx, domain, "Configured block"); err != nil {
				return nil, err
			}
		}
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) Refresh(ctx context.Context) error {
	entries, err := s.storage.ListDomains(ctx)
	if err != nil {
		return err
	}

	blocked := make(map[string]bool, len(entries))
	for _, entry := range entries {
		blocked[strings.ToLower(entry.Domain)] = true
	}

	s.mu.Lock()
	s.blocked = blocked
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(blocked)).Msg("Blocklist loaded")
	return nil
}

func (s *Service) IsBlocked(rawURL string) bool {
	domain := common.ExtractDomain(rawURL)
	if domain == "" {
		return false
	}
	return s.IsDomainBlocked(domain)
}

// IsDomainBlocked checks the domain and every parent domain, so
// "www.yelp.com" is caught by a "yelp.com" entry.
func (s *Service) IsDomainBlocked(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		if s.blocked[domain] || neverOfficialDomains[domain] {
			return true
		}
		idx := strings.IndexByte(domain, '.')
		if idx < 0 {
			return false
		}
		parent := domain[idx+1:]
		if !strings.Contains(parent, ".") {
			return false
		}
		domain = parent
	}
}

// AutoBlock records a domain that repeatedly failed validation. Trusted TLDs
// are never auto-blocked: a municipal .gov site may fail validation for one
// park yet be the right answer for the next.
func (s *Service) AutoBlock(ctx context.Context, domain, reason string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	if common.HasTrustedTLD(domain) {
		s.logger.Debug().Str("domain", domain).Msg("Skipping auto-block for trusted TLD")
		return false
	}
	if s.IsDomainBlocked(domain) {
		return false
	}

	if err := s.storage.AddDomain(ctx, domain, reason); err != nil {
		s.logger.Warn().Err(err).Str("domain", domain).Msg("Failed to auto-block domain")
		return false
	}

	s.mu.Lock()
	s.blocked[domain] = true
	s.mu.Unlock()

	s.logger.Info().Str("domain", domain).Str("reason", reason).Msg("Domain auto-blocked")
	return true
}
