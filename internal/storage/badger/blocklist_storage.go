package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// BlocklistStorage implements the BlocklistStorage interface for Badger
type BlocklistStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBlocklistStorage creates a new BlocklistStorage instance
func NewBlocklistStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BlocklistStorage {
	return &BlocklistStorage{
		db:     db,
		logger: logger,
	}
}

func (s *BlocklistStorage) AddDomain(ctx context.Context, domain, reason string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return fmt.Errorf("domain is required")
	}

	entry := &models.BlockedDomain{
		Domain:    domain,
		Reason:    reason,
		CreatedAt: time.Now(),
	}

	err := s.db.Store().Insert(domain, entry)
	if err == badgerhold.ErrKeyExists {
		// Already blocked; keep the original reason.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add blocked domain: %w", err)
	}

	s.logger.Info().Str("domain", domain).Str("reason", reason).Msg("Domain added to blocklist")
	return nil
}

func (s *BlocklistStorage) RemoveDomain(ctx context.Context, domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := s.db.Store().Delete(domain, &models.BlockedDomain{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to remove blocked domain: %w", err)
	}
	return nil
}

func (s *BlocklistStorage) ListDomains(ctx context.Context) ([]*models.BlockedDomain, error) {
	var entries []models.BlockedDomain
	if err := s.db.Store().Find(&entries, badgerhold.Where("Domain").Ne("").SortBy("Domain")); err != nil {
		return nil, fmt.Errorf("failed to list blocked domains: %w", err)
	}

	result := make([]*models.BlockedDomain, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}
