package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/interfaces"
)

// Manager wires the Badger-backed storage implementations behind a single
// lifecycle.
type Manager struct {
	db        *BadgerDB
	pois      interfaces.POIStorage
	blocklist interfaces.BlocklistStorage
	workers   interfaces.WorkerStorage
	logger    arbor.ILogger
}

// NewManager opens the database and constructs all storage services.
func NewManager(config *common.Config, logger arbor.ILogger) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize badger: %w", err)
	}

	return &Manager{
		db:        db,
		pois:      NewPOIStorage(db, logger),
		blocklist: NewBlocklistStorage(db, logger),
		workers:   NewWorkerStorage(db, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) POIStorage() interfaces.POIStorage {
	return m.pois
}

func (m *Manager) BlocklistStorage() interfaces.BlocklistStorage {
	return m.blocklist
}

func (m *Manager) WorkerStorage() interfaces.WorkerStorage {
	return m.workers
}

func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage manager")
	return m.db.Close()
}
