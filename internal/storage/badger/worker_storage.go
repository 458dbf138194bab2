package badger

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/interfaces"
	"github.com/ternarybob/navigator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// WorkerStorage implements the WorkerStorage interface for Badger
type WorkerStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWorkerStorage creates a new WorkerStorage instance
func NewWorkerStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WorkerStorage {
	return &WorkerStorage{
		db:     db,
		logger: logger,
	}
}

func (s *WorkerStorage) GetOrCreateWorker(ctx context.Context, workerType models.WorkerType) (*models.WorkerStatus, error) {
	var status models.WorkerStatus
	err := s.db.Store().Get(string(workerType), &status)
	if err == nil {
		return &status, nil
	}
	if err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to get worker status: %w", err)
	}

	hostname, _ := os.Hostname()
	status = models.WorkerStatus{
		WorkerType: workerType,
		Hostname:   hostname,
		PID:        os.Getpid(),
	}
	if err := s.db.Store().Upsert(string(workerType), &status); err != nil {
		return nil, fmt.Errorf("failed to create worker status: %w", err)
	}

	s.logger.Debug().Str("worker_type", string(workerType)).Msg("Created worker status row")
	return &status, nil
}

func (s *WorkerStorage) SaveWorker(ctx context.Context, status *models.WorkerStatus) error {
	if err := s.db.Store().Upsert(string(status.WorkerType), status); err != nil {
		return fmt.Errorf("failed to save worker status: %w", err)
	}
	return nil
}
