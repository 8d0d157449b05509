package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grachmannico95/payments-engine/internal/domain"
)

// MemoryStore keeps submitted batches and their final account snapshots.
type MemoryStore struct {
	batches map[string]*domain.Batch
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]*domain.Batch),
	}
}

func (s *MemoryStore) CreateBatch(ctx context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[batchID] = &domain.Batch{
		ID:        batchID,
		Status:    domain.BatchStatusProcessing,
		CreatedAt: time.Now(),
	}

	return nil
}

func (s *MemoryStore) GetBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return nil, domain.ErrBatchNotFound
	}

	copied := *batch
	return &copied, nil
}

func (s *MemoryStore) CompleteBatch(ctx context.Context, batchID string, processedRows int, accounts []domain.AccountSnapshot, stats domain.ApplyStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return domain.ErrBatchNotFound
	}

	now := time.Now()
	batch.Status = domain.BatchStatusCompleted
	batch.ProcessedRows = processedRows
	batch.Accounts = accounts
	batch.Stats = &stats
	batch.CompletedAt = &now

	return nil
}

func (s *MemoryStore) FailBatch(ctx context.Context, batchID string, processedRows int, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return domain.ErrBatchNotFound
	}

	now := time.Now()
	batch.Status = domain.BatchStatusFailed
	batch.ProcessedRows = processedRows
	batch.CompletedAt = &now
	if cause != nil {
		batch.Error = cause.Error()
	}

	return nil
}

// ListBatches returns batches oldest first, optionally filtered by status.
// Account snapshots are left out to keep listings small.
func (s *MemoryStore) ListBatches(ctx context.Context, status *domain.BatchStatus) ([]domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := []domain.Batch{}
	for _, batch := range s.batches {
		if status != nil && batch.Status != *status {
			continue
		}

		copied := *batch
		copied.Accounts = nil
		batches = append(batches, copied)
	}

	sort.Slice(batches, func(i, j int) bool {
		if batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].ID < batches[j].ID
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})

	return batches, nil
}
