// Package mocks holds testify mocks of the service dependencies.
package mocks

import (
	"context"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

// NewMockRepository registers AssertExpectations on test cleanup.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) CreateBatch(ctx context.Context, batchID string) error {
	args := m.Called(ctx, batchID)
	return args.Error(0)
}

func (m *MockRepository) GetBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	args := m.Called(ctx, batchID)
	batch, _ := args.Get(0).(*domain.Batch)
	return batch, args.Error(1)
}

func (m *MockRepository) CompleteBatch(ctx context.Context, batchID string, processedRows int, accounts []domain.AccountSnapshot, stats domain.ApplyStats) error {
	args := m.Called(ctx, batchID, processedRows, accounts, stats)
	return args.Error(0)
}

func (m *MockRepository) FailBatch(ctx context.Context, batchID string, processedRows int, cause error) error {
	args := m.Called(ctx, batchID, processedRows, cause)
	return args.Error(0)
}

func (m *MockRepository) ListBatches(ctx context.Context, status *domain.BatchStatus) ([]domain.Batch, error) {
	args := m.Called(ctx, status)
	batches, _ := args.Get(0).([]domain.Batch)
	return batches, args.Error(1)
}
