package mocks

import (
	"context"
	"io"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockBatchService mirrors service.BatchService. It lives here rather than
// next to the interface so handler tests do not import service internals.
type MockBatchService struct {
	mock.Mock
}

func NewMockBatchService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBatchService {
	m := &MockBatchService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBatchService) SubmitBatch(ctx context.Context, reader io.Reader) (*domain.Batch, error) {
	args := m.Called(ctx, reader)
	batch, _ := args.Get(0).(*domain.Batch)
	return batch, args.Error(1)
}

func (m *MockBatchService) GetBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	args := m.Called(ctx, batchID)
	batch, _ := args.Get(0).(*domain.Batch)
	return batch, args.Error(1)
}

func (m *MockBatchService) GetAccounts(ctx context.Context, batchID string) ([]domain.AccountSnapshot, error) {
	args := m.Called(ctx, batchID)
	accounts, _ := args.Get(0).([]domain.AccountSnapshot)
	return accounts, args.Error(1)
}

func (m *MockBatchService) ListBatches(ctx context.Context, status *domain.BatchStatus) ([]domain.Batch, error) {
	args := m.Called(ctx, status)
	batches, _ := args.Get(0).([]domain.Batch)
	return batches, args.Error(1)
}
