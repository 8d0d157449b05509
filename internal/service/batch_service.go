package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/internal/ledger"
	"github.com/grachmannico95/payments-engine/internal/storage"
	"github.com/grachmannico95/payments-engine/pkg/logger"
)

type BatchService interface {
	SubmitBatch(ctx context.Context, reader io.Reader) (*domain.Batch, error)
	GetBatch(ctx context.Context, batchID string) (*domain.Batch, error)
	GetAccounts(ctx context.Context, batchID string) ([]domain.AccountSnapshot, error)
	ListBatches(ctx context.Context, status *domain.BatchStatus) ([]domain.Batch, error)
}

type batchService struct {
	repo         domain.Repository
	csvProcessor CSVProcessorInterface
	openLog      storage.LogOpener
	logger       *logger.Logger
}

func NewBatchService(repo domain.Repository, csvProcessor CSVProcessorInterface, openLog storage.LogOpener, log *logger.Logger) BatchService {
	return &batchService{
		repo:         repo,
		csvProcessor: csvProcessor,
		openLog:      openLog,
		logger:       log,
	}
}

// SubmitBatch processes the whole stream into a fresh ledger before
// returning. Every batch has its own accounts and transaction log.
//
// A structural error fails the batch: the returned batch is stored with
// status failed and the error is returned alongside it.
func (s *batchService) SubmitBatch(ctx context.Context, reader io.Reader) (*domain.Batch, error) {
	batchID := uuid.New().String()

	ctx = logger.WithBatchID(ctx, batchID)

	s.logger.Info(ctx, "Creating batch record")

	err := s.repo.CreateBatch(ctx, batchID)
	if err != nil {
		s.logger.Error(ctx, "Failed to create batch",
			"error", err,
		)
		return nil, err
	}

	result, l, runErr := s.run(ctx, reader)
	if runErr != nil {
		s.logger.Warn(ctx, "Batch failed",
			"rows", result.Rows,
			"error", runErr,
		)
		if err := s.repo.FailBatch(ctx, batchID, result.Rows, runErr); err != nil {
			return nil, err
		}
	} else {
		stats := l.Stats()
		s.logger.Info(ctx, "Batch completed",
			"rows", result.Rows,
			"accepted", stats.Accepted,
			"recorded", l.RecordedTransactions(),
			"clients", len(l.Snapshot()),
		)
		if err := s.repo.CompleteBatch(ctx, batchID, result.Rows, l.Snapshot(), stats); err != nil {
			return nil, err
		}
	}

	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return batch, runErr
}

func (s *batchService) run(ctx context.Context, reader io.Reader) (Result, *ledger.Ledger, error) {
	txLog, err := s.openLog()
	if err != nil {
		return Result{}, nil, fmt.Errorf("open transaction log: %w", err)
	}

	l := ledger.New(txLog, s.logger)
	defer func() {
		if err := l.Close(); err != nil {
			s.logger.Warn(ctx, "Failed to close transaction log",
				"error", err,
			)
		}
	}()

	result, err := s.csvProcessor.ProcessStream(ctx, reader, l)
	return result, l, err
}

func (s *batchService) GetBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	ctx = logger.WithBatchID(ctx, batchID)

	s.logger.Debug(ctx, "Getting batch")

	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		s.logger.Error(ctx, "Failed to get batch",
			"error", err,
		)
		return nil, err
	}

	return batch, nil
}

func (s *batchService) GetAccounts(ctx context.Context, batchID string) ([]domain.AccountSnapshot, error) {
	ctx = logger.WithBatchID(ctx, batchID)

	s.logger.Debug(ctx, "Getting accounts")

	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		s.logger.Error(ctx, "Failed to get batch",
			"error", err,
		)
		return nil, err
	}

	if batch.Status != domain.BatchStatusCompleted {
		return nil, fmt.Errorf("%w: batch is %s", domain.ErrBatchNotFinished, batch.Status)
	}

	s.logger.Debug(ctx, "Accounts retrieved",
		"clients", len(batch.Accounts),
	)

	return batch.Accounts, nil
}

func (s *batchService) ListBatches(ctx context.Context, status *domain.BatchStatus) ([]domain.Batch, error) {
	s.logger.Debug(ctx, "Listing batches",
		"status", status,
	)

	return s.repo.ListBatches(ctx, status)
}
