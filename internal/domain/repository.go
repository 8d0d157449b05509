package domain

import "context"

// TransactionLog retains accepted deposits and withdrawals for the lifetime
// of a stream. Implementations are used by a single goroutine.
type TransactionLog interface {
	// Record stores a new entry with Disputed=false.
	// Must return ErrDuplicateTransaction if the id is already present.
	Record(rec TransactionRecord) error

	Lookup(tx TransactionID) (TransactionRecord, bool, error)

	// MarkDisputed and ClearDisputed return ErrUnknownTransaction when the
	// entry does not exist. Client ownership is checked by the caller.
	MarkDisputed(tx TransactionID) error
	ClearDisputed(tx TransactionID) error

	Len() int
	Close() error
}

type Repository interface {
	CreateBatch(ctx context.Context, batchID string) error
	GetBatch(ctx context.Context, batchID string) (*Batch, error)
	CompleteBatch(ctx context.Context, batchID string, processedRows int, accounts []AccountSnapshot, stats ApplyStats) error
	FailBatch(ctx context.Context, batchID string, processedRows int, cause error) error
	ListBatches(ctx context.Context, status *BatchStatus) ([]Batch, error)
}
