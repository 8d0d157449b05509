package storage

import (
	"github.com/grachmannico95/payments-engine/internal/domain"
)

// MemoryLog keeps every record in a map for the lifetime of the process.
// Memory grows linearly with the number of accepted deposits and withdrawals.
type MemoryLog struct {
	records map[domain.TransactionID]*domain.TransactionRecord
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		records: make(map[domain.TransactionID]*domain.TransactionRecord),
	}
}

func (l *MemoryLog) Record(rec domain.TransactionRecord) error {
	if _, exists := l.records[rec.Tx]; exists {
		return domain.ErrDuplicateTransaction
	}

	rec.Disputed = false
	l.records[rec.Tx] = &rec

	return nil
}

func (l *MemoryLog) Lookup(tx domain.TransactionID) (domain.TransactionRecord, bool, error) {
	rec, exists := l.records[tx]
	if !exists {
		return domain.TransactionRecord{}, false, nil
	}

	return *rec, true, nil
}

func (l *MemoryLog) MarkDisputed(tx domain.TransactionID) error {
	return l.setDisputed(tx, true)
}

func (l *MemoryLog) ClearDisputed(tx domain.TransactionID) error {
	return l.setDisputed(tx, false)
}

func (l *MemoryLog) setDisputed(tx domain.TransactionID, disputed bool) error {
	rec, exists := l.records[tx]
	if !exists {
		return domain.ErrUnknownTransaction
	}

	rec.Disputed = disputed

	return nil
}

func (l *MemoryLog) Len() int {
	return len(l.records)
}

func (l *MemoryLog) Close() error {
	return nil
}
