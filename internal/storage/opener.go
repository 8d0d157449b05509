package storage

import (
	"errors"
	"fmt"

	"github.com/grachmannico95/payments-engine/internal/domain"
)

const (
	LogStoreMemory = "memory"
	LogStoreBolt   = "bolt"
)

var ErrUnknownLogStore = errors.New("unknown transaction log store")

// LogOpener creates a fresh, empty transaction log for one stream.
type LogOpener func() (domain.TransactionLog, error)

// NewLogOpener returns an opener for the named store. dir is only used by
// the bolt store.
func NewLogOpener(store, dir string) (LogOpener, error) {
	switch store {
	case LogStoreMemory, "":
		return func() (domain.TransactionLog, error) {
			return NewMemoryLog(), nil
		}, nil
	case LogStoreBolt:
		return func() (domain.TransactionLog, error) {
			return NewTempBoltLog(dir)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogStore, store)
	}
}
