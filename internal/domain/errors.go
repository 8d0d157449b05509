package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrInvalidCSVFormat = errors.New("invalid CSV format")
	ErrBatchNotFinished = errors.New("batch did not complete")
)

// Business-rule rejections. They never stop a stream.
var (
	ErrAccountLocked        = errors.New("account is locked")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrUnknownTransaction   = errors.New("unknown transaction")
	ErrClientMismatch       = errors.New("transaction belongs to another client")
	ErrAlreadyDisputed      = errors.New("transaction already disputed")
	ErrNotDisputed          = errors.New("transaction is not disputed")
	ErrNotDisputable        = errors.New("transaction kind cannot be disputed")
)

// RejectionError reports why a transaction was dropped.
type RejectionError struct {
	Kind   TransactionKind
	Client ClientID
	Tx     TransactionID
	Reason error
}

func Reject(tx Transaction, reason error) *RejectionError {
	return &RejectionError{
		Kind:   tx.Kind(),
		Client: tx.ClientID(),
		Tx:     tx.TxID(),
		Reason: reason,
	}
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected (client %d, tx %d): %v", e.Kind, e.Client, e.Tx, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}
