package domain

import (
	"time"

	"github.com/grachmannico95/payments-engine/pkg/amount"
)

type ClientID uint16

type TransactionID uint32

type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindDispute    TransactionKind = "dispute"
	KindResolve    TransactionKind = "resolve"
	KindChargeback TransactionKind = "chargeback"
)

// Transaction is one record of the input stream. Exactly one of the concrete
// types below implements it; only Deposit and Withdrawal carry an amount.
type Transaction interface {
	Kind() TransactionKind
	ClientID() ClientID
	TxID() TransactionID
}

type Deposit struct {
	Client ClientID
	Tx     TransactionID
	Amount amount.Amount
}

type Withdrawal struct {
	Client ClientID
	Tx     TransactionID
	Amount amount.Amount
}

type Dispute struct {
	Client ClientID
	Tx     TransactionID
}

type Resolve struct {
	Client ClientID
	Tx     TransactionID
}

type Chargeback struct {
	Client ClientID
	Tx     TransactionID
}

func (t Deposit) Kind() TransactionKind    { return KindDeposit }
func (t Deposit) ClientID() ClientID       { return t.Client }
func (t Deposit) TxID() TransactionID      { return t.Tx }
func (t Withdrawal) Kind() TransactionKind { return KindWithdrawal }
func (t Withdrawal) ClientID() ClientID    { return t.Client }
func (t Withdrawal) TxID() TransactionID   { return t.Tx }
func (t Dispute) Kind() TransactionKind    { return KindDispute }
func (t Dispute) ClientID() ClientID       { return t.Client }
func (t Dispute) TxID() TransactionID      { return t.Tx }
func (t Resolve) Kind() TransactionKind    { return KindResolve }
func (t Resolve) ClientID() ClientID       { return t.Client }
func (t Resolve) TxID() TransactionID      { return t.Tx }
func (t Chargeback) Kind() TransactionKind { return KindChargeback }
func (t Chargeback) ClientID() ClientID    { return t.Client }
func (t Chargeback) TxID() TransactionID   { return t.Tx }

// TransactionRecord is the log entry kept for every accepted deposit or
// withdrawal so later disputes can be adjudicated.
type TransactionRecord struct {
	Kind     TransactionKind `json:"kind"`
	Client   ClientID        `json:"client"`
	Tx       TransactionID   `json:"tx"`
	Amount   amount.Amount   `json:"amount"`
	Disputed bool            `json:"disputed"`
}

// AccountSnapshot is the read-only view of one client used for reporting.
type AccountSnapshot struct {
	Client    ClientID      `json:"client"`
	Available amount.Amount `json:"available"`
	Held      amount.Amount `json:"held"`
	Total     amount.Amount `json:"total"`
	Locked    bool          `json:"locked"`
}

// ApplyStats counts what happened to the transactions of one stream.
// Rejected is keyed by the rejection reason.
type ApplyStats struct {
	Accepted int            `json:"accepted"`
	Rejected map[string]int `json:"rejected"`
}

type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// Batch is one transaction stream submitted over HTTP together with its
// outcome.
type Batch struct {
	ID            string            `json:"id"`
	Status        BatchStatus       `json:"status"`
	ProcessedRows int               `json:"processed_rows"`
	Error         string            `json:"error,omitempty"`
	Accounts      []AccountSnapshot `json:"accounts,omitempty"`
	Stats         *ApplyStats       `json:"stats,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}
