// Package ledger applies an ordered stream of transactions to client
// accounts.
//
// A Ledger is not safe for concurrent use: dispute handling depends on every
// earlier deposit having been recorded, so transactions must be applied one
// at a time in arrival order.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/pkg/amount"
	"github.com/grachmannico95/payments-engine/pkg/logger"
)

type Ledger struct {
	accounts map[domain.ClientID]*Account
	txLog    domain.TransactionLog
	logger   *logger.Logger
	stats    domain.ApplyStats
}

func New(txLog domain.TransactionLog, log *logger.Logger) *Ledger {
	return &Ledger{
		accounts: make(map[domain.ClientID]*Account),
		txLog:    txLog,
		logger:   log,
		stats:    domain.ApplyStats{Rejected: make(map[string]int)},
	}
}

// Apply routes one transaction to its client's account, creating the account
// on first reference. Business-rule violations are dropped silently and
// Apply returns nil for them; a non-nil error means the transaction log
// itself failed and the stream must stop.
func (l *Ledger) Apply(ctx context.Context, tx domain.Transaction) error {
	err := l.apply(tx)
	if err == nil {
		l.stats.Accepted++
		return nil
	}

	var rejection *domain.RejectionError
	if errors.As(err, &rejection) {
		l.stats.Rejected[rejection.Reason.Error()]++
		l.logger.Debug(ctx, "Transaction rejected",
			"type", rejection.Kind,
			"client", rejection.Client,
			"tx", rejection.Tx,
			"reason", rejection.Reason.Error(),
		)
		return nil
	}

	l.logger.Error(ctx, "Failed to apply transaction",
		"error", err,
	)
	return err
}

// apply returns a *domain.RejectionError for dropped transactions.
func (l *Ledger) apply(tx domain.Transaction) error {
	if tx == nil {
		return errors.New("nil transaction")
	}

	account := l.account(tx.ClientID())

	switch t := tx.(type) {
	case domain.Deposit:
		return l.applyDeposit(account, t)
	case domain.Withdrawal:
		return l.applyWithdrawal(account, t)
	case domain.Dispute:
		return l.applyDispute(account, t)
	case domain.Resolve:
		return l.applyResolve(account, t)
	case domain.Chargeback:
		return l.applyChargeback(account, t)
	default:
		return fmt.Errorf("unsupported transaction type %T", tx)
	}
}

func (l *Ledger) account(client domain.ClientID) *Account {
	account, exists := l.accounts[client]
	if !exists {
		account = newAccount(client)
		l.accounts[client] = account
	}
	return account
}

func (l *Ledger) applyDeposit(account *Account, t domain.Deposit) error {
	if err := account.canDeposit(t.Amount); err != nil {
		return domain.Reject(t, err)
	}
	if err := l.record(t, t.Amount); err != nil {
		return err
	}

	account.deposit(t.Amount)
	return nil
}

func (l *Ledger) applyWithdrawal(account *Account, t domain.Withdrawal) error {
	if err := account.canWithdraw(t.Amount); err != nil {
		return domain.Reject(t, err)
	}
	if err := l.record(t, t.Amount); err != nil {
		return err
	}

	account.withdraw(t.Amount)
	return nil
}

func (l *Ledger) applyDispute(account *Account, t domain.Dispute) error {
	rec, err := l.disputeTarget(account, t, false)
	if err != nil {
		return err
	}
	if err := l.txLog.MarkDisputed(t.Tx); err != nil {
		return fmt.Errorf("mark tx %d disputed: %w", t.Tx, err)
	}

	account.hold(rec.Amount)
	return nil
}

func (l *Ledger) applyResolve(account *Account, t domain.Resolve) error {
	rec, err := l.disputeTarget(account, t, true)
	if err != nil {
		return err
	}
	if err := l.txLog.ClearDisputed(t.Tx); err != nil {
		return fmt.Errorf("clear tx %d dispute: %w", t.Tx, err)
	}

	account.release(rec.Amount)
	return nil
}

// The record stays disputed after a chargeback and the account is locked,
// so nothing can touch the transaction again.
func (l *Ledger) applyChargeback(account *Account, t domain.Chargeback) error {
	rec, err := l.disputeTarget(account, t, true)
	if err != nil {
		return err
	}

	account.chargeback(rec.Amount)
	return nil
}

func (l *Ledger) record(tx domain.Transaction, amt amount.Amount) error {
	err := l.txLog.Record(domain.TransactionRecord{
		Kind:   tx.Kind(),
		Client: tx.ClientID(),
		Tx:     tx.TxID(),
		Amount: amt,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return domain.Reject(tx, domain.ErrDuplicateTransaction)
	default:
		return fmt.Errorf("record tx %d: %w", tx.TxID(), err)
	}
}

func (l *Ledger) disputeTarget(account *Account, tx domain.Transaction, wantDisputed bool) (domain.TransactionRecord, error) {
	rec, found, err := l.txLog.Lookup(tx.TxID())
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("lookup tx %d: %w", tx.TxID(), err)
	}
	if err := account.checkDisputeTarget(rec, found, wantDisputed); err != nil {
		return domain.TransactionRecord{}, domain.Reject(tx, err)
	}
	return rec, nil
}

// existingAccount looks up a client without creating its account.
func (l *Ledger) existingAccount(client domain.ClientID) (*Account, bool) {
	account, exists := l.accounts[client]
	return account, exists
}

// Snapshot lists every known account ordered by client id.
func (l *Ledger) Snapshot() []domain.AccountSnapshot {
	snapshots := make([]domain.AccountSnapshot, 0, len(l.accounts))
	for _, account := range l.accounts {
		snapshots = append(snapshots, account.Snapshot())
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Client < snapshots[j].Client
	})

	return snapshots
}

func (l *Ledger) Stats() domain.ApplyStats {
	rejected := make(map[string]int, len(l.stats.Rejected))
	for reason, count := range l.stats.Rejected {
		rejected[reason] = count
	}
	return domain.ApplyStats{Accepted: l.stats.Accepted, Rejected: rejected}
}

// RecordedTransactions is the number of deposits and withdrawals retained
// for future disputes.
func (l *Ledger) RecordedTransactions() int {
	return l.txLog.Len()
}

func (l *Ledger) Close() error {
	return l.txLog.Close()
}
