package ledger

import (
	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/pkg/amount"
)

// Account holds the balances of one client. Total is always derived from
// available and held. Once locked, an account never unlocks.
type Account struct {
	client    domain.ClientID
	available amount.Amount
	held      amount.Amount
	locked    bool
}

func newAccount(client domain.ClientID) *Account {
	return &Account{client: client}
}

func (a *Account) Client() domain.ClientID  { return a.client }
func (a *Account) Available() amount.Amount { return a.available }
func (a *Account) Held() amount.Amount      { return a.held }
func (a *Account) Total() amount.Amount     { return a.available.Add(a.held) }
func (a *Account) Locked() bool             { return a.locked }

func (a *Account) Snapshot() domain.AccountSnapshot {
	return domain.AccountSnapshot{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     a.Total(),
		Locked:    a.locked,
	}
}

// The methods below validate before mutating, so a rejected transaction
// leaves the account untouched. Recording in the log is the Ledger's job and
// happens between the check and the mutation.

func (a *Account) canDeposit(amt amount.Amount) error {
	if a.locked {
		return domain.ErrAccountLocked
	}
	if !amt.IsPositive() {
		return domain.ErrNonPositiveAmount
	}
	return nil
}

func (a *Account) deposit(amt amount.Amount) {
	a.available = a.available.Add(amt)
}

func (a *Account) canWithdraw(amt amount.Amount) error {
	if a.locked {
		return domain.ErrAccountLocked
	}
	if !amt.IsPositive() {
		return domain.ErrNonPositiveAmount
	}
	if !a.available.GreaterOrEqual(amt) {
		return domain.ErrInsufficientFunds
	}
	return nil
}

func (a *Account) withdraw(amt amount.Amount) {
	a.available = a.available.Sub(amt)
}

// checkDisputeTarget validates a dispute-family transaction against the
// referenced record. wantDisputed is the state the record must be in.
func (a *Account) checkDisputeTarget(rec domain.TransactionRecord, found bool, wantDisputed bool) error {
	if a.locked {
		return domain.ErrAccountLocked
	}
	if !found {
		return domain.ErrUnknownTransaction
	}
	if rec.Client != a.client {
		return domain.ErrClientMismatch
	}
	if rec.Kind != domain.KindDeposit {
		return domain.ErrNotDisputable
	}
	if rec.Disputed != wantDisputed {
		if wantDisputed {
			return domain.ErrNotDisputed
		}
		return domain.ErrAlreadyDisputed
	}
	return nil
}

func (a *Account) hold(amt amount.Amount) {
	a.available = a.available.Sub(amt)
	a.held = a.held.Add(amt)
}

func (a *Account) release(amt amount.Amount) {
	a.held = a.held.Sub(amt)
	a.available = a.available.Add(amt)
}

func (a *Account) chargeback(amt amount.Amount) {
	a.held = a.held.Sub(amt)
	a.locked = true
}
