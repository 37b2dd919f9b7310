package wallet

import "time"

// Wallet holds the running balance for a single user. Balance is in kobo and
// never negative. One wallet exists per user; it is created lazily on the
// first balance query or mutation and never deleted.
type Wallet struct {
	UserID           string
	Balance          int64
	Currency         string
	DedicatedAccount *DedicatedAccount
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DedicatedAccount is the virtual bank account Paystack assigns to a user.
// Deposits into it are reported back through the webhook. Once set it is
// immutable.
type DedicatedAccount struct {
	AccountNumber string
	AccountName   string
	BankName      string
	BankCode      string
	CustomerCode  string
}

// BalanceChange reports the before/after balances of a credit or debit.
type BalanceChange struct {
	UserID          string
	PreviousBalance int64
	NewBalance      int64
	Amount          int64
}

// SufficiencyCheck is the outcome of a read-only pre-flight balance check. It
// carries no concurrency guarantee; only Debit is authoritative.
type SufficiencyCheck struct {
	Sufficient     bool
	CurrentBalance int64
	RequiredAmount int64
	BalanceAfter   int64
}
