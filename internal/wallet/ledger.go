package wallet

import "context"

// Ledger is the single synchronization point for balance changes. Every
// mutation funnels through it so that concurrent requests, and concurrent
// service instances, serialize against the persisted wallet row rather than
// in-process state.
//
// Implementations must apply Debit as one conditional compare-and-set against
// the stored balance, never as a separate read followed by a write.
type Ledger interface {
	// GetOrCreate returns the user's wallet, creating an empty one if absent.
	GetOrCreate(ctx context.Context, userID string) (Wallet, error)

	// Credit increases the balance by amount. Valid positive amounts never fail.
	Credit(ctx context.Context, userID string, amount int64) (BalanceChange, error)

	// CreditOnce applies Credit at most once per funding reference. A repeated
	// reference returns ErrDuplicateEvent and leaves the balance unchanged.
	CreditOnce(ctx context.Context, userID string, amount int64, reference string) (BalanceChange, error)

	// Debit decreases the balance by amount if, and only if, the stored balance
	// still covers it. Returns ErrInsufficientBalance otherwise.
	Debit(ctx context.Context, userID string, amount int64) (BalanceChange, error)

	// Sufficiency is a read-only pre-flight check with no concurrency guarantee.
	Sufficiency(ctx context.Context, userID string, amount int64) (SufficiencyCheck, error)

	// AssignDedicatedAccount stores the account details if none are assigned
	// yet, and fails with ErrAccountAssigned otherwise.
	AssignDedicatedAccount(ctx context.Context, userID string, account DedicatedAccount) error

	// DedicatedAccount returns the assigned account or ErrNoDedicatedAccount.
	DedicatedAccount(ctx context.Context, userID string) (DedicatedAccount, error)
}
