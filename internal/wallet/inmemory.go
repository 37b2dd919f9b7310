package wallet

import (
	"context"
	"sync"
	"time"
)

type inMemoryLedger struct {
	mu      sync.Mutex
	wallets map[string]*Wallet
	events  map[string]struct{}
}

// NewInMemory creates a concurrency-safe in-memory ledger for tests and dev
// mode. Semantics match the Postgres ledger: debits are checked and applied
// under one lock acquisition, never as separate steps.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		wallets: make(map[string]*Wallet),
		events:  make(map[string]struct{}),
	}
}

func (l *inMemoryLedger) GetOrCreate(_ context.Context, userID string) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.ensure(userID), nil
}

func (l *inMemoryLedger) Credit(_ context.Context, userID string, amount int64) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyCredit(userID, amount), nil
}

func (l *inMemoryLedger) CreditOnce(_ context.Context, userID string, amount int64, reference string) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.events[reference]; seen {
		return BalanceChange{}, ErrDuplicateEvent
	}
	l.events[reference] = struct{}{}
	return l.applyCredit(userID, amount), nil
}

func (l *inMemoryLedger) Debit(_ context.Context, userID string, amount int64) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.ensure(userID)
	if w.Balance < amount {
		return BalanceChange{}, &InsufficientBalanceError{Balance: w.Balance, Required: amount}
	}

	previous := w.Balance
	w.Balance -= amount
	w.UpdatedAt = time.Now().UTC()

	return BalanceChange{
		UserID:          userID,
		PreviousBalance: previous,
		NewBalance:      w.Balance,
		Amount:          amount,
	}, nil
}

func (l *inMemoryLedger) Sufficiency(_ context.Context, userID string, amount int64) (SufficiencyCheck, error) {
	if amount <= 0 {
		return SufficiencyCheck{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return newSufficiencyCheck(l.ensure(userID).Balance, amount), nil
}

func (l *inMemoryLedger) AssignDedicatedAccount(_ context.Context, userID string, account DedicatedAccount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.ensure(userID)
	if w.DedicatedAccount != nil {
		return ErrAccountAssigned
	}
	acct := account
	w.DedicatedAccount = &acct
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *inMemoryLedger) DedicatedAccount(_ context.Context, userID string) (DedicatedAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.ensure(userID)
	if w.DedicatedAccount == nil {
		return DedicatedAccount{}, ErrNoDedicatedAccount
	}
	return *w.DedicatedAccount, nil
}

// ensure must be called with the lock held.
func (l *inMemoryLedger) ensure(userID string) *Wallet {
	if w, ok := l.wallets[userID]; ok {
		return w
	}
	now := time.Now().UTC()
	w := &Wallet{UserID: userID, Currency: "NGN", CreatedAt: now, UpdatedAt: now}
	l.wallets[userID] = w
	return w
}

// applyCredit must be called with the lock held.
func (l *inMemoryLedger) applyCredit(userID string, amount int64) BalanceChange {
	w := l.ensure(userID)
	previous := w.Balance
	w.Balance += amount
	w.UpdatedAt = time.Now().UTC()

	return BalanceChange{
		UserID:          userID,
		PreviousBalance: previous,
		NewBalance:      w.Balance,
		Amount:          amount,
	}
}
