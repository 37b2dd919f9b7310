package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBalance occurs when a debit exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrInvalidAmount indicates a non-positive credit or debit amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountAssigned indicates the wallet already carries a dedicated
	// account; assignment happens at most once.
	ErrAccountAssigned = errors.New("dedicated account already assigned")

	// ErrNoDedicatedAccount indicates no dedicated account has been assigned yet.
	ErrNoDedicatedAccount = errors.New("no dedicated account assigned")

	// ErrDuplicateEvent indicates the funding reference was already applied and
	// the credit must be treated as a no-op.
	ErrDuplicateEvent = errors.New("duplicate funding event")
)

// InsufficientBalanceError carries the shortfall detail so callers can report
// the current balance alongside the required amount. errors.Is matches it
// against ErrInsufficientBalance.
type InsufficientBalanceError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: current balance %d kobo, required %d kobo", e.Balance, e.Required)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
