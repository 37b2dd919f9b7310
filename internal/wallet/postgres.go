package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists wallets in PostgreSQL. All balance mutations are
// single conditional statements so concurrent requests against the same
// wallet serialize on the row itself.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed wallet ledger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// dbtx is the subset of pgxpool.Pool and pgx.Tx the ledger statements need.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	ensureWalletSQL = `INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	creditSQL = `
        INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE
        SET balance = wallets.balance + EXCLUDED.balance, updated_at = now()
        RETURNING balance`

	// The balance guard and the decrement happen in one statement; a stale
	// pre-flight read can never let two debits both pass the check.
	debitSQL = `
        UPDATE wallets
        SET balance = balance - $2, updated_at = now()
        WHERE user_id = $1 AND balance >= $2
        RETURNING balance`

	selectWalletSQL = `
        SELECT user_id, balance, currency, account_number, account_name,
               bank_name, bank_code, customer_code, created_at, updated_at
        FROM wallets WHERE user_id = $1`
)

// GetOrCreate returns the user's wallet, inserting an empty one on first use.
func (l *PostgresLedger) GetOrCreate(ctx context.Context, userID string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse user id: %w", err)
	}
	if _, err := l.db.Exec(ctx, ensureWalletSQL, uid); err != nil {
		return Wallet{}, err
	}
	return scanWallet(l.db.QueryRow(ctx, selectWalletSQL, uid))
}

// Credit increases the balance, creating the wallet on first use.
func (l *PostgresLedger) Credit(ctx context.Context, userID string, amount int64) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalanceChange{}, fmt.Errorf("parse user id: %w", err)
	}
	return creditOn(ctx, l.db, uid, amount)
}

// CreditOnce records the funding reference and applies the credit in one
// transaction. A reference seen before leaves the balance untouched.
func (l *PostgresLedger) CreditOnce(ctx context.Context, userID string, amount int64, reference string) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}
	if reference == "" {
		return BalanceChange{}, fmt.Errorf("funding reference is required")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalanceChange{}, fmt.Errorf("parse user id: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return BalanceChange{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	tag, err := tx.Exec(ctx, `INSERT INTO wallet_events (reference, user_id, amount)
        VALUES ($1, $2, $3) ON CONFLICT (reference) DO NOTHING`, reference, uid, amount)
	if err != nil {
		return BalanceChange{}, err
	}
	if tag.RowsAffected() == 0 {
		return BalanceChange{}, ErrDuplicateEvent
	}

	change, err := creditOn(ctx, tx, uid, amount)
	if err != nil {
		return BalanceChange{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return BalanceChange{}, err
	}
	return change, nil
}

// Debit applies the conditional decrement. When the guard fails the current
// balance is fetched so the caller can report the shortfall.
func (l *PostgresLedger) Debit(ctx context.Context, userID string, amount int64) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalanceChange{}, fmt.Errorf("parse user id: %w", err)
	}
	if _, err := l.db.Exec(ctx, ensureWalletSQL, uid); err != nil {
		return BalanceChange{}, err
	}

	change, err := debitOn(ctx, l.db, uid, amount)
	if errors.Is(err, ErrInsufficientBalance) {
		var balance int64
		if scanErr := l.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1`, uid).Scan(&balance); scanErr == nil {
			return BalanceChange{}, &InsufficientBalanceError{Balance: balance, Required: amount}
		}
	}
	return change, err
}

// DebitTx runs the identical conditional debit inside the caller's
// transaction. The shipment booking uses it so its state transition and the
// wallet decrement commit or roll back together.
func DebitTx(ctx context.Context, tx pgx.Tx, userID string, amount int64) (BalanceChange, error) {
	if amount <= 0 {
		return BalanceChange{}, ErrInvalidAmount
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalanceChange{}, fmt.Errorf("parse user id: %w", err)
	}
	if _, err := tx.Exec(ctx, ensureWalletSQL, uid); err != nil {
		return BalanceChange{}, err
	}
	return debitOn(ctx, tx, uid, amount)
}

// Sufficiency reads the balance without mutating it.
func (l *PostgresLedger) Sufficiency(ctx context.Context, userID string, amount int64) (SufficiencyCheck, error) {
	if amount <= 0 {
		return SufficiencyCheck{}, ErrInvalidAmount
	}
	w, err := l.GetOrCreate(ctx, userID)
	if err != nil {
		return SufficiencyCheck{}, err
	}
	return newSufficiencyCheck(w.Balance, amount), nil
}

// AssignDedicatedAccount writes the account details only when none are set;
// the conditional update makes re-assignment impossible even under races.
func (l *PostgresLedger) AssignDedicatedAccount(ctx context.Context, userID string, account DedicatedAccount) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	if _, err := l.db.Exec(ctx, ensureWalletSQL, uid); err != nil {
		return err
	}

	tag, err := l.db.Exec(ctx, `
        UPDATE wallets
        SET account_number = $2, account_name = $3, bank_name = $4,
            bank_code = $5, customer_code = $6, updated_at = now()
        WHERE user_id = $1 AND account_number IS NULL`,
		uid, account.AccountNumber, account.AccountName, account.BankName,
		account.BankCode, account.CustomerCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountAssigned
	}
	return nil
}

// DedicatedAccount returns the assigned account details.
func (l *PostgresLedger) DedicatedAccount(ctx context.Context, userID string) (DedicatedAccount, error) {
	w, err := l.GetOrCreate(ctx, userID)
	if err != nil {
		return DedicatedAccount{}, err
	}
	if w.DedicatedAccount == nil {
		return DedicatedAccount{}, ErrNoDedicatedAccount
	}
	return *w.DedicatedAccount, nil
}

func creditOn(ctx context.Context, db dbtx, userID uuid.UUID, amount int64) (BalanceChange, error) {
	var newBalance int64
	if err := db.QueryRow(ctx, creditSQL, userID, amount).Scan(&newBalance); err != nil {
		return BalanceChange{}, err
	}
	return BalanceChange{
		UserID:          userID.String(),
		PreviousBalance: newBalance - amount,
		NewBalance:      newBalance,
		Amount:          amount,
	}, nil
}

func debitOn(ctx context.Context, db dbtx, userID uuid.UUID, amount int64) (BalanceChange, error) {
	var newBalance int64
	if err := db.QueryRow(ctx, debitSQL, userID, amount).Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BalanceChange{}, ErrInsufficientBalance
		}
		return BalanceChange{}, err
	}
	return BalanceChange{
		UserID:          userID.String(),
		PreviousBalance: newBalance + amount,
		NewBalance:      newBalance,
		Amount:          amount,
	}, nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w             Wallet
		uid           uuid.UUID
		accountNumber *string
		accountName   *string
		bankName      *string
		bankCode      *string
		customerCode  *string
	)
	if err := row.Scan(&uid, &w.Balance, &w.Currency, &accountNumber, &accountName,
		&bankName, &bankCode, &customerCode, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Wallet{}, err
	}
	w.UserID = uid.String()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	if accountNumber != nil {
		w.DedicatedAccount = &DedicatedAccount{
			AccountNumber: *accountNumber,
			AccountName:   deref(accountName),
			BankName:      deref(bankName),
			BankCode:      deref(bankCode),
			CustomerCode:  deref(customerCode),
		}
	}
	return w, nil
}

func newSufficiencyCheck(balance, amount int64) SufficiencyCheck {
	check := SufficiencyCheck{
		Sufficient:     balance >= amount,
		CurrentBalance: balance,
		RequiredAmount: amount,
		BalanceAfter:   balance,
	}
	if check.Sufficient {
		check.BalanceAfter = balance - amount
	}
	return check
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
