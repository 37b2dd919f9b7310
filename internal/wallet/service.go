package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LIFESTACK29/raha-send-backend/internal/identity"
	"github.com/LIFESTACK29/raha-send-backend/internal/paystack"
)

// Gateway is the slice of the payment processor the wallet consumes.
type Gateway interface {
	ResolveBankAccount(ctx context.Context, accountNumber, bankCode string) (paystack.ResolvedAccount, error)
	AssignDedicatedAccount(ctx context.Context, req paystack.AssignAccountRequest) (paystack.DedicatedAccountDetails, error)
}

// Service exposes wallet operations backed by the ledger and the payment
// gateway.
type Service struct {
	ledger  Ledger
	users   identity.Repository
	gateway Gateway
	logger  *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(ledger Ledger, users identity.Repository, gateway Gateway, logger *slog.Logger) *Service {
	return &Service{ledger: ledger, users: users, gateway: gateway, logger: logger}
}

// Get returns the user's wallet, creating it lazily.
func (s *Service) Get(ctx context.Context, userID string) (Wallet, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return Wallet{}, err
	}
	return s.ledger.GetOrCreate(ctx, userID)
}

// Balance returns the current balance in kobo.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	w, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// CheckSufficiency is a read-only pre-flight check. It must not be used as a
// concurrency guard; only Debit is authoritative.
func (s *Service) CheckSufficiency(ctx context.Context, userID string, amount int64) (SufficiencyCheck, error) {
	return s.ledger.Sufficiency(ctx, userID, amount)
}

// Credit increases the balance by amount.
func (s *Service) Credit(ctx context.Context, userID string, amount int64) (BalanceChange, error) {
	return s.ledger.Credit(ctx, userID, amount)
}

// Debit decreases the balance by amount, failing with ErrInsufficientBalance
// when the wallet cannot cover it.
func (s *Service) Debit(ctx context.Context, userID string, amount int64) (BalanceChange, error) {
	return s.ledger.Debit(ctx, userID, amount)
}

// AssignInput captures the caller-provided part of a dedicated account
// request; the rest of the profile comes from the user directory.
type AssignInput struct {
	PreferredBank string
	Phone         string
}

// CreateDedicatedAccount requests a dedicated virtual account from the
// gateway and stores it on the wallet. The wallet is only written after the
// outbound call returned, so a gateway timeout leaves the wallet without an
// account and the request safe to retry. A wallet that already carries an
// account is rejected before the gateway is contacted.
func (s *Service) CreateDedicatedAccount(ctx context.Context, userID string, input AssignInput) (DedicatedAccount, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return DedicatedAccount{}, err
	}

	w, err := s.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return DedicatedAccount{}, err
	}
	if w.DedicatedAccount != nil {
		return DedicatedAccount{}, ErrAccountAssigned
	}

	phone := input.Phone
	if phone == "" {
		phone = user.Phone
	}

	details, err := s.gateway.AssignDedicatedAccount(ctx, paystack.AssignAccountRequest{
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         phone,
		PreferredBank: input.PreferredBank,
	})
	if err != nil {
		return DedicatedAccount{}, fmt.Errorf("assign dedicated account: %w", err)
	}

	account := DedicatedAccount{
		AccountNumber: details.AccountNumber,
		AccountName:   details.AccountName,
		BankName:      details.Bank.Name,
		BankCode:      details.Bank.Slug,
		CustomerCode:  details.Customer.CustomerCode,
	}

	if err := s.ledger.AssignDedicatedAccount(ctx, userID, account); err != nil {
		// The gateway call succeeded but another request won the assignment
		// race; the first assignment stands.
		s.logger.Warn("dedicated account assignment lost race",
			"user_id", userID, "account_number", details.AccountNumber, "error", err)
		return DedicatedAccount{}, err
	}

	return account, nil
}

// GetDedicatedAccount returns the assigned account or ErrNoDedicatedAccount.
func (s *Service) GetDedicatedAccount(ctx context.Context, userID string) (DedicatedAccount, error) {
	return s.ledger.DedicatedAccount(ctx, userID)
}

// ResolveBankAccount verifies a customer bank account through the gateway.
func (s *Service) ResolveBankAccount(ctx context.Context, accountNumber, bankCode string) (paystack.ResolvedAccount, error) {
	if accountNumber == "" || bankCode == "" {
		return paystack.ResolvedAccount{}, fmt.Errorf("account number and bank code are required")
	}
	return s.gateway.ResolveBankAccount(ctx, accountNumber, bankCode)
}
