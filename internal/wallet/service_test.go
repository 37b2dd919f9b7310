package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/LIFESTACK29/raha-send-backend/internal/identity"
	"github.com/LIFESTACK29/raha-send-backend/internal/logging"
	"github.com/LIFESTACK29/raha-send-backend/internal/paystack"
)

// staticGateway returns canned gateway responses and counts outbound calls.
type staticGateway struct {
	account     paystack.DedicatedAccountDetails
	resolved    paystack.ResolvedAccount
	err         error
	assignCalls int
}

func (g *staticGateway) ResolveBankAccount(ctx context.Context, accountNumber, bankCode string) (paystack.ResolvedAccount, error) {
	if g.err != nil {
		return paystack.ResolvedAccount{}, g.err
	}
	return g.resolved, nil
}

func (g *staticGateway) AssignDedicatedAccount(ctx context.Context, req paystack.AssignAccountRequest) (paystack.DedicatedAccountDetails, error) {
	g.assignCalls++
	if g.err != nil {
		return paystack.DedicatedAccountDetails{}, g.err
	}
	return g.account, nil
}

func seedUser(t *testing.T, users identity.Repository) identity.User {
	t.Helper()
	user := identity.User{
		ID:        "11111111-1111-1111-1111-111111111111",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Obi",
		Phone:     "+2348012345678",
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func assignedDetails() paystack.DedicatedAccountDetails {
	var d paystack.DedicatedAccountDetails
	d.AccountNumber = "9930000001"
	d.AccountName = "ADA OBI"
	d.Bank.Name = "Wema Bank"
	d.Bank.Slug = "wema-bank"
	d.Customer.CustomerCode = "CUS_abc123"
	return d
}

func TestService_CreateDedicatedAccount(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := seedUser(t, users)
	gateway := &staticGateway{account: assignedDetails()}
	svc := NewService(NewInMemory(), users, gateway, logging.Discard())

	account, err := svc.CreateDedicatedAccount(context.Background(), user.ID, AssignInput{PreferredBank: "wema-bank"})
	if err != nil {
		t.Fatalf("create dedicated account: %v", err)
	}
	if account.AccountNumber != "9930000001" || account.BankName != "Wema Bank" {
		t.Fatalf("unexpected account: %+v", account)
	}

	got, err := svc.GetDedicatedAccount(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get dedicated account: %v", err)
	}
	if got.CustomerCode != "CUS_abc123" {
		t.Fatalf("unexpected stored account: %+v", got)
	}
}

func TestService_CreateDedicatedAccountRejectsSecondRequest(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := seedUser(t, users)
	gateway := &staticGateway{account: assignedDetails()}
	svc := NewService(NewInMemory(), users, gateway, logging.Discard())

	if _, err := svc.CreateDedicatedAccount(context.Background(), user.ID, AssignInput{}); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.CreateDedicatedAccount(context.Background(), user.ID, AssignInput{}); !errors.Is(err, ErrAccountAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}
	if gateway.assignCalls != 1 {
		t.Fatalf("second request must not reach the gateway, got %d calls", gateway.assignCalls)
	}
}

func TestService_CreateDedicatedAccountGatewayFailureLeavesWalletClean(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := seedUser(t, users)
	gateway := &staticGateway{err: &paystack.GatewayError{StatusCode: 502, Message: "upstream timeout"}}
	ledger := NewInMemory()
	svc := NewService(ledger, users, gateway, logging.Discard())

	_, err := svc.CreateDedicatedAccount(context.Background(), user.ID, AssignInput{})
	var gwErr *paystack.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	if _, err := ledger.DedicatedAccount(context.Background(), user.ID); !errors.Is(err, ErrNoDedicatedAccount) {
		t.Fatalf("failed gateway call must not assign an account, got %v", err)
	}
}

func TestService_CreateDedicatedAccountUnknownUser(t *testing.T) {
	users := identity.NewMemoryRepository()
	svc := NewService(NewInMemory(), users, &staticGateway{}, logging.Discard())

	_, err := svc.CreateDedicatedAccount(context.Background(), "22222222-2222-2222-2222-222222222222", AssignInput{})
	if !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestService_CheckSufficiency(t *testing.T) {
	users := identity.NewMemoryRepository()
	user := seedUser(t, users)
	ledger := NewInMemory()
	SeedBalance(ledger, user.ID, 300_000)
	svc := NewService(ledger, users, &staticGateway{}, logging.Discard())

	cases := []struct {
		amount     int64
		sufficient bool
		after      int64
	}{
		{amount: 100_000, sufficient: true, after: 200_000},
		{amount: 300_000, sufficient: true, after: 0},
		{amount: 300_001, sufficient: false, after: 300_000},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("amount_%d", tc.amount), func(t *testing.T) {
			check, err := svc.CheckSufficiency(context.Background(), user.ID, tc.amount)
			if err != nil {
				t.Fatalf("check sufficiency: %v", err)
			}
			if check.Sufficient != tc.sufficient {
				t.Fatalf("expected sufficient=%v, got %+v", tc.sufficient, check)
			}
			if check.BalanceAfter != tc.after {
				t.Fatalf("expected balance after %d, got %d", tc.after, check.BalanceAfter)
			}
		})
	}
}

func TestService_ResolveBankAccountValidatesInput(t *testing.T) {
	users := identity.NewMemoryRepository()
	gateway := &staticGateway{resolved: paystack.ResolvedAccount{AccountNumber: "0001112223", AccountName: "ADA OBI"}}
	svc := NewService(NewInMemory(), users, gateway, logging.Discard())

	if _, err := svc.ResolveBankAccount(context.Background(), "", "058"); err == nil {
		t.Fatal("expected error for missing account number")
	}
	if _, err := svc.ResolveBankAccount(context.Background(), "0001112223", ""); err == nil {
		t.Fatal("expected error for missing bank code")
	}

	resolved, err := svc.ResolveBankAccount(context.Background(), "0001112223", "058")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.AccountName != "ADA OBI" {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}
}
