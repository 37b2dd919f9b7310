package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/LIFESTACK29/raha-send-backend/internal/identity"
	"github.com/LIFESTACK29/raha-send-backend/internal/paystack"
)

// Handler exposes wallet HTTP endpoints. The actor id is taken from the
// request locals set by the auth middleware.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type dedicatedAccountResponse struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankName      string `json:"bank_name"`
	BankCode      string `json:"bank_code"`
	CustomerCode  string `json:"customer_code"`
}

// Get returns the wallet view: balance, currency and dedicated account.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), actorID(c))
	if err != nil {
		return mapError(err)
	}

	resp := fiber.Map{
		"balance":  w.Balance,
		"currency": w.Currency,
	}
	if w.DedicatedAccount != nil {
		resp["dedicated_account"] = toAccountResponse(*w.DedicatedAccount)
	} else {
		resp["dedicated_account"] = nil
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Balance returns the current balance in kobo.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), actorID(c))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":  balance,
		"currency": "NGN",
	})
}

type checkBalanceRequest struct {
	Amount int64 `json:"amount"`
}

// CheckBalance reports whether the wallet covers the given amount without
// mutating anything.
func (h *Handler) CheckBalance(c *fiber.Ctx) error {
	var req checkBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	check, err := h.service.CheckSufficiency(c.UserContext(), actorID(c), req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"has_sufficient_balance":  check.Sufficient,
		"current_balance":         check.CurrentBalance,
		"required_amount":         check.RequiredAmount,
		"balance_after_deduction": check.BalanceAfter,
	})
}

type createDedicatedAccountRequest struct {
	PreferredBank string `json:"preferred_bank"`
	Phone         string `json:"phone"`
}

// CreateDedicatedAccount assigns a Paystack dedicated virtual account.
func (h *Handler) CreateDedicatedAccount(c *fiber.Ctx) error {
	var req createDedicatedAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.CreateDedicatedAccount(c.UserContext(), actorID(c), AssignInput{
		PreferredBank: req.PreferredBank,
		Phone:         req.Phone,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":           "Dedicated account created successfully",
		"dedicated_account": toAccountResponse(account),
	})
}

// GetDedicatedAccount returns the assigned dedicated account details.
func (h *Handler) GetDedicatedAccount(c *fiber.Ctx) error {
	account, err := h.service.GetDedicatedAccount(c.UserContext(), actorID(c))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(account))
}

type resolveBankRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
}

// ResolveBank verifies a customer bank account via the gateway.
func (h *Handler) ResolveBank(c *fiber.Ctx) error {
	var req resolveBankRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	resolved, err := h.service.ResolveBankAccount(c.UserContext(), req.AccountNumber, req.BankCode)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_number": resolved.AccountNumber,
		"account_name":   resolved.AccountName,
		"bank_id":        resolved.BankID,
	})
}

func toAccountResponse(account DedicatedAccount) dedicatedAccountResponse {
	return dedicatedAccountResponse{
		AccountNumber: account.AccountNumber,
		AccountName:   account.AccountName,
		BankName:      account.BankName,
		BankCode:      account.BankCode,
		CustomerCode:  account.CustomerCode,
	}
}

func actorID(c *fiber.Ctx) string {
	uid, _ := c.Locals("user_id").(string)
	return uid
}

func mapError(err error) error {
	var gwErr *paystack.GatewayError
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrNoDedicatedAccount):
		return fiber.NewError(http.StatusNotFound, "user does not have a dedicated account")
	case errors.Is(err, ErrAccountAssigned):
		return fiber.NewError(http.StatusBadRequest, "user already has a dedicated account")
	case errors.Is(err, ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &gwErr):
		return fiber.NewError(http.StatusBadGateway, gwErr.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
