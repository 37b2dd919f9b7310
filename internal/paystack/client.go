// Package paystack is a thin outbound client for the Paystack REST API. It
// covers only the calls the wallet needs: bank account resolution and
// dedicated virtual account assignment. Failed calls are never retried here;
// a failed assignment leaves the wallet untouched and is safe to retry
// manually.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GatewayError carries the processor's message for a failed call.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paystack: %s", e.Message)
	}
	return fmt.Sprintf("paystack: request failed with status %d", e.StatusCode)
}

// Client talks to the Paystack API with a bounded timeout per call.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient builds a Paystack client. baseURL is overridable for tests;
// timeout bounds every outbound call so a hung processor cannot hold a
// request open indefinitely.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the common Paystack response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ResolvedAccount is the outcome of a bank account lookup.
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankID        int    `json:"bank_id"`
}

// ResolveBankAccount verifies an account number against a bank code.
func (c *Client) ResolveBankAccount(ctx context.Context, accountNumber, bankCode string) (ResolvedAccount, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	var resolved ResolvedAccount
	if err := c.do(ctx, http.MethodGet, "/bank/resolve?"+q.Encode(), nil, &resolved); err != nil {
		return ResolvedAccount{}, err
	}
	return resolved, nil
}

// AssignAccountRequest is the customer profile sent when requesting a
// dedicated virtual account.
type AssignAccountRequest struct {
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	PreferredBank string `json:"preferred_bank"`
	Country       string `json:"country"`
}

// DedicatedAccountDetails is Paystack's description of the assigned account.
type DedicatedAccountDetails struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Bank          struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"bank"`
	Customer struct {
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
}

// AssignDedicatedAccount requests a dedicated virtual account for the
// customer profile. The caller persists the result only after this returns,
// so a timeout never leaves a half-written wallet.
func (c *Client) AssignDedicatedAccount(ctx context.Context, req AssignAccountRequest) (DedicatedAccountDetails, error) {
	if req.Country == "" {
		req.Country = "NG"
	}

	var details DedicatedAccountDetails
	if err := c.do(ctx, http.MethodPost, "/dedicated_account/assign", req, &details); err != nil {
		return DedicatedAccountDetails{}, err
	}
	return details, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call paystack: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &GatewayError{StatusCode: resp.StatusCode, Message: "malformed response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return &GatewayError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &GatewayError{StatusCode: resp.StatusCode, Message: "malformed response data"}
		}
	}
	return nil
}
