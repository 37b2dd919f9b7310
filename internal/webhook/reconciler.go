package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LIFESTACK29/raha-send-backend/internal/identity"
	"github.com/LIFESTACK29/raha-send-backend/internal/notification"
	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

var (
	// ErrMissingSecret indicates the webhook secret is not configured; no
	// event can be authenticated.
	ErrMissingSecret = errors.New("webhook secret is not configured")

	// ErrInvalidSignature indicates the signature header does not match the
	// HMAC of the raw body.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnknownPayer indicates the event's customer email resolves to no
	// local user. The credit is dropped and logged for manual reconciliation.
	ErrUnknownPayer = errors.New("no user matches the payer email")
)

// Event is the processor's webhook envelope. Only the fields the reconciler
// consumes are decoded.
type Event struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// Outcome describes what the reconciler did with an event.
type Outcome struct {
	Credited  bool
	Duplicate bool
	Ignored   bool
	Reference string
}

// Reconciler turns authenticated charge.success events into wallet credits,
// exactly once per funding reference.
type Reconciler struct {
	secret   string
	users    identity.Repository
	ledger   wallet.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewReconciler builds a webhook reconciler.
func NewReconciler(secret string, users identity.Repository, ledger wallet.Ledger, notifier notification.Notifier, logger *slog.Logger) *Reconciler {
	return &Reconciler{secret: secret, users: users, ledger: ledger, notifier: notifier, logger: logger}
}

// Verify authenticates the raw body against the signature header. Nothing is
// processed when it fails.
func (r *Reconciler) Verify(body []byte, signature string) error {
	if r.secret == "" {
		return ErrMissingSecret
	}
	mac := hmac.New(sha512.New, []byte(r.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Process applies one authenticated event. Events other than charge.success,
// duplicate references and malformed amounts are ignored rather than failed,
// so the processor does not retry them forever. ErrUnknownPayer propagates so
// the caller can log it, but it is still acknowledged upstream.
func (r *Reconciler) Process(ctx context.Context, event Event) (Outcome, error) {
	if event.Event != "charge.success" {
		r.logger.Debug("ignoring webhook event", "event", event.Event)
		return Outcome{Ignored: true}, nil
	}

	reference := event.Data.Reference
	if reference == "" {
		r.logger.Warn("charge.success without a reference, dropping", "amount", event.Data.Amount)
		return Outcome{Ignored: true}, nil
	}
	if event.Data.Amount <= 0 {
		r.logger.Warn("charge.success with non-positive amount, dropping",
			"reference", reference, "amount", event.Data.Amount)
		return Outcome{Ignored: true, Reference: reference}, nil
	}

	user, err := r.users.FindByEmail(ctx, event.Data.Customer.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return Outcome{Reference: reference}, fmt.Errorf("%w: %s", ErrUnknownPayer, event.Data.Customer.Email)
		}
		return Outcome{Reference: reference}, err
	}

	change, err := r.ledger.CreditOnce(ctx, user.ID, event.Data.Amount, reference)
	if err != nil {
		if errors.Is(err, wallet.ErrDuplicateEvent) {
			r.logger.Info("webhook redelivery, already credited", "reference", reference, "user_id", user.ID)
			return Outcome{Duplicate: true, Reference: reference}, nil
		}
		return Outcome{Reference: reference}, err
	}

	r.logger.Info("wallet funded",
		"reference", reference, "user_id", user.ID,
		"amount", event.Data.Amount, "balance", change.NewBalance)

	if err := r.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindWalletCredited,
		Destination: user.ID,
		Body:        fmt.Sprintf("Wallet credited with %d kobo", event.Data.Amount),
	}); err != nil {
		r.logger.Warn("credit notification failed", "reference", reference, "error", err)
	}

	return Outcome{Credited: true, Reference: reference}, nil
}

// Decode parses the raw body into an event envelope.
func Decode(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("decode webhook body: %w", err)
	}
	return event, nil
}
