package webhook

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler is the HTTP face of the reconciler. It always acknowledges
// authenticated events so the processor does not retry events we chose to
// drop; only authentication failures return an error status.
type Handler struct {
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewHandler builds the webhook HTTP handler.
func NewHandler(reconciler *Reconciler, logger *slog.Logger) *Handler {
	return &Handler{reconciler: reconciler, logger: logger}
}

// Receive handles POST /paystack/webhook. The signature covers the exact raw
// body, so it is verified before any parsing.
func (h *Handler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("x-paystack-signature")

	if err := h.reconciler.Verify(body, signature); err != nil {
		h.logger.Warn("webhook rejected", "error", err)
		return c.SendStatus(http.StatusBadRequest)
	}

	event, err := Decode(body)
	if err != nil {
		// Authenticated but unparseable; acknowledge so the processor does
		// not retry a body we will never accept.
		h.logger.Warn("webhook body unparseable", "error", err)
		return c.SendStatus(http.StatusOK)
	}

	outcome, err := h.reconciler.Process(c.UserContext(), event)
	if err != nil {
		if errors.Is(err, ErrUnknownPayer) {
			h.logger.Warn("webhook credit dropped", "reference", outcome.Reference, "error", err)
			return c.SendStatus(http.StatusOK)
		}
		h.logger.Error("webhook processing failed", "reference", outcome.Reference, "error", err)
		return c.SendStatus(http.StatusInternalServerError)
	}

	return c.SendStatus(http.StatusOK)
}
