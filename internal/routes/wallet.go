package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints. Bank resolution carries its own
// rate limit because each lookup is a billed gateway call.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, resolveLimiter fiber.Handler) {
	group := r.Group("/wallet")
	group.Get("", h.Get)
	group.Get("/balance", h.Balance)
	group.Post("/check-balance", h.CheckBalance)
	group.Post("/dedicated-account", h.CreateDedicatedAccount)
	group.Get("/dedicated-account", h.GetDedicatedAccount)
	if resolveLimiter != nil {
		group.Post("/resolve-bank", resolveLimiter, h.ResolveBank)
	} else {
		group.Post("/resolve-bank", h.ResolveBank)
	}
}
