package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LIFESTACK29/raha-send-backend/internal/middleware"
	"github.com/LIFESTACK29/raha-send-backend/internal/shipment"
)

// RegisterShipmentRoutes wires parcel, quote, booking and lifecycle endpoints.
func RegisterShipmentRoutes(r fiber.Router, h *shipment.Handler) {
	group := r.Group("/shipments")
	group.Post("/parcels", h.CreateParcel)
	group.Post("/rates", h.GetRate)
	group.Post("", h.Create)
	group.Get("", h.List)
	group.Get("/rider", middleware.RequireRole("rider"), h.ListForRider)
	group.Get("/:id", h.Get)
	group.Post("/:id/book", h.Book)
	group.Post("/:id/cancel", h.Cancel)
	group.Post("/:id/assign-rider", middleware.RequireRole("admin"), h.AssignRider)
	group.Patch("/:id/status", middleware.RequireRole("rider"), h.UpdateStatus)
}
