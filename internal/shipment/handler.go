package shipment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/LIFESTACK29/raha-send-backend/internal/address"
	"github.com/LIFESTACK29/raha-send-backend/internal/rates"
	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// Handler exposes shipment HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a shipment HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type shipmentResponse struct {
	ShipmentID        string     `json:"shipment_id"`
	ParcelID          string     `json:"parcel_id"`
	PickupAddressID   string     `json:"pickup_address_id"`
	DeliveryAddressID string     `json:"delivery_address_id"`
	RiderID           *string    `json:"rider_id,omitempty"`
	Price             int64      `json:"price"`
	Distance          float64    `json:"distance"`
	Status            Status     `json:"status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PickupTime        *time.Time `json:"pickup_time,omitempty"`
	DeliveryTime      *time.Time `json:"delivery_time,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type createParcelRequest struct {
	Description string  `json:"description"`
	WeightKg    float64 `json:"weight_kg"`
	LengthCm    float64 `json:"length_cm"`
	WidthCm     float64 `json:"width_cm"`
	HeightCm    float64 `json:"height_cm"`
}

// CreateParcel registers a parcel for the caller.
func (h *Handler) CreateParcel(c *fiber.Ctx) error {
	var req createParcelRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	parcel, err := h.service.CreateParcel(c.UserContext(), actorID(c), ParcelInput{
		Description: req.Description,
		WeightKg:    req.WeightKg,
		LengthCm:    req.LengthCm,
		WidthCm:     req.WidthCm,
		HeightCm:    req.HeightCm,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"parcel_id":   parcel.ParcelID,
		"description": parcel.Description,
		"weight_kg":   parcel.WeightKg,
	})
}

type rateRequest struct {
	PickupAddressID   string `json:"pickup_address_id"`
	DeliveryAddressID string `json:"delivery_address_id"`
}

// GetRate quotes a route between two stored addresses.
func (h *Handler) GetRate(c *fiber.Ctx) error {
	var req rateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.PickupAddressID == "" || req.DeliveryAddressID == "" {
		return fiber.NewError(http.StatusBadRequest, "pickup and delivery address ids are required")
	}

	quote, err := h.service.GetRate(c.UserContext(), req.PickupAddressID, req.DeliveryAddressID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"price":           quote.PriceKobo,
		"distance":        quote.DistanceKm,
		"formatted_price": quote.FormattedPrice,
	})
}

type createShipmentRequest struct {
	ParcelID          string `json:"parcel_id"`
	PickupAddressID   string `json:"pickup_address_id"`
	DeliveryAddressID string `json:"delivery_address_id"`
}

// Create quotes and stores a draft shipment.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.ParcelID == "" || req.PickupAddressID == "" || req.DeliveryAddressID == "" {
		return fiber.NewError(http.StatusBadRequest, "parcel_id, pickup_address_id and delivery_address_id are required")
	}

	sh, err := h.service.Create(c.UserContext(), actorID(c), CreateInput{
		ParcelID:          req.ParcelID,
		PickupAddressID:   req.PickupAddressID,
		DeliveryAddressID: req.DeliveryAddressID,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toShipmentResponse(sh))
}

// Book pays for the shipment from the caller's wallet.
func (h *Handler) Book(c *fiber.Ctx) error {
	sh, change, err := h.service.Book(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":        "Shipment booked successfully",
		"shipment":       toShipmentResponse(sh),
		"wallet_balance": change.NewBalance,
	})
}

// Get returns one of the caller's shipments.
func (h *Handler) Get(c *fiber.Ctx) error {
	sh, err := h.service.Get(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toShipmentResponse(sh))
}

// List returns the caller's shipments.
func (h *Handler) List(c *fiber.Ctx) error {
	shipments, err := h.service.List(c.UserContext(), actorID(c))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toShipmentResponses(shipments))
}

// ListForRider returns the shipments assigned to the calling rider.
func (h *Handler) ListForRider(c *fiber.Ctx) error {
	shipments, err := h.service.ListByRider(c.UserContext(), actorID(c))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toShipmentResponses(shipments))
}

type assignRiderRequest struct {
	RiderID string `json:"rider_id"`
}

// AssignRider attaches a rider to a paid shipment.
func (h *Handler) AssignRider(c *fiber.Ctx) error {
	var req assignRiderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RiderID == "" {
		return fiber.NewError(http.StatusBadRequest, "rider_id is required")
	}

	sh, err := h.service.AssignRider(c.UserContext(), c.Params("id"), req.RiderID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toShipmentResponse(sh))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is the rider-facing transition endpoint. The route is gated on
// the rider role and the rider scope always comes from the token, so riders
// can only move shipments assigned to them.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	sh, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), actorID(c), Status(req.Status))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toShipmentResponse(sh))
}

// Cancel withdraws one of the caller's own shipments.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	sh, err := h.service.Cancel(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toShipmentResponse(sh))
}

func toShipmentResponse(sh Shipment) shipmentResponse {
	return shipmentResponse{
		ShipmentID:        sh.ShipmentID,
		ParcelID:          sh.ParcelID,
		PickupAddressID:   sh.PickupAddressID,
		DeliveryAddressID: sh.DeliveryAddressID,
		RiderID:           sh.RiderID,
		Price:             sh.Price,
		Distance:          sh.Distance,
		Status:            sh.Status,
		PaymentStatus:     sh.PaymentStatus,
		PickupTime:        sh.PickupTime,
		DeliveryTime:      sh.DeliveryTime,
		CreatedAt:         sh.CreatedAt,
	}
}

func toShipmentResponses(shipments []Shipment) []shipmentResponse {
	out := make([]shipmentResponse, 0, len(shipments))
	for _, sh := range shipments {
		out = append(out, toShipmentResponse(sh))
	}
	return out
}

func actorID(c *fiber.Ctx) string {
	uid, _ := c.Locals("user_id").(string)
	return uid
}

func mapError(err error) error {
	var shortfall *wallet.InsufficientBalanceError
	switch {
	case errors.Is(err, ErrShipmentNotFound), errors.Is(err, ErrParcelNotFound),
		errors.Is(err, address.ErrAddressNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyPaid):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.As(err, &shortfall):
		return fiber.NewError(http.StatusBadRequest, shortfall.Error())
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrRiderAssigned),
		errors.Is(err, ErrNotAssignable), errors.Is(err, ErrMissingCoordinates),
		errors.Is(err, rates.ErrInvalidCoordinates):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
