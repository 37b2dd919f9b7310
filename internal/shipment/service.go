package shipment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LIFESTACK29/raha-send-backend/internal/address"
	"github.com/LIFESTACK29/raha-send-backend/internal/notification"
	"github.com/LIFESTACK29/raha-send-backend/internal/rates"
	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// Service orchestrates parcels, rate quotes, shipment lifecycle and booking.
type Service struct {
	store     Repository
	addresses address.Repository
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewService builds a shipment service.
func NewService(store Repository, addresses address.Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, addresses: addresses, notifier: notifier, logger: logger}
}

// ParcelInput is the caller-provided parcel description.
type ParcelInput struct {
	Description string
	WeightKg    float64
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
}

// CreateParcel registers a parcel for later shipments.
func (s *Service) CreateParcel(ctx context.Context, userID string, input ParcelInput) (Parcel, error) {
	if input.WeightKg <= 0 {
		return Parcel{}, fmt.Errorf("parcel weight must be positive")
	}
	parcel := Parcel{
		ParcelID:    newParcelID(),
		UserID:      userID,
		Description: input.Description,
		WeightKg:    input.WeightKg,
		LengthCm:    input.LengthCm,
		WidthCm:     input.WidthCm,
		HeightCm:    input.HeightCm,
	}
	if err := s.store.CreateParcel(ctx, parcel); err != nil {
		return Parcel{}, err
	}
	return parcel, nil
}

// GetRate prices the route between two stored addresses.
func (s *Service) GetRate(ctx context.Context, pickupAddressID, deliveryAddressID string) (rates.Quote, error) {
	pickup, err := s.routePoint(ctx, pickupAddressID)
	if err != nil {
		return rates.Quote{}, err
	}
	delivery, err := s.routePoint(ctx, deliveryAddressID)
	if err != nil {
		return rates.Quote{}, err
	}
	return rates.ForRoute(pickup, delivery)
}

func (s *Service) routePoint(ctx context.Context, addressID string) (rates.Coordinates, error) {
	addr, err := s.addresses.FindByAddressID(ctx, addressID)
	if err != nil {
		return rates.Coordinates{}, err
	}
	if !addr.HasCoordinates() {
		return rates.Coordinates{}, fmt.Errorf("%w: %s", ErrMissingCoordinates, addressID)
	}
	return rates.Coordinates{Latitude: *addr.Latitude, Longitude: *addr.Longitude}, nil
}

// CreateInput describes a new shipment request.
type CreateInput struct {
	ParcelID          string
	PickupAddressID   string
	DeliveryAddressID string
}

// Create quotes the route and stores the shipment as an unpaid draft. The
// quoted price is frozen on the record; booking later debits exactly that
// amount.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (Shipment, error) {
	if _, err := s.store.FindParcel(ctx, userID, input.ParcelID); err != nil {
		return Shipment{}, err
	}

	quote, err := s.GetRate(ctx, input.PickupAddressID, input.DeliveryAddressID)
	if err != nil {
		return Shipment{}, err
	}

	sh := Shipment{
		ShipmentID:        newShipmentID(),
		UserID:            userID,
		ParcelID:          input.ParcelID,
		PickupAddressID:   input.PickupAddressID,
		DeliveryAddressID: input.DeliveryAddressID,
		Price:             quote.PriceKobo,
		Distance:          quote.DistanceKm,
		Status:            StatusDraft,
		PaymentStatus:     PaymentPending,
	}
	if err := s.store.Create(ctx, sh); err != nil {
		return Shipment{}, err
	}
	return s.store.Find(ctx, userID, sh.ShipmentID)
}

// Book pays for the shipment from the owner's wallet and schedules pickup.
func (s *Service) Book(ctx context.Context, userID, shipmentID string) (Shipment, wallet.BalanceChange, error) {
	booked, change, err := s.store.Book(ctx, userID, shipmentID)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, err
	}

	s.logger.Info("shipment booked",
		"shipment_id", booked.ShipmentID, "user_id", userID,
		"price", booked.Price, "balance_after", change.NewBalance)

	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindBookingConfirmed,
		Destination: userID,
		Body:        fmt.Sprintf("Shipment %s booked for pickup", booked.ShipmentID),
	}); err != nil {
		s.logger.Warn("booking notification failed", "shipment_id", booked.ShipmentID, "error", err)
	}
	return booked, change, nil
}

// Cancel withdraws the owner's shipment before a rider picks it up. No refund
// is issued for a paid shipment; the booked debit stands.
func (s *Service) Cancel(ctx context.Context, userID, shipmentID string) (Shipment, error) {
	sh, err := s.store.Cancel(ctx, userID, shipmentID)
	if err != nil {
		return Shipment{}, err
	}
	s.logger.Info("shipment cancelled", "shipment_id", shipmentID, "user_id", userID)
	return sh, nil
}

// Get returns the shipment scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, shipmentID string) (Shipment, error) {
	return s.store.Find(ctx, userID, shipmentID)
}

// List returns the owner's shipments, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Shipment, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByRider returns the shipments assigned to a rider.
func (s *Service) ListByRider(ctx context.Context, riderID string) ([]Shipment, error) {
	return s.store.ListByRider(ctx, riderID)
}

// AssignRider attaches a rider to a paid shipment awaiting pickup.
func (s *Service) AssignRider(ctx context.Context, shipmentID, riderID string) (Shipment, error) {
	sh, err := s.store.AssignRider(ctx, shipmentID, riderID)
	if err != nil {
		return Shipment{}, err
	}
	s.logger.Info("rider assigned", "shipment_id", shipmentID, "rider_id", riderID)
	return sh, nil
}

// UpdateStatus applies a rider-driven lifecycle transition. Moving into
// in_transit stamps the pickup time, delivered stamps the delivery time.
// Cancellation is the owner's move and goes through Cancel, never here.
func (s *Service) UpdateStatus(ctx context.Context, shipmentID, riderID string, status Status) (Shipment, error) {
	if !status.Valid() {
		return Shipment{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	if status == StatusCancelled {
		return Shipment{}, fmt.Errorf("%w: riders cannot cancel a shipment", ErrInvalidTransition)
	}

	sh, err := s.store.UpdateStatus(ctx, shipmentID, riderID, status)
	if err != nil {
		return Shipment{}, err
	}

	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindShipmentStatus,
		Destination: sh.UserID,
		Body:        fmt.Sprintf("Shipment %s is now %s", sh.ShipmentID, sh.Status),
	}); err != nil {
		s.logger.Warn("status notification failed", "shipment_id", sh.ShipmentID, "error", err)
	}
	return sh, nil
}
