package shipment

import (
	"context"

	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// Repository persists parcels and shipments and carries the booking claim.
//
// Book must flip (status, payment_status) to (pickup_scheduled, paid) and
// debit the wallet for the frozen price as one effectively atomic step: of N
// concurrent calls on the same shipment exactly one debits, the rest observe
// ErrAlreadyPaid, and a failed debit leaves the shipment untouched.
type Repository interface {
	CreateParcel(ctx context.Context, parcel Parcel) error
	FindParcel(ctx context.Context, userID, parcelID string) (Parcel, error)

	Create(ctx context.Context, s Shipment) error
	// Find loads a shipment scoped to its owner.
	Find(ctx context.Context, userID, shipmentID string) (Shipment, error)
	// FindAny loads a shipment without an ownership scope, for rider and
	// admin flows.
	FindAny(ctx context.Context, shipmentID string) (Shipment, error)
	ListByUser(ctx context.Context, userID string) ([]Shipment, error)
	ListByRider(ctx context.Context, riderID string) ([]Shipment, error)

	// Book performs the paid claim and the wallet debit together. Only an
	// unpaid draft can be claimed.
	Book(ctx context.Context, userID, shipmentID string) (Shipment, wallet.BalanceChange, error)

	// Cancel withdraws an owner's shipment while it is draft or awaiting
	// pickup.
	Cancel(ctx context.Context, userID, shipmentID string) (Shipment, error)

	AssignRider(ctx context.Context, shipmentID, riderID string) (Shipment, error)
	// UpdateStatus applies a rider-driven transition, stamping pickup and
	// delivery times as the shipment moves forward. An empty riderID skips
	// the rider scope check; only internal callers may pass it.
	UpdateStatus(ctx context.Context, shipmentID, riderID string, status Status) (Shipment, error)
}
