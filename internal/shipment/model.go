package shipment

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Status is the shipment lifecycle state.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPickupScheduled Status = "pickup_scheduled"
	StatusInTransit       Status = "in_transit"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPickupScheduled, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a shipment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Shipment is a priced delivery order. Price and Distance are frozen at
// creation time; booking debits exactly Price and never requotes.
type Shipment struct {
	ShipmentID        string
	UserID            string
	ParcelID          string
	PickupAddressID   string
	DeliveryAddressID string
	RiderID           *string
	Price             int64 // kobo
	Distance          float64
	Status            Status
	PaymentStatus     PaymentStatus
	PickupTime        *time.Time
	DeliveryTime      *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Parcel describes the physical package a shipment moves.
type Parcel struct {
	ParcelID    string
	UserID      string
	Description string
	WeightKg    float64
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
	CreatedAt   time.Time
}

// canTransition encodes the rider-driven forward moves. Booking is not here;
// it is a paid claim handled by the store so the debit and the flip commit
// together.
func canTransition(from, to Status) bool {
	switch to {
	case StatusInTransit:
		return from == StatusPickupScheduled || from == StatusInTransit
	case StatusDelivered:
		return from == StatusInTransit
	case StatusCancelled:
		return from == StatusDraft || from == StatusPickupScheduled
	}
	return false
}

func newShipmentID() string {
	return "ship_" + randomHex(12)
}

func newParcelID() string {
	return "parc_" + randomHex(12)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
