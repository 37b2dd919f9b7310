package shipment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// memoryStore keeps shipments in process memory. Booking claims the shipment
// under the store lock before debiting, and reverts the claim if the debit
// fails, which gives the same single-winner behavior as the transactional
// store.
type memoryStore struct {
	mu        sync.Mutex
	shipments map[string]*Shipment
	parcels   map[string]*Parcel
	ledger    wallet.Ledger
}

// NewMemoryStore builds an in-memory shipment store. The ledger carries the
// booking debits.
func NewMemoryStore(ledger wallet.Ledger) Repository {
	return &memoryStore{
		shipments: make(map[string]*Shipment),
		parcels:   make(map[string]*Parcel),
		ledger:    ledger,
	}
}

func (s *memoryStore) CreateParcel(_ context.Context, parcel Parcel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if parcel.CreatedAt.IsZero() {
		parcel.CreatedAt = time.Now().UTC()
	}
	p := parcel
	s.parcels[parcel.ParcelID] = &p
	return nil
}

func (s *memoryStore) FindParcel(_ context.Context, userID, parcelID string) (Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[parcelID]
	if !ok || p.UserID != userID {
		return Parcel{}, ErrParcelNotFound
	}
	return *p, nil
}

func (s *memoryStore) Create(_ context.Context, sh Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = now
	}
	sh.UpdatedAt = now
	copied := sh
	s.shipments[sh.ShipmentID] = &copied
	return nil
}

func (s *memoryStore) Find(_ context.Context, userID, shipmentID string) (Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[shipmentID]
	if !ok || sh.UserID != userID {
		return Shipment{}, ErrShipmentNotFound
	}
	return *sh, nil
}

func (s *memoryStore) FindAny(_ context.Context, shipmentID string) (Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[shipmentID]
	if !ok {
		return Shipment{}, ErrShipmentNotFound
	}
	return *sh, nil
}

func (s *memoryStore) ListByUser(_ context.Context, userID string) ([]Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Shipment, 0)
	for _, sh := range s.shipments {
		if sh.UserID == userID {
			out = append(out, *sh)
		}
	}
	sortShipments(out)
	return out, nil
}

func (s *memoryStore) ListByRider(_ context.Context, riderID string) ([]Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Shipment, 0)
	for _, sh := range s.shipments {
		if sh.RiderID != nil && *sh.RiderID == riderID {
			out = append(out, *sh)
		}
	}
	sortShipments(out)
	return out, nil
}

func (s *memoryStore) Book(ctx context.Context, userID, shipmentID string) (Shipment, wallet.BalanceChange, error) {
	price, err := s.claim(userID, shipmentID)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, err
	}

	change, err := s.ledger.Debit(ctx, userID, price)
	if err != nil {
		s.revertClaim(shipmentID)
		return Shipment{}, wallet.BalanceChange{}, err
	}

	booked, err := s.FindAny(ctx, shipmentID)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, err
	}
	return booked, change, nil
}

// claim flips the shipment to paid while holding the lock, so only one caller
// proceeds to the debit. Only an unpaid draft can be claimed; a cancelled
// shipment stays cancelled.
func (s *memoryStore) claim(userID, shipmentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[shipmentID]
	if !ok || sh.UserID != userID {
		return 0, ErrShipmentNotFound
	}
	if sh.PaymentStatus == PaymentPaid {
		return 0, ErrAlreadyPaid
	}
	if sh.Status != StatusDraft {
		return 0, fmt.Errorf("%w: cannot book a %s shipment", ErrInvalidTransition, sh.Status)
	}
	sh.PaymentStatus = PaymentPaid
	sh.Status = StatusPickupScheduled
	sh.UpdatedAt = time.Now().UTC()
	return sh.Price, nil
}

func (s *memoryStore) revertClaim(shipmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.shipments[shipmentID]; ok {
		sh.PaymentStatus = PaymentPending
		sh.Status = StatusDraft
		sh.UpdatedAt = time.Now().UTC()
	}
}

func (s *memoryStore) Cancel(_ context.Context, userID, shipmentID string) (Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[shipmentID]
	if !ok || sh.UserID != userID {
		return Shipment{}, ErrShipmentNotFound
	}
	if sh.Status != StatusDraft && sh.Status != StatusPickupScheduled {
		return Shipment{}, fmt.Errorf("%w: cannot cancel a %s shipment", ErrInvalidTransition, sh.Status)
	}
	sh.Status = StatusCancelled
	sh.UpdatedAt = time.Now().UTC()
	return *sh, nil
}

func (s *memoryStore) AssignRider(_ context.Context, shipmentID, riderID string) (Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[shipmentID]
	if !ok {
		return Shipment{}, ErrShipmentNotFound
	}
	if sh.RiderID != nil {
		return Shipment{}, ErrRiderAssigned
	}
	if sh.Status != StatusPickupScheduled || sh.PaymentStatus != PaymentPaid {
		return Shipment{}, ErrNotAssignable
	}
	rid := riderID
	sh.RiderID = &rid
	sh.UpdatedAt = time.Now().UTC()
	return *sh, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, shipmentID, riderID string, status Status) (Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[shipmentID]
	if !ok {
		return Shipment{}, ErrShipmentNotFound
	}
	if riderID != "" && (sh.RiderID == nil || *sh.RiderID != riderID) {
		return Shipment{}, ErrShipmentNotFound
	}
	if !canTransition(sh.Status, status) {
		return Shipment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sh.Status, status)
	}

	now := time.Now().UTC()
	sh.Status = status
	switch status {
	case StatusInTransit:
		if sh.PickupTime == nil {
			t := now
			sh.PickupTime = &t
		}
	case StatusDelivered:
		if sh.DeliveryTime == nil {
			t := now
			sh.DeliveryTime = &t
		}
	}
	sh.UpdatedAt = now
	return *sh, nil
}

func sortShipments(shipments []Shipment) {
	sort.Slice(shipments, func(i, j int) bool {
		if shipments[i].CreatedAt.Equal(shipments[j].CreatedAt) {
			return shipments[i].ShipmentID < shipments[j].ShipmentID
		}
		return shipments[i].CreatedAt.After(shipments[j].CreatedAt)
	})
}
