package shipment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/LIFESTACK29/raha-send-backend/internal/address"
	"github.com/LIFESTACK29/raha-send-backend/internal/logging"
	"github.com/LIFESTACK29/raha-send-backend/internal/notification"
	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

const testUserID = "11111111-1111-1111-1111-111111111111"

func ptr(f float64) *float64 { return &f }

// fixture wires a memory store, ledger and addresses for a 20 km route that
// quotes at 500000 kobo.
type fixture struct {
	svc    *Service
	ledger wallet.Ledger
	store  Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	addresses := address.NewMemoryRepository()
	ctx := context.Background()
	if err := addresses.Create(ctx, address.Address{
		AddressID: "addr-pickup", UserID: testUserID,
		Latitude: ptr(0), Longitude: ptr(0),
	}); err != nil {
		t.Fatalf("seed pickup address: %v", err)
	}
	if err := addresses.Create(ctx, address.Address{
		AddressID: "addr-delivery", UserID: testUserID,
		Latitude: ptr(0.17986), Longitude: ptr(0),
	}); err != nil {
		t.Fatalf("seed delivery address: %v", err)
	}

	ledger := wallet.NewInMemory()
	store := NewMemoryStore(ledger)
	logger := logging.Discard()
	svc := NewService(store, addresses, notification.NewLoggerNotifier(logger), logger)
	return &fixture{svc: svc, ledger: ledger, store: store}
}

func (f *fixture) createShipment(t *testing.T) Shipment {
	t.Helper()
	ctx := context.Background()
	parcel, err := f.svc.CreateParcel(ctx, testUserID, ParcelInput{Description: "documents", WeightKg: 1.2})
	if err != nil {
		t.Fatalf("create parcel: %v", err)
	}
	sh, err := f.svc.Create(ctx, testUserID, CreateInput{
		ParcelID:          parcel.ParcelID,
		PickupAddressID:   "addr-pickup",
		DeliveryAddressID: "addr-delivery",
	})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	return sh
}

func TestService_CreateFreezesQuote(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)

	if sh.Price != 500_000 {
		t.Fatalf("expected price 500000 kobo, got %d", sh.Price)
	}
	if sh.Distance != 20.00 {
		t.Fatalf("expected distance 20.00, got %v", sh.Distance)
	}
	if sh.Status != StatusDraft || sh.PaymentStatus != PaymentPending {
		t.Fatalf("new shipment must be draft/pending, got %s/%s", sh.Status, sh.PaymentStatus)
	}
}

func TestService_CreateRejectsUnknownParcel(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), testUserID, CreateInput{
		ParcelID:          "parc_missing",
		PickupAddressID:   "addr-pickup",
		DeliveryAddressID: "addr-delivery",
	})
	if !errors.Is(err, ErrParcelNotFound) {
		t.Fatalf("expected parcel not found, got %v", err)
	}
}

func TestService_GetRateRejectsAddressWithoutCoordinates(t *testing.T) {
	f := newFixture(t)
	addresses := address.NewMemoryRepository()
	ctx := context.Background()
	if err := addresses.Create(ctx, address.Address{AddressID: "addr-bare", UserID: testUserID}); err != nil {
		t.Fatalf("seed address: %v", err)
	}
	f.svc.addresses = addresses

	_, err := f.svc.GetRate(ctx, "addr-bare", "addr-bare")
	if !errors.Is(err, ErrMissingCoordinates) {
		t.Fatalf("expected missing coordinates, got %v", err)
	}
}

func TestService_BookDebitsFrozenPrice(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 600_000)

	booked, change, err := f.svc.Book(context.Background(), testUserID, sh.ShipmentID)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if booked.Status != StatusPickupScheduled || booked.PaymentStatus != PaymentPaid {
		t.Fatalf("expected pickup_scheduled/paid, got %s/%s", booked.Status, booked.PaymentStatus)
	}
	if change.NewBalance != 100_000 {
		t.Fatalf("expected balance 100000 after debit, got %d", change.NewBalance)
	}
}

func TestService_BookInsufficientBalanceLeavesShipmentUntouched(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 499_999)

	_, _, err := f.svc.Book(context.Background(), testUserID, sh.ShipmentID)
	if !errors.Is(err, wallet.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	after, err := f.svc.Get(context.Background(), testUserID, sh.ShipmentID)
	if err != nil {
		t.Fatalf("get shipment: %v", err)
	}
	if after.Status != StatusDraft || after.PaymentStatus != PaymentPending {
		t.Fatalf("failed debit must not move the shipment, got %s/%s", after.Status, after.PaymentStatus)
	}

	w, _ := f.ledger.GetOrCreate(context.Background(), testUserID)
	if w.Balance != 499_999 {
		t.Fatalf("balance must be unchanged, got %d", w.Balance)
	}
}

func TestService_BookTwiceFailsAlreadyPaid(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 1_000_000)

	if _, _, err := f.svc.Book(context.Background(), testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, _, err := f.svc.Book(context.Background(), testUserID, sh.ShipmentID); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}

	w, _ := f.ledger.GetOrCreate(context.Background(), testUserID)
	if w.Balance != 500_000 {
		t.Fatalf("second booking must not debit again, got %d", w.Balance)
	}
}

// Concurrent bookings of the same shipment must debit exactly once.
func TestService_ConcurrentBookingSingleDebit(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 5_000_000)

	const callers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, alreadyPaid int

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.Book(context.Background(), testUserID, sh.ShipmentID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyPaid):
				alreadyPaid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful booking, got %d", successes)
	}
	if alreadyPaid != callers-1 {
		t.Fatalf("expected %d already-paid rejections, got %d", callers-1, alreadyPaid)
	}

	w, _ := f.ledger.GetOrCreate(context.Background(), testUserID)
	if w.Balance != 5_000_000-500_000 {
		t.Fatalf("wallet must be debited exactly once, got %d", w.Balance)
	}
}

// A cancelled shipment must stay cancelled: booking it must neither debit the
// wallet nor resurrect it to pickup_scheduled.
func TestService_BookCancelledShipmentRejected(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 1_000_000)
	ctx := context.Background()

	if _, err := f.svc.Cancel(ctx, testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, _, err := f.svc.Book(ctx, testUserID, sh.ShipmentID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	after, err := f.svc.Get(ctx, testUserID, sh.ShipmentID)
	if err != nil {
		t.Fatalf("get shipment: %v", err)
	}
	if after.Status != StatusCancelled || after.PaymentStatus != PaymentPending {
		t.Fatalf("booking resurrected a cancelled shipment: %s/%s", after.Status, after.PaymentStatus)
	}

	w, _ := f.ledger.GetOrCreate(ctx, testUserID)
	if w.Balance != 1_000_000 {
		t.Fatalf("booking a cancelled shipment debited the wallet: %d", w.Balance)
	}
}

func TestService_Cancel(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	ctx := context.Background()

	cancelled, err := f.svc.Cancel(ctx, testUserID, sh.ShipmentID)
	if err != nil {
		t.Fatalf("cancel draft: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	if _, err := f.svc.Cancel(ctx, testUserID, sh.ShipmentID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelling twice must fail, got %v", err)
	}
}

func TestService_CancelScopedToOwner(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	other := "22222222-2222-2222-2222-222222222222"

	if _, err := f.svc.Cancel(context.Background(), other, sh.ShipmentID); !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("foreign shipment must look absent, got %v", err)
	}

	after, _ := f.svc.Get(context.Background(), testUserID, sh.ShipmentID)
	if after.Status != StatusDraft {
		t.Fatalf("foreign cancel mutated the shipment: %s", after.Status)
	}
}

func TestService_CancelRejectedOnceMoving(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 500_000)
	ctx := context.Background()

	if _, _, err := f.svc.Book(ctx, testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-1"); err != nil {
		t.Fatalf("assign rider: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "rider-1", StatusInTransit); err != nil {
		t.Fatalf("move to in_transit: %v", err)
	}

	if _, err := f.svc.Cancel(ctx, testUserID, sh.ShipmentID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("in-transit shipment must not be cancellable, got %v", err)
	}
}

func TestService_UpdateStatusRejectsCancelled(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 500_000)
	ctx := context.Background()

	if _, _, err := f.svc.Book(ctx, testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-1"); err != nil {
		t.Fatalf("assign rider: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "rider-1", StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("rider cancellation must be rejected, got %v", err)
	}
}

func TestService_BookScopedToOwner(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	other := "22222222-2222-2222-2222-222222222222"
	wallet.SeedBalance(f.ledger, other, 1_000_000)

	_, _, err := f.svc.Book(context.Background(), other, sh.ShipmentID)
	if !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("foreign shipment must look absent, got %v", err)
	}
}

func TestService_RiderLifecycle(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 500_000)
	ctx := context.Background()

	if _, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-1"); !errors.Is(err, ErrNotAssignable) {
		t.Fatalf("unpaid shipment must not accept a rider, got %v", err)
	}

	if _, _, err := f.svc.Book(ctx, testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("book: %v", err)
	}

	assigned, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-1")
	if err != nil {
		t.Fatalf("assign rider: %v", err)
	}
	if assigned.RiderID == nil || *assigned.RiderID != "rider-1" {
		t.Fatalf("rider not recorded: %+v", assigned)
	}

	if _, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-2"); !errors.Is(err, ErrRiderAssigned) {
		t.Fatalf("expected rider already assigned, got %v", err)
	}

	inTransit, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "rider-1", StatusInTransit)
	if err != nil {
		t.Fatalf("move to in_transit: %v", err)
	}
	if inTransit.PickupTime == nil {
		t.Fatal("in_transit must stamp pickup time")
	}

	delivered, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "rider-1", StatusDelivered)
	if err != nil {
		t.Fatalf("move to delivered: %v", err)
	}
	if delivered.DeliveryTime == nil {
		t.Fatal("delivered must stamp delivery time")
	}

	mine, err := f.svc.ListByRider(ctx, "rider-1")
	if err != nil {
		t.Fatalf("list by rider: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 rider shipment, got %d", len(mine))
	}
}

func TestService_UpdateStatusGuards(t *testing.T) {
	f := newFixture(t)
	sh := f.createShipment(t)
	wallet.SeedBalance(f.ledger, testUserID, 500_000)
	ctx := context.Background()

	if _, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "", StatusDelivered); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft cannot jump to delivered, got %v", err)
	}

	if _, _, err := f.svc.Book(ctx, testUserID, sh.ShipmentID); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.AssignRider(ctx, sh.ShipmentID, "rider-1"); err != nil {
		t.Fatalf("assign rider: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "rider-2", StatusInTransit); !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("foreign rider must not move the shipment, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, sh.ShipmentID, "rider-1", Status("teleported")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}
}
