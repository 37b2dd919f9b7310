package shipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
)

// PostgresStore persists shipments and parcels in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed shipment store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const shipmentColumns = `shipment_id, user_id, parcel_id, pickup_address_id,
	delivery_address_id, rider_id, price, distance, status, payment_status,
	pickup_time, delivery_time, created_at, updated_at`

const insertShipmentSQL = `
	INSERT INTO shipments (shipment_id, user_id, parcel_id, pickup_address_id,
		delivery_address_id, price, distance, status, payment_status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// claimBookingSQL is the booking guard: the flip to paid only happens while
// the shipment is still an unpaid draft, so concurrent bookings race on one
// row update and exactly one wins, and a cancelled shipment can never be
// resurrected by booking it.
const claimBookingSQL = `
	UPDATE shipments
	SET status = 'pickup_scheduled', payment_status = 'paid', updated_at = now()
	WHERE shipment_id = $1 AND user_id = $2
	  AND status = 'draft' AND payment_status = 'pending'`

func (s *PostgresStore) CreateParcel(ctx context.Context, parcel Parcel) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO parcels (parcel_id, user_id, description, weight_kg, length_cm, width_cm, height_cm)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		parcel.ParcelID, parcel.UserID, parcel.Description,
		parcel.WeightKg, parcel.LengthCm, parcel.WidthCm, parcel.HeightCm)
	if err != nil {
		return fmt.Errorf("insert parcel: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindParcel(ctx context.Context, userID, parcelID string) (Parcel, error) {
	var p Parcel
	err := s.db.QueryRow(ctx, `
		SELECT parcel_id, user_id, description, weight_kg, length_cm, width_cm, height_cm, created_at
		FROM parcels WHERE parcel_id = $1 AND user_id = $2`, parcelID, userID).
		Scan(&p.ParcelID, &p.UserID, &p.Description, &p.WeightKg, &p.LengthCm, &p.WidthCm, &p.HeightCm, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Parcel{}, ErrParcelNotFound
		}
		return Parcel{}, fmt.Errorf("select parcel: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, sh Shipment) error {
	_, err := s.db.Exec(ctx, insertShipmentSQL,
		sh.ShipmentID, sh.UserID, sh.ParcelID, sh.PickupAddressID, sh.DeliveryAddressID,
		sh.Price, sh.Distance, sh.Status, sh.PaymentStatus)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID, shipmentID string) (Shipment, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE shipment_id = $1 AND user_id = $2`,
		shipmentID, userID)
	return scanShipment(row)
}

func (s *PostgresStore) FindAny(ctx context.Context, shipmentID string) (Shipment, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE shipment_id = $1`, shipmentID)
	return scanShipment(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Shipment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	return collectShipments(rows)
}

func (s *PostgresStore) ListByRider(ctx context.Context, riderID string) ([]Shipment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE rider_id = $1 ORDER BY created_at DESC`,
		riderID)
	if err != nil {
		return nil, fmt.Errorf("list rider shipments: %w", err)
	}
	return collectShipments(rows)
}

// Book claims the shipment and debits the wallet in one transaction. A failed
// debit rolls the claim back, leaving the shipment pending.
func (s *PostgresStore) Book(ctx context.Context, userID, shipmentID string) (Shipment, wallet.BalanceChange, error) {
	sh, err := s.Find(ctx, userID, shipmentID)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, err
	}
	if sh.PaymentStatus == PaymentPaid {
		return Shipment{}, wallet.BalanceChange{}, ErrAlreadyPaid
	}
	if sh.Status != StatusDraft {
		return Shipment{}, wallet.BalanceChange{}, fmt.Errorf("%w: cannot book a %s shipment", ErrInvalidTransition, sh.Status)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, claimBookingSQL, shipmentID, userID)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, fmt.Errorf("claim booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The row was an unpaid draft a moment ago; a concurrent booking or
		// cancellation won the claim.
		return Shipment{}, wallet.BalanceChange{}, s.claimFailure(ctx, userID, shipmentID)
	}

	change, err := wallet.DebitTx(ctx, tx, userID, sh.Price)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			// Rolled back below; report the shortfall against the live balance.
			var balance int64
			if scanErr := s.db.QueryRow(ctx,
				`SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance); scanErr == nil {
				return Shipment{}, wallet.BalanceChange{}, &wallet.InsufficientBalanceError{Balance: balance, Required: sh.Price}
			}
		}
		return Shipment{}, wallet.BalanceChange{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Shipment{}, wallet.BalanceChange{}, fmt.Errorf("commit booking: %w", err)
	}

	booked, err := s.Find(ctx, userID, shipmentID)
	if err != nil {
		return Shipment{}, wallet.BalanceChange{}, err
	}
	return booked, change, nil
}

// claimFailure disambiguates a zero-row booking claim.
func (s *PostgresStore) claimFailure(ctx context.Context, userID, shipmentID string) error {
	sh, err := s.Find(ctx, userID, shipmentID)
	if err != nil {
		return err
	}
	if sh.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	return fmt.Errorf("%w: cannot book a %s shipment", ErrInvalidTransition, sh.Status)
}

// Cancel withdraws an owner's shipment before a rider picks it up. The status
// guard repeats in SQL so a booking that slips in concurrently cannot be
// cancelled out from under its debit, and vice versa.
func (s *PostgresStore) Cancel(ctx context.Context, userID, shipmentID string) (Shipment, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE shipments SET status = 'cancelled', updated_at = now()
		WHERE shipment_id = $1 AND user_id = $2
		  AND status IN ('draft', 'pickup_scheduled')`,
		shipmentID, userID)
	if err != nil {
		return Shipment{}, fmt.Errorf("cancel shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		sh, err := s.Find(ctx, userID, shipmentID)
		if err != nil {
			return Shipment{}, err
		}
		return Shipment{}, fmt.Errorf("%w: cannot cancel a %s shipment", ErrInvalidTransition, sh.Status)
	}
	return s.Find(ctx, userID, shipmentID)
}

func (s *PostgresStore) AssignRider(ctx context.Context, shipmentID, riderID string) (Shipment, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE shipments SET rider_id = $2, updated_at = now()
		WHERE shipment_id = $1 AND rider_id IS NULL
		  AND status = 'pickup_scheduled' AND payment_status = 'paid'`,
		shipmentID, riderID)
	if err != nil {
		return Shipment{}, fmt.Errorf("assign rider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Shipment{}, s.assignFailure(ctx, shipmentID)
	}
	return s.FindAny(ctx, shipmentID)
}

// assignFailure disambiguates a zero-row rider assignment.
func (s *PostgresStore) assignFailure(ctx context.Context, shipmentID string) error {
	sh, err := s.FindAny(ctx, shipmentID)
	if err != nil {
		return err
	}
	if sh.RiderID != nil {
		return ErrRiderAssigned
	}
	return ErrNotAssignable
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, shipmentID, riderID string, status Status) (Shipment, error) {
	sh, err := s.FindAny(ctx, shipmentID)
	if err != nil {
		return Shipment{}, err
	}
	if riderID != "" && (sh.RiderID == nil || *sh.RiderID != riderID) {
		return Shipment{}, ErrShipmentNotFound
	}
	if !canTransition(sh.Status, status) {
		return Shipment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sh.Status, status)
	}

	// The status guard repeats in SQL so a concurrent transition cannot apply
	// twice; timestamps only stamp on the first move into the state.
	tag, err := s.db.Exec(ctx, `
		UPDATE shipments
		SET status = $2,
		    pickup_time = CASE WHEN $2 = 'in_transit' AND pickup_time IS NULL THEN now() ELSE pickup_time END,
		    delivery_time = CASE WHEN $2 = 'delivered' AND delivery_time IS NULL THEN now() ELSE delivery_time END,
		    updated_at = now()
		WHERE shipment_id = $1 AND status = $3`,
		shipmentID, status, sh.Status)
	if err != nil {
		return Shipment{}, fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Shipment{}, fmt.Errorf("%w: shipment moved concurrently", ErrInvalidTransition)
	}
	return s.FindAny(ctx, shipmentID)
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var sh Shipment
	err := row.Scan(&sh.ShipmentID, &sh.UserID, &sh.ParcelID, &sh.PickupAddressID,
		&sh.DeliveryAddressID, &sh.RiderID, &sh.Price, &sh.Distance, &sh.Status,
		&sh.PaymentStatus, &sh.PickupTime, &sh.DeliveryTime, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shipment{}, ErrShipmentNotFound
		}
		return Shipment{}, fmt.Errorf("scan shipment: %w", err)
	}
	return sh, nil
}

func collectShipments(rows pgx.Rows) ([]Shipment, error) {
	defer rows.Close()
	shipments := make([]Shipment, 0)
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}
	return shipments, nil
}
