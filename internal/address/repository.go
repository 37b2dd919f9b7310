package address

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAddressNotFound indicates no address matched the lookup.
var ErrAddressNotFound = errors.New("address not found")

// Repository persists addresses.
type Repository interface {
	Create(ctx context.Context, addr Address) error
	FindByAddressID(ctx context.Context, addressID string) (Address, error)
}

// PostgresRepository stores addresses in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an address record.
func (r *PostgresRepository) Create(ctx context.Context, addr Address) error {
	userID, err := uuid.Parse(addr.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO addresses
        (address_id, user_id, name, line1, city, state, country, zip, phone, latitude, longitude, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		addr.AddressID, userID, addr.Name, addr.Line1, addr.City, addr.State,
		addr.Country, addr.Zip, addr.Phone, addr.Latitude, addr.Longitude, addr.CreatedAt.UTC())
	return err
}

// FindByAddressID fetches an address by its public identifier.
func (r *PostgresRepository) FindByAddressID(ctx context.Context, addressID string) (Address, error) {
	row := r.db.QueryRow(ctx, `SELECT address_id, user_id, name, line1, city, state, country,
        zip, phone, latitude, longitude, created_at
        FROM addresses WHERE address_id = $1`, addressID)

	var (
		addr      Address
		userID    uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&addr.AddressID, &userID, &addr.Name, &addr.Line1, &addr.City,
		&addr.State, &addr.Country, &addr.Zip, &addr.Phone,
		&addr.Latitude, &addr.Longitude, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, ErrAddressNotFound
		}
		return Address{}, err
	}
	addr.UserID = userID.String()
	addr.CreatedAt = createdAt.UTC()
	return addr, nil
}
