package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const schema = `
	CREATE TABLE IF NOT EXISTS addresses (
		id            TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		name          TEXT NOT NULL,
		phone         TEXT NOT NULL,
		address_line1 TEXT NOT NULL,
		address_line2 TEXT NOT NULL DEFAULT '',
		city          TEXT NOT NULL,
		state         TEXT NOT NULL,
		pincode       TEXT NOT NULL,
		country       TEXT NOT NULL,
		is_default    BOOLEAN NOT NULL DEFAULT false,
		latitude      DOUBLE PRECISION,
		longitude     DOUBLE PRECISION,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS addresses_owner_idx ON addresses (owner_id, created_at);
`

const addressColumns = `id, name, phone, address_line1, address_line2, city, state, pincode, country,
	is_default, latitude, longitude`

// Postgres stores addresses in PostgreSQL, scoped to a single owner.
type Postgres struct {
	db    Database
	owner string
	log   *slog.Logger
}

// NewPostgres creates a repository for the addresses of owner.
func NewPostgres(db Database, owner string, log *slog.Logger) *Postgres {
	return &Postgres{db: db, owner: owner, log: log}
}

// EnsureSchema creates the addresses table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create addresses schema: %w", err)
	}

	return nil
}

// SeedIfEmpty stores seed when the owner has no addresses yet.
func (p *Postgres) SeedIfEmpty(ctx context.Context, seed []models.Address) error {
	var count int
	query := `SELECT count(*) FROM addresses WHERE owner_id = $1;`
	if err := p.db.QueryRow(ctx, query, p.owner).Scan(&count); err != nil {
		return fmt.Errorf("failed to count addresses: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, addr := range seed {
		if _, err := p.Create(ctx, addr); err != nil {
			return err
		}
	}
	p.log.InfoContext(ctx, "Address book seeded", "owner", p.owner, "count", len(seed))

	return nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// List returns the owner's addresses in insertion order.
func (p *Postgres) List(ctx context.Context) ([]models.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC;
	`

	rows, err := p.db.Query(ctx, query, p.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		addr, errScan := scanAddress(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan address: %w", errScan)
		}
		addresses = append(addresses, addr)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return addresses, nil
}

// Create inserts addr under a new UUID. A default address clears the previous default.
func (p *Postgres) Create(ctx context.Context, addr models.Address) (models.Address, error) {
	addr.ID = uuid.NewString()

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return models.Address{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if addr.IsDefault {
		if err = p.clearDefault(ctx, tx); err != nil {
			return models.Address{}, rollback(ctx, tx, err)
		}
	}

	query := `
		INSERT INTO addresses (
			id, owner_id, name, phone, address_line1, address_line2, city, state, pincode, country,
			is_default, latitude, longitude
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		addr.ID, p.owner, addr.Name, addr.Phone, addr.AddressLine1, addr.AddressLine2,
		addr.City, addr.State, addr.Pincode, addr.Country, addr.IsDefault, addr.Latitude, addr.Longitude,
	)
	if err != nil {
		return models.Address{}, rollback(ctx, tx, fmt.Errorf("failed to insert address: %w", err))
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Address{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return addr, nil
}

// Update merges patch into the stored address and writes every column back.
func (p *Postgres) Update(ctx context.Context, id string, patch models.AddressPatch) (models.AddressPatch, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return models.AddressPatch{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE;
	`
	current, err := scanAddress(tx.QueryRow(ctx, query, id, p.owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AddressPatch{}, rollback(ctx, tx, ErrNotFound)
	}
	if err != nil {
		return models.AddressPatch{}, rollback(ctx, tx, fmt.Errorf("failed to select address: %w", err))
	}

	updated := patch.Apply(current)
	if updated.IsDefault && !current.IsDefault {
		if err = p.clearDefault(ctx, tx); err != nil {
			return models.AddressPatch{}, rollback(ctx, tx, err)
		}
	}

	query = `
		UPDATE addresses
		SET
			name = $1,
			phone = $2,
			address_line1 = $3,
			address_line2 = $4,
			city = $5,
			state = $6,
			pincode = $7,
			country = $8,
			is_default = $9,
			latitude = $10,
			longitude = $11
		WHERE id = $12 AND owner_id = $13;
	`
	_, err = tx.Exec(ctx, query,
		updated.Name, updated.Phone, updated.AddressLine1, updated.AddressLine2, updated.City,
		updated.State, updated.Pincode, updated.Country, updated.IsDefault, updated.Latitude,
		updated.Longitude, id, p.owner,
	)
	if err != nil {
		return models.AddressPatch{}, rollback(ctx, tx, fmt.Errorf("failed to update address: %w", err))
	}

	if err = tx.Commit(ctx); err != nil {
		return models.AddressPatch{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return models.RecordPatch(updated), nil
}

// Delete removes the address with the given id.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM addresses WHERE id = $1 AND owner_id = $2;`

	tag, err := p.db.Exec(ctx, query, id, p.owner)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetDefault marks id as the only default address of the owner.
func (p *Postgres) SetDefault(ctx context.Context, id string) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = p.clearDefault(ctx, tx); err != nil {
		return rollback(ctx, tx, err)
	}

	query := `UPDATE addresses SET is_default = true WHERE id = $1 AND owner_id = $2;`
	tag, err := tx.Exec(ctx, query, id, p.owner)
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("failed to set default address: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return rollback(ctx, tx, ErrNotFound)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (p *Postgres) clearDefault(ctx context.Context, tx pgx.Tx) error {
	query := `UPDATE addresses SET is_default = false WHERE owner_id = $1 AND is_default = true;`
	if _, err := tx.Exec(ctx, query, p.owner); err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}

	return nil
}

// rollback aborts tx and returns cause, joined with the rollback error if any.
func rollback(ctx context.Context, tx pgx.Tx, cause error) error {
	if err := tx.Rollback(ctx); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to rollback transaction: %w", err))
	}

	return cause
}

func scanAddress(row pgx.Row) (models.Address, error) {
	var (
		addr     models.Address
		lat, lng pgtype.Float8
	)

	err := row.Scan(
		&addr.ID,
		&addr.Name,
		&addr.Phone,
		&addr.AddressLine1,
		&addr.AddressLine2,
		&addr.City,
		&addr.State,
		&addr.Pincode,
		&addr.Country,
		&addr.IsDefault,
		&lat,
		&lng,
	)
	if err != nil {
		return models.Address{}, err
	}

	if lat.Valid && lng.Valid {
		addr.Latitude = &lat.Float64
		addr.Longitude = &lng.Float64
	}

	return addr, nil
}
