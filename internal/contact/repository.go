package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/danielags/usuario-api/internal/database"
)

var ErrNotFound = errors.New("resource not found")

// AddressRepository is a dumb keyed store over addresses. Ownership is never
// checked here; that is the service's job.
type AddressRepository interface {
	FindByID(ctx context.Context, id int64) (*Address, error)
	Save(ctx context.Context, address *Address) (*Address, error)
}

// PhoneRepository is a dumb keyed store over phones.
type PhoneRepository interface {
	FindByID(ctx context.Context, id int64) (*Phone, error)
	Save(ctx context.Context, phone *Phone) (*Phone, error)
}

// PostgresAddressRepository persists addresses with Bun.
type PostgresAddressRepository struct {
	db *bun.DB
}

func NewAddressRepository(db *bun.DB) *PostgresAddressRepository {
	return &PostgresAddressRepository{db: db}
}

// FindByID retrieves an address by its id
func (r *PostgresAddressRepository) FindByID(ctx context.Context, id int64) (*Address, error) {
	row := new(database.Address)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get address by id: %w", err)
	}

	return mapDBAddress(row), nil
}

// Save inserts the address when its id is unset, updates it otherwise.
func (r *PostgresAddressRepository) Save(ctx context.Context, address *Address) (*Address, error) {
	row := &database.Address{
		ID:         address.ID,
		Street:     address.Street,
		Number:     address.Number,
		Complement: address.Complement,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		UserID:     address.UserID,
	}

	var err error
	if row.ID == 0 {
		_, err = r.db.NewInsert().
			Model(row).
			Returning("*").
			Exec(ctx)
	} else {
		_, err = r.db.NewUpdate().
			Model(row).
			WherePK().
			Returning("*").
			Exec(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}

	return mapDBAddress(row), nil
}

// PostgresPhoneRepository persists phones with Bun.
type PostgresPhoneRepository struct {
	db *bun.DB
}

func NewPhoneRepository(db *bun.DB) *PostgresPhoneRepository {
	return &PostgresPhoneRepository{db: db}
}

// FindByID retrieves a phone by its id
func (r *PostgresPhoneRepository) FindByID(ctx context.Context, id int64) (*Phone, error) {
	row := new(database.Phone)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get phone by id: %w", err)
	}

	return mapDBPhone(row), nil
}

// Save inserts the phone when its id is unset, updates it otherwise.
func (r *PostgresPhoneRepository) Save(ctx context.Context, phone *Phone) (*Phone, error) {
	row := &database.Phone{
		ID:       phone.ID,
		Number:   phone.Number,
		AreaCode: phone.AreaCode,
		UserID:   phone.UserID,
	}

	var err error
	if row.ID == 0 {
		_, err = r.db.NewInsert().
			Model(row).
			Returning("*").
			Exec(ctx)
	} else {
		_, err = r.db.NewUpdate().
			Model(row).
			WherePK().
			Returning("*").
			Exec(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save phone: %w", err)
	}

	return mapDBPhone(row), nil
}

func mapDBAddress(row *database.Address) *Address {
	return &Address{
		ID:         row.ID,
		Street:     row.Street,
		Number:     row.Number,
		Complement: row.Complement,
		City:       row.City,
		State:      row.State,
		PostalCode: row.PostalCode,
		UserID:     row.UserID,
	}
}

func mapDBPhone(row *database.Phone) *Phone {
	return &Phone{
		ID:       row.ID,
		Number:   row.Number,
		AreaCode: row.AreaCode,
		UserID:   row.UserID,
	}
}
