package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/danielags/usuario-api/internal/contact"
	"github.com/danielags/usuario-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository defines persistence over users keyed by email. This is the only
// layer that knows about the uniqueness constraint; callers treat
// ErrDuplicateEmail as the conflict outcome whether it came from the
// existence pre-check or from a lost race at insert time.
type Repository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) (*User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// PostgresRepository handles user data persistence with Bun.
type PostgresRepository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ExistsByEmail reports whether a user with the given email exists.
// Fast-path pre-check only; the unique index is the authoritative guard.
func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("email = ?", email).
		Exists(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// GetByEmail retrieves a user by email, with addresses and phones loaded.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := new(database.User)
	err := r.db.NewSelect().
		Model(row).
		Relation("Addresses").
		Relation("Phones").
		Where("u.email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUser(row), nil
}

// Save inserts the user when its id is unset, updates it in place otherwise.
// A unique-constraint violation on email maps to ErrDuplicateEmail in both
// paths, so a registration that loses the check-then-act race still surfaces
// as a conflict.
func (r *PostgresRepository) Save(ctx context.Context, u *User) (*User, error) {
	row := &database.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}

	var err error
	if row.ID == 0 {
		_, err = r.db.NewInsert().
			Model(row).
			Returning("*").
			Exec(ctx)
	} else {
		row.UpdatedAt = time.Now()
		_, err = r.db.NewUpdate().
			Model(row).
			Column("name", "email", "password_hash", "updated_at").
			WherePK().
			Returning("*").
			Exec(ctx)
	}

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	saved := mapDBUser(row)
	// Relations are not returned by insert/update; keep what the caller had.
	saved.Addresses = u.Addresses
	saved.Phones = u.Phones
	return saved, nil
}

// DeleteByEmail removes the user with the given email. Deleting a missing
// email is a no-op, not an error.
func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("email = ?", email).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user by email: %w", err)
	}

	return nil
}

// mapDBUser converts a database row to the domain model
func mapDBUser(row *database.User) *User {
	u := &User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Addresses:    []*contact.Address{},
		Phones:       []*contact.Phone{},
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}

	for _, a := range row.Addresses {
		u.Addresses = append(u.Addresses, &contact.Address{
			ID:         a.ID,
			Street:     a.Street,
			Number:     a.Number,
			Complement: a.Complement,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			UserID:     a.UserID,
		})
	}

	for _, p := range row.Phones {
		u.Phones = append(u.Phones, &contact.Phone{
			ID:       p.ID,
			Number:   p.Number,
			AreaCode: p.AreaCode,
			UserID:   p.UserID,
		})
	}

	return u
}
