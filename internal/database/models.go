package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the database row for the users table.
// The email column carries a unique index; it is the authoritative guard
// against duplicate registrations racing past the service-level pre-check.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:now()"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:now()"`

	Addresses []*Address `bun:"rel:has-many,join:id=user_id"`
	Phones    []*Phone   `bun:"rel:has-many,join:id=user_id"`
}

// Address is the database row for the addresses table.
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Street     string `bun:"street"`
	Number     int64  `bun:"number"`
	Complement string `bun:"complement"`
	City       string `bun:"city"`
	State      string `bun:"state"`
	PostalCode string `bun:"postal_code"`
	UserID     int64  `bun:"user_id,notnull"`
}

// Phone is the database row for the phones table.
type Phone struct {
	bun.BaseModel `bun:"table:phones,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Number   string `bun:"number"`
	AreaCode string `bun:"area_code"`
	UserID   int64  `bun:"user_id,notnull"`
}
