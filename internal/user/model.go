package user

import (
	"time"

	"github.com/danielags/usuario-api/internal/contact"
)

// User is a registered identity keyed by its unique email.
type User struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"-"` // Never expose password hash in JSON
	Addresses    []*contact.Address `json:"addresses"`
	Phones       []*contact.Phone   `json:"phones"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Patch carries a partial profile update. Nil fields are left unchanged;
// in particular a nil password keeps the stored hash as is.
type Patch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}
