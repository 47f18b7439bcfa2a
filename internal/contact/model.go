// Package contact holds the address and phone resources owned by a user.
package contact

// Address is a postal address belonging to exactly one user. UserID is
// stamped from the authenticated caller at creation, never from client input.
type Address struct {
	ID         int64  `json:"id"`
	Street     string `json:"street"`
	Number     int64  `json:"number"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	UserID     int64  `json:"user_id"`
}

// Phone is a phone number belonging to exactly one user.
type Phone struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	AreaCode string `json:"area_code"`
	UserID   int64  `json:"user_id"`
}

// AddressPatch carries partial updates for an address. Nil fields are left
// unchanged. The owner is deliberately absent: it cannot be reassigned.
type AddressPatch struct {
	Street     *string `json:"street"`
	Number     *int64  `json:"number"`
	Complement *string `json:"complement"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
}

// PhonePatch carries partial updates for a phone. Nil fields are left unchanged.
type PhonePatch struct {
	Number   *string `json:"number"`
	AreaCode *string `json:"area_code"`
}

// Apply overwrites the non-nil patch fields on the address.
func (p AddressPatch) Apply(a *Address) {
	if p.Street != nil {
		a.Street = *p.Street
	}
	if p.Number != nil {
		a.Number = *p.Number
	}
	if p.Complement != nil {
		a.Complement = *p.Complement
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
}

// Apply overwrites the non-nil patch fields on the phone.
func (p PhonePatch) Apply(ph *Phone) {
	if p.Number != nil {
		ph.Number = *p.Number
	}
	if p.AreaCode != nil {
		ph.AreaCode = *p.AreaCode
	}
}
