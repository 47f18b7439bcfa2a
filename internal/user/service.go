package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/danielags/usuario-api/internal/auth"
	"github.com/danielags/usuario-api/internal/contact"
	"github.com/danielags/usuario-api/internal/logging"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Service orchestrates registration, login and the ownership-scoped
// mutations over users and their addresses and phones.
type Service struct {
	users     Repository
	addresses contact.AddressRepository
	phones    contact.PhoneRepository
	hasher    auth.PasswordHasher
	tokens    auth.TokenService
	logger    *logging.Logger
}

func NewService(
	users Repository,
	addresses contact.AddressRepository,
	phones contact.PhoneRepository,
	hasher auth.PasswordHasher,
	tokens auth.TokenService,
	logger *logging.Logger,
) *Service {
	return &Service{
		users:     users,
		addresses: addresses,
		phones:    phones,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register creates a new user account. The existence pre-check runs before
// hashing so a doomed request never pays the argon2 cost; the unique index
// on email remains the authoritative guard under concurrent registrations.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Save(ctx, &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Addresses:    []*contact.Address{},
		Phones:       []*contact.Phone{},
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost the race against a concurrent registration
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates a user and returns a bearer token. Unknown email and
// wrong password collapse into the same error so the response never reveals
// which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing.Email)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// FindByEmail retrieves a user with its addresses and phones.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, email)
}

// Delete removes a user by email. Deleting a missing user is a no-op.
func (s *Service) Delete(ctx context.Context, email string) error {
	return s.users.DeleteByEmail(ctx, email)
}

// identityFromToken is the single choke point every mutating operation
// funnels through: verify the token, then resolve its subject. A token whose
// subject was deleted after issuance resolves to ErrNotFound.
func (s *Service) identityFromToken(ctx context.Context, token string) (*User, error) {
	email, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	return s.users.GetByEmail(ctx, email)
}

// UpdateProfile applies a partial update to the caller's own record. A nil
// password leaves the stored hash unchanged; a non-nil one is re-hashed
// before anything is persisted.
func (s *Service) UpdateProfile(ctx context.Context, token string, patch Patch) (*User, error) {
	existing, err := s.identityFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		existing.Name = *patch.Name
	}
	if patch.Email != nil {
		existing.Email = *patch.Email
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, ErrPasswordRequired
		}
		if len(*patch.Password) < 8 {
			return nil, ErrPasswordTooShort
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		existing.PasswordHash = hash
	}

	updated, err := s.users.Save(ctx, existing)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updated, nil
}

// RegisterAddress creates an address owned by the caller. The owner id is
// stamped from the resolved identity; any id or owner in the payload is
// discarded.
func (s *Service) RegisterAddress(ctx context.Context, token string, address contact.Address) (*contact.Address, error) {
	owner, err := s.identityFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	address.ID = 0
	address.UserID = owner.ID

	saved, err := s.addresses.Save(ctx, &address)
	if err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	return saved, nil
}

// RegisterPhone creates a phone owned by the caller.
func (s *Service) RegisterPhone(ctx context.Context, token string, phone contact.Phone) (*contact.Phone, error) {
	owner, err := s.identityFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	phone.ID = 0
	phone.UserID = owner.ID

	saved, err := s.phones.Save(ctx, &phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create phone: %w", err)
	}

	return saved, nil
}

// UpdateAddress applies a partial update to an address the caller owns.
// Addresses owned by someone else are reported as not found, so probing ids
// reveals nothing about other users' data.
func (s *Service) UpdateAddress(ctx context.Context, token string, id int64, patch contact.AddressPatch) (*contact.Address, error) {
	caller, err := s.identityFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	address, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if address.UserID != caller.ID {
		return nil, contact.ErrNotFound
	}

	patch.Apply(address)

	updated, err := s.addresses.Save(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	return updated, nil
}

// UpdatePhone applies a partial update to a phone the caller owns.
func (s *Service) UpdatePhone(ctx context.Context, token string, id int64, patch contact.PhonePatch) (*contact.Phone, error) {
	caller, err := s.identityFromToken(ctx, token)
	if err != nil {
		return nil, err
	}

	phone, err := s.phones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if phone.UserID != caller.ID {
		return nil, contact.ErrNotFound
	}

	patch.Apply(phone)

	updated, err := s.phones.Save(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to update phone: %w", err)
	}

	return updated, nil
}
