package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielags/usuario-api/internal/auth"
	"github.com/danielags/usuario-api/internal/contact"
	"github.com/danielags/usuario-api/internal/logging"
)

var testPasetoKey = []byte("0123456789abcdef0123456789abcdef")

// --- in-memory fakes ---

type fakeUserRepo struct {
	byID   map[int64]*User
	nextID int64

	existsFn func(ctx context.Context, email string) (bool, error)
	saveFn   func(ctx context.Context, u *User) (*User, error)
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*User)}
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, email)
	}
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeUserRepo) Save(ctx context.Context, u *User) (*User, error) {
	if f.saveFn != nil {
		return f.saveFn(ctx, u)
	}
	// Mirror the unique index: the fake is the authoritative guard too.
	for _, other := range f.byID {
		if other.Email == u.Email && other.ID != u.ID {
			return nil, ErrDuplicateEmail
		}
	}
	cp := *u
	if cp.ID == 0 {
		f.nextID++
		cp.ID = f.nextID
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUserRepo) DeleteByEmail(_ context.Context, email string) error {
	for id, u := range f.byID {
		if u.Email == email {
			delete(f.byID, id)
		}
	}
	return nil
}

type fakeAddressRepo struct {
	byID   map[int64]*contact.Address
	nextID int64
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{byID: make(map[int64]*contact.Address)}
}

func (f *fakeAddressRepo) FindByID(_ context.Context, id int64) (*contact.Address, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAddressRepo) Save(_ context.Context, address *contact.Address) (*contact.Address, error) {
	cp := *address
	if cp.ID == 0 {
		f.nextID++
		cp.ID = f.nextID
	}
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

type fakePhoneRepo struct {
	byID   map[int64]*contact.Phone
	nextID int64
}

func newFakePhoneRepo() *fakePhoneRepo {
	return &fakePhoneRepo{byID: make(map[int64]*contact.Phone)}
}

func (f *fakePhoneRepo) FindByID(_ context.Context, id int64) (*contact.Phone, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePhoneRepo) Save(_ context.Context, phone *contact.Phone) (*contact.Phone, error) {
	cp := *phone
	if cp.ID == 0 {
		f.nextID++
		cp.ID = f.nextID
	}
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

type testEnv struct {
	svc       *Service
	users     *fakeUserRepo
	addresses *fakeAddressRepo
	phones    *fakePhoneRepo
	tokens    auth.TokenService
	hasher    auth.PasswordHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewPasetoService(testPasetoKey, time.Minute)
	if err != nil {
		t.Fatalf("NewPasetoService: %v", err)
	}

	users := newFakeUserRepo()
	addresses := newFakeAddressRepo()
	phones := newFakePhoneRepo()
	hasher := auth.NewArgon2Hasher()

	return &testEnv{
		svc:       NewService(users, addresses, phones, hasher, tokens, logging.NewLogger(true)),
		users:     users,
		addresses: addresses,
		phones:    phones,
		tokens:    tokens,
		hasher:    hasher,
	}
}

// --- registration ---

func TestRegister_CreatesUserWithHashedPassword(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if created.ID == 0 {
		t.Error("expected a server-assigned id")
	}
	if created.PasswordHash == "password-1" || created.PasswordHash == "" {
		t.Errorf("password hash = %q, want a non-empty digest distinct from the plaintext", created.PasswordHash)
	}
	if !env.hasher.Verify("password-1", created.PasswordHash) {
		t.Error("stored hash does not verify against the registered password")
	}
	if len(created.Addresses) != 0 || len(created.Phones) != 0 {
		t.Error("new user should start with empty address and phone lists")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := env.svc.Register(context.Background(), "Bea", "ana@x.com", "password-2")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("second Register = %v, want ErrDuplicateEmail", err)
	}
}

func TestRegister_LostRaceStillConflicts(t *testing.T) {
	env := newTestEnv(t)

	// The pre-check misses the concurrent insert; the storage-level
	// uniqueness violation must still surface as the conflict outcome.
	env.users.existsFn = func(context.Context, string) (bool, error) {
		return false, nil
	}
	env.users.saveFn = func(context.Context, *User) (*User, error) {
		return nil, ErrDuplicateEmail
	}

	_, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Register under lost race = %v, want ErrDuplicateEmail", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty email", "", "password-1", ErrEmailRequired},
		{"bad email", "not-an-email", "password-1", ErrInvalidEmailFormat},
		{"empty password", "ana@x.com", "", ErrPasswordRequired},
		{"short password", "ana@x.com", "short", ErrPasswordTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Register(context.Background(), "Ana", tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Errorf("Register = %v, want %v", err, tc.want)
			}
		})
	}
}

// --- login ---

func TestLogin_ReturnsVerifiableToken(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	subject, err := env.tokens.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if subject != "ana@x.com" {
		t.Errorf("token subject = %q, want %q", subject, "ana@x.com")
	}
}

func TestLogin_FailuresCollapseToOneError(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Unknown email and wrong password must be indistinguishable.
	if _, err := env.svc.Login(context.Background(), "nobody@x.com", "password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown email) = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.svc.Login(context.Background(), "ana@x.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) = %v, want ErrInvalidCredentials", err)
	}
}

// --- profile updates ---

func TestUpdateProfile_NilPasswordKeepsHash(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	name := "Ana Maria"
	updated, err := env.svc.UpdateProfile(context.Background(), token, Patch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if updated.Name != "Ana Maria" {
		t.Errorf("name = %q, want %q", updated.Name, "Ana Maria")
	}
	if updated.PasswordHash != created.PasswordHash {
		t.Error("nil password patch must leave the stored hash unchanged")
	}
	if _, err := env.svc.Login(context.Background(), "ana@x.com", "password-1"); err != nil {
		t.Errorf("old password no longer logs in after a no-password patch: %v", err)
	}
}

func TestUpdateProfile_NewPasswordReplacesHash(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	newPassword := "password-2"
	if _, err := env.svc.UpdateProfile(context.Background(), token, Patch{Password: &newPassword}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if _, err := env.svc.Login(context.Background(), "ana@x.com", "password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still verifies after replacement: %v", err)
	}
	if _, err := env.svc.Login(context.Background(), "ana@x.com", "password-2"); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}
}

func TestUpdateProfile_TokenForDeletedUser(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := env.svc.Delete(context.Background(), "ana@x.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	name := "Ghost"
	if _, err := env.svc.UpdateProfile(context.Background(), token, Patch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProfile with a token for a deleted user = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfile_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Same key, negative lifetime: an already-expired token.
	expiredIssuer, err := auth.NewPasetoService(testPasetoKey, -time.Minute)
	if err != nil {
		t.Fatalf("NewPasetoService: %v", err)
	}
	token, err := expiredIssuer.CreateToken("ana@x.com")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	name := "Ana"
	if _, err := env.svc.UpdateProfile(context.Background(), token, Patch{Name: &name}); !errors.Is(err, auth.ErrExpiredToken) {
		t.Errorf("UpdateProfile with expired token = %v, want ErrExpiredToken", err)
	}
}

// --- owned resources ---

func TestRegisterAddress_StampsOwnerFromToken(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Payload claims a foreign owner and a preset id; both must be discarded.
	saved, err := env.svc.RegisterAddress(context.Background(), token, contact.Address{
		ID:     42,
		Street: "Rua A",
		UserID: 999,
	})
	if err != nil {
		t.Fatalf("RegisterAddress: %v", err)
	}

	if saved.UserID != created.ID {
		t.Errorf("address owner = %d, want caller id %d", saved.UserID, created.ID)
	}
	if saved.ID == 42 {
		t.Error("client-supplied id must not survive creation")
	}
	if saved.Street != "Rua A" {
		t.Errorf("street = %q, want %q", saved.Street, "Rua A")
	}
}

func TestRegisterPhone_StampsOwnerFromToken(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	saved, err := env.svc.RegisterPhone(context.Background(), token, contact.Phone{
		Number:   "987654321",
		AreaCode: "11",
		UserID:   999,
	})
	if err != nil {
		t.Fatalf("RegisterPhone: %v", err)
	}

	if saved.UserID != created.ID {
		t.Errorf("phone owner = %d, want caller id %d", saved.UserID, created.ID)
	}
}

func TestUpdateAddress_OwnerMatchRequired(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := env.svc.Register(context.Background(), "Bea", "bea@x.com", "password-2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	anaToken, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	beaToken, err := env.svc.Login(context.Background(), "bea@x.com", "password-2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	anaAddress, err := env.svc.RegisterAddress(context.Background(), anaToken, contact.Address{Street: "Rua A"})
	if err != nil {
		t.Fatalf("RegisterAddress: %v", err)
	}

	street := "Rua B"
	patch := contact.AddressPatch{Street: &street}

	// Another user's address must be indistinguishable from a missing one.
	if _, err := env.svc.UpdateAddress(context.Background(), beaToken, anaAddress.ID, patch); !errors.Is(err, contact.ErrNotFound) {
		t.Errorf("UpdateAddress by non-owner = %v, want ErrNotFound", err)
	}
	if _, err := env.svc.UpdateAddress(context.Background(), anaToken, 12345, patch); !errors.Is(err, contact.ErrNotFound) {
		t.Errorf("UpdateAddress with unknown id = %v, want ErrNotFound", err)
	}

	updated, err := env.svc.UpdateAddress(context.Background(), anaToken, anaAddress.ID, patch)
	if err != nil {
		t.Fatalf("UpdateAddress by owner: %v", err)
	}
	if updated.Street != "Rua B" {
		t.Errorf("street = %q, want %q", updated.Street, "Rua B")
	}
	if updated.UserID != anaAddress.UserID {
		t.Error("owner must not change on update")
	}
}

func TestUpdateAddress_PartialPatch(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	saved, err := env.svc.RegisterAddress(context.Background(), token, contact.Address{
		Street:     "Rua A",
		Number:     10,
		City:       "Sao Paulo",
		State:      "SP",
		PostalCode: "01001-000",
	})
	if err != nil {
		t.Fatalf("RegisterAddress: %v", err)
	}

	number := int64(22)
	updated, err := env.svc.UpdateAddress(context.Background(), token, saved.ID, contact.AddressPatch{Number: &number})
	if err != nil {
		t.Fatalf("UpdateAddress: %v", err)
	}

	if updated.Number != 22 {
		t.Errorf("number = %d, want 22", updated.Number)
	}
	if updated.Street != "Rua A" || updated.City != "Sao Paulo" || updated.State != "SP" || updated.PostalCode != "01001-000" {
		t.Error("fields absent from the patch must keep their stored values")
	}
}

func TestUpdatePhone_OwnerMatchRequired(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := env.svc.Register(context.Background(), "Bea", "bea@x.com", "password-2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	anaToken, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	beaToken, err := env.svc.Login(context.Background(), "bea@x.com", "password-2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	anaPhone, err := env.svc.RegisterPhone(context.Background(), anaToken, contact.Phone{Number: "987654321", AreaCode: "11"})
	if err != nil {
		t.Fatalf("RegisterPhone: %v", err)
	}

	number := "123456789"
	if _, err := env.svc.UpdatePhone(context.Background(), beaToken, anaPhone.ID, contact.PhonePatch{Number: &number}); !errors.Is(err, contact.ErrNotFound) {
		t.Errorf("UpdatePhone by non-owner = %v, want ErrNotFound", err)
	}

	updated, err := env.svc.UpdatePhone(context.Background(), anaToken, anaPhone.ID, contact.PhonePatch{Number: &number})
	if err != nil {
		t.Fatalf("UpdatePhone by owner: %v", err)
	}
	if updated.Number != "123456789" {
		t.Errorf("number = %q, want %q", updated.Number, "123456789")
	}
	if updated.AreaCode != "11" {
		t.Error("area code absent from the patch must keep its stored value")
	}
}

// --- delete ---

func TestDelete_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := env.svc.Delete(context.Background(), "ana@x.com"); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := env.svc.Delete(context.Background(), "ana@x.com"); err != nil {
		t.Errorf("second Delete = %v, want nil", err)
	}
	if err := env.svc.Delete(context.Background(), "never-existed@x.com"); err != nil {
		t.Errorf("Delete of unknown email = %v, want nil", err)
	}
}

// --- end to end ---

func TestScenario_RegisterLoginAddressConflict(t *testing.T) {
	env := newTestEnv(t)

	ana, err := env.svc.Register(context.Background(), "Ana", "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := env.svc.Login(context.Background(), "ana@x.com", "password-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	address, err := env.svc.RegisterAddress(context.Background(), token, contact.Address{Street: "Rua A"})
	if err != nil {
		t.Fatalf("RegisterAddress: %v", err)
	}
	if address.UserID != ana.ID {
		t.Errorf("address owner = %d, want %d", address.UserID, ana.ID)
	}

	if _, err := env.svc.Register(context.Background(), "Bea", "ana@x.com", "password-2"); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Register with taken email = %v, want ErrDuplicateEmail", err)
	}
}
