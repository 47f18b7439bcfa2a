package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenService issues and verifies bearer tokens asserting a subject email.
type TokenService interface {
	CreateToken(subjectEmail string) (string, error)
	VerifyToken(tokenStr string) (string, error)
}

// PasetoService handles PASETO token creation and validation.
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305); the key is
// injected at construction and read-only afterwards.
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

func NewPasetoService(symmetricKey []byte, duration time.Duration) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		duration:     duration,
	}, nil
}

// CreateToken generates a new PASETO v4.local token carrying the subject
// email, valid for the configured duration.
func (s *PasetoService) CreateToken(subjectEmail string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.duration))
	token.SetSubject(subjectEmail)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken validates a PASETO v4.local token and returns the subject email.
func (s *PasetoService) VerifyToken(tokenStr string) (string, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	subject, err := token.GetSubject()
	if err != nil {
		return "", ErrInvalidToken
	}

	return subject, nil
}
