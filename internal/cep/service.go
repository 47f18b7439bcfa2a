package cep

import (
	"context"
	"strings"

	"github.com/danielags/usuario-api/internal/logging"
)

// Service normalizes and validates CEPs before hitting the lookup client,
// serving repeated lookups from cache.
type Service struct {
	client Client
	cache  Cache
	logger *logging.Logger
}

func NewService(client Client, cache Cache, logger *logging.Logger) *Service {
	return &Service{client: client, cache: cache, logger: logger}
}

// Normalize strips spaces and hyphens from a CEP and validates that exactly
// 8 digits remain.
func Normalize(cep string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(cep)

	if len(cleaned) != 8 {
		return "", ErrInvalidCEP
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", ErrInvalidCEP
		}
	}

	return cleaned, nil
}

// Lookup returns the address data for a CEP. Malformed input fails with
// ErrInvalidCEP before any network call; unknown CEPs fail with ErrNotFound.
// Cache failures are logged and degrade to a direct lookup.
func (s *Service) Lookup(ctx context.Context, cep string) (*Data, error) {
	normalized, err := Normalize(cep)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, normalized)
		if err == nil {
			return cached, nil
		}
		if err != errCacheMiss {
			s.logger.Warn("cep cache read failed", "cep", normalized, "error", err.Error())
		}
	}

	data, err := s.client.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, normalized, data); err != nil {
			s.logger.Warn("cep cache write failed", "cep", normalized, "error", err.Error())
		}
	}

	return data, nil
}
