package cep

import (
	"context"
	"errors"
	"testing"

	"github.com/danielags/usuario-api/internal/logging"
)

type mockClient struct {
	lookupFn func(ctx context.Context, cep string) (*Data, error)
	calls    int
}

func (m *mockClient) Lookup(ctx context.Context, cep string) (*Data, error) {
	m.calls++
	if m.lookupFn != nil {
		return m.lookupFn(ctx, cep)
	}
	return nil, nil
}

type mapCache struct {
	entries map[string]*Data
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*Data)}
}

func (c *mapCache) Get(_ context.Context, cep string) (*Data, error) {
	if data, ok := c.entries[cep]; ok {
		return data, nil
	}
	return nil, errCacheMiss
}

func (c *mapCache) Set(_ context.Context, cep string, data *Data) error {
	c.entries[cep] = data
	return nil
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain digits", "01001000", "01001000", false},
		{"hyphenated", "01001-000", "01001000", false},
		{"with spaces", " 01001 000 ", "01001000", false},
		{"too short", "0100100", "", true},
		{"too long", "010010001", "", true},
		{"letters", "01001abc", "", true},
		{"empty", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCEP) {
					t.Errorf("Normalize(%q) error = %v, want ErrInvalidCEP", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLookup_InvalidCEPSkipsClient(t *testing.T) {
	client := &mockClient{}
	svc := NewService(client, newMapCache(), logging.NewLogger(true))

	if _, err := svc.Lookup(context.Background(), "not-a-cep"); !errors.Is(err, ErrInvalidCEP) {
		t.Errorf("Lookup = %v, want ErrInvalidCEP", err)
	}
	if client.calls != 0 {
		t.Errorf("client called %d times for a malformed cep, want 0", client.calls)
	}
}

func TestLookup_UnknownCEP(t *testing.T) {
	client := &mockClient{
		lookupFn: func(context.Context, string) (*Data, error) {
			return nil, ErrNotFound
		},
	}
	svc := NewService(client, newMapCache(), logging.NewLogger(true))

	if _, err := svc.Lookup(context.Background(), "99999-999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup = %v, want ErrNotFound", err)
	}
}

func TestLookup_CachesResults(t *testing.T) {
	client := &mockClient{
		lookupFn: func(_ context.Context, cep string) (*Data, error) {
			return &Data{Cep: "01001-000", Localidade: "São Paulo", UF: "SP"}, nil
		},
	}
	svc := NewService(client, newMapCache(), logging.NewLogger(true))

	first, err := svc.Lookup(context.Background(), "01001-000")
	if err != nil {
		t.Fatalf("first Lookup: %v", err)
	}

	// Same CEP in a different spelling: served from cache, no second call.
	second, err := svc.Lookup(context.Background(), "01001000")
	if err != nil {
		t.Fatalf("second Lookup: %v", err)
	}

	if client.calls != 1 {
		t.Errorf("client called %d times, want 1", client.calls)
	}
	if first.Localidade != second.Localidade || second.Localidade != "São Paulo" {
		t.Errorf("cached result mismatch: %+v vs %+v", first, second)
	}
}

func TestLookup_NoCacheStillWorks(t *testing.T) {
	client := &mockClient{
		lookupFn: func(context.Context, string) (*Data, error) {
			return &Data{Cep: "01001-000"}, nil
		},
	}
	svc := NewService(client, nil, logging.NewLogger(true))

	if _, err := svc.Lookup(context.Background(), "01001-000"); err != nil {
		t.Errorf("Lookup without cache: %v", err)
	}
}
