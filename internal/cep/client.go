// Package cep looks up Brazilian postal codes through the ViaCEP API.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

var (
	ErrInvalidCEP = errors.New("cep must be exactly 8 digits")
	ErrNotFound   = errors.New("cep not found")
)

// Data is the address record returned by ViaCEP.
type Data struct {
	Cep         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Unidade     string `json:"unidade"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Estado      string `json:"estado"`
	Regiao      string `json:"regiao"`
	IBGE        string `json:"ibge"`
	GIA         string `json:"gia"`
	DDD         string `json:"ddd"`
	Siafi       string `json:"siafi"`
}

// Client fetches address data for a normalized CEP.
type Client interface {
	Lookup(ctx context.Context, cep string) (*Data, error)
}

// viaCepResponse adds the error flag ViaCEP sets on unknown CEPs. The API
// answers 200 with {"erro": true} rather than 404.
type viaCepResponse struct {
	Data
	Erro bool `json:"erro"`
}

// HTTPClient calls ViaCEP over an SSRF-guarded HTTP client. The guard blocks
// private, loopback, link-local and metadata addresses at the dialer level,
// so a hostile VIACEP_BASE_URL cannot reach internal services.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &HTTPClient{
		baseURL: baseURL,
		client:  safeurl.Client(config).Client,
	}
}

// Lookup fetches the address for a normalized 8-digit CEP.
func (c *HTTPClient) Lookup(ctx context.Context, cep string) (*Data, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, cep)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build viacep request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viacep request failed: %w", err)
	}
	defer resp.Body.Close()

	// ViaCEP answers 400 for CEPs it considers malformed
	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidCEP
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viacep returned status %d", resp.StatusCode)
	}

	var body viaCepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode viacep response: %w", err)
	}

	if body.Erro {
		return nil, ErrNotFound
	}

	return &body.Data, nil
}
