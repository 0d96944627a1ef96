package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

const fixerAPIURL = "https://data.fixer.io/api/latest?access_key=%s&base=%s"

// FixerAPI fetches rates from fixer.io. Second leg of the currency chain.
type FixerAPI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// FixerAPIResponse is the upstream payload shape.
type FixerAPIResponse struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

// NewFixerAPI creates the adapter.
func NewFixerAPI(apiKey string) *FixerAPI {
	return &FixerAPI{
		apiKey:  apiKey,
		baseURL: fixerAPIURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (p *FixerAPI) Name() string {
	return "fixer"
}

// FetchRates fetches the full rate table for base.
func (p *FixerAPI) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if p.apiKey == "" {
		return nil, errors.New("FIXER_API_KEY not configured")
	}

	url := fmt.Sprintf(p.baseURL, p.apiKey, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload FixerAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("fixer error %d: %s", payload.Error.Code, payload.Error.Type)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("response missing rates")
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, rate := range payload.Rates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}

// withBaseURL points the adapter at a test server.
func (p *FixerAPI) withBaseURL(url string) *FixerAPI {
	p.baseURL = url
	return p
}
