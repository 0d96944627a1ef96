package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

const exchangeRateAPIURL = "https://v6.exchangerate-api.com/v6/%s/latest/%s"

// ExchangeRateAPI fetches rates from exchangerate-api.com. First leg of the
// currency chain.
type ExchangeRateAPI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ExchangeRateAPIResponse is the upstream payload shape.
type ExchangeRateAPIResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// NewExchangeRateAPI creates the adapter. An empty API key makes every fetch
// fail as "provider unavailable", which the chain skips past.
func NewExchangeRateAPI(apiKey string) *ExchangeRateAPI {
	return &ExchangeRateAPI{
		apiKey:  apiKey,
		baseURL: exchangeRateAPIURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (p *ExchangeRateAPI) Name() string {
	return "exchange-rate-api"
}

// FetchRates fetches the full conversion table for base.
func (p *ExchangeRateAPI) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if p.apiKey == "" {
		return nil, errors.New("EXCHANGE_RATE_API_KEY not configured")
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

	var payload ExchangeRateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(payload.ConversionRates) == 0 {
		return nil, errors.New("response missing conversion rates")
	}

	rates := make(map[string]decimal.Decimal, len(payload.ConversionRates))
	for code, rate := range payload.ConversionRates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}

// withBaseURL points the adapter at a test server.
func (p *ExchangeRateAPI) withBaseURL(url string) *ExchangeRateAPI {
	p.baseURL = url
	return p
}
