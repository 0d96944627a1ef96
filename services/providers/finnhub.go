package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const finnhubAPIURL = "https://finnhub.io/api/v1/quote"

// Finnhub fetches stock quotes from finnhub.io. Second leg of the stock
// chain so quote resolution has real failover.
type Finnhub struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// finnhubQuoteResponse mirrors the /quote payload.
type finnhubQuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

// NewFinnhub creates the adapter.
func NewFinnhub(apiKey string) *Finnhub {
	return &Finnhub{
		apiKey:  apiKey,
		baseURL: finnhubAPIURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (p *Finnhub) Name() string {
	return "finnhub"
}

// FetchQuote fetches the current quote for symbol. Finnhub returns zeros for
// unknown symbols, which counts as a malformed response.
func (p *Finnhub) FetchQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	if p.apiKey == "" {
		return nil, errors.New("FINNHUB_API_KEY not configured")
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("token", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New("rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload finnhubQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if payload.Current <= 0 {
		return nil, fmt.Errorf("no data found for symbol %s", symbol)
	}

	return &StockQuote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(payload.Current),
		Open:          decimal.NewFromFloat(payload.Open),
		High:          decimal.NewFromFloat(payload.High),
		Low:           decimal.NewFromFloat(payload.Low),
		Change:        decimal.NewFromFloat(payload.Change),
		ChangePercent: decimal.NewFromFloat(payload.ChangePercent),
		PreviousClose: decimal.NewNullDecimal(decimal.NewFromFloat(payload.PreviousClose)),
	}, nil
}

// withBaseURL points the adapter at a test server.
func (p *Finnhub) withBaseURL(url string) *Finnhub {
	p.baseURL = url
	return p
}
