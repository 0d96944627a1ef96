package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const alphaVantageAPIURL = "https://www.alphavantage.co/query"

// AlphaVantage fetches stock quotes and symbol search results from
// alphavantage.co. First leg of the stock chain; also the symbol searcher.
type AlphaVantage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAlphaVantage creates the adapter.
func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: alphaVantageAPIURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (p *AlphaVantage) Name() string {
	return "alpha-vantage"
}

// alphaQuoteResponse mirrors the GLOBAL_QUOTE payload. Every field comes back
// as a string.
type alphaQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

// FetchQuote fetches the current quote for symbol.
func (p *AlphaVantage) FetchQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	if p.apiKey == "" {
		return nil, errors.New("ALPHA_VANTAGE_API_KEY not configured")
	}

	query := url.Values{}
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)
	query.Set("apikey", p.apiKey)

	var payload alphaQuoteResponse
	if err := p.getJSON(ctx, query, &payload); err != nil {
		return nil, err
	}

	// A rate-limited key returns 200 with a Note instead of data.
	if payload.Note != "" && strings.Contains(payload.Note, "API call frequency") {
		return nil, errors.New("rate limit exceeded")
	}
	quote := payload.GlobalQuote
	if len(quote) == 0 {
		return nil, fmt.Errorf("no data found for symbol %s", symbol)
	}

	volume, _ := strconv.ParseInt(quote["06. volume"], 10, 64)
	changePercent := strings.TrimSuffix(quote["10. change percent"], "%")

	result := &StockQuote{
		Symbol:           quote["01. symbol"],
		Open:             parseDecimal(quote["02. open"]),
		High:             parseDecimal(quote["03. high"]),
		Low:              parseDecimal(quote["04. low"]),
		Price:            parseDecimal(quote["05. price"]),
		Volume:           volume,
		LatestTradingDay: quote["07. latest trading day"],
		Change:           parseDecimal(quote["09. change"]),
		ChangePercent:    parseDecimal(changePercent),
	}
	if prev := quote["08. previous close"]; prev != "" {
		result.PreviousClose = decimal.NewNullDecimal(parseDecimal(prev))
	}
	return result, nil
}

// alphaSearchResponse mirrors the SYMBOL_SEARCH payload.
type alphaSearchResponse struct {
	BestMatches []map[string]string `json:"bestMatches"`
}

// SearchSymbols searches for symbols matching query, top 10 matches.
func (p *AlphaVantage) SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error) {
	if p.apiKey == "" {
		return nil, errors.New("ALPHA_VANTAGE_API_KEY not configured")
	}

	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", query)
	params.Set("apikey", p.apiKey)

	var payload alphaSearchResponse
	if err := p.getJSON(ctx, params, &payload); err != nil {
		return nil, err
	}

	matches := payload.BestMatches
	if len(matches) > 10 {
		matches = matches[:10]
	}

	results := make([]SymbolMatch, 0, len(matches))
	for _, m := range matches {
		results = append(results, SymbolMatch{
			Symbol:     m["1. symbol"],
			Name:       m["2. name"],
			Type:       m["3. type"],
			Region:     m["4. region"],
			Currency:   m["8. currency"],
			MatchScore: m["9. matchScore"],
		})
	}
	return results, nil
}

func (p *AlphaVantage) getJSON(ctx context.Context, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// withBaseURL points the adapter at a test server.
func (p *AlphaVantage) withBaseURL(url string) *AlphaVantage {
	p.baseURL = url
	return p
}
