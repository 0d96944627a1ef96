// Package providers holds the upstream market data adapters and the ordered
// fallback chains that iterate them. Every upstream failure mode — missing
// credentials, timeout, HTTP error, rate limiting, malformed payload — is
// treated uniformly as "provider unavailable": the chain records the error
// and moves on to the next adapter.
package providers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAllProvidersFailed means every adapter in a chain failed. The wrapped
// error carries the last provider failure for diagnostics.
var ErrAllProvidersFailed = errors.New("all providers failed")

// Per-provider timeout budget. A slow upstream must not stall the chain
// beyond this.
const requestTimeout = 10 * time.Second

// RateProvider fetches the full rate map for a base currency.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// QuoteProvider fetches a single stock quote.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*StockQuote, error)
}

// SymbolSearcher searches for symbols matching a free-text query.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error)
}

// StockQuote is the normalized quote shape returned by all quote providers.
type StockQuote struct {
	Symbol           string              `json:"symbol"`
	Price            decimal.Decimal     `json:"price"`
	Open             decimal.Decimal     `json:"open"`
	High             decimal.Decimal     `json:"high"`
	Low              decimal.Decimal     `json:"low"`
	Volume           int64               `json:"volume"`
	Change           decimal.Decimal     `json:"change"`
	ChangePercent    decimal.Decimal     `json:"change_percent"`
	PreviousClose    decimal.NullDecimal `json:"previous_close"`
	LatestTradingDay string              `json:"latest_trading_day,omitempty"`
	Source           string              `json:"source,omitempty"`
}

// SymbolMatch is one symbol search result.
type SymbolMatch struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Region     string `json:"region"`
	Currency   string `json:"currency"`
	MatchScore string `json:"match_score"`
}

// RateChain attempts each rate provider in order and returns the first
// well-formed result together with the winning provider's name.
type RateChain struct {
	providers []RateProvider
}

// NewRateChain creates an ordered rate provider chain.
func NewRateChain(providers ...RateProvider) *RateChain {
	return &RateChain{providers: providers}
}

// Resolve fetches rates for base, failing over between providers.
func (c *RateChain) Resolve(ctx context.Context, base string) (map[string]decimal.Decimal, string, error) {
	var lastErr error
	for _, p := range c.providers {
		rates, err := c.tryRates(ctx, p, base)
		if err != nil {
			lastErr = err
			log.Printf("Rate provider %s failed for %s: %v", p.Name(), base, err)
			continue
		}
		return rates, p.Name(), nil
	}
	if lastErr == nil {
		lastErr = errors.New("no providers configured")
	}
	return nil, "", joinChainError(lastErr)
}

func (c *RateChain) tryRates(ctx context.Context, p RateProvider, base string) (map[string]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	rates, err := p.FetchRates(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, errors.New("empty rate map")
	}
	return rates, nil
}

// QuoteChain attempts each quote provider in order.
type QuoteChain struct {
	providers []QuoteProvider
}

// NewQuoteChain creates an ordered quote provider chain.
func NewQuoteChain(providers ...QuoteProvider) *QuoteChain {
	return &QuoteChain{providers: providers}
}

// Resolve fetches a quote for symbol, failing over between providers.
func (c *QuoteChain) Resolve(ctx context.Context, symbol string) (*StockQuote, error) {
	var lastErr error
	for _, p := range c.providers {
		quote, err := c.tryQuote(ctx, p, symbol)
		if err != nil {
			lastErr = err
			log.Printf("Quote provider %s failed for %s: %v", p.Name(), symbol, err)
			continue
		}
		quote.Source = p.Name()
		return quote, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no providers configured")
	}
	return nil, joinChainError(lastErr)
}

func (c *QuoteChain) tryQuote(ctx context.Context, p QuoteProvider, symbol string) (*StockQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	quote, err := p.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if quote == nil || quote.Symbol == "" || !quote.Price.IsPositive() {
		return nil, errors.New("malformed quote")
	}
	return quote, nil
}

func joinChainError(lastErr error) error {
	return errors.Join(ErrAllProvidersFailed, lastErr)
}
