package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack_backend/services/cache"
)

// Cache TTLs and data windows for currency data.
const (
	ratesCacheTTL      = time.Hour
	rateFallbackWindow = 24 * time.Hour
	rateRetention      = 30 * 24 * time.Hour
)

// refreshBases are the bases the hourly refresh keeps warm.
var refreshBases = []string{"USD", "EUR", "GBP", "JPY"}

// defaultCurrencies is returned by SupportedCurrencies when the store has
// no recent observations to enumerate.
var defaultCurrencies = []string{
	"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
	"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "INR", "BRL", "ZAR", "PLN",
}

// rateResolver is the chain surface the service needs.
type rateResolver interface {
	Resolve(ctx context.Context, base string) (map[string]decimal.Decimal, string, error)
}

// RatesResult is a resolved rate table for one base currency.
type RatesResult struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	Source    string                     `json:"source"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// ConversionResult is the outcome of a currency conversion.
type ConversionResult struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	Amount          decimal.Decimal `json:"amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	Rate            decimal.Decimal `json:"rate"`
	Source          string          `json:"source"`
}

// CurrencyService resolves exchange rates through the provider chain with a
// cache in front and the rate store behind as a stale fallback.
type CurrencyService struct {
	chain rateResolver
	cache cache.Cache
	store RateStore
}

// NewCurrencyService creates the currency service.
func NewCurrencyService(chain rateResolver, c cache.Cache, store RateStore) *CurrencyService {
	return &CurrencyService{chain: chain, cache: c, store: store}
}

// normalizeCurrency uppercases and validates a 3-letter currency code.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, code)
		}
	}
	return code, nil
}

// GetLatestRates returns the current rate table for base: cache first, then
// the provider chain, then records stored within the last 24 hours. A fresh
// chain result is cached and persisted; persistence runs in the background
// and its failure is only logged. Fallback data is served as-is, never
// re-cached or re-persisted.
func (s *CurrencyService) GetLatestRates(ctx context.Context, base string) (*RatesResult, error) {
	base, err := normalizeCurrency(base)
	if err != nil {
		return nil, err
	}

	cacheKey := "rates:" + base
	if payload, ok := s.cache.Get(ctx, cacheKey); ok {
		var result RatesResult
		if err := json.Unmarshal(payload, &result); err == nil {
			return &result, nil
		}
		log.Printf("Discarding corrupt cache entry %s", cacheKey)
	}

	rates, source, err := s.chain.Resolve(ctx, base)
	if err == nil {
		result := &RatesResult{
			Base:      base,
			Rates:     rates,
			Source:    source,
			FetchedAt: time.Now(),
		}
		if payload, merr := json.Marshal(result); merr == nil {
			s.cache.Set(ctx, cacheKey, payload, ratesCacheTTL)
		}
		go func() {
			persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if perr := s.store.SaveRates(persistCtx, base, rates, source); perr != nil {
				log.Printf("Failed to persist rates for %s: %v", base, perr)
			}
		}()
		return result, nil
	}

	log.Printf("All rate providers failed for %s, falling back to stored rates: %v", base, err)
	stored, serr := s.store.LatestRates(ctx, base, time.Now().Add(-rateFallbackWindow))
	if serr != nil {
		log.Printf("Rate store fallback failed for %s: %v", base, serr)
		return nil, fmt.Errorf("%w: no live or stored rates for %s", ErrDataUnavailable, base)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: no live or stored rates for %s", ErrDataUnavailable, base)
	}
	return &RatesResult{
		Base:      base,
		Rates:     stored,
		Source:    "database",
		FetchedAt: time.Now(),
	}, nil
}

// GetRate returns the rate of one unit of from expressed in to.
func (s *CurrencyService) GetRate(ctx context.Context, from, to string) (decimal.Decimal, string, error) {
	from, err := normalizeCurrency(from)
	if err != nil {
		return decimal.Zero, "", err
	}
	to, err = normalizeCurrency(to)
	if err != nil {
		return decimal.Zero, "", err
	}
	if from == to {
		return decimal.NewFromInt(1), "identity", nil
	}

	result, err := s.GetLatestRates(ctx, from)
	if err != nil {
		return decimal.Zero, "", err
	}
	rate, ok := result.Rates[to]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("%w: no rate %s/%s", ErrDataUnavailable, from, to)
	}
	return rate, result.Source, nil
}

// Convert converts amount from one currency to another.
func (s *CurrencyService) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*ConversionResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	from, err := normalizeCurrency(from)
	if err != nil {
		return nil, err
	}
	to, err = normalizeCurrency(to)
	if err != nil {
		return nil, err
	}

	if from == to {
		return &ConversionResult{
			From:            from,
			To:              to,
			Amount:          amount,
			ConvertedAmount: amount,
			Rate:            decimal.NewFromInt(1),
			Source:          "identity",
		}, nil
	}

	rate, source, err := s.GetRate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{
		From:            from,
		To:              to,
		Amount:          amount,
		ConvertedAmount: amount.Mul(rate),
		Rate:            rate,
		Source:          source,
	}, nil
}

// HistoricalRates returns stored rates for a pair over the last days days,
// newest first. History reads the store only, never the providers.
func (s *CurrencyService) HistoricalRates(ctx context.Context, base, target string, days int) ([]RatePoint, error) {
	base, err := normalizeCurrency(base)
	if err != nil {
		return nil, err
	}
	target, err = normalizeCurrency(target)
	if err != nil {
		return nil, err
	}
	if days < 1 || days > 365 {
		return nil, fmt.Errorf("%w: days must be between 1 and 365", ErrInvalidDateRange)
	}

	records, err := s.store.History(ctx, base, target, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("failed to load rate history for %s/%s: %w", base, target, err)
	}
	points := make([]RatePoint, 0, len(records))
	for _, r := range records {
		points = append(points, RatePoint{
			Rate:      r.Rate,
			Timestamp: r.Timestamp,
			Source:    r.Source,
		})
	}
	return points, nil
}

// RatePoint is one historical rate observation.
type RatePoint struct {
	Rate      decimal.Decimal `json:"rate"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// SupportedCurrencies returns the target currencies observed in the last 24
// hours, or a fixed default list when the store has nothing recent.
func (s *CurrencyService) SupportedCurrencies(ctx context.Context) ([]string, error) {
	targets, err := s.store.RecentTargets(ctx, time.Now().Add(-rateFallbackWindow))
	if err != nil {
		log.Printf("Failed to enumerate recent currencies, using defaults: %v", err)
		return defaultCurrencies, nil
	}
	if len(targets) == 0 {
		return defaultCurrencies, nil
	}
	return targets, nil
}

// RefreshRates fetches fresh rate tables for the standing bases. Each base
// is independent; a failure is logged and the sweep continues.
func (s *CurrencyService) RefreshRates(ctx context.Context) {
	for _, base := range refreshBases {
		if _, err := s.GetLatestRates(ctx, base); err != nil {
			log.Printf("Rate refresh failed for %s: %v", base, err)
			continue
		}
	}
	log.Printf("Rate refresh completed for %d bases", len(refreshBases))
}

// CleanupOldRates deletes rate records older than the retention window.
func (s *CurrencyService) CleanupOldRates(ctx context.Context) error {
	removed, err := s.store.DeleteOlderThan(ctx, time.Now().Add(-rateRetention))
	if err != nil {
		return fmt.Errorf("failed to delete old rate records: %w", err)
	}
	if removed > 0 {
		log.Printf("Deleted %d rate records older than 30 days", removed)
	}
	return nil
}
