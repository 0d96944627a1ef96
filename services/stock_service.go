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
	"fintrack_backend/services/providers"
)

// Cache TTLs and data windows for stock data.
const (
	quoteCacheTTL       = 5 * time.Minute
	searchCacheTTL      = 30 * time.Minute
	quoteFallbackWindow = 24 * time.Hour
	priceRetention      = 30 * 24 * time.Hour
)

// marketIndexSymbols are the indices MarketIndices reports.
var marketIndexSymbols = []string{"^GSPC", "^DJI", "^IXIC"}

// trendingSymbols is the fixed watch list TrendingStocks samples.
var trendingSymbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "JPM"}

// quoteResolver is the chain surface the service needs.
type quoteResolver interface {
	Resolve(ctx context.Context, symbol string) (*providers.StockQuote, error)
}

// QuoteResult is a resolved stock quote plus staleness marker.
type QuoteResult struct {
	providers.StockQuote
	Stale     bool      `json:"stale,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// StockService resolves stock quotes through the provider chain with a cache
// in front and the price store behind as a stale fallback.
type StockService struct {
	chain    quoteResolver
	searcher providers.SymbolSearcher
	cache    cache.Cache
	store    StockPriceStore
}

// NewStockService creates the stock service.
func NewStockService(chain quoteResolver, searcher providers.SymbolSearcher, c cache.Cache, store StockPriceStore) *StockService {
	return &StockService{chain: chain, searcher: searcher, cache: c, store: store}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// GetQuote returns the current quote for symbol: cache first, then the
// provider chain, then the most recent stored quote within 24 hours marked
// stale. Fresh quotes are cached for 5 minutes and persisted in the
// background; persistence failure is only logged.
func (s *StockService) GetQuote(ctx context.Context, symbol string) (*QuoteResult, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrDataUnavailable)
	}

	cacheKey := "quote:" + symbol
	if payload, ok := s.cache.Get(ctx, cacheKey); ok {
		var result QuoteResult
		if err := json.Unmarshal(payload, &result); err == nil {
			return &result, nil
		}
		log.Printf("Discarding corrupt cache entry %s", cacheKey)
	}

	quote, err := s.chain.Resolve(ctx, symbol)
	if err == nil {
		result := &QuoteResult{StockQuote: *quote, FetchedAt: time.Now()}
		if payload, merr := json.Marshal(result); merr == nil {
			s.cache.Set(ctx, cacheKey, payload, quoteCacheTTL)
		}
		go func() {
			persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if perr := s.store.SaveQuote(persistCtx, quote); perr != nil {
				log.Printf("Failed to persist quote for %s: %v", symbol, perr)
			}
		}()
		return result, nil
	}

	log.Printf("All quote providers failed for %s, falling back to stored quote: %v", symbol, err)
	record, serr := s.store.LatestWithin(ctx, symbol, time.Now().Add(-quoteFallbackWindow))
	if serr != nil {
		log.Printf("Price store fallback failed for %s: %v", symbol, serr)
		return nil, fmt.Errorf("%w: no live or stored quote for %s", ErrDataUnavailable, symbol)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no live or stored quote for %s", ErrDataUnavailable, symbol)
	}
	return &QuoteResult{
		StockQuote: providers.StockQuote{
			Symbol:           record.Symbol,
			Price:            record.Price,
			Open:             record.Open,
			High:             record.High,
			Low:              record.Low,
			Volume:           record.Volume,
			Change:           record.Change,
			ChangePercent:    record.ChangePercent,
			PreviousClose:    record.PreviousClose,
			LatestTradingDay: record.LatestTradingDay,
			Source:           "database",
		},
		Stale:     true,
		FetchedAt: record.Timestamp,
	}, nil
}

// HistoricalPrices returns the days most recent stored quotes for symbol,
// newest first. History reads the store only.
func (s *StockService) HistoricalPrices(ctx context.Context, symbol string, days int) ([]PricePoint, error) {
	symbol = normalizeSymbol(symbol)
	if days < 1 || days > 365 {
		return nil, fmt.Errorf("%w: days must be between 1 and 365", ErrInvalidDateRange)
	}

	records, err := s.store.History(ctx, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history for %s: %w", symbol, err)
	}
	points := make([]PricePoint, 0, len(records))
	for _, r := range records {
		points = append(points, PricePoint{
			Price:     r.Price,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Volume:    r.Volume,
			Timestamp: r.Timestamp,
			Source:    r.Source,
		})
	}
	return points, nil
}

// PricePoint is one historical price observation.
type PricePoint struct {
	Price     decimal.Decimal `json:"price"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// MarketIndices returns quotes for the major indices. Per-index failures
// are isolated; an error is returned only when every index fails.
func (s *StockService) MarketIndices(ctx context.Context) ([]QuoteResult, error) {
	results := make([]QuoteResult, 0, len(marketIndexSymbols))
	for _, symbol := range marketIndexSymbols {
		quote, err := s.GetQuote(ctx, symbol)
		if err != nil {
			log.Printf("Failed to fetch index %s: %v", symbol, err)
			continue
		}
		results = append(results, *quote)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no market index data", ErrDataUnavailable)
	}
	return results, nil
}

// Search looks up symbols matching query. Results are cached for 30 minutes
// under the uppercased query.
func (s *StockService) Search(ctx context.Context, query string) ([]providers.SymbolMatch, error) {
	cacheKey := "search:" + strings.ToUpper(strings.TrimSpace(query))
	if payload, ok := s.cache.Get(ctx, cacheKey); ok {
		var matches []providers.SymbolMatch
		if err := json.Unmarshal(payload, &matches); err == nil {
			return matches, nil
		}
		log.Printf("Discarding corrupt cache entry %s", cacheKey)
	}

	matches, err := s.searcher.SearchSymbols(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol search failed: %v", ErrDataUnavailable, err)
	}
	if payload, merr := json.Marshal(matches); merr == nil {
		s.cache.Set(ctx, cacheKey, payload, searchCacheTTL)
	}
	return matches, nil
}

// TrendingStocks returns quotes for the fixed watch list, keeping the first
// five symbols that resolve.
func (s *StockService) TrendingStocks(ctx context.Context) ([]QuoteResult, error) {
	results := make([]QuoteResult, 0, 5)
	for _, symbol := range trendingSymbols {
		if len(results) == 5 {
			break
		}
		quote, err := s.GetQuote(ctx, symbol)
		if err != nil {
			log.Printf("Skipping trending symbol %s: %v", symbol, err)
			continue
		}
		results = append(results, *quote)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no trending stock data", ErrDataUnavailable)
	}
	return results, nil
}

// CleanupOldPrices deletes price records older than the retention window.
func (s *StockService) CleanupOldPrices(ctx context.Context) error {
	removed, err := s.store.DeleteOlderThan(ctx, time.Now().Add(-priceRetention))
	if err != nil {
		return fmt.Errorf("failed to delete old price records: %w", err)
	}
	if removed > 0 {
		log.Printf("Deleted %d price records older than 30 days", removed)
	}
	return nil
}
