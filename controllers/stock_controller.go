package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fintrack_backend/services"
)

// StockController handles stock market data requests.
type StockController struct {
	stocks *services.StockService
}

// NewStockController creates a new stock controller.
func NewStockController(stocks *services.StockService) *StockController {
	return &StockController{stocks: stocks}
}

// Quote returns the current quote for a symbol
// GET /api/v1/stock/quote/:symbol
func (sc *StockController) Quote(c *gin.Context) {
	symbol := c.Param("symbol")
	if strings.TrimSpace(symbol) == "" {
		fail(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	quote, err := sc.stocks.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, quote)
}

// Historical returns stored quotes for a symbol
// GET /api/v1/stock/historical/:symbol?days=30
func (sc *StockController) Historical(c *gin.Context) {
	symbol := c.Param("symbol")
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid days parameter")
		return
	}

	points, err := sc.stocks.HistoricalPrices(c.Request.Context(), symbol, days)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"symbol": strings.ToUpper(symbol),
		"days":   days,
		"prices": points,
	})
}

// Search looks up symbols by free text
// GET /api/v1/stock/search/:query
func (sc *StockController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Param("query"))
	if len(query) < 2 {
		fail(c, http.StatusBadRequest, "Query must be at least 2 characters")
		return
	}

	matches, err := sc.stocks.Search(c.Request.Context(), query)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"query":   query,
		"matches": matches,
	})
}

// Trending returns quotes for the popular watch list
// GET /api/v1/stock/trending
func (sc *StockController) Trending(c *gin.Context) {
	quotes, err := sc.stocks.TrendingStocks(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, quotes)
}

// MarketIndices returns the major index quotes
// GET /api/v1/stock/market-indices
func (sc *StockController) MarketIndices(c *gin.Context) {
	quotes, err := sc.stocks.MarketIndices(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, quotes)
}
