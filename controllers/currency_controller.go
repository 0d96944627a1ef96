package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack_backend/services"
)

// CurrencyController handles exchange rate and conversion requests.
type CurrencyController struct {
	currency *services.CurrencyService
}

// NewCurrencyController creates a new currency controller.
func NewCurrencyController(currency *services.CurrencyService) *CurrencyController {
	return &CurrencyController{currency: currency}
}

// convertRequest is the conversion payload.
type convertRequest struct {
	From   string          `json:"from" binding:"required"`
	To     string          `json:"to" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// Rates returns the current rate table for a base currency
// GET /api/v1/currency/rates?base=USD
func (cc *CurrencyController) Rates(c *gin.Context) {
	base := c.DefaultQuery("base", "USD")

	result, err := cc.currency.GetLatestRates(c.Request.Context(), base)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, result)
}

// SpecificRate returns the latest rate for one pair
// GET /api/v1/currency/rates/:base/:target/latest
func (cc *CurrencyController) SpecificRate(c *gin.Context) {
	base := strings.ToUpper(c.Param("base"))
	target := strings.ToUpper(c.Param("target"))

	if base == target {
		ok(c, gin.H{"base": base, "target": target, "rate": decimal.NewFromInt(1), "source": "identity"})
		return
	}

	rate, source, err := cc.currency.GetRate(c.Request.Context(), base, target)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"base":   base,
		"target": target,
		"rate":   rate.Round(5),
		"source": source,
	})
}

// History returns stored rates for a pair
// GET /api/v1/currency/rates/:base/:target/history?days=30
func (cc *CurrencyController) History(c *gin.Context) {
	base := c.Param("base")
	target := c.Param("target")
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid days parameter")
		return
	}

	points, err := cc.currency.HistoricalRates(c.Request.Context(), base, target, days)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"base":   strings.ToUpper(base),
		"target": strings.ToUpper(target),
		"days":   days,
		"rates":  points,
	})
}

// Convert converts an amount between currencies
// POST /api/v1/currency/convert
func (cc *CurrencyController) Convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.EqualFold(req.From, req.To) {
		fail(c, http.StatusBadRequest, "From and to currencies cannot be the same")
		return
	}

	result, err := cc.currency.Convert(c.Request.Context(), req.From, req.To, req.Amount)
	if err != nil {
		failErr(c, err)
		return
	}
	// Display rounding only; storage keeps full precision.
	ok(c, gin.H{
		"from":             result.From,
		"to":               result.To,
		"original_amount":  result.Amount,
		"converted_amount": result.ConvertedAmount.Round(2),
		"rate":             result.Rate.Round(5),
		"source":           result.Source,
	})
}

// Supported lists the currencies the system can serve
// GET /api/v1/currency/supported
func (cc *CurrencyController) Supported(c *gin.Context) {
	currencies, err := cc.currency.SupportedCurrencies(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{
		"currencies": currencies,
		"count":      len(currencies),
	})
}
