package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateRecord is one observed exchange rate of a base/target currency pair.
// Records are append-only; a scheduled reaper deletes records older than the
// retention window.
type RateRecord struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	BaseCurrency   string          `gorm:"size:3;index:idx_rate_pair_time" json:"base_currency"`
	TargetCurrency string          `gorm:"size:3;index:idx_rate_pair_time" json:"target_currency"`
	Rate           decimal.Decimal `gorm:"type:decimal(19,8)" json:"rate"`
	Timestamp      time.Time       `gorm:"index:idx_rate_pair_time;index" json:"timestamp"`
	Source         string          `gorm:"size:50" json:"source"`
}

// StockPriceRecord is one observed stock quote. Append-only, same reaper as
// rates; history queries window by most-recent count rather than a day cutoff.
type StockPriceRecord struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	Symbol           string              `gorm:"size:20;index:idx_price_symbol_time" json:"symbol"`
	Price            decimal.Decimal     `gorm:"type:decimal(15,4)" json:"price"`
	Open             decimal.Decimal     `gorm:"type:decimal(15,4)" json:"open"`
	High             decimal.Decimal     `gorm:"type:decimal(15,4)" json:"high"`
	Low              decimal.Decimal     `gorm:"type:decimal(15,4)" json:"low"`
	Volume           int64               `json:"volume"`
	Change           decimal.Decimal     `gorm:"type:decimal(10,4)" json:"change"`
	ChangePercent    decimal.Decimal     `gorm:"type:decimal(10,4)" json:"change_percent"`
	Timestamp        time.Time           `gorm:"index:idx_price_symbol_time;index" json:"timestamp"`
	CompanyName      string              `gorm:"size:255" json:"company_name,omitempty"`
	Source           string              `gorm:"size:50" json:"source,omitempty"`
	LatestTradingDay string              `gorm:"size:20" json:"latest_trading_day,omitempty"`
	PreviousClose    decimal.NullDecimal `gorm:"type:decimal(15,4)" json:"previous_close"`
}

// MigrateMarketModels runs database migrations for market data models
func MigrateMarketModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&RateRecord{},
		&StockPriceRecord{},
	)
}
