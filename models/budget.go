package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget period constants
const (
	BudgetPeriodWeekly  = "weekly"
	BudgetPeriodMonthly = "monthly"
	BudgetPeriodYearly  = "yearly"
)

// Budget represents a spending budget denominated in a single currency.
type Budget struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"-"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Currency   string          `gorm:"size:3;not null" json:"currency"`
	Categories []string        `gorm:"serializer:json" json:"categories"`
	Period     string          `gorm:"size:10;default:'monthly'" json:"period"`
	StartDate  *time.Time      `json:"start_date"`
	EndDate    *time.Time      `json:"end_date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsValidBudgetPeriod checks if the period is valid
func IsValidBudgetPeriod(p string) bool {
	return p == BudgetPeriodWeekly || p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// MigrateBudgetModels runs database migrations for budget models
func MigrateBudgetModels(db *gorm.DB) error {
	return db.AutoMigrate(&Budget{})
}
