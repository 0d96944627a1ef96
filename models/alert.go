package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Alert type constants
const (
	AlertTypeStock    = "STOCK"
	AlertTypeCurrency = "CURRENCY"
)

// Alert condition constants
const (
	AlertConditionAbove = "ABOVE"
	AlertConditionBelow = "BELOW"
)

// Alert represents a one-shot threshold alert on a stock symbol or a
// currency code. A triggered alert is deactivated and keeps the observed
// value and trigger time; it is never evaluated again unless the owner
// re-enables it.
type Alert struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	UserID            uint                `gorm:"index:idx_alert_user_active" json:"user_id"`
	User              User                `gorm:"foreignKey:UserID" json:"-"`
	Type              string              `gorm:"size:10;not null" json:"type"` // STOCK, CURRENCY
	Target            string              `gorm:"size:20;not null" json:"target"`
	Condition         string              `gorm:"size:10;not null" json:"condition"` // ABOVE, BELOW
	Value             decimal.Decimal     `gorm:"type:decimal(15,4)" json:"value"`
	NotificationEmail string              `gorm:"size:255;not null" json:"notification_email"`
	IsActive          bool                `gorm:"default:true;index:idx_alert_user_active;index" json:"is_active"`
	TriggeredAt       *time.Time          `json:"triggered_at"`
	TriggeredValue    decimal.NullDecimal `gorm:"type:decimal(15,4)" json:"triggered_value"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// IsValidAlertType checks if the alert type is valid
func IsValidAlertType(t string) bool {
	return t == AlertTypeStock || t == AlertTypeCurrency
}

// IsValidAlertCondition checks if the alert condition is valid
func IsValidAlertCondition(c string) bool {
	return c == AlertConditionAbove || c == AlertConditionBelow
}

// MigrateAlertModels runs database migrations for alert models
func MigrateAlertModels(db *gorm.DB) error {
	return db.AutoMigrate(&Alert{})
}
