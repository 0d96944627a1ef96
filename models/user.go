package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Alerts and budgets belong to a user
// and are removed with it.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"size:255" json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Alerts  []Alert  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Budgets []Budget `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// MigrateUserModels runs database migrations for user models
func MigrateUserModels(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
