package models

import "time"

// Site represents a customer location that subscriptions attach to.
type Site struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerID uint64   `gorm:"not null;index"`        // Related customer ID.
	Customer   Customer `gorm:"foreignKey:CustomerID"` // Related customer record.

	Label   string `gorm:"type:varchar(255);not null"` // Site display label.
	Address string `gorm:"type:text"`                  // Street address.
	City    string `gorm:"type:varchar(128)"`          // City name.

	Subscriptions []Subscription `gorm:"foreignKey:SiteID"` // Related subscriptions.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
