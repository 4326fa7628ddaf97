package models

import "time"

// PaymentMethod represents a configured settlement channel.
type PaymentMethod struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Label string `gorm:"type:varchar(128);not null"`            // Display label.
	Kind  string `gorm:"type:varchar(32);not null;uniqueIndex"` // Channel kind (cash/card/bank_transfer).

	IsEnabled bool `gorm:"not null;default:true"` // Whether the method is selectable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
