package models

import "time"

// Customer represents a billed organization or person.
type Customer struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name  string `gorm:"type:varchar(255);not null"` // Display name.
	Email string `gorm:"type:varchar(255);index"`    // Contact email.
	Phone string `gorm:"type:varchar(32)"`           // Contact phone.

	TaxNumber string `gorm:"type:varchar(64)"`  // Tax registration number.
	TaxOffice string `gorm:"type:varchar(128)"` // Tax office name.

	Notes string `gorm:"type:text"` // Free-form notes.

	Sites []Site `gorm:"foreignKey:CustomerID"` // Related sites.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
