package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction names the mutation recorded by an audit entry.
type AuditAction string

// AuditAction constants define the recorded mutation kinds.
const (
	AuditInsert          AuditAction = "insert"
	AuditUpdate          AuditAction = "update"
	AuditPriceChange     AuditAction = "price_change"
	AuditPause           AuditAction = "pause"
	AuditCancel          AuditAction = "cancel"
	AuditReactivate      AuditAction = "reactivate"
	AuditPaymentRecorded AuditAction = "payment_recorded"
)

// AuditLog is an append-only before/after record of a mutating operation.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EntryKey  string      `gorm:"type:varchar(36);not null;uniqueIndex"` // Random UUID identifying the entry.
	TableName string      `gorm:"type:varchar(64);not null;index"`       // Mutated table name.
	RecordID  uint64      `gorm:"not null;index"`                        // Mutated row ID.
	Action    AuditAction `gorm:"type:varchar(32);not null;index"`       // Recorded mutation kind.

	OldValues datatypes.JSON `gorm:"type:jsonb"` // Snapshot before the mutation.
	NewValues datatypes.JSON `gorm:"type:jsonb"` // Snapshot after the mutation.

	UserID      uint64 `gorm:"not null;index"` // Acting admin ID.
	Description string `gorm:"type:text"`      // Human-readable summary.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Append timestamp.
}
