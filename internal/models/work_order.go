package models

import "time"

// WorkOrderStatus represents the progress state of a work order.
type WorkOrderStatus string

// WorkOrderStatus constants define work order progress states.
const (
	WorkOrderOpen       WorkOrderStatus = "open"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderDone       WorkOrderStatus = "done"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderOpen, WorkOrderInProgress, WorkOrderDone, WorkOrderCancelled:
		return true
	}
	return false
}

// WorkOrder represents a field task scheduled against a site.
type WorkOrder struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SiteID uint64 `gorm:"not null;index"`    // Related site ID.
	Site   Site   `gorm:"foreignKey:SiteID"` // Related site record.

	Title  string          `gorm:"type:varchar(255);not null"`            // Short summary.
	Notes  string          `gorm:"type:text"`                             // Work details.
	Status WorkOrderStatus `gorm:"type:varchar(16);not null;default:'open';index"` // Progress state.

	ScheduledFor *time.Time // Planned execution date.
	CompletedAt  *time.Time // When the work finished.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
