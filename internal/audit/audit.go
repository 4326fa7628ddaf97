package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/netbillhq/netbill/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one mutation to append to the audit trail.
type Entry struct {
	Table       string             // Mutated table name.
	RecordID    uint64             // Mutated row ID.
	Action      models.AuditAction // Mutation kind.
	Old         any                // Snapshot before the mutation, nil for inserts.
	New         any                // Snapshot after the mutation.
	ActorID     uint64             // Acting admin ID.
	Description string             // Human-readable summary.
}

// Recorder appends audit entries to the database. Appends are best-effort:
// a failed append is logged and swallowed so it never rolls back the
// primary mutation.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder { return &Recorder{db: db} }

// Record appends one entry to the audit trail.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.db == nil {
		return
	}

	row := models.AuditLog{
		EntryKey:    uuid.NewString(),
		TableName:   entry.Table,
		RecordID:    entry.RecordID,
		Action:      entry.Action,
		OldValues:   marshalSnapshot(entry.Old),
		NewValues:   marshalSnapshot(entry.New),
		UserID:      entry.ActorID,
		Description: entry.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithFields(log.Fields{
			"table":  entry.Table,
			"record": entry.RecordID,
			"action": entry.Action,
		}).Warn("audit recorder: append failed")
	}
}

// marshalSnapshot serializes a snapshot value to JSON, or nil when absent.
func marshalSnapshot(value any) datatypes.JSON {
	if value == nil {
		return nil
	}
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		log.WithError(errMarshal).Warn("audit recorder: marshal snapshot failed")
		return nil
	}
	return datatypes.JSON(payload)
}
