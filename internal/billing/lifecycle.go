package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/netbillhq/netbill/internal/audit"
	"github.com/netbillhq/netbill/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateSubscriptionParams holds the inputs for subscription creation.
type CreateSubscriptionParams struct {
	SiteID          uint64
	PaymentMethodID *uint64

	BasePrice   decimal.Decimal
	SMSFee      decimal.Decimal
	LineFee     decimal.Decimal
	StaticIPFee decimal.Decimal
	VATRate     decimal.Decimal

	Cost         decimal.Decimal
	StaticIPCost decimal.Decimal
	Currency     string

	Frequency  string
	BillingDay int
	StartDate  time.Time
}

// validVATRate reports whether a VAT percentage lies in [0,100].
func validVATRate(rate decimal.Decimal) bool {
	return rate.GreaterThanOrEqual(decimal.Zero) && rate.LessThanOrEqual(decimal.NewFromInt(100))
}

// CreateSubscription creates an active subscription and generates its full
// payment schedule in one transaction.
func (e *Engine) CreateSubscription(ctx context.Context, params CreateSubscriptionParams, actorID uint64) (*models.Subscription, error) {
	if params.SiteID == 0 {
		return nil, fmt.Errorf("%w: site_id is required", ErrValidation)
	}
	frequency, ok := models.ParseBillingFrequency(params.Frequency)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, params.Frequency)
	}
	if params.BillingDay < 1 || params.BillingDay > 31 {
		return nil, fmt.Errorf("%w: billing_day must be 1-31", ErrValidation)
	}
	if !validVATRate(params.VATRate) {
		return nil, fmt.Errorf("%w: vat_rate must be 0-100", ErrValidation)
	}
	if params.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrValidation)
	}

	currency := strings.TrimSpace(params.Currency)
	if currency == "" {
		currency = "TRY"
	}

	now := nowUTC()
	sub := models.Subscription{
		SiteID:           params.SiteID,
		PaymentMethodID:  params.PaymentMethodID,
		BasePrice:        params.BasePrice,
		SMSFee:           params.SMSFee,
		LineFee:          params.LineFee,
		StaticIPFee:      params.StaticIPFee,
		VATRate:          params.VATRate,
		Cost:             params.Cost,
		StaticIPCost:     params.StaticIPCost,
		Currency:         currency,
		BillingFrequency: frequency,
		BillingDay:       params.BillingDay,
		StartDate:        params.StartDate,
		Status:           models.SubscriptionActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&sub).Error; errCreate != nil {
			return fmt.Errorf("billing: create subscription: %w", errCreate)
		}
		if _, errGen := generateScheduleTx(tx, &sub, sub.StartDate); errGen != nil {
			return errGen
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.record(ctx, audit.Entry{
		Table:       subscriptionsTable,
		RecordID:    sub.ID,
		Action:      models.AuditInsert,
		New:         snapshotSubscription(&sub),
		ActorID:     actorID,
		Description: fmt.Sprintf("subscription created with %s billing", frequency),
	})
	return &sub, nil
}

// Pause suspends an active subscription. Pending payments for the current
// month and later are marked skipped; resolved rows are never touched.
func (e *Engine) Pause(ctx context.Context, subscriptionID uint64, reason string, actorID uint64) (*models.Subscription, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: pause reason is required", ErrValidation)
	}

	var before, after subscriptionSnapshot
	var sub *models.Subscription
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errLoad := loadSubscription(tx, subscriptionID)
		if errLoad != nil {
			return errLoad
		}
		if loaded.Status != models.SubscriptionActive {
			return fmt.Errorf("%w: cannot pause a %s subscription", ErrInvalidTransition, loaded.Status)
		}
		before = snapshotSubscription(loaded)

		now := nowUTC()
		loaded.Status = models.SubscriptionPaused
		loaded.PausedAt = &now
		loaded.PauseReason = reason
		loaded.UpdatedAt = now
		if errSave := tx.Model(&models.Subscription{}).Where("id = ?", loaded.ID).Updates(map[string]any{
			"status":       loaded.Status,
			"paused_at":    loaded.PausedAt,
			"pause_reason": loaded.PauseReason,
			"updated_at":   loaded.UpdatedAt,
		}).Error; errSave != nil {
			return fmt.Errorf("billing: pause subscription %d: %w", loaded.ID, errSave)
		}

		if errSkip := tx.Model(&models.Payment{}).
			Where("subscription_id = ? AND status = ? AND payment_month >= ?",
				loaded.ID, models.PaymentPending, firstOfMonth(now)).
			Updates(map[string]any{"status": models.PaymentSkipped, "updated_at": now}).Error; errSkip != nil {
			return fmt.Errorf("billing: skip pending payments for subscription %d: %w", loaded.ID, errSkip)
		}

		after = snapshotSubscription(loaded)
		sub = loaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.record(ctx, audit.Entry{
		Table:       subscriptionsTable,
		RecordID:    sub.ID,
		Action:      models.AuditPause,
		Old:         before,
		New:         after,
		ActorID:     actorID,
		Description: "subscription paused: " + reason,
	})
	return sub, nil
}

// Cancel terminates a subscription from active or paused. When
// writeOffUnpaid is set every pending payment is written off. Cancellation
// is terminal.
func (e *Engine) Cancel(ctx context.Context, subscriptionID uint64, reason string, writeOffUnpaid bool, actorID uint64) (*models.Subscription, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: cancel reason is required", ErrValidation)
	}

	var before, after subscriptionSnapshot
	var sub *models.Subscription
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errLoad := loadSubscription(tx, subscriptionID)
		if errLoad != nil {
			return errLoad
		}
		if loaded.Status == models.SubscriptionCancelled {
			return fmt.Errorf("%w: subscription already cancelled", ErrInvalidTransition)
		}
		before = snapshotSubscription(loaded)

		now := nowUTC()
		loaded.Status = models.SubscriptionCancelled
		loaded.CancelledAt = &now
		loaded.CancelReason = reason
		loaded.UpdatedAt = now
		if errSave := tx.Model(&models.Subscription{}).Where("id = ?", loaded.ID).Updates(map[string]any{
			"status":        loaded.Status,
			"cancelled_at":  loaded.CancelledAt,
			"cancel_reason": loaded.CancelReason,
			"updated_at":    loaded.UpdatedAt,
		}).Error; errSave != nil {
			return fmt.Errorf("billing: cancel subscription %d: %w", loaded.ID, errSave)
		}

		if writeOffUnpaid {
			if errWriteOff := tx.Model(&models.Payment{}).
				Where("subscription_id = ? AND status = ?", loaded.ID, models.PaymentPending).
				Updates(map[string]any{"status": models.PaymentWriteOff, "updated_at": now}).Error; errWriteOff != nil {
				return fmt.Errorf("billing: write off payments for subscription %d: %w", loaded.ID, errWriteOff)
			}
		}

		after = snapshotSubscription(loaded)
		sub = loaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.record(ctx, audit.Entry{
		Table:       subscriptionsTable,
		RecordID:    sub.ID,
		Action:      models.AuditCancel,
		Old:         before,
		New:         after,
		ActorID:     actorID,
		Description: "subscription cancelled: " + reason,
	})
	return sub, nil
}

// Reactivate resumes a paused subscription and regenerates its schedule
// from the current month forward. Regeneration is idempotent, so invoking
// it twice does not duplicate any month.
func (e *Engine) Reactivate(ctx context.Context, subscriptionID uint64, actorID uint64) (*models.Subscription, error) {
	var before, after subscriptionSnapshot
	var sub *models.Subscription
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errLoad := loadSubscription(tx, subscriptionID)
		if errLoad != nil {
			return errLoad
		}
		if loaded.Status != models.SubscriptionPaused {
			return fmt.Errorf("%w: cannot reactivate a %s subscription", ErrInvalidTransition, loaded.Status)
		}
		before = snapshotSubscription(loaded)

		now := nowUTC()
		loaded.Status = models.SubscriptionActive
		loaded.ReactivatedAt = &now
		loaded.UpdatedAt = now
		if errSave := tx.Model(&models.Subscription{}).Where("id = ?", loaded.ID).Updates(map[string]any{
			"status":         loaded.Status,
			"reactivated_at": loaded.ReactivatedAt,
			"updated_at":     loaded.UpdatedAt,
		}).Error; errSave != nil {
			return fmt.Errorf("billing: reactivate subscription %d: %w", loaded.ID, errSave)
		}

		if _, errGen := generateScheduleTx(tx, loaded, firstOfMonth(now)); errGen != nil {
			return errGen
		}

		after = snapshotSubscription(loaded)
		sub = loaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.record(ctx, audit.Entry{
		Table:       subscriptionsTable,
		RecordID:    sub.ID,
		Action:      models.AuditReactivate,
		Old:         before,
		New:         after,
		ActorID:     actorID,
		Description: "subscription reactivated",
	})
	return sub, nil
}
