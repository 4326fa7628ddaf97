package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/netbillhq/netbill/internal/audit"
	"github.com/netbillhq/netbill/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionPatch holds the optional fields of a subscription update.
// Nil fields are left unchanged.
type SubscriptionPatch struct {
	BasePrice   *decimal.Decimal
	SMSFee      *decimal.Decimal
	LineFee     *decimal.Decimal
	StaticIPFee *decimal.Decimal
	VATRate     *decimal.Decimal

	Cost         *decimal.Decimal
	StaticIPCost *decimal.Decimal
	Currency     *string
	BillingDay   *int

	PaymentMethodID *uint64

	// Status moves the subscription through the lifecycle mapping; the
	// matching reason is required for paused and cancelled.
	Status       *models.SubscriptionStatus
	PauseReason  *string
	CancelReason *string
}

// priceFields is the audit representation of the price-affecting fields.
type priceFields struct {
	BasePrice decimal.Decimal `json:"base_price"`
	SMSFee    decimal.Decimal `json:"sms_fee"`
	LineFee   decimal.Decimal `json:"line_fee"`
	VATRate   decimal.Decimal `json:"vat_rate"`
}

// priceChanged reports whether the patch changes any price-affecting field.
// The trigger set is exactly base_price, sms_fee, line_fee, and vat_rate.
func priceChanged(sub *models.Subscription, patch SubscriptionPatch) bool {
	if patch.BasePrice != nil && !patch.BasePrice.Equal(sub.BasePrice) {
		return true
	}
	if patch.SMSFee != nil && !patch.SMSFee.Equal(sub.SMSFee) {
		return true
	}
	if patch.LineFee != nil && !patch.LineFee.Equal(sub.LineFee) {
		return true
	}
	if patch.VATRate != nil && !patch.VATRate.Equal(sub.VATRate) {
		return true
	}
	return false
}

// applyStatusPatch applies the lifecycle mapping for a status change inside
// the caller's transaction: timestamps, reasons, and the bulk payment side
// effects. It mutates sub and merges its writes into updates.
func applyStatusPatch(tx *gorm.DB, sub *models.Subscription, patch SubscriptionPatch, updates map[string]any) error {
	newStatus := *patch.Status
	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	if sub.Status == models.SubscriptionCancelled {
		return fmt.Errorf("%w: subscription already cancelled", ErrInvalidTransition)
	}

	now := nowUTC()
	switch newStatus {
	case models.SubscriptionPaused:
		if sub.Status != models.SubscriptionActive {
			return fmt.Errorf("%w: cannot pause a %s subscription", ErrInvalidTransition, sub.Status)
		}
		reason := ""
		if patch.PauseReason != nil {
			reason = strings.TrimSpace(*patch.PauseReason)
		}
		if reason == "" {
			return fmt.Errorf("%w: pause reason is required", ErrValidation)
		}
		sub.Status = models.SubscriptionPaused
		sub.PausedAt = &now
		sub.PauseReason = reason
		updates["status"] = sub.Status
		updates["paused_at"] = sub.PausedAt
		updates["pause_reason"] = sub.PauseReason
		if errSkip := tx.Model(&models.Payment{}).
			Where("subscription_id = ? AND status = ? AND payment_month >= ?",
				sub.ID, models.PaymentPending, firstOfMonth(now)).
			Updates(map[string]any{"status": models.PaymentSkipped, "updated_at": now}).Error; errSkip != nil {
			return fmt.Errorf("billing: skip pending payments for subscription %d: %w", sub.ID, errSkip)
		}
	case models.SubscriptionCancelled:
		reason := ""
		if patch.CancelReason != nil {
			reason = strings.TrimSpace(*patch.CancelReason)
		}
		if reason == "" {
			return fmt.Errorf("%w: cancel reason is required", ErrValidation)
		}
		sub.Status = models.SubscriptionCancelled
		sub.CancelledAt = &now
		sub.CancelReason = reason
		updates["status"] = sub.Status
		updates["cancelled_at"] = sub.CancelledAt
		updates["cancel_reason"] = sub.CancelReason
	case models.SubscriptionActive:
		if sub.Status != models.SubscriptionPaused {
			return fmt.Errorf("%w: cannot activate a %s subscription", ErrInvalidTransition, sub.Status)
		}
		sub.Status = models.SubscriptionActive
		sub.ReactivatedAt = &now
		updates["status"] = sub.Status
		updates["reactivated_at"] = sub.ReactivatedAt
		if _, errGen := generateScheduleTx(tx, sub, firstOfMonth(now)); errGen != nil {
			return errGen
		}
	}
	return nil
}

// UpdateSubscription applies a patch to a subscription. A change to any
// price-affecting field recalculates every pending payment with the new
// amounts scaled by the billing-frequency span; resolved rows are never
// rewritten. Price changes audit as price_change with the price fields
// only, other updates audit as update with the full row.
func (e *Engine) UpdateSubscription(ctx context.Context, subscriptionID uint64, patch SubscriptionPatch, actorID uint64) (*models.Subscription, error) {
	if patch.VATRate != nil && !validVATRate(*patch.VATRate) {
		return nil, fmt.Errorf("%w: vat_rate must be 0-100", ErrValidation)
	}

	var before subscriptionSnapshot
	var repriced bool
	var oldPrices, newPrices priceFields
	var sub *models.Subscription
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errLoad := loadSubscription(tx, subscriptionID)
		if errLoad != nil {
			return errLoad
		}
		before = snapshotSubscription(loaded)
		oldPrices = priceFields{
			BasePrice: loaded.BasePrice,
			SMSFee:    loaded.SMSFee,
			LineFee:   loaded.LineFee,
			VATRate:   loaded.VATRate,
		}
		repriced = priceChanged(loaded, patch)

		now := nowUTC()
		updates := map[string]any{"updated_at": now}

		if patch.Status != nil && *patch.Status != loaded.Status {
			if errStatus := applyStatusPatch(tx, loaded, patch, updates); errStatus != nil {
				return errStatus
			}
		}

		if patch.BasePrice != nil {
			loaded.BasePrice = *patch.BasePrice
			updates["base_price"] = loaded.BasePrice
		}
		if patch.SMSFee != nil {
			loaded.SMSFee = *patch.SMSFee
			updates["sms_fee"] = loaded.SMSFee
		}
		if patch.LineFee != nil {
			loaded.LineFee = *patch.LineFee
			updates["line_fee"] = loaded.LineFee
		}
		if patch.StaticIPFee != nil {
			loaded.StaticIPFee = *patch.StaticIPFee
			updates["static_ip_fee"] = loaded.StaticIPFee
		}
		if patch.VATRate != nil {
			loaded.VATRate = *patch.VATRate
			updates["vat_rate"] = loaded.VATRate
		}
		if patch.Cost != nil {
			loaded.Cost = *patch.Cost
			updates["cost"] = loaded.Cost
		}
		if patch.StaticIPCost != nil {
			loaded.StaticIPCost = *patch.StaticIPCost
			updates["static_ip_cost"] = loaded.StaticIPCost
		}
		if patch.Currency != nil {
			loaded.Currency = strings.TrimSpace(*patch.Currency)
			updates["currency"] = loaded.Currency
		}
		if patch.BillingDay != nil {
			if *patch.BillingDay < 1 || *patch.BillingDay > 31 {
				return fmt.Errorf("%w: billing_day must be 1-31", ErrValidation)
			}
			loaded.BillingDay = *patch.BillingDay
			updates["billing_day"] = loaded.BillingDay
		}
		if patch.PaymentMethodID != nil {
			loaded.PaymentMethodID = patch.PaymentMethodID
			updates["payment_method_id"] = loaded.PaymentMethodID
		}

		if errSave := tx.Model(&models.Subscription{}).Where("id = ?", loaded.ID).
			Updates(updates).Error; errSave != nil {
			return fmt.Errorf("billing: update subscription %d: %w", loaded.ID, errSave)
		}

		if repriced {
			monthly := ComputeAmounts(loaded.PriceComponents(), loaded.VATRate, true)
			period := monthly.MultiplySpan(loaded.BillingFrequency.Months())
			if errReprice := tx.Model(&models.Payment{}).
				Where("subscription_id = ? AND status = ?", loaded.ID, models.PaymentPending).
				Updates(map[string]any{
					"amount":       period.Amount,
					"vat_amount":   period.VATAmount,
					"total_amount": period.TotalAmount,
					"updated_at":   now,
				}).Error; errReprice != nil {
				return fmt.Errorf("billing: reprice pending payments for subscription %d: %w", loaded.ID, errReprice)
			}
		}

		newPrices = priceFields{
			BasePrice: loaded.BasePrice,
			SMSFee:    loaded.SMSFee,
			LineFee:   loaded.LineFee,
			VATRate:   loaded.VATRate,
		}
		sub = loaded
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	if repriced {
		e.record(ctx, audit.Entry{
			Table:       subscriptionsTable,
			RecordID:    sub.ID,
			Action:      models.AuditPriceChange,
			Old:         oldPrices,
			New:         newPrices,
			ActorID:     actorID,
			Description: "price revision applied to pending payments",
		})
	} else {
		e.record(ctx, audit.Entry{
			Table:       subscriptionsTable,
			RecordID:    sub.ID,
			Action:      models.AuditUpdate,
			Old:         before,
			New:         snapshotSubscription(sub),
			ActorID:     actorID,
			Description: "subscription updated",
		})
	}
	return sub, nil
}
