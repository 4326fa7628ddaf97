package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/netbillhq/netbill/internal/models"

	"gorm.io/gorm"
)

// buildPeriods derives the payment rows for one schedule year of a
// subscription, starting at the first day of from's month. Monthly amounts
// come from the calculator and are scaled by each period's month span.
func buildPeriods(sub *models.Subscription, from time.Time) []models.Payment {
	monthly := ComputeAmounts(sub.PriceComponents(), sub.VATRate, true)
	span := sub.BillingFrequency.Months()
	period := monthly.MultiplySpan(span)

	start := firstOfMonth(from)
	now := nowUTC()

	rows := make([]models.Payment, 0, sub.BillingFrequency.PeriodsPerYear())
	for i := 0; i < sub.BillingFrequency.PeriodsPerYear(); i++ {
		rows = append(rows, models.Payment{
			SubscriptionID: sub.ID,
			PaymentMonth:   start.AddDate(0, i*span, 0),
			Amount:         period.Amount,
			VATAmount:      period.VATAmount,
			TotalAmount:    period.TotalAmount,
			Status:         models.PaymentPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return rows
}

// generateScheduleTx inserts the schedule rows for a subscription from the
// given boundary month forward, inside the caller's transaction.
//
// Generation is idempotent per subscription and month: a month already
// holding a live row (pending or paid) is skipped. Voided rows (skipped,
// write_off, failed) do not block, otherwise reactivating after a pause
// could never rebuild the schedule. Months before the boundary are never
// touched.
func generateScheduleTx(tx *gorm.DB, sub *models.Subscription, from time.Time) ([]models.Payment, error) {
	if _, ok := models.ParseBillingFrequency(string(sub.BillingFrequency)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, sub.BillingFrequency)
	}

	var existing []models.Payment
	if errFind := tx.Where("subscription_id = ? AND payment_month >= ?", sub.ID, firstOfMonth(from)).
		Find(&existing).Error; errFind != nil {
		return nil, fmt.Errorf("billing: list payments for subscription %d: %w", sub.ID, errFind)
	}

	blocked := make(map[string]bool, len(existing))
	for _, row := range existing {
		if row.Status == models.PaymentPending || row.Status == models.PaymentPaid {
			blocked[monthKey(row.PaymentMonth)] = true
		}
	}

	candidates := buildPeriods(sub, from)
	rows := make([]models.Payment, 0, len(candidates))
	for _, row := range candidates {
		if blocked[monthKey(row.PaymentMonth)] {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if errCreate := tx.Create(&rows).Error; errCreate != nil {
		return nil, fmt.Errorf("billing: insert schedule for subscription %d: %w", sub.ID, errCreate)
	}
	return rows, nil
}

// GenerateSchedule creates the payment-period rows for a subscription from
// the given start month forward and returns the inserted rows.
func (e *Engine) GenerateSchedule(ctx context.Context, subscriptionID uint64, from time.Time) ([]models.Payment, error) {
	var rows []models.Payment
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, errLoad := loadSubscription(tx, subscriptionID)
		if errLoad != nil {
			return errLoad
		}
		inserted, errGen := generateScheduleTx(tx, sub, from)
		if errGen != nil {
			return errGen
		}
		rows = inserted
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return rows, nil
}
