package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/netbillhq/netbill/internal/models"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.SubscriptionStatus) *models.SubscriptionStatus { return &s }

func TestUpdateSubscription_PriceChangeRecalculatesPendingRows(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	rows := loadPayments(t, conn, sub.ID)
	if errUpdate := conn.Model(&models.Payment{}).Where("id = ?", rows[0].ID).
		Update("status", models.PaymentPaid).Error; errUpdate != nil {
		t.Fatalf("mark first row paid: %v", errUpdate)
	}

	updated, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		BasePrice: decPtr("150"),
		VATRate:   decPtr("18"),
	}, 1)
	if errPatch != nil {
		t.Fatalf("update subscription: %v", errPatch)
	}
	if !updated.BasePrice.Equal(dec("150")) || !updated.VATRate.Equal(dec("18")) {
		t.Fatalf("unexpected subscription prices %s/%s", updated.BasePrice, updated.VATRate)
	}

	rows = loadPayments(t, conn, sub.ID)
	for _, row := range rows {
		if row.Status == models.PaymentPaid {
			if !row.Amount.Equal(dec("100")) {
				t.Fatalf("paid row repriced: amount=%s", row.Amount)
			}
			continue
		}
		if !row.Amount.Equal(dec("150")) || !row.VATAmount.Equal(dec("27")) || !row.TotalAmount.Equal(dec("177")) {
			t.Fatalf("pending row %s not repriced: %s/%s/%s",
				row.PaymentMonth.Format("2006-01"), row.Amount, row.VATAmount, row.TotalAmount)
		}
	}

	if got := countAuditEntries(t, conn, subscriptionsTable, sub.ID, models.AuditPriceChange); got != 1 {
		t.Fatalf("expected 1 price_change audit entry, got %d", got)
	}
}

func TestUpdateSubscription_PriceChangeAuditHoldsPriceFieldsOnly(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	if _, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		BasePrice: decPtr("150"),
	}, 1); errPatch != nil {
		t.Fatalf("update subscription: %v", errPatch)
	}

	var entry models.AuditLog
	if errFind := conn.Where("table_name = ? AND record_id = ? AND action = ?",
		subscriptionsTable, sub.ID, models.AuditPriceChange).First(&entry).Error; errFind != nil {
		t.Fatalf("load price_change entry: %v", errFind)
	}

	var oldValues map[string]json.RawMessage
	if errDecode := json.Unmarshal(entry.OldValues, &oldValues); errDecode != nil {
		t.Fatalf("decode old_values: %v", errDecode)
	}
	for _, key := range []string{"base_price", "sms_fee", "line_fee", "vat_rate"} {
		if _, ok := oldValues[key]; !ok {
			t.Fatalf("expected %s in price_change old_values", key)
		}
	}
	if _, ok := oldValues["site_id"]; ok {
		t.Fatalf("price_change old_values should not carry the full row")
	}
	if entry.UserID != 1 {
		t.Fatalf("expected acting admin 1, got %d", entry.UserID)
	}
}

func TestUpdateSubscription_AnnualRepriceScalesBySpan(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "annual", monthUTC(2025, time.January))

	if _, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		BasePrice: decPtr("150"),
	}, 1); errPatch != nil {
		t.Fatalf("update subscription: %v", errPatch)
	}

	rows := loadPayments(t, conn, sub.ID)
	if len(rows) != 1 {
		t.Fatalf("expected 1 annual row, got %d", len(rows))
	}
	if !rows[0].Amount.Equal(dec("1800")) || !rows[0].TotalAmount.Equal(dec("2160")) {
		t.Fatalf("expected annual row 1800/2160, got %s/%s", rows[0].Amount, rows[0].TotalAmount)
	}
}

func TestUpdateSubscription_StaticIPFeeDoesNotTriggerReprice(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	if _, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		StaticIPFee: decPtr("25"),
	}, 1); errPatch != nil {
		t.Fatalf("update subscription: %v", errPatch)
	}

	rows := loadPayments(t, conn, sub.ID)
	for _, row := range rows {
		if !row.Amount.Equal(dec("100")) {
			t.Fatalf("static ip fee change repriced existing rows: amount=%s", row.Amount)
		}
	}
	if got := countAuditEntries(t, conn, subscriptionsTable, sub.ID, models.AuditPriceChange); got != 0 {
		t.Fatalf("expected no price_change entry, got %d", got)
	}
	if got := countAuditEntries(t, conn, subscriptionsTable, sub.ID, models.AuditUpdate); got != 1 {
		t.Fatalf("expected 1 update entry, got %d", got)
	}
}

func TestUpdateSubscription_SamePriceIsNotAPriceChange(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	if _, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		BasePrice: decPtr("100"),
		Currency:  strPtr("EUR"),
	}, 1); errPatch != nil {
		t.Fatalf("update subscription: %v", errPatch)
	}

	if got := countAuditEntries(t, conn, subscriptionsTable, sub.ID, models.AuditPriceChange); got != 0 {
		t.Fatalf("expected no price_change when values are unchanged, got %d", got)
	}
}

func TestUpdateSubscription_StatusPatchAppliesLifecycle(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", firstOfMonth(nowUTC()))

	if _, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		Status: statusPtr(models.SubscriptionPaused),
	}, 1); !errors.Is(errPatch, ErrValidation) {
		t.Fatalf("expected ErrValidation without pause reason, got %v", errPatch)
	}

	paused, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		Status:      statusPtr(models.SubscriptionPaused),
		PauseReason: strPtr("maintenance"),
	}, 1)
	if errPatch != nil {
		t.Fatalf("pause via patch: %v", errPatch)
	}
	if paused.Status != models.SubscriptionPaused || paused.PausedAt == nil {
		t.Fatalf("pause via patch did not apply lifecycle fields")
	}

	rows := loadPayments(t, conn, sub.ID)
	if got := countByStatus(rows, models.PaymentSkipped); got != 12 {
		t.Fatalf("expected 12 skipped rows after pause via patch, got %d", got)
	}

	active, errPatch := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		Status: statusPtr(models.SubscriptionActive),
	}, 1)
	if errPatch != nil {
		t.Fatalf("reactivate via patch: %v", errPatch)
	}
	if active.Status != models.SubscriptionActive || active.ReactivatedAt == nil {
		t.Fatalf("reactivate via patch did not apply lifecycle fields")
	}
	rows = loadPayments(t, conn, sub.ID)
	if got := countByStatus(rows, models.PaymentPending); got != 12 {
		t.Fatalf("expected 12 regenerated pending rows, got %d", got)
	}
}

func TestUpdateSubscription_Validation(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	if _, err := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		VATRate: decPtr("101"),
	}, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for out-of-range vat, got %v", err)
	}

	badDay := 0
	if _, err := engine.UpdateSubscription(context.Background(), sub.ID, SubscriptionPatch{
		BillingDay: &badDay,
	}, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for billing_day 0, got %v", err)
	}

	if _, err := engine.UpdateSubscription(context.Background(), 404, SubscriptionPatch{}, 1); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}
