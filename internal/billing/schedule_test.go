package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netbillhq/netbill/internal/models"
)

func createSubscription(t *testing.T, engine *Engine, siteID uint64, frequency string, start time.Time) *models.Subscription {
	t.Helper()
	sub, errCreate := engine.CreateSubscription(context.Background(), CreateSubscriptionParams{
		SiteID:     siteID,
		BasePrice:  dec("100"),
		VATRate:    dec("20"),
		Frequency:  frequency,
		BillingDay: 1,
		StartDate:  start,
	}, 1)
	if errCreate != nil {
		t.Fatalf("create subscription: %v", errCreate)
	}
	return sub
}

func TestCreateSubscription_MonthlyScheduleCoversTwelveMonths(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)

	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	rows := loadPayments(t, conn, sub.ID)
	if len(rows) != 12 {
		t.Fatalf("expected 12 payment rows, got %d", len(rows))
	}
	for i, row := range rows {
		want := monthUTC(2025, time.January).AddDate(0, i, 0)
		if !row.PaymentMonth.Equal(want) {
			t.Fatalf("row %d: expected payment month %s, got %s", i, want, row.PaymentMonth)
		}
		if row.Status != models.PaymentPending {
			t.Fatalf("row %d: expected pending, got %s", i, row.Status)
		}
		if !row.Amount.Equal(dec("100")) || !row.VATAmount.Equal(dec("20")) || !row.TotalAmount.Equal(dec("120")) {
			t.Fatalf("row %d: unexpected amounts %s/%s/%s", i, row.Amount, row.VATAmount, row.TotalAmount)
		}
	}
}

func TestCreateSubscription_AnnualScheduleScalesAmounts(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)

	sub := createSubscription(t, engine, siteID, "annual", monthUTC(2025, time.March))

	rows := loadPayments(t, conn, sub.ID)
	if len(rows) != 1 {
		t.Fatalf("expected 1 payment row, got %d", len(rows))
	}
	row := rows[0]
	if !row.PaymentMonth.Equal(monthUTC(2025, time.March)) {
		t.Fatalf("expected payment month 2025-03-01, got %s", row.PaymentMonth)
	}
	if !row.Amount.Equal(dec("1200")) {
		t.Fatalf("expected amount=1200, got %s", row.Amount)
	}
	if !row.VATAmount.Equal(dec("240")) {
		t.Fatalf("expected vat=240, got %s", row.VATAmount)
	}
	if !row.TotalAmount.Equal(dec("1440")) {
		t.Fatalf("expected total=1440, got %s", row.TotalAmount)
	}
}

func TestCreateSubscription_SixMonthScheduleHasTwoPeriods(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)

	sub := createSubscription(t, engine, siteID, "6_month", monthUTC(2025, time.January))

	rows := loadPayments(t, conn, sub.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 payment rows, got %d", len(rows))
	}
	if !rows[0].PaymentMonth.Equal(monthUTC(2025, time.January)) ||
		!rows[1].PaymentMonth.Equal(monthUTC(2025, time.July)) {
		t.Fatalf("unexpected period months %s, %s", rows[0].PaymentMonth, rows[1].PaymentMonth)
	}
	if !rows[0].TotalAmount.Equal(dec("720")) {
		t.Fatalf("expected total=720 per period, got %s", rows[0].TotalAmount)
	}
}

func TestCreateSubscription_RejectsUnknownFrequency(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)

	_, errCreate := engine.CreateSubscription(context.Background(), CreateSubscriptionParams{
		SiteID:     siteID,
		BasePrice:  dec("100"),
		VATRate:    dec("20"),
		Frequency:  "weekly",
		BillingDay: 1,
		StartDate:  monthUTC(2025, time.January),
	}, 1)
	if !errors.Is(errCreate, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", errCreate)
	}
}

func TestGenerateSchedule_UnknownSubscription(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, errGen := engine.GenerateSchedule(context.Background(), 404, monthUTC(2025, time.January))
	if !errors.Is(errGen, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", errGen)
	}
}

func TestGenerateSchedule_IdempotentOverLiveRows(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	inserted, errGen := engine.GenerateSchedule(context.Background(), sub.ID, monthUTC(2025, time.January))
	if errGen != nil {
		t.Fatalf("regenerate schedule: %v", errGen)
	}
	if len(inserted) != 0 {
		t.Fatalf("expected no new rows over a live schedule, got %d", len(inserted))
	}
	if rows := loadPayments(t, conn, sub.ID); len(rows) != 12 {
		t.Fatalf("expected 12 rows after regeneration, got %d", len(rows))
	}
}

func TestGenerateSchedule_SkipsPaidMonthsOnly(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))

	// Void March so only that month is open for regeneration.
	if errUpdate := conn.Model(&models.Payment{}).
		Where("subscription_id = ? AND payment_month = ?", sub.ID, monthUTC(2025, time.March)).
		Update("status", models.PaymentSkipped).Error; errUpdate != nil {
		t.Fatalf("void march row: %v", errUpdate)
	}

	inserted, errGen := engine.GenerateSchedule(context.Background(), sub.ID, monthUTC(2025, time.January))
	if errGen != nil {
		t.Fatalf("regenerate schedule: %v", errGen)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected exactly one regenerated row, got %d", len(inserted))
	}
	if !inserted[0].PaymentMonth.Equal(monthUTC(2025, time.March)) {
		t.Fatalf("expected regenerated month 2025-03-01, got %s", inserted[0].PaymentMonth)
	}
	if inserted[0].Status != models.PaymentPending {
		t.Fatalf("expected regenerated row pending, got %s", inserted[0].Status)
	}
}
