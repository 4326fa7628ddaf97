package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netbillhq/netbill/internal/models"

	"github.com/shopspring/decimal"
)

func TestRecordPayment_CashWithInvoice(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)

	paymentDate := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	paid, errRecord := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   paymentDate,
		PaymentMethod: models.MethodCash,
		ShouldInvoice: true,
		InvoiceNo:     "INV-2025-001",
		InvoiceType:   "e_archive",
	}, 1)
	if errRecord != nil {
		t.Fatalf("record payment: %v", errRecord)
	}

	if paid.Status != models.PaymentPaid {
		t.Fatalf("expected paid status, got %s", paid.Status)
	}
	if !paid.ShouldInvoice {
		t.Fatalf("expected should_invoice to be set")
	}
	if paid.InvoiceNo != "INV-2025-001" || paid.InvoiceType != "e_archive" {
		t.Fatalf("unexpected invoice fields %q/%q", paid.InvoiceNo, paid.InvoiceType)
	}
	if paid.InvoiceDate == nil || !paid.InvoiceDate.Equal(paymentDate) {
		t.Fatalf("expected invoice_date to match payment_date, got %v", paid.InvoiceDate)
	}
	if !paid.VATAmount.Equal(dec("20")) || !paid.TotalAmount.Equal(dec("120")) {
		t.Fatalf("unexpected amounts vat=%s total=%s", paid.VATAmount, paid.TotalAmount)
	}
	if !paid.PaymentVATRate.Valid || !paid.PaymentVATRate.Decimal.Equal(dec("20")) {
		t.Fatalf("expected applied vat rate 20, got %v", paid.PaymentVATRate)
	}
	if got := countAuditEntries(t, conn, paymentsTable, paid.ID, models.AuditPaymentRecorded); got != 1 {
		t.Fatalf("expected 1 payment_recorded audit entry, got %d", got)
	}
}

func TestRecordPayment_NoInvoiceZeroesVAT(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)

	paid, errRecord := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodCash,
		ShouldInvoice: false,
	}, 1)
	if errRecord != nil {
		t.Fatalf("record payment: %v", errRecord)
	}

	if paid.ShouldInvoice {
		t.Fatalf("expected should_invoice to stay false for cash")
	}
	if !paid.VATAmount.IsZero() {
		t.Fatalf("expected zero vat without invoice, got %s", paid.VATAmount)
	}
	if !paid.TotalAmount.Equal(paid.Amount) {
		t.Fatalf("expected total=amount, got %s vs %s", paid.TotalAmount, paid.Amount)
	}
	if paid.InvoiceNo != "" || paid.InvoiceType != "" || paid.InvoiceDate != nil {
		t.Fatalf("expected invoice fields cleared, got %q/%q/%v", paid.InvoiceNo, paid.InvoiceType, paid.InvoiceDate)
	}
}

func TestRecordPayment_CardAlwaysInvoices(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)

	paid, errRecord := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodCard,
		ShouldInvoice: false,
	}, 1)
	if errRecord != nil {
		t.Fatalf("record payment: %v", errRecord)
	}

	if !paid.ShouldInvoice {
		t.Fatalf("expected card payment to force should_invoice")
	}
	if !paid.VATAmount.Equal(dec("20")) {
		t.Fatalf("expected vat=20 on card payment, got %s", paid.VATAmount)
	}
	if paid.ReferenceNo != "" {
		t.Fatalf("expected reference_no cleared for card, got %q", paid.ReferenceNo)
	}
	// VAT framing applies, but invoice identity fields wait for an invoice
	// number.
	if paid.InvoiceNo != "" || paid.InvoiceDate != nil {
		t.Fatalf("expected no invoice fields without invoice_no, got %q/%v", paid.InvoiceNo, paid.InvoiceDate)
	}
}

func TestRecordPayment_BankTransferKeepsReference(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)

	paid, errRecord := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodBankTransfer,
		ReferenceNo:   "TRX-88041",
	}, 1)
	if errRecord != nil {
		t.Fatalf("record payment: %v", errRecord)
	}
	if paid.ReferenceNo != "TRX-88041" {
		t.Fatalf("expected bank transfer reference kept, got %q", paid.ReferenceNo)
	}
}

func TestRecordPayment_ExplicitVATRateOverrides(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)

	paid, errRecord := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodCash,
		ShouldInvoice: true,
		VATRate:       decimal.NewNullDecimal(dec("18")),
	}, 1)
	if errRecord != nil {
		t.Fatalf("record payment: %v", errRecord)
	}
	if !paid.PaymentVATRate.Decimal.Equal(dec("18")) {
		t.Fatalf("expected applied rate 18, got %s", paid.PaymentVATRate.Decimal)
	}
	if !paid.VATAmount.Equal(dec("18")) || !paid.TotalAmount.Equal(dec("118")) {
		t.Fatalf("unexpected amounts vat=%s total=%s", paid.VATAmount, paid.TotalAmount)
	}
}

func TestRecordPayment_LockedRowIsImmutable(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)

	first, errRecord := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodCard,
		InvoiceNo:     "INV-2025-007",
	}, 1)
	if errRecord != nil {
		t.Fatalf("first recording: %v", errRecord)
	}
	if !first.Locked() {
		t.Fatalf("expected paid+invoiced row to be locked")
	}

	_, errRetry := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodCash,
	}, 1)
	if !errors.Is(errRetry, ErrPaymentLocked) {
		t.Fatalf("expected ErrPaymentLocked, got %v", errRetry)
	}

	var after models.Payment
	if errFind := conn.First(&after, rows[0].ID).Error; errFind != nil {
		t.Fatalf("reload payment: %v", errFind)
	}
	if after.PaymentMethod != models.MethodCard || after.InvoiceNo != "INV-2025-007" {
		t.Fatalf("locked row changed: method=%q invoice=%q", after.PaymentMethod, after.InvoiceNo)
	}
}

func TestRecordPayment_Validation(t *testing.T) {
	engine, conn := newTestEngine(t)
	siteID := seedSite(t, conn)
	sub := createSubscription(t, engine, siteID, "monthly", monthUTC(2025, time.January))
	rows := loadPayments(t, conn, sub.ID)
	paymentDate := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	if _, err := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate: paymentDate,
	}, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing method, got %v", err)
	}
	if _, err := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentMethod: models.MethodCash,
	}, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing date, got %v", err)
	}
	if _, err := engine.RecordPayment(context.Background(), rows[0].ID, RecordPaymentParams{
		PaymentDate:   paymentDate,
		PaymentMethod: models.MethodCash,
		VATRate:       decimal.NewNullDecimal(dec("150")),
	}, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for out-of-range vat, got %v", err)
	}
}

func TestRecordPayment_UnknownPayment(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, errRecord := engine.RecordPayment(context.Background(), 404, RecordPaymentParams{
		PaymentDate:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: models.MethodCash,
	}, 1)
	if !errors.Is(errRecord, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", errRecord)
	}
}
