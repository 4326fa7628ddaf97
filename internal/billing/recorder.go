package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/netbillhq/netbill/internal/audit"
	"github.com/netbillhq/netbill/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordPaymentParams holds the settlement detail for one payment.
type RecordPaymentParams struct {
	PaymentDate   time.Time
	PaymentMethod string

	// ShouldInvoice is the explicit user choice. Card payments invoice
	// unconditionally regardless of this flag.
	ShouldInvoice bool

	// VATRate overrides the applied VAT percentage when valid. When absent
	// the rate derives from the row's existing amounts, falling back to the
	// default.
	VATRate decimal.NullDecimal

	InvoiceNo   string
	InvoiceType string

	// ReferenceNo carries the bank transfer reference. Informational only;
	// ignored for other methods.
	ReferenceNo string

	Notes string
}

// appliedVATRate resolves the VAT percentage for a recording: explicit
// input first, then the ratio already baked into the row, then the default.
func appliedVATRate(payment *models.Payment, params RecordPaymentParams) decimal.Decimal {
	if params.VATRate.Valid {
		return params.VATRate.Decimal
	}
	if payment.Amount.IsPositive() && payment.VATAmount.IsPositive() {
		return payment.VATAmount.Div(payment.Amount).Mul(decimal.NewFromInt(100)).Round(minorUnitPlaces)
	}
	return DefaultVATRate
}

// RecordPayment marks a pending period as paid, applying the invoice and
// VAT branching rules. The period's pre-VAT amount is fixed at generation
// time; only the VAT framing changes here.
//
// A row that is already paid and invoiced is permanently locked. The update
// re-checks the lock in its WHERE clause so two racing recorders cannot
// both get past the gate.
func (e *Engine) RecordPayment(ctx context.Context, paymentID uint64, params RecordPaymentParams, actorID uint64) (*models.Payment, error) {
	method := strings.TrimSpace(params.PaymentMethod)
	if method == "" {
		return nil, fmt.Errorf("%w: payment_method is required", ErrValidation)
	}
	if params.PaymentDate.IsZero() {
		return nil, fmt.Errorf("%w: payment_date is required", ErrValidation)
	}
	if params.VATRate.Valid && !validVATRate(params.VATRate.Decimal) {
		return nil, fmt.Errorf("%w: vat_rate must be 0-100", ErrValidation)
	}

	var before paymentSnapshot
	var updated models.Payment
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if errFind := tx.First(&payment, paymentID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("billing: load payment %d: %w", paymentID, errFind)
		}
		if payment.Locked() {
			return fmt.Errorf("%w: payment %d is paid and invoiced", ErrPaymentLocked, paymentID)
		}
		before = snapshotPayment(&payment)

		shouldInvoice := params.ShouldInvoice || method == models.MethodCard
		vatRate := appliedVATRate(&payment, params)
		amounts := ComputeAmounts([]decimal.Decimal{payment.Amount}, vatRate, shouldInvoice)

		paymentDate := params.PaymentDate.UTC()
		now := nowUTC()
		updates := map[string]any{
			"status":           models.PaymentPaid,
			"payment_date":     paymentDate,
			"payment_method":   method,
			"should_invoice":   shouldInvoice,
			"payment_vat_rate": vatRate,
			"vat_amount":       amounts.VATAmount,
			"total_amount":     amounts.TotalAmount,
			"notes":            strings.TrimSpace(params.Notes),
			"updated_at":       now,
		}
		if method == models.MethodBankTransfer {
			updates["reference_no"] = strings.TrimSpace(params.ReferenceNo)
		} else {
			updates["reference_no"] = ""
		}
		invoiceNo := strings.TrimSpace(params.InvoiceNo)
		if shouldInvoice && invoiceNo != "" {
			updates["invoice_no"] = invoiceNo
			updates["invoice_type"] = strings.TrimSpace(params.InvoiceType)
			updates["invoice_date"] = paymentDate
		} else {
			updates["invoice_no"] = ""
			updates["invoice_type"] = ""
			updates["invoice_date"] = nil
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND NOT (status = ? AND invoice_no <> '')", paymentID, models.PaymentPaid).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("billing: record payment %d: %w", paymentID, res.Error)
		}
		if res.RowsAffected == 0 {
			// A concurrent recorder locked the row between the read and
			// this update.
			return fmt.Errorf("%w: payment %d is paid and invoiced", ErrPaymentLocked, paymentID)
		}

		if errReload := tx.First(&updated, paymentID).Error; errReload != nil {
			return fmt.Errorf("billing: reload payment %d: %w", paymentID, errReload)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	e.record(ctx, audit.Entry{
		Table:       paymentsTable,
		RecordID:    updated.ID,
		Action:      models.AuditPaymentRecorded,
		Old:         before,
		New:         snapshotPayment(&updated),
		ActorID:     actorID,
		Description: fmt.Sprintf("payment recorded via %s for %s", method, updated.PaymentMonth.Format("2006-01")),
	})
	return &updated, nil
}
