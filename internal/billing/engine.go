package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netbillhq/netbill/internal/audit"
	"github.com/netbillhq/netbill/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Engine implements the subscription lifecycle and recurring billing rules.
// Every mutating operation takes an explicit acting admin ID and runs its
// row writes inside a single database transaction; the audit append happens
// after commit and is best-effort.
type Engine struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewEngine constructs an Engine on top of a database handle and an audit
// recorder.
func NewEngine(db *gorm.DB, recorder *audit.Recorder) *Engine {
	return &Engine{db: db, recorder: recorder}
}

// Table names the engine audits against.
const (
	subscriptionsTable = "subscriptions"
	paymentsTable      = "payments"
)

// nowUTC returns the current UTC time.
func nowUTC() time.Time { return time.Now().UTC() }

// firstOfMonth truncates a time to the first day of its month in UTC.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthKey formats a payment month for map lookups.
func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// loadSubscription fetches a subscription row or reports ErrSubscriptionNotFound.
func loadSubscription(tx *gorm.DB, id uint64) (*models.Subscription, error) {
	var sub models.Subscription
	if errFind := tx.First(&sub, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("billing: load subscription %d: %w", id, errFind)
	}
	return &sub, nil
}

// subscriptionSnapshot is the audit representation of a subscription row.
type subscriptionSnapshot struct {
	ID               uint64                    `json:"id"`
	SiteID           uint64                    `json:"site_id"`
	BasePrice        decimal.Decimal           `json:"base_price"`
	SMSFee           decimal.Decimal           `json:"sms_fee"`
	LineFee          decimal.Decimal           `json:"line_fee"`
	StaticIPFee      decimal.Decimal           `json:"static_ip_fee"`
	VATRate          decimal.Decimal           `json:"vat_rate"`
	Cost             decimal.Decimal           `json:"cost"`
	StaticIPCost     decimal.Decimal           `json:"static_ip_cost"`
	Currency         string                    `json:"currency"`
	BillingFrequency models.BillingFrequency   `json:"billing_frequency"`
	BillingDay       int                       `json:"billing_day"`
	StartDate        time.Time                 `json:"start_date"`
	Status           models.SubscriptionStatus `json:"status"`
	PausedAt         *time.Time                `json:"paused_at,omitempty"`
	CancelledAt      *time.Time                `json:"cancelled_at,omitempty"`
	ReactivatedAt    *time.Time                `json:"reactivated_at,omitempty"`
	PauseReason      string                    `json:"pause_reason,omitempty"`
	CancelReason     string                    `json:"cancel_reason,omitempty"`
}

// snapshotSubscription converts a subscription row into its audit form.
func snapshotSubscription(sub *models.Subscription) subscriptionSnapshot {
	return subscriptionSnapshot{
		ID:               sub.ID,
		SiteID:           sub.SiteID,
		BasePrice:        sub.BasePrice,
		SMSFee:           sub.SMSFee,
		LineFee:          sub.LineFee,
		StaticIPFee:      sub.StaticIPFee,
		VATRate:          sub.VATRate,
		Cost:             sub.Cost,
		StaticIPCost:     sub.StaticIPCost,
		Currency:         sub.Currency,
		BillingFrequency: sub.BillingFrequency,
		BillingDay:       sub.BillingDay,
		StartDate:        sub.StartDate,
		Status:           sub.Status,
		PausedAt:         sub.PausedAt,
		CancelledAt:      sub.CancelledAt,
		ReactivatedAt:    sub.ReactivatedAt,
		PauseReason:      sub.PauseReason,
		CancelReason:     sub.CancelReason,
	}
}

// paymentSnapshot is the audit representation of a payment row.
type paymentSnapshot struct {
	ID             uint64               `json:"id"`
	SubscriptionID uint64               `json:"subscription_id"`
	PaymentMonth   time.Time            `json:"payment_month"`
	Amount         decimal.Decimal      `json:"amount"`
	VATAmount      decimal.Decimal      `json:"vat_amount"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	Status         models.PaymentStatus `json:"status"`
	PaymentDate    *time.Time           `json:"payment_date,omitempty"`
	PaymentMethod  string               `json:"payment_method,omitempty"`
	ReferenceNo    string               `json:"reference_no,omitempty"`
	ShouldInvoice  bool                 `json:"should_invoice"`
	InvoiceNo      string               `json:"invoice_no,omitempty"`
	InvoiceType    string               `json:"invoice_type,omitempty"`
	InvoiceDate    *time.Time           `json:"invoice_date,omitempty"`
	Notes          string               `json:"notes,omitempty"`
}

// snapshotPayment converts a payment row into its audit form.
func snapshotPayment(p *models.Payment) paymentSnapshot {
	return paymentSnapshot{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		PaymentMonth:   p.PaymentMonth,
		Amount:         p.Amount,
		VATAmount:      p.VATAmount,
		TotalAmount:    p.TotalAmount,
		Status:         p.Status,
		PaymentDate:    p.PaymentDate,
		PaymentMethod:  p.PaymentMethod,
		ReferenceNo:    p.ReferenceNo,
		ShouldInvoice:  p.ShouldInvoice,
		InvoiceNo:      p.InvoiceNo,
		InvoiceType:    p.InvoiceType,
		InvoiceDate:    p.InvoiceDate,
		Notes:          p.Notes,
	}
}

// record forwards an entry to the audit recorder when one is attached.
func (e *Engine) record(ctx context.Context, entry audit.Entry) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(ctx, entry)
}
