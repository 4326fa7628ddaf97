package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the settlement state of a billed period.
type PaymentStatus string

// PaymentStatus constants define payment settlement states.
const (
	// PaymentPending marks an unsettled billed period.
	PaymentPending PaymentStatus = "pending"
	// PaymentPaid marks a settled period.
	PaymentPaid PaymentStatus = "paid"
	// PaymentFailed marks a period whose collection failed.
	PaymentFailed PaymentStatus = "failed"
	// PaymentSkipped marks a period voided by a pause.
	PaymentSkipped PaymentStatus = "skipped"
	// PaymentWriteOff marks a period written off as uncollectible.
	PaymentWriteOff PaymentStatus = "write_off"
)

// PaymentMethodKind constants name the accepted settlement channels.
const (
	MethodCash         = "cash"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
)

// Payment records one billed period's amount and settlement state.
//
// Once Status is paid and InvoiceNo is set the row is permanently locked.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SubscriptionID uint64       `gorm:"not null;index:idx_payments_sub_month"` // Related subscription ID.
	Subscription   Subscription `gorm:"foreignKey:SubscriptionID"`             // Related subscription record.

	PaymentMonth time.Time `gorm:"not null;index:idx_payments_sub_month"` // First day of the billed period.

	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Pre-VAT amount for the period.
	VATAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // VAT amount for the period.
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Amount plus VAT.

	Status PaymentStatus `gorm:"type:varchar(16);not null;default:'pending';index"` // Settlement state.

	PaymentDate    *time.Time          // When the payment was received.
	PaymentMethod  string              `gorm:"type:varchar(32)"`     // Settlement channel used.
	ReferenceNo    string              `gorm:"type:varchar(64)"`     // Bank transfer reference, informational.
	ShouldInvoice  bool                `gorm:"not null;default:false"` // Whether an invoice was issued.
	PaymentVATRate decimal.NullDecimal `gorm:"type:decimal(5,2)"`    // VAT rate applied at recording time.

	InvoiceNo   string     `gorm:"type:varchar(64)"` // Issued invoice number.
	InvoiceType string     `gorm:"type:varchar(32)"` // Issued invoice type.
	InvoiceDate *time.Time // Issued invoice date.

	Notes string `gorm:"type:text"` // Free-form notes set at recording time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Locked reports whether the record is under the immutability lock.
func (p *Payment) Locked() bool {
	return p.Status == PaymentPaid && p.InvoiceNo != ""
}
