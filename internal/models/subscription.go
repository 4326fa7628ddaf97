package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

// SubscriptionStatus constants define subscription lifecycle states.
const (
	// SubscriptionActive marks a subscription that is billed normally.
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionPaused marks a temporarily suspended subscription.
	SubscriptionPaused SubscriptionStatus = "paused"
	// SubscriptionCancelled marks a terminated subscription. Terminal.
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionPaused, SubscriptionCancelled:
		return true
	}
	return false
}

// BillingFrequency represents how often a subscription is billed.
type BillingFrequency string

// BillingFrequency constants define supported billing cadences.
const (
	// FrequencyMonthly bills twelve one-month periods per year.
	FrequencyMonthly BillingFrequency = "monthly"
	// FrequencySixMonth bills two six-month periods per year.
	FrequencySixMonth BillingFrequency = "6_month"
	// FrequencyYearly bills one twelve-month period per year.
	FrequencyYearly BillingFrequency = "yearly"
)

// ParseBillingFrequency normalizes a frequency string. The second return
// value is false when the input is not a recognized cadence.
func ParseBillingFrequency(raw string) (BillingFrequency, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly":
		return FrequencyMonthly, true
	case "6_month", "6month", "six_month":
		return FrequencySixMonth, true
	case "yearly", "annual":
		return FrequencyYearly, true
	}
	return "", false
}

// Months returns the month span of a single billing period.
func (f BillingFrequency) Months() int {
	switch f {
	case FrequencySixMonth:
		return 6
	case FrequencyYearly:
		return 12
	default:
		return 1
	}
}

// PeriodsPerYear returns how many periods one schedule year holds.
func (f BillingFrequency) PeriodsPerYear() int {
	return 12 / f.Months()
}

// Subscription represents a recurring billing agreement tied to a site.
//
// Status and the transition timestamps are owned by the billing lifecycle;
// nothing else may write them.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SiteID uint64 `gorm:"not null;index"`    // Related site ID.
	Site   Site   `gorm:"foreignKey:SiteID"` // Related site record.

	PaymentMethodID *uint64        `gorm:"index"`                      // Preferred payment method ID.
	PaymentMethod   *PaymentMethod `gorm:"foreignKey:PaymentMethodID"` // Preferred payment method.

	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Monthly base price before VAT.
	SMSFee      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Monthly SMS notification fee.
	LineFee     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Monthly line rental fee.
	StaticIPFee decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Monthly static IP fee.
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`  // VAT percentage applied on billing.

	Cost         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Internal monthly cost.
	StaticIPCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // Internal static IP cost.
	Currency     string          `gorm:"type:varchar(8);not null;default:'TRY'"` // ISO currency code.

	BillingFrequency BillingFrequency `gorm:"type:varchar(16);not null"` // Billing cadence.
	BillingDay       int              `gorm:"not null;default:1"`        // Day of month payments fall due (1-31).
	StartDate        time.Time        `gorm:"not null"`                  // First day of the first billed period.

	Status        SubscriptionStatus `gorm:"type:varchar(16);not null;default:'active';index"` // Lifecycle state.
	PausedAt      *time.Time         // When the subscription was last paused.
	CancelledAt   *time.Time         // When the subscription was cancelled.
	ReactivatedAt *time.Time         // When the subscription was last reactivated.
	PauseReason   string             `gorm:"type:text"` // Reason supplied on pause.
	CancelReason  string             `gorm:"type:text"` // Reason supplied on cancel.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PriceComponents returns the monthly pre-VAT price components.
func (s *Subscription) PriceComponents() []decimal.Decimal {
	return []decimal.Decimal{s.BasePrice, s.SMSFee, s.LineFee, s.StaticIPFee}
}
