package billing

import "github.com/shopspring/decimal"

// minorUnitPlaces is the rounding precision for all derived amounts.
// Settlement currencies here carry two minor-unit digits.
const minorUnitPlaces = 2

// DefaultVATRate applies when neither the caller nor the existing row
// provides a VAT rate.
var DefaultVATRate = decimal.NewFromInt(20)

// Amounts holds the derived money fields of a billed period.
type Amounts struct {
	Amount      decimal.Decimal // Pre-VAT subtotal.
	VATAmount   decimal.Decimal // VAT on the subtotal.
	TotalAmount decimal.Decimal // Subtotal plus VAT.
}

// ComputeAmounts derives subtotal, VAT, and total from price components and
// a VAT percentage. It is the single source of truth for amount math:
// schedule generation, price revision, and payment recording all call it so
// the three paths cannot drift.
//
// When shouldInvoice is false no VAT applies and the total equals the
// subtotal. VAT is rounded to the currency minor unit.
func ComputeAmounts(components []decimal.Decimal, vatRate decimal.Decimal, shouldInvoice bool) Amounts {
	amount := decimal.Zero
	for _, component := range components {
		amount = amount.Add(component)
	}
	amount = amount.Round(minorUnitPlaces)

	if !shouldInvoice {
		return Amounts{Amount: amount, VATAmount: decimal.Zero, TotalAmount: amount}
	}

	vat := amount.Mul(vatRate).Div(decimal.NewFromInt(100)).Round(minorUnitPlaces)
	return Amounts{Amount: amount, VATAmount: vat, TotalAmount: amount.Add(vat)}
}

// MultiplySpan scales monthly amounts to a period spanning months months.
// VAT is rounded at the monthly level first and then multiplied, so an
// annual period carries exactly twelve times the monthly VAT.
func (a Amounts) MultiplySpan(months int) Amounts {
	span := decimal.NewFromInt(int64(months))
	amount := a.Amount.Mul(span)
	vat := a.VATAmount.Mul(span)
	return Amounts{Amount: amount, VATAmount: vat, TotalAmount: amount.Add(vat)}
}
