package invoice

import (
	"github.com/shopspring/decimal"

	"invoiceform/pkg/models"
)

// Totals are the amounts derived from an invoice's line items. They are kept
// at full precision; rounding only happens when formatting.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// FormattedTotals are Totals rendered with exactly two decimals.
type FormattedTotals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// LineTotal returns quantity x price, counting unparseable values as zero.
func LineTotal(item models.LineItem) decimal.Decimal {
	return item.Quantity.DecimalOrZero().Mul(item.Price.DecimalOrZero())
}

// CalculateTotals derives subtotal, tax and total over all items in order.
// It never fails; an empty item list yields zero for every amount.
func CalculateTotals(items []models.LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item))
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Format renders the totals to two decimal places.
func (t Totals) Format() FormattedTotals {
	return FormattedTotals{
		Subtotal: t.Subtotal.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}

// Apply returns a copy of inv with Subtotal, Tax and Total recomputed from its
// items. Any amounts already present on inv are ignored.
func Apply(inv *models.Invoice) *models.Invoice {
	out := inv.Clone()
	t := CalculateTotals(out.Items)
	out.Subtotal = &t.Subtotal
	out.Tax = &t.Tax
	out.Total = &t.Total
	return out
}
