// Package invoice holds the rules that every invoice draft is held to before it
// may be submitted: field validation and the derived subtotal, tax and total.
//
// Validation Rules:
//   - Company/client name, both emails, all four address fields of both parties,
//     invoice date, payment terms and project description are required
//   - Emails must look like local@domain
//   - Payment terms must be NET_10_DAYS, NET_20_DAYS or NET_30_DAYS
//   - Each item needs a name, a quantity of at least 1 and a price of at least 0
//
// Totals:
//   - subtotal = sum of quantity x price over all items
//   - tax = subtotal x 10%
//   - total = subtotal + tax
//
// Totals never fail: quantities and prices that do not parse count as zero,
// because half-typed rows are a normal state while the form is being edited.
package invoice

import (
	"github.com/shopspring/decimal"

	"invoiceform/pkg/models"
)

// TaxRate is the flat tax applied to every invoice subtotal.
var TaxRate = decimal.NewFromFloat(0.10)

// Checker validates invoice drafts.
type Checker interface {
	// Validate reports every failing field of the draft. A nil error means the
	// draft may be submitted; otherwise the error is a ValidationErrors.
	Validate(inv *models.Invoice) error
}
