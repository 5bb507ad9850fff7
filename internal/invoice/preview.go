package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceform/pkg/models"
)

// PreviewRow is one rendered item row.
type PreviewRow struct {
	Name     string
	Quantity string
	Price    string
	Amount   string
}

// Preview is the read-only rendering of a draft shown beside the form.
type Preview struct {
	InvoiceDate        string
	PaymentTerms       string
	BillFrom           []string
	BillTo             []string
	ProjectDescription string
	Rows               []PreviewRow
	Totals             FormattedTotals
}

// BuildPreview renders a draft for display. Rows without a name are skipped
// but still count toward the totals.
func BuildPreview(inv *models.Invoice) Preview {
	p := Preview{
		InvoiceDate:        FormatDate(inv.InvoiceDate),
		PaymentTerms:       FormatPaymentTerms(inv.PaymentTerms),
		ProjectDescription: inv.ProjectDescription,
		BillFrom:           partyLines(inv.BillFrom.CompanyName, inv.BillFrom.CompanyEmail, inv.BillFrom.Address),
		BillTo:             partyLines(inv.BillTo.ClientName, inv.BillTo.ClientEmail, inv.BillTo.Address),
	}

	for _, item := range inv.Items {
		if item.Name == "" {
			continue
		}
		p.Rows = append(p.Rows, PreviewRow{
			Name:     item.Name,
			Quantity: string(item.Quantity),
			Price:    FormatMoney(item.Price.DecimalOrZero()),
			Amount:   FormatMoney(LineTotal(item)),
		})
	}

	t := CalculateTotals(inv.Items).Format()
	p.Totals = FormattedTotals{
		Subtotal: "$" + t.Subtotal,
		Tax:      "$" + t.Tax,
		Total:    "$" + t.Total,
	}
	return p
}

func partyLines(name, email string, addr models.Address) []string {
	cityLine := addr.City
	if addr.City != "" && addr.PostalCode != "" {
		cityLine += ","
	}
	cityLine = strings.TrimSpace(cityLine + " " + addr.PostalCode)
	return []string{name, email, addr.StreetAddress, cityLine, addr.Country}
}

// FormatDate renders an ISO date as "Jan 02, 2006", or "Invalid date".
func FormatDate(date string) string {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "Invalid date"
	}
	return t.Format("Jan 02, 2006")
}

// FormatPaymentTerms replaces underscores with spaces: NET_30_DAYS -> NET 30 DAYS.
func FormatPaymentTerms(terms models.PaymentTerms) string {
	return strings.ReplaceAll(string(terms), "_", " ")
}

// FormatMoney renders an amount as dollars with two decimals.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
