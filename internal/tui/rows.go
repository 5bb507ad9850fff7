package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"

	"invoiceform/internal/form"
	"invoiceform/pkg/models"
)

type rowKind int

const (
	textRow rowKind = iota
	termsRow
	countryRow
)

// row is one focusable field of the form.
type row struct {
	path    string
	label   string
	section string
	kind    rowKind
	input   textinput.Model
}

var fieldLabels = map[string]string{
	form.FieldCompanyName:        "Company Name",
	form.FieldCompanyEmail:       "Company Email",
	form.FieldBillFromCountry:    "Country",
	form.FieldBillFromCity:       "City",
	form.FieldBillFromPostalCode: "Postal Code",
	form.FieldBillFromStreet:     "Street Address",
	form.FieldClientName:         "Client Name",
	form.FieldClientEmail:        "Client Email",
	form.FieldBillToCountry:      "Country",
	form.FieldBillToCity:         "City",
	form.FieldBillToPostalCode:   "Postal Code",
	form.FieldBillToStreet:       "Street Address",
	form.FieldInvoiceDate:        "Invoice Date",
	form.FieldPaymentTerms:       "Payment Terms",
	form.FieldProjectDescription: "Project",
}

var itemLabels = map[string]string{
	form.ItemName:     "Item Name",
	form.ItemQuantity: "Qty.",
	form.ItemPrice:    "Price",
}

var placeholders = map[string]string{
	form.FieldCompanyEmail: "billing@company.com",
	form.FieldClientEmail:  "client@company.com",
	form.FieldInvoiceDate:  "YYYY-MM-DD",
}

// buildRows creates one row per field of inv, in form order.
func buildRows(inv *models.Invoice) []row {
	paths := form.Fields(inv)
	rows := make([]row, 0, len(paths))
	for _, path := range paths {
		r := row{path: path, kind: textRow}

		if idx, leaf, ok := form.ParseItemField(path); ok {
			r.label = itemLabels[leaf]
			if leaf == form.ItemName {
				r.section = fmt.Sprintf("Item %d", idx+1)
			}
		} else {
			r.label = fieldLabels[path]
			r.section = sectionBefore(path)
		}

		switch path {
		case form.FieldPaymentTerms:
			r.kind = termsRow
		case form.FieldBillFromCountry, form.FieldBillToCountry:
			r.kind = countryRow
		}

		r.input = textinput.New()
		r.input.Prompt = ""
		r.input.CharLimit = 120
		r.input.Width = 32
		r.input.Placeholder = placeholders[path]
		value, _ := form.FieldValue(inv, path)
		r.input.SetValue(value)

		rows = append(rows, r)
	}
	return rows
}

func sectionBefore(path string) string {
	switch path {
	case form.FieldCompanyName:
		return "Bill From"
	case form.FieldClientName:
		return "Bill To"
	case form.FieldInvoiceDate:
		return "Invoice"
	}
	return ""
}

// cycleTerms returns the payment terms after (dir=1) or before (dir=-1)
// current. An unset value starts at the first option.
func cycleTerms(current models.PaymentTerms, dir int) models.PaymentTerms {
	opts := models.PaymentTermOptions()
	for i, opt := range opts {
		if opt.Value == current {
			return opts[(i+dir+len(opts))%len(opts)].Value
		}
	}
	if dir < 0 {
		return opts[len(opts)-1].Value
	}
	return opts[0].Value
}

// cycleCountry steps through names the same way cycleTerms does.
func cycleCountry(names []string, current string, dir int) string {
	if len(names) == 0 {
		return current
	}
	for i, name := range names {
		if name == current {
			return names[(i+dir+len(names))%len(names)]
		}
	}
	if dir < 0 {
		return names[len(names)-1]
	}
	return names[0]
}
