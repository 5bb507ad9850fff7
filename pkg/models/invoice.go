package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date format used for InvoiceDate.
const DateLayout = "2006-01-02"

// PaymentTerms is one of the fixed payment term codes accepted by the invoice API.
type PaymentTerms string

const (
	Net10Days PaymentTerms = "NET_10_DAYS"
	Net20Days PaymentTerms = "NET_20_DAYS"
	Net30Days PaymentTerms = "NET_30_DAYS"
)

// PaymentTermOption pairs a term code with its display label.
type PaymentTermOption struct {
	Value PaymentTerms
	Label string
}

// PaymentTermOptions returns the selectable terms in display order.
func PaymentTermOptions() []PaymentTermOption {
	return []PaymentTermOption{
		{Value: Net10Days, Label: "Net 10 Days"},
		{Value: Net20Days, Label: "Net 20 Days"},
		{Value: Net30Days, Label: "Net 30 Days"},
	}
}

// Label returns the display label for the term, or "" if it is not a known term.
func (p PaymentTerms) Label() string {
	for _, opt := range PaymentTermOptions() {
		if opt.Value == p {
			return opt.Label
		}
	}
	return ""
}

// Number holds a numeric field exactly as the user typed it. Partially typed
// rows ("", "1.", "abc") are valid draft states, so parsing is deferred.
type Number string

// Num formats a float as a Number.
func Num(v float64) Number {
	return Number(decimal.NewFromFloat(v).String())
}

// Decimal parses the number. Surrounding whitespace is ignored.
func (n Number) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(n)))
}

// DecimalOrZero parses the number, treating anything unparseable as zero.
func (n Number) DecimalOrZero() decimal.Decimal {
	d, err := n.Decimal()
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MarshalJSON writes a parseable Number as a JSON number and anything else as a string.
func (n Number) MarshalJSON() ([]byte, error) {
	if d, err := n.Decimal(); err == nil {
		return []byte(d.String()), nil
	}
	return json.Marshal(string(n))
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (n *Number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = Number(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = Number(num.String())
	return nil
}

// Address is the postal address embedded in both parties of an invoice.
type Address struct {
	Country       string `json:"country" validate:"notblank"`
	City          string `json:"city" validate:"notblank"`
	PostalCode    string `json:"postalCode" validate:"notblank"`
	StreetAddress string `json:"streetAddress" validate:"notblank"`
}

// BillFrom is the issuing company.
type BillFrom struct {
	CompanyName  string  `json:"companyName" validate:"notblank"`
	CompanyEmail string  `json:"companyEmail" validate:"notblank,email"`
	Address      Address `json:"address"`
}

// BillTo is the invoiced client.
type BillTo struct {
	ClientName  string  `json:"clientName" validate:"notblank"`
	ClientEmail string  `json:"clientEmail" validate:"notblank,email"`
	Address     Address `json:"address"`
}

// LineItem is one billable row.
type LineItem struct {
	Name     string `json:"name" validate:"notblank"`
	Quantity Number `json:"quantity" validate:"decimal,mindecimal=1"`
	Price    Number `json:"price" validate:"decimal,mindecimal=0"`
}

// NewLineItem returns the row added by "Add New Item".
func NewLineItem() LineItem {
	return LineItem{Quantity: "1", Price: "0"}
}

// Invoice is the editable invoice draft. Subtotal, Tax and Total are derived
// from Items and are only filled in on the submission copy.
type Invoice struct {
	BillFrom           BillFrom     `json:"billFrom"`
	BillTo             BillTo       `json:"billTo"`
	InvoiceDate        string       `json:"invoiceDate" validate:"notblank,datetime=2006-01-02"`
	PaymentTerms       PaymentTerms `json:"paymentTerms" validate:"notblank,oneof=NET_10_DAYS NET_20_DAYS NET_30_DAYS"`
	ProjectDescription string       `json:"projectDescription" validate:"notblank"`
	Items              []LineItem   `json:"items" validate:"dive"`

	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
	Tax      *decimal.Decimal `json:"tax,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`
}

// NewDraft returns a blank invoice dated on now's calendar day, with one empty row.
func NewDraft(now time.Time) *Invoice {
	return &Invoice{
		InvoiceDate: now.Format(DateLayout),
		Items:       []LineItem{NewLineItem()},
	}
}

// Clone returns a deep copy of the invoice.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.Items != nil {
		out.Items = make([]LineItem, len(inv.Items))
		copy(out.Items, inv.Items)
	}
	out.Subtotal = cloneDecimal(inv.Subtotal)
	out.Tax = cloneDecimal(inv.Tax)
	out.Total = cloneDecimal(inv.Total)
	return &out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
