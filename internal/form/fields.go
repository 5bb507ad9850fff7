package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"invoiceform/pkg/models"
)

// ErrUnknownField is returned for a path that names no field of the draft.
var ErrUnknownField = errors.New("unknown field")

// Field paths of the non-item fields, in form order.
const (
	FieldCompanyName        = "billFrom.companyName"
	FieldCompanyEmail       = "billFrom.companyEmail"
	FieldBillFromCountry    = "billFrom.address.country"
	FieldBillFromCity       = "billFrom.address.city"
	FieldBillFromPostalCode = "billFrom.address.postalCode"
	FieldBillFromStreet     = "billFrom.address.streetAddress"
	FieldClientName         = "billTo.clientName"
	FieldClientEmail        = "billTo.clientEmail"
	FieldBillToCountry      = "billTo.address.country"
	FieldBillToCity         = "billTo.address.city"
	FieldBillToPostalCode   = "billTo.address.postalCode"
	FieldBillToStreet       = "billTo.address.streetAddress"
	FieldInvoiceDate        = "invoiceDate"
	FieldPaymentTerms       = "paymentTerms"
	FieldProjectDescription = "projectDescription"
	itemsPrefix             = "items["
)

var headerFields = []string{
	FieldCompanyName,
	FieldCompanyEmail,
	FieldBillFromCountry,
	FieldBillFromCity,
	FieldBillFromPostalCode,
	FieldBillFromStreet,
	FieldClientName,
	FieldClientEmail,
	FieldBillToCountry,
	FieldBillToCity,
	FieldBillToPostalCode,
	FieldBillToStreet,
	FieldInvoiceDate,
	FieldPaymentTerms,
	FieldProjectDescription,
}

// Item field leaves.
const (
	ItemName     = "name"
	ItemQuantity = "quantity"
	ItemPrice    = "price"
)

var itemLeaves = []string{ItemName, ItemQuantity, ItemPrice}

// ItemField returns the path of a line item field, e.g. ItemField(2, ItemPrice) = "items[2].price".
func ItemField(index int, leaf string) string {
	return fmt.Sprintf("items[%d].%s", index, leaf)
}

// Fields lists every validatable field path of inv in form order.
func Fields(inv *models.Invoice) []string {
	out := make([]string, 0, len(headerFields)+3*len(inv.Items))
	out = append(out, headerFields...)
	for i := range inv.Items {
		for _, leaf := range itemLeaves {
			out = append(out, ItemField(i, leaf))
		}
	}
	return out
}

// ParseItemField splits "items[3].price" into (3, "price"). ok is false for
// paths that do not name an item field.
func ParseItemField(path string) (int, string, bool) {
	rest, ok := strings.CutPrefix(path, itemsPrefix)
	if !ok {
		return 0, "", false
	}
	idx, leaf, ok := strings.Cut(rest, "].")
	if !ok {
		return 0, "", false
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return 0, "", false
	}
	return n, leaf, true
}

// fieldRef resolves a path to the string it names inside inv.
func fieldRef(inv *models.Invoice, path string) (*string, error) {
	switch path {
	case FieldCompanyName:
		return &inv.BillFrom.CompanyName, nil
	case FieldCompanyEmail:
		return &inv.BillFrom.CompanyEmail, nil
	case FieldBillFromCountry:
		return &inv.BillFrom.Address.Country, nil
	case FieldBillFromCity:
		return &inv.BillFrom.Address.City, nil
	case FieldBillFromPostalCode:
		return &inv.BillFrom.Address.PostalCode, nil
	case FieldBillFromStreet:
		return &inv.BillFrom.Address.StreetAddress, nil
	case FieldClientName:
		return &inv.BillTo.ClientName, nil
	case FieldClientEmail:
		return &inv.BillTo.ClientEmail, nil
	case FieldBillToCountry:
		return &inv.BillTo.Address.Country, nil
	case FieldBillToCity:
		return &inv.BillTo.Address.City, nil
	case FieldBillToPostalCode:
		return &inv.BillTo.Address.PostalCode, nil
	case FieldBillToStreet:
		return &inv.BillTo.Address.StreetAddress, nil
	case FieldInvoiceDate:
		return &inv.InvoiceDate, nil
	case FieldPaymentTerms:
		return (*string)(&inv.PaymentTerms), nil
	case FieldProjectDescription:
		return &inv.ProjectDescription, nil
	}

	idx, leaf, ok := ParseItemField(path)
	if !ok || idx >= len(inv.Items) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	item := &inv.Items[idx]
	switch leaf {
	case ItemName:
		return &item.Name, nil
	case ItemQuantity:
		return (*string)(&item.Quantity), nil
	case ItemPrice:
		return (*string)(&item.Price), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
}

// FieldValue returns the current value of path in inv.
func FieldValue(inv *models.Invoice, path string) (string, error) {
	ref, err := fieldRef(inv, path)
	if err != nil {
		return "", err
	}
	return *ref, nil
}
