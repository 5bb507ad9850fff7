package invoice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a field validation failure.
type ErrorKind string

const (
	// RequiredFieldMissing is reported for empty or whitespace-only required fields.
	RequiredFieldMissing ErrorKind = "RequiredFieldMissing"

	// InvalidEmailFormat is reported for non-empty email fields that are not local@domain.
	InvalidEmailFormat ErrorKind = "InvalidEmailFormat"

	// BelowMinimum is reported when a quantity is below 1 or a price is below 0.
	BelowMinimum ErrorKind = "BelowMinimum"

	// InvalidNumber is reported when a quantity or price does not parse as a number.
	InvalidNumber ErrorKind = "InvalidNumber"

	// InvalidChoice is reported when payment terms are not one of the fixed codes.
	InvalidChoice ErrorKind = "InvalidChoice"

	// InvalidDate is reported when the invoice date is not a YYYY-MM-DD calendar date.
	InvalidDate ErrorKind = "InvalidDate"
)

// ErrInvalidInvoice is matched by every ValidationErrors.
var ErrInvalidInvoice = errors.New("invoice failed validation")

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors maps field paths such as "billFrom.companyEmail" or
// "items[1].price" to the error reported for that field.
type ValidationErrors map[string]FieldError

// Error implements the error interface. Fields are listed in sorted order.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	parts := make([]string, 0, len(ve))
	for _, field := range ve.Fields() {
		parts = append(parts, ve[field].Error())
	}
	return fmt.Sprintf("%d invalid field(s): %s", len(ve), strings.Join(parts, "; "))
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidInvoice).
func (ve ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInvoice
}

// Fields returns the failing field paths in sorted order.
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Messages flattens the map to field path -> message.
func (ve ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(ve))
	for f, e := range ve {
		out[f] = e.Message
	}
	return out
}

// Filter returns the subset of errors whose field satisfies keep.
func (ve ValidationErrors) Filter(keep func(field string) bool) ValidationErrors {
	out := make(ValidationErrors)
	for f, e := range ve {
		if keep(f) {
			out[f] = e
		}
	}
	return out
}
