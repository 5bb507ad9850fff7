package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceform/internal/logger"
	"invoiceform/pkg/models"
)

// requiredMessages are keyed by the JSON name of the failing field.
var requiredMessages = map[string]string{
	"companyName":        "Company name is required",
	"companyEmail":       "Email is required",
	"clientName":         "Client name is required",
	"clientEmail":        "Email is required",
	"country":            "Country is required",
	"city":               "City is required",
	"postalCode":         "Postal code is required",
	"streetAddress":      "Street address is required",
	"invoiceDate":        "Invoice date is required",
	"paymentTerms":       "Payment terms are required",
	"projectDescription": "Project description is required",
	"name":               "Item name is required",
}

// Validator checks invoice drafts against the field rules declared on the
// models.Invoice struct tags.
type Validator struct {
	validate *validator.Validate
	log      zerolog.Logger
}

// NewValidator creates a validator with the invoice-specific tags registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so error paths match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "decimal", isDecimal)
	mustRegister(v, "mindecimal", minDecimal)

	return &Validator{
		validate: v,
		log:      logger.WithComponent("invoice-validator"),
	}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("invoice: register %q validation: %v", tag, err))
	}
}

// Validate implements Checker.
func (v *Validator) Validate(inv *models.Invoice) error {
	if errs := v.Check(inv); len(errs) > 0 {
		return errs
	}
	return nil
}

// Check evaluates every rule independently and returns all failures. An empty
// map means the draft is valid. The draft is never modified.
func (v *Validator) Check(inv *models.Invoice) ValidationErrors {
	if inv == nil {
		inv = &models.Invoice{}
	}

	out := make(ValidationErrors)

	err := v.validate.Struct(inv)
	if err == nil {
		return out
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable for a misconfigured validator; surface it on the root.
		v.log.Error().Err(err).Msg("Invoice validation could not run")
		out[""] = FieldError{Kind: RequiredFieldMissing, Message: err.Error()}
		return out
	}

	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		if _, seen := out[path]; seen {
			continue
		}
		out[path] = translate(path, fe)
	}

	v.log.Debug().
		Int("invalid_fields", len(out)).
		Strs("fields", out.Fields()).
		Msg("Invoice draft validated")

	return out
}

// fieldPath drops the root struct name from a validator namespace:
// "Invoice.billFrom.address.city" -> "billFrom.address.city".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

func translate(path string, fe validator.FieldError) FieldError {
	leaf := fe.Field()
	out := FieldError{Field: path}

	switch fe.Tag() {
	case "notblank", "required":
		out.Kind = RequiredFieldMissing
		out.Message = requiredMessages[leaf]
		if out.Message == "" {
			out.Message = fmt.Sprintf("%s is required", leaf)
		}
	case "email":
		out.Kind = InvalidEmailFormat
		out.Message = "Invalid email"
	case "decimal":
		out.Kind = InvalidNumber
		out.Message = fmt.Sprintf("%s must be a number", numberLabel(leaf))
	case "mindecimal":
		out.Kind = BelowMinimum
		if leaf == "price" {
			out.Message = "Price must be a positive number"
		} else {
			out.Message = fmt.Sprintf("%s must be at least %s", numberLabel(leaf), fe.Param())
		}
	case "oneof":
		out.Kind = InvalidChoice
		out.Message = "Payment terms must be one of Net 10 Days, Net 20 Days or Net 30 Days"
	case "datetime":
		out.Kind = InvalidDate
		out.Message = "Invoice date must be a valid date (YYYY-MM-DD)"
	default:
		out.Kind = RequiredFieldMissing
		out.Message = fmt.Sprintf("%s failed %q", leaf, fe.Tag())
	}
	return out
}

func numberLabel(leaf string) string {
	switch leaf {
	case "quantity":
		return "Quantity"
	case "price":
		return "Price"
	}
	return leaf
}

// isDecimal reports whether a string field parses as a decimal number.
func isDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// minDecimal reports whether a string field parses and is >= the tag parameter.
func minDecimal(fl validator.FieldLevel) bool {
	min, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return d.GreaterThanOrEqual(min)
}
