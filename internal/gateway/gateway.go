// Package gateway submits validated invoices to the remote service that records them.
//
// Implementations:
//   - GraphQLGateway: the createInvoice mutation of the invoice API (default)
//   - sheets.Gateway: one row per invoice in a Google Sheet (see internal/sheets)
//
// Every failure, whatever its cause, matches ErrSubmissionFailed. The form
// only needs to know whether the submission succeeded; the *Error carries the
// transport detail for logs.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"invoiceform/pkg/models"
)

// Gateway records a completed invoice.
type Gateway interface {
	// CreateInvoice submits the invoice. The invoice is expected to have been
	// validated and to carry freshly computed Subtotal, Tax and Total.
	CreateInvoice(ctx context.Context, inv *models.Invoice) (*Confirmation, error)
}

// Confirmation is what the remote service echoes back for a created invoice.
type Confirmation struct {
	ID          string            `json:"id"`
	CompanyName string            `json:"companyName"`
	ClientName  string            `json:"clientName"`
	Items       []models.LineItem `json:"items"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, inv *models.Invoice) (*Confirmation, error)

// CreateInvoice calls f(ctx, inv).
func (f GatewayFunc) CreateInvoice(ctx context.Context, inv *models.Invoice) (*Confirmation, error) {
	return f(ctx, inv)
}
