package gateway

import "invoiceform/pkg/models"

// CreateInvoiceMutation is the GraphQL document sent by GraphQLGateway and
// answered by the local invoice API.
const CreateInvoiceMutation = `mutation CreateInvoice($input: CreateInvoiceInput!) {
  createInvoice(input: $input) {
    id
    billingFrom {
      companyName
    }
    billingTo {
      clientName
    }
    items {
      name
      quantity
      price
    }
    totalAmount
  }
}`

// GraphQLRequest is the body of a GraphQL POST.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// CreateInvoiceInput is the $input variable of the createInvoice mutation.
type CreateInvoiceInput struct {
	CreateInvoiceAttributes CreateInvoiceAttributes `json:"createInvoiceAttributes"`
}

// CreateInvoiceAttributes is the flat party / nested address shape the remote API expects.
type CreateInvoiceAttributes struct {
	BillingFromAddress AddressInput `json:"billingFromAddress"`
	CompanyName        string       `json:"companyName"`
	CompanyEmail       string       `json:"companyEmail"`
	BillingToAddress   AddressInput `json:"billingToAddress"`
	ClientName         string       `json:"clientName"`
	ClientEmail        string       `json:"clientEmail"`
	InvoiceDate        string       `json:"invoiceDate"`
	PaymentTerms       string       `json:"paymentTerms"`
	ProjectDescription string       `json:"projectDescription"`
	Items              []ItemInput  `json:"items"`
}

// AddressInput is an address on the wire.
type AddressInput struct {
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	Country       string `json:"country"`
	PostalCode    string `json:"postalCode"`
}

// ItemInput is a line item on the wire.
type ItemInput struct {
	Name     string        `json:"name"`
	Quantity models.Number `json:"quantity"`
	Price    models.Number `json:"price"`
}

// NewCreateInvoiceInput maps a draft to the mutation input.
func NewCreateInvoiceInput(inv *models.Invoice) CreateInvoiceInput {
	attrs := CreateInvoiceAttributes{
		BillingFromAddress: addressInput(inv.BillFrom.Address),
		CompanyName:        inv.BillFrom.CompanyName,
		CompanyEmail:       inv.BillFrom.CompanyEmail,
		BillingToAddress:   addressInput(inv.BillTo.Address),
		ClientName:         inv.BillTo.ClientName,
		ClientEmail:        inv.BillTo.ClientEmail,
		InvoiceDate:        inv.InvoiceDate,
		PaymentTerms:       string(inv.PaymentTerms),
		ProjectDescription: inv.ProjectDescription,
		Items:              make([]ItemInput, 0, len(inv.Items)),
	}
	for _, item := range inv.Items {
		attrs.Items = append(attrs.Items, ItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return CreateInvoiceInput{CreateInvoiceAttributes: attrs}
}

// Invoice maps the mutation input back to a draft.
func (a CreateInvoiceAttributes) Invoice() *models.Invoice {
	inv := &models.Invoice{
		BillFrom: models.BillFrom{
			CompanyName:  a.CompanyName,
			CompanyEmail: a.CompanyEmail,
			Address:      a.BillingFromAddress.address(),
		},
		BillTo: models.BillTo{
			ClientName:  a.ClientName,
			ClientEmail: a.ClientEmail,
			Address:     a.BillingToAddress.address(),
		},
		InvoiceDate:        a.InvoiceDate,
		PaymentTerms:       models.PaymentTerms(a.PaymentTerms),
		ProjectDescription: a.ProjectDescription,
		Items:              make([]models.LineItem, 0, len(a.Items)),
	}
	for _, item := range a.Items {
		inv.Items = append(inv.Items, models.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return inv
}

func addressInput(a models.Address) AddressInput {
	return AddressInput{
		StreetAddress: a.StreetAddress,
		City:          a.City,
		Country:       a.Country,
		PostalCode:    a.PostalCode,
	}
}

func (a AddressInput) address() models.Address {
	return models.Address{
		Country:       a.Country,
		City:          a.City,
		PostalCode:    a.PostalCode,
		StreetAddress: a.StreetAddress,
	}
}
