package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"invoiceform/internal/logger"
	"invoiceform/pkg/models"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// GraphQLConfig holds configuration for the GraphQL invoice API.
type GraphQLConfig struct {
	// Endpoint is the GraphQL URL, e.g. https://api.example.com/graphql.
	Endpoint string

	// Timeout bounds a single CreateInvoice call.
	// Default: 30 seconds.
	Timeout time.Duration

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// GraphQLGateway submits invoices with the createInvoice mutation.
type GraphQLGateway struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	log      zerolog.Logger
}

// NewGraphQLGateway creates a gateway for the given endpoint.
func NewGraphQLGateway(cfg GraphQLConfig) (*GraphQLGateway, error) {
	const op = "NewGraphQLGateway"

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint is required: %w", op, ErrInvalidConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &GraphQLGateway{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		client:   client,
		log:      logger.WithComponent("graphql-gateway"),
	}, nil
}

// CreateInvoice implements Gateway.
func (g *GraphQLGateway) CreateInvoice(ctx context.Context, inv *models.Invoice) (*Confirmation, error) {
	const op = "CreateInvoice"

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(GraphQLRequest{
		Query:         CreateInvoiceMutation,
		OperationName: "CreateInvoice",
		Variables:     map[string]any{"input": NewCreateInvoiceInput(inv)},
	})
	if err != nil {
		return nil, NewError(op, err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(op, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	g.log.Debug().
		Str("endpoint", g.endpoint).
		Int("items", len(inv.Items)).
		Msg("Sending createInvoice mutation")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, NewError(op, err, "send request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.log.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewError(op, err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := NewError(op, ErrRejected, truncate(string(raw), 256))
		gwErr.StatusCode = resp.StatusCode
		return nil, gwErr
	}

	conf, err := parseCreateInvoiceResponse(raw)
	if err != nil {
		return nil, WrapError(op, err, "")
	}

	g.log.Info().
		Str("invoice_id", conf.ID).
		Str("total_amount", conf.TotalAmount.StringFixed(2)).
		Dur("duration", time.Since(start)).
		Msg("Invoice created")

	return conf, nil
}

// parseCreateInvoiceResponse reads the created invoice out of a GraphQL
// response, treating a non-empty errors array as a rejection.
func parseCreateInvoiceResponse(raw []byte) (*Confirmation, error) {
	const op = "parseCreateInvoiceResponse"

	if !gjson.ValidBytes(raw) {
		return nil, NewError(op, ErrUnexpectedResponse, "response is not JSON")
	}
	res := gjson.ParseBytes(raw)

	if errs := res.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, NewError(op, ErrRejected, errs.Get("0.message").String())
	}

	created := res.Get("data.createInvoice")
	if !created.IsObject() || created.Get("id").String() == "" {
		return nil, NewError(op, ErrUnexpectedResponse, "data.createInvoice.id missing")
	}

	conf := &Confirmation{
		ID:          created.Get("id").String(),
		CompanyName: created.Get("billingFrom.companyName").String(),
		ClientName:  created.Get("billingTo.clientName").String(),
		Items:       []models.LineItem{},
	}
	for _, item := range created.Get("items").Array() {
		conf.Items = append(conf.Items, models.LineItem{
			Name:     item.Get("name").String(),
			Quantity: models.Number(item.Get("quantity").String()),
			Price:    models.Number(item.Get("price").String()),
		})
	}
	if total := created.Get("totalAmount"); total.Exists() && total.Type != gjson.Null {
		amount, err := decimal.NewFromString(total.String())
		if err != nil {
			return nil, NewError(op, ErrUnexpectedResponse, "totalAmount is not a number")
		}
		conf.TotalAmount = amount
	}
	return conf, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
