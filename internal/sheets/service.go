// Package sheets records submitted invoices as rows of a Google Sheet. It is
// the alternative Submission Gateway for teams that keep their invoice
// register in a spreadsheet instead of behind the invoice API.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"invoiceform/internal/gateway"
	"invoiceform/internal/invoice"
	"invoiceform/internal/logger"
	"invoiceform/pkg/models"
)

// The register spans columns A (ID) to O (Total).
const (
	lastColumn  = "O"
	columnCount = 15
)

var headers = []interface{}{
	"ID", "Created At", "Invoice Date", "Payment Terms", "Company", "Company Email",
	"Bill From Address", "Client", "Client Email", "Bill To Address",
	"Project", "Items", "Subtotal", "Tax", "Total",
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Gateway appends one row per invoice to a worksheet.
type Gateway struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	now           func() time.Time
	log           zerolog.Logger
}

// NewGateway creates a sheets gateway from a spreadsheet URL, reading service
// account credentials from GOOGLE_APPLICATION_CREDENTIALS (a file path) or
// GOOGLE_CREDENTIALS (inline JSON).
func NewGateway(ctx context.Context, sheetURL, worksheet string) (*Gateway, error) {
	const op = "NewGateway"

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set: %w",
			op, gateway.ErrInvalidConfiguration)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return NewGatewayWithService(svc, spreadsheetID, worksheet), nil
}

// NewGatewayWithService creates a gateway around an existing sheets client.
func NewGatewayWithService(svc *sheets.Service, spreadsheetID, worksheet string) *Gateway {
	if worksheet == "" {
		worksheet = "Invoices"
	}
	log := logger.WithComponent("sheets-gateway")
	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("worksheet", worksheet).
		Msg("Sheets gateway configured")

	return &Gateway{
		sheetsService: svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		now:           time.Now,
		log:           log,
	}
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// CreateInvoice implements gateway.Gateway.
func (g *Gateway) CreateInvoice(ctx context.Context, inv *models.Invoice) (*gateway.Confirmation, error) {
	const op = "CreateInvoice"

	if err := g.ensureSheetWithHeaders(ctx); err != nil {
		return nil, gateway.NewError(op, err, "prepare worksheet")
	}

	id := uuid.NewString()
	totals := invoice.CalculateTotals(inv.Items)

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{invoiceRow(id, g.now(), inv, totals)},
	}
	_, err := g.sheetsService.Spreadsheets.Values.Append(
		g.spreadsheetID,
		g.worksheet+"!A:"+lastColumn,
		valueRange,
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return nil, gateway.NewError(op, err, "append row")
	}

	g.log.Info().
		Str("invoice_id", id).
		Str("worksheet", g.worksheet).
		Str("total", totals.Total.StringFixed(2)).
		Msg("Invoice recorded in Google Sheet")

	items := make([]models.LineItem, len(inv.Items))
	copy(items, inv.Items)
	return &gateway.Confirmation{
		ID:          id,
		CompanyName: inv.BillFrom.CompanyName,
		ClientName:  inv.BillTo.ClientName,
		Items:       items,
		TotalAmount: totals.Total,
	}, nil
}

// invoiceRow converts an invoice to the register's column order. Totals are
// recomputed from the items rather than read from the invoice.
func invoiceRow(id string, createdAt time.Time, inv *models.Invoice, totals invoice.Totals) []interface{} {
	f := totals.Format()
	return []interface{}{
		id,
		createdAt.UTC().Format(time.RFC3339),
		inv.InvoiceDate,
		string(inv.PaymentTerms),
		inv.BillFrom.CompanyName,
		inv.BillFrom.CompanyEmail,
		formatAddress(inv.BillFrom.Address),
		inv.BillTo.ClientName,
		inv.BillTo.ClientEmail,
		formatAddress(inv.BillTo.Address),
		inv.ProjectDescription,
		formatItems(inv.Items),
		f.Subtotal,
		f.Tax,
		f.Total,
	}
}

func formatAddress(a models.Address) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.StreetAddress, strings.TrimSpace(a.PostalCode + " " + a.City), a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func formatItems(items []models.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%s @ %s",
			item.Name,
			item.Quantity.DecimalOrZero().String(),
			item.Price.DecimalOrZero().StringFixed(2)))
	}
	return strings.Join(parts, "; ")
}

// ensureSheetWithHeaders ensures the worksheet exists and has a header row
func (g *Gateway) ensureSheetWithHeaders(ctx context.Context) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := g.sheetsService.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == g.worksheet {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		g.log.Info().Str("sheet", g.worksheet).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: g.worksheet},
				}},
			},
		}
		resp, err := g.sheetsService.Spreadsheets.BatchUpdate(g.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
			return fmt.Errorf("%s: create sheet %q: empty reply", op, g.worksheet)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", g.worksheet, lastColumn)
	resp, err := g.sheetsService.Spreadsheets.Values.Get(g.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	g.log.Info().Str("sheet", g.worksheet).Msg("Adding headers to sheet")
	_, err = g.sheetsService.Spreadsheets.Values.Update(
		g.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{headers}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := g.formatHeaders(ctx, sheetID); err != nil {
		g.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeaders makes the header row bold and sizes the columns
func (g *Gateway) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columnCount,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(textFormat)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columnCount,
				},
			},
		},
	}

	_, err := g.sheetsService.Spreadsheets.BatchUpdate(g.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}
