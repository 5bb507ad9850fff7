package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"invoiceform/internal/config"
	"invoiceform/internal/countries"
	"invoiceform/internal/gateway"
	"invoiceform/internal/invoice"
	"invoiceform/internal/sheets"
	"invoiceform/pkg/models"
)

// maxInvoiceFileBytes caps the size of invoice JSON files read from disk.
const maxInvoiceFileBytes = 1 << 20

// loadConfig loads the configuration, logging the reason it is unusable.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, fmt.Errorf("invalid configuration. Please check your .env file: %w", err)
	}
	return cfg, nil
}

// createContext creates a context that is canceled on SIGINT/SIGTERM and,
// when timeout is positive, after timeout.
func createContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createGateway builds the submission gateway selected by INVOICE_GATEWAY.
func createGateway(ctx context.Context, cfg *config.Config, log zerolog.Logger) (gateway.Gateway, error) {
	switch cfg.Gateway {
	case config.GatewaySheets:
		gw, err := sheets.NewGateway(ctx, cfg.GoogleSheetURL, cfg.GoogleSheetWorksheet)
		if err != nil {
			if errors.Is(err, gateway.ErrInvalidConfiguration) {
				log.Error().Err(err).Msg("Google credentials not configured")
				return nil, fmt.Errorf("missing Google credentials. Please set one of:\n" +
					"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
					"  GOOGLE_CREDENTIALS='<json-credentials>'\n" +
					"Original error: %w", err)
			}
			log.Error().Err(err).Msg("Failed to create sheets gateway")
			return nil, fmt.Errorf("failed to create sheets gateway: %w", err)
		}
		log.Debug().Str("worksheet", cfg.GoogleSheetWorksheet).Msg("Using Google Sheets gateway")
		return gw, nil

	default:
		gw, err := gateway.NewGraphQLGateway(gateway.GraphQLConfig{
			Endpoint: cfg.InvoiceAPIURL,
			Timeout:  cfg.GatewayTimeout,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create GraphQL gateway")
			return nil, fmt.Errorf("failed to create GraphQL gateway: %w", err)
		}
		log.Debug().Str("endpoint", cfg.InvoiceAPIURL).Msg("Using GraphQL gateway")
		return gw, nil
	}
}

// createCountryProvider returns the REST Countries provider for cfg.
func createCountryProvider(cfg *config.Config) countries.Provider {
	return countries.NewRESTCountries(cfg.CountriesAPIURL, cfg.CountriesTimeout, nil)
}

// readInvoiceFile loads an invoice draft from a JSON file.
func readInvoiceFile(path string, log zerolog.Logger) (*models.Invoice, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Invoice file not found")
			return nil, fmt.Errorf("invoice file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing invoice file")
			return nil, fmt.Errorf("permission denied accessing invoice file: %s", path)
		}
		return nil, fmt.Errorf("error accessing invoice file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		log.Warn().Str("file", path).Msg("File does not have .json extension")
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("invoice file is empty: %s", path)
	}
	if fileInfo.Size() > maxInvoiceFileBytes {
		return nil, fmt.Errorf("invoice file too large (%d bytes). Maximum size is %d bytes",
			fileInfo.Size(), maxInvoiceFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice file: %w", err)
	}

	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Invoice file is not valid JSON")
		return nil, fmt.Errorf("invoice file is not a valid invoice JSON document: %w", err)
	}

	log.Debug().
		Str("file", path).
		Int("items", len(inv.Items)).
		Msg("Invoice file loaded")
	return &inv, nil
}

// writeJSON writes v as indented JSON to outputPath, or stdout when empty.
func writeJSON(v any, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Output written to file")
		return nil
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}

// printValidationErrors lists failing fields on stderr, one per line.
func printValidationErrors(verrs invoice.ValidationErrors) {
	fmt.Fprintf(os.Stderr, "Invoice has %d invalid field(s):\n", len(verrs))
	for _, field := range verrs.Fields() {
		fmt.Fprintf(os.Stderr, "  %-28s %s\n", field, verrs[field].Message)
	}
}

// handleSubmitError provides user-friendly messages for failed submissions.
// Transport details stay in the log.
func handleSubmitError(err error, log zerolog.Logger) error {
	var verrs invoice.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		printValidationErrors(verrs)
		return fmt.Errorf("invoice was not submitted: %d invalid field(s)", len(verrs))
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("submission was canceled")
	case errors.Is(err, gateway.ErrSubmissionFailed):
		log.Error().Err(err).Msg("Submission failed")
		return fmt.Errorf("failed to create invoice. Please check your connection and try again")
	default:
		log.Error().Err(err).Msg("Submission failed")
		return fmt.Errorf("invoice submission failed: %w", err)
	}
}
