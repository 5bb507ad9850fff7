package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoiceform/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoiceform",
	Short: "Invoiceform - create, check and submit invoices from the terminal",
	Long: `Invoiceform is an invoice creation form for the terminal.

Fill in the billing parties, invoice date, payment terms and line items
interactively with "invoiceform new", or work with invoice JSON files using
validate, preview and submit. Totals (subtotal, 10% tax, total) are always
computed from the line items.

Invoices are submitted to the invoice GraphQL API by default, or recorded in
a Google Sheet when INVOICE_GATEWAY=sheets. "invoiceform serve" runs a local
stand-in for the invoice API.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("Invoiceform executed without subcommand")

		fmt.Println("Welcome to Invoiceform!")
		fmt.Println("Run 'invoiceform new' to create an invoice, or --help to see all commands.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
