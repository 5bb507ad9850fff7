package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"invoiceform/internal/form"
	"invoiceform/internal/logger"
)

var submitCmd = &cobra.Command{
	Use:   "submit [json-file]",
	Short: "Validate an invoice JSON file and submit it",
	Long: `Submit an invoice draft stored as JSON through the configured gateway.

The draft goes through the same steps as the form's Save button: it is
validated, its totals are computed from the items, and only a valid invoice
is sent. The created invoice returned by the gateway is printed as JSON.

Required environment variables depend on INVOICE_GATEWAY:
  graphql (default) - INVOICE_API_URL
  sheets            - GOOGLE_SHEET_URL and GOOGLE_APPLICATION_CREDENTIALS
                      or GOOGLE_CREDENTIALS`,
	Example: `  # Submit to the invoice API
  invoiceform submit invoice.json

  # Submit to a local API started with 'invoiceform serve'
  INVOICE_API_URL=http://localhost:8080/graphql invoiceform submit invoice.json

  # Save the confirmation to a file
  invoiceform submit invoice.json -o created.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	submitCmd.Flags().Int("timeout", 60, "Submission timeout in seconds")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("submit")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	inv, err := readInvoiceFile(args[0], log)
	if err != nil {
		return err
	}

	ctx, cancel := createContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	gw, err := createGateway(ctx, cfg, log)
	if err != nil {
		return err
	}

	ctrl, err := form.New(form.Config{
		Gateway:  gw,
		Template: inv,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("file", args[0]).
		Str("gateway", cfg.Gateway).
		Int("items", len(inv.Items)).
		Msg("Submitting invoice")

	conf, err := ctrl.Save(ctx)
	if err != nil {
		return handleSubmitError(err, log)
	}

	return writeJSON(conf, outputPath, log)
}
