package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"invoiceform/internal/config"
	"invoiceform/internal/logger"
	"invoiceform/internal/tui"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an invoice in the interactive form",
	Long: `Open the invoice form in the terminal.

The form validates every field as you go and shows the errors of the fields
you have visited. The preview pane and the totals (subtotal, 10% tax, total)
update with every keystroke. Saving validates the whole form first and only
submits a valid invoice; a successful save clears the form.

Keys:
  tab / shift+tab   move between fields
  ←/→               choose payment terms or country
  ctrl+n / ctrl+d   add an item / remove the focused item
  ctrl+s            save
  ctrl+r            reset the form
  esc               quit

Log output to stdout or stderr is suppressed while the form is open; set
LOG_OUTPUT to a file path to keep it.`,
	Example: `  # Open the form, submitting to the configured invoice API
  invoiceform new

  # Record invoices in a Google Sheet instead
  INVOICE_GATEWAY=sheets GOOGLE_SHEET_URL=https://docs.google.com/spreadsheets/d/<id> invoiceform new`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().Bool("offline-countries", false, "Do not fetch the country list; country fields stay free text")
}

func runNew(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("new")

	offline, _ := cmd.Flags().GetBool("offline-countries")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if quietTerminalLogs(cfg) {
		log = logger.WithComponent("new")
	}

	ctx, cancel := createContext(0, log)
	defer cancel()

	gw, err := createGateway(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Gateway:    gw,
		ResetDelay: cfg.ResetDelay,
	}
	if !offline {
		opts.Countries = createCountryProvider(cfg)
	}

	log.Info().
		Str("gateway", cfg.Gateway).
		Bool("offline_countries", offline).
		Msg("Opening invoice form")

	return tui.Run(ctx, opts)
}

// quietTerminalLogs discards log output bound for the terminal the form draws
// on. Component loggers keep the writer they were built with, so it must run
// before any of them is created.
func quietTerminalLogs(cfg *config.Config) bool {
	switch cfg.LogOutput {
	case "", "stdout", "stderr":
		logger.Redirect(io.Discard)
		return true
	}
	return false
}
