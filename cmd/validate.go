package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoiceform/internal/invoice"
	"invoiceform/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate [json-file]",
	Short: "Check an invoice JSON file against the form's rules",
	Long: `Validate an invoice draft stored as JSON and report every invalid field.

The file uses the same shape the form edits: billFrom, billTo, invoiceDate,
paymentTerms, projectDescription and items. Quantities and prices may be
numbers or strings. The computed totals are printed for valid invoices.`,
	Example: `  # Validate a draft
  invoiceform validate invoice.json

  # Print the result as JSON
  invoiceform validate invoice.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

// ValidationOutput is the JSON output of the validate command.
type ValidationOutput struct {
	Valid  bool                    `json:"valid"`
	Errors map[string]string       `json:"errors,omitempty"`
	Totals invoice.FormattedTotals `json:"totals"`
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	asJSON, _ := cmd.Flags().GetBool("json")

	inv, err := readInvoiceFile(args[0], log)
	if err != nil {
		return err
	}

	verrs := invoice.NewValidator().Check(inv)
	totals := invoice.CalculateTotals(inv.Items).Format()

	log.Info().
		Str("file", args[0]).
		Int("invalid_fields", len(verrs)).
		Str("total", totals.Total).
		Msg("Invoice validated")

	if asJSON {
		out := ValidationOutput{Valid: len(verrs) == 0, Totals: totals}
		if len(verrs) > 0 {
			out.Errors = verrs.Messages()
		}
		if err := writeJSON(out, "", log); err != nil {
			return err
		}
		if len(verrs) > 0 {
			return fmt.Errorf("invoice has %d invalid field(s)", len(verrs))
		}
		return nil
	}

	if len(verrs) > 0 {
		printValidationErrors(verrs)
		return fmt.Errorf("invoice has %d invalid field(s)", len(verrs))
	}

	fmt.Println("Invoice is valid.")
	fmt.Printf("Subtotal: %s\nTax:      %s\nTotal:    %s\n", totals.Subtotal, totals.Tax, totals.Total)
	return nil
}
