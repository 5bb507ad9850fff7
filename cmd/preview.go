package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"invoiceform/internal/invoice"
	"invoiceform/internal/logger"
)

var previewCmd = &cobra.Command{
	Use:   "preview [json-file]",
	Short: "Render an invoice JSON file the way the form's preview shows it",
	Long: `Print the read-only preview of an invoice draft: formatted date and payment
terms, both parties, the named line items and the computed totals.

Items without a name are left out of the table but still count toward the
totals. The draft does not need to be valid.`,
	Example: `  # Preview a draft
  invoiceform preview invoice.json

  # Preview as JSON
  invoiceform preview invoice.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().Bool("json", false, "Print the preview as JSON")
}

func runPreview(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("preview")

	asJSON, _ := cmd.Flags().GetBool("json")

	inv, err := readInvoiceFile(args[0], log)
	if err != nil {
		return err
	}

	p := invoice.BuildPreview(inv)
	if asJSON {
		return writeJSON(p, "", log)
	}
	return renderPreview(os.Stdout, p)
}

// renderPreview writes a plain-text invoice preview.
func renderPreview(w io.Writer, p invoice.Preview) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Invoice Date\t%s\n", p.InvoiceDate)
	fmt.Fprintf(tw, "Payment Terms\t%s\n", p.PaymentTerms)
	fmt.Fprintf(tw, "Project\t%s\n", p.ProjectDescription)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Billed From\t%s\n", strings.Join(nonBlank(p.BillFrom), ", "))
	fmt.Fprintf(tw, "Billed To\t%s\n", strings.Join(nonBlank(p.BillTo), ", "))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Item\tQty.\tPrice\tTotal")
	for _, r := range p.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Quantity, r.Price, r.Amount)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Subtotal\t\t\t%s\n", p.Totals.Subtotal)
	fmt.Fprintf(tw, "Tax (10%%)\t\t\t%s\n", p.Totals.Tax)
	fmt.Fprintf(tw, "Total\t\t\t%s\n", p.Totals.Total)

	return tw.Flush()
}

func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
