package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"invoiceform/internal/form"
	"invoiceform/internal/invoice"
	"invoiceform/pkg/models"
)

// View implements tea.Model.
func (m Model) View() string {
	snap := m.ctrl.Snapshot()

	formWidth := m.width/2 - 4
	if formWidth < 50 {
		formWidth = 50
	}
	bodyHeight := m.height - 8
	if m.toast != nil {
		bodyHeight -= 3
	}
	if bodyHeight < 10 {
		bodyHeight = 10
	}

	lines, focusLine := m.formLines(snap)
	formPanel := panelStyle.Width(formWidth).Render(strings.Join(window(lines, focusLine, bodyHeight), "\n"))
	previewPanel := panelStyle.Render(previewView(invoice.BuildPreview(snap.Draft)))

	var b strings.Builder
	b.WriteString(titleStyle.Render("New Invoice"))
	b.WriteString("\n")
	if m.toast != nil {
		b.WriteString(toastView(m.toast.note))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, formPanel, previewPanel))
	b.WriteString("\n")
	b.WriteString(footerView(snap))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.shortHelp()))
	return b.String()
}

// formLines renders every row and returns the line index of the focused row.
func (m Model) formLines(snap form.State) ([]string, int) {
	var lines []string
	focusLine := 0
	itemsHeader := false

	for i, r := range m.rows {
		if _, _, isItem := form.ParseItemField(r.path); isItem && !itemsHeader {
			lines = append(lines, "", sectionStyle.Render("Item List"))
			itemsHeader = true
		}
		if r.section != "" {
			lines = append(lines, "", sectionStyle.Render(r.section))
		}

		label := labelStyle.Render(r.label)
		if i == m.focus {
			label = focusStyle.Render(labelStyle.Render("> " + r.label))
			focusLine = len(lines)
		}
		lines = append(lines, label+" "+m.fieldValue(r, i == m.focus))

		if fe, ok := snap.VisibleErrors[r.path]; ok {
			lines = append(lines, strings.Repeat(" ", 17)+errorStyle.Render(fe.Message))
		}
		if idx, leaf, ok := form.ParseItemField(r.path); ok && leaf == form.ItemPrice && idx < len(snap.Draft.Items) {
			amount := invoice.FormatMoney(invoice.LineTotal(snap.Draft.Items[idx]))
			lines = append(lines, strings.Repeat(" ", 17)+mutedStyle.Render("Total "+amount))
		}
	}

	if !itemsHeader {
		lines = append(lines, "", sectionStyle.Render("Item List"), mutedStyle.Render("No items. Press ctrl+n to add one."))
	}
	return lines, focusLine
}

func (m Model) fieldValue(r row, focused bool) string {
	switch r.kind {
	case termsRow:
		label := models.PaymentTerms(r.input.Value()).Label()
		if label == "" {
			label = mutedStyle.Render("Select payment terms")
		}
		return "< " + label + " >"
	case countryRow:
		v := r.input.View()
		if focused && len(m.ctrl.Countries()) > 0 {
			v += mutedStyle.Render("  ←/→")
		}
		return v
	}
	return r.input.View()
}

// window returns at most height lines of lines, scrolled so focus is visible.
func window(lines []string, focus, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func previewView(p invoice.Preview) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Preview"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Invoice Date   %s\n", p.InvoiceDate)
	fmt.Fprintf(&b, "Payment Terms  %s\n", p.PaymentTerms)
	if p.ProjectDescription != "" {
		fmt.Fprintf(&b, "Project        %s\n", p.ProjectDescription)
	}
	b.WriteString("\n")

	from := sectionStyle.Render("Billed From") + "\n" + strings.Join(nonEmpty(p.BillFrom), "\n")
	to := sectionStyle.Render("Billed To") + "\n" + strings.Join(nonEmpty(p.BillTo), "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(28).Render(from),
		to))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%-20s %5s %10s %10s\n", "Item", "Qty.", "Price", "Total")
	for _, r := range p.Rows {
		fmt.Fprintf(&b, "%-20s %5s %10s %10s\n", truncate(r.Name, 20), truncate(r.Quantity, 5), r.Price, r.Amount)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-37s %10s\n", "Subtotal", p.Totals.Subtotal)
	fmt.Fprintf(&b, "%-37s %10s\n", "Tax (10%)", p.Totals.Tax)
	b.WriteString(totalStyle.Render(fmt.Sprintf("%-37s %10s", "Total", p.Totals.Total)))
	return b.String()
}

func footerView(snap form.State) string {
	reset := buttonStyle.Render("Reset")
	if snap.Resetting {
		reset = busyStyle.Render("Resetting...")
	}
	save := buttonStyle.Render("Save")
	if snap.Saving {
		save = busyStyle.Render("Saving...")
	}
	total := totalStyle.Render("Total " + invoice.FormatMoney(snap.Totals.Total))
	return lipgloss.JoinHorizontal(lipgloss.Center, reset, "  ", save, "    ", total)
}

func toastView(n form.Notification) string {
	style, title := toastSuccessStyle, successStyle.Render(n.Title)
	if n.Level == form.LevelError {
		style, title = toastErrorStyle, errorStyle.Render(n.Title)
	}
	return style.Render(title + "\n" + helpStyle.Render(n.Detail))
}

func nonEmpty(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
