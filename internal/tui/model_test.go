package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceform/internal/countries"
	"invoiceform/internal/form"
	"invoiceform/internal/gateway"
	"invoiceform/pkg/models"
)

func newTestModel(t *testing.T, gw gateway.Gateway, p countries.Provider) (Model, *form.Controller, *[]form.Notification) {
	t.Helper()
	var notes []form.Notification
	ctrl, err := form.New(form.Config{
		Gateway:  gw,
		Notifier: form.NotifierFunc(func(n form.Notification) { notes = append(notes, n) }),
		Now:      func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return NewModel(context.Background(), ctrl, p), ctrl, &notes
}

func okGateway() gateway.Gateway {
	return gateway.GatewayFunc(func(_ context.Context, inv *models.Invoice) (*gateway.Confirmation, error) {
		return &gateway.Confirmation{ID: "inv-1", TotalAmount: *inv.Total}, nil
	})
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typeText(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingUpdatesController(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), nil)

	require.Equal(t, form.FieldCompanyName, m.rows[m.focus].path)
	m, _ = send(m, typeText("Acme"))

	assert.Equal(t, "Acme", ctrl.Draft().BillFrom.CompanyName)
	assert.True(t, ctrl.IsTouched(form.FieldCompanyName))
}

func TestTabTouchesFieldAndShowsError(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), nil)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, form.FieldCompanyEmail, m.rows[m.focus].path)
	assert.Contains(t, ctrl.VisibleErrors(), form.FieldCompanyName)
	assert.Contains(t, m.View(), "Company name is required")
}

func TestPaymentTermsPicker(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), nil)
	m.setFocus(indexOf(t, m, form.FieldPaymentTerms))

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, models.Net10Days, ctrl.Draft().PaymentTerms)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, models.Net30Days, ctrl.Draft().PaymentTerms)

	// Typing is ignored on the picker.
	_, _ = send(m, typeText("x"))
	assert.Equal(t, models.Net30Days, ctrl.Draft().PaymentTerms)
}

func TestCountryPickerUsesLoadedCountries(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), countries.Static{"France", "Germany"})

	m, _ = send(m, m.loadCountriesCmd()())
	m.setFocus(indexOf(t, m, form.FieldBillFromCountry))

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "France", ctrl.Draft().BillFrom.Address.Country)

	_, _ = send(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "Germany", ctrl.Draft().BillFrom.Address.Country)
}

func TestAddAndRemoveItem(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), nil)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Len(t, ctrl.Draft().Items, 2)
	assert.Equal(t, form.ItemField(1, form.ItemName), m.rows[m.focus].path)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Len(t, ctrl.Draft().Items, 1)

	// Removing from a non-item row does nothing.
	m.setFocus(0)
	_, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Len(t, ctrl.Draft().Items, 1)
}

func TestEditOnRemovedItemRebuildsRows(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), nil)
	m.setFocus(indexOf(t, m, form.ItemField(0, form.ItemName)))

	ctrl.RemoveItem(0)
	m, _ = send(m, typeText("Design"))

	assert.Empty(t, ctrl.Draft().Items)
	for _, r := range m.rows {
		assert.False(t, strings.HasPrefix(r.path, "items["), "stale row %s", r.path)
	}
	assert.Less(t, m.focus, len(m.rows))
}

func TestSaveInvalidFocusesFirstError(t *testing.T) {
	m, _, notes := newTestModel(t, okGateway(), nil)
	m.setFocus(indexOf(t, m, form.FieldProjectDescription))

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m, _ = send(m, cmd())

	assert.Equal(t, form.FieldCompanyName, m.rows[m.focus].path)
	assert.Empty(t, *notes)
	assert.Contains(t, m.View(), "Email is required")
}

func TestSaveSuccessResetsForm(t *testing.T) {
	m, ctrl, notes := newTestModel(t, okGateway(), nil)
	fillValid(t, ctrl)
	m.syncRows()

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = send(m, cmd())

	require.Len(t, *notes, 1)
	assert.Equal(t, form.SavedNotification, (*notes)[0])
	assert.Empty(t, ctrl.Draft().BillFrom.CompanyName)
	assert.Equal(t, "", m.rows[indexOf(t, m, form.FieldCompanyName)].input.Value())
}

func TestToastAutoDismiss(t *testing.T) {
	m, _, _ := newTestModel(t, okGateway(), nil)

	m, cmd := send(m, notificationMsg(form.SaveFailedNotification))
	require.NotNil(t, m.toast)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Failed to create invoice.")

	// A stale dismissal does not hide a newer toast.
	m, _ = send(m, notificationMsg(form.SavedNotification), dismissToastMsg(1))
	require.NotNil(t, m.toast)

	m, _ = send(m, dismissToastMsg(2))
	assert.Nil(t, m.toast)
}

func TestViewShowsPreviewAndTotals(t *testing.T) {
	m, ctrl, _ := newTestModel(t, okGateway(), nil)
	require.NoError(t, ctrl.UpdateField(form.ItemField(0, form.ItemName), "Design"))
	require.NoError(t, ctrl.UpdateField(form.ItemField(0, form.ItemQuantity), "2"))
	require.NoError(t, ctrl.UpdateField(form.ItemField(0, form.ItemPrice), "100"))
	m.syncRows()

	view := m.View()
	assert.Contains(t, view, "Preview")
	assert.Contains(t, view, "Mar 05, 2024")
	assert.Contains(t, view, "$220.00")
}

func TestCycleTerms(t *testing.T) {
	assert.Equal(t, models.Net10Days, cycleTerms("", 1))
	assert.Equal(t, models.Net30Days, cycleTerms("", -1))
	assert.Equal(t, models.Net20Days, cycleTerms(models.Net10Days, 1))
	assert.Equal(t, models.Net10Days, cycleTerms(models.Net30Days, 1))
}

func TestWindow(t *testing.T) {
	lines := strings.Split("a b c d e f g h", " ")
	assert.Equal(t, lines, window(lines, 3, 20))
	assert.Equal(t, []string{"a", "b", "c"}, window(lines, 0, 3))
	assert.Equal(t, []string{"d", "e", "f"}, window(lines, 4, 3))
	assert.Equal(t, []string{"f", "g", "h"}, window(lines, 7, 3))
}

func indexOf(t *testing.T, m Model, path string) int {
	t.Helper()
	for i, r := range m.rows {
		if r.path == path {
			return i
		}
	}
	t.Fatalf("no row for %s", path)
	return -1
}

func fillValid(t *testing.T, ctrl *form.Controller) {
	t.Helper()
	values := map[string]string{
		form.FieldCompanyName:        "Acme",
		form.FieldCompanyEmail:       "billing@acme.test",
		form.FieldBillFromCountry:    "Germany",
		form.FieldBillFromCity:       "Berlin",
		form.FieldBillFromPostalCode: "10115",
		form.FieldBillFromStreet:     "Main 1",
		form.FieldClientName:         "Globex",
		form.FieldClientEmail:        "ap@globex.test",
		form.FieldBillToCountry:      "France",
		form.FieldBillToCity:         "Paris",
		form.FieldBillToPostalCode:   "75001",
		form.FieldBillToStreet:       "Rue 2",
		form.FieldPaymentTerms:       string(models.Net30Days),
		form.FieldProjectDescription: "Website",
	}
	for path, v := range values {
		require.NoError(t, ctrl.UpdateField(path, v))
	}
	require.NoError(t, ctrl.UpdateField(form.ItemField(0, form.ItemName), "Design"))
	require.NoError(t, ctrl.UpdateField(form.ItemField(0, form.ItemQuantity), "2"))
	require.NoError(t, ctrl.UpdateField(form.ItemField(0, form.ItemPrice), "100"))
	assert.True(t, ctrl.Totals().Total.Equal(decimal.NewFromInt(220)))
}
