// Package tui is the interactive terminal rendition of the invoice form. It
// renders a form.Controller and forwards every edit to it; the controller
// stays the only owner of the draft.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"invoiceform/internal/countries"
	"invoiceform/internal/form"
	"invoiceform/internal/gateway"
	"invoiceform/internal/invoice"
	"invoiceform/internal/logger"
	"invoiceform/pkg/models"
)

// toastDuration is how long a notification stays on screen.
const toastDuration = 3 * time.Second

type (
	notificationMsg    form.Notification
	dismissToastMsg    int
	countriesLoadedMsg struct{}
	saveDoneMsg        struct {
		conf *gateway.Confirmation
		err  error
	}
	resetDoneMsg struct{ err error }
)

type toast struct {
	id   int
	note form.Notification
}

type keyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Left       key.Binding
	Right      key.Binding
	AddItem    key.Binding
	RemoveItem key.Binding
	Save       key.Binding
	Reset      key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:       key.NewBinding(key.WithKeys("tab", "down", "enter"), key.WithHelp("tab", "next")),
		Prev:       key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Left:       key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "choose")),
		Right:      key.NewBinding(key.WithKeys("right")),
		AddItem:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add item")),
		RemoveItem: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "remove item")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Reset:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Left, k.AddItem, k.RemoveItem, k.Save, k.Reset, k.Quit}
}

// Model is the bubbletea model of the form screen.
type Model struct {
	ctx       context.Context
	ctrl      *form.Controller
	countries countries.Provider

	rows  []row
	focus int

	toast    *toast
	toastSeq int

	width  int
	height int
	keys   keyMap
	help   help.Model
	log    zerolog.Logger
}

// NewModel creates the form screen for ctrl. p may be nil, in which case the
// country fields stay free text.
func NewModel(ctx context.Context, ctrl *form.Controller, p countries.Provider) Model {
	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		countries: p,
		keys:      defaultKeys(),
		help:      help.New(),
		width:     120,
		height:    40,
		log:       logger.WithComponent("tui"),
	}
	m.syncRows()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.countries != nil {
		cmds = append(cmds, m.loadCountriesCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case notificationMsg:
		return m.showToast(form.Notification(msg))

	case dismissToastMsg:
		if m.toast != nil && m.toast.id == int(msg) {
			m.toast = nil
		}
		return m, nil

	case saveDoneMsg:
		var verrs invoice.ValidationErrors
		switch {
		case msg.err == nil:
			m.syncRows()
		case errors.As(msg.err, &verrs):
			m.focusFirstError(verrs)
		}
		return m, nil

	case resetDoneMsg:
		m.syncRows()
		return m, nil

	case countriesLoadedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Save):
		if m.ctrl.Saving() || m.ctrl.Resetting() {
			return m, nil
		}
		return m, m.saveCmd()

	case key.Matches(msg, m.keys.Reset):
		if m.ctrl.Resetting() || m.ctrl.Saving() {
			return m, nil
		}
		return m, m.resetCmd()

	case key.Matches(msg, m.keys.AddItem):
		m.ctrl.AddItem()
		m.syncRows()
		n := len(m.ctrl.Draft().Items)
		return m, m.focusPath(form.ItemField(n-1, form.ItemName))

	case key.Matches(msg, m.keys.RemoveItem):
		if len(m.rows) == 0 {
			return m, nil
		}
		if idx, _, ok := form.ParseItemField(m.rows[m.focus].path); ok {
			m.ctrl.RemoveItem(idx)
			m.syncRows()
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		return m, m.moveFocus(1)

	case key.Matches(msg, m.keys.Prev):
		return m, m.moveFocus(-1)

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		dir := 1
		if key.Matches(msg, m.keys.Left) {
			dir = -1
		}
		if m.choose(dir) {
			return m, nil
		}
	}

	return m, m.editFocused(msg)
}

// choose cycles the focused picker. It reports false when the focused row is
// not a picker, so the key can move the text cursor instead.
func (m *Model) choose(dir int) bool {
	if len(m.rows) == 0 {
		return false
	}
	r := &m.rows[m.focus]
	var next string
	switch r.kind {
	case termsRow:
		next = string(cycleTerms(models.PaymentTerms(r.input.Value()), dir))
	case countryRow:
		names := m.ctrl.Countries()
		if len(names) == 0 {
			return false
		}
		next = cycleCountry(names, r.input.Value(), dir)
	default:
		return false
	}
	r.input.SetValue(next)
	m.update(r.path, next)
	return true
}

func (m *Model) editFocused(msg tea.KeyMsg) tea.Cmd {
	if len(m.rows) == 0 || m.rows[m.focus].kind == termsRow {
		return nil
	}
	r := &m.rows[m.focus]
	before := r.input.Value()
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	if after := r.input.Value(); after != before {
		m.update(r.path, after)
	}
	return cmd
}

// update forwards an edit to the controller. A failure means the rows no
// longer match the draft, so they are rebuilt.
func (m *Model) update(path, value string) {
	if err := m.ctrl.UpdateField(path, value); err != nil {
		m.log.Debug().Err(err).Str("field", path).Msg("Edit dropped")
		m.syncRows()
	}
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}
	if err := m.ctrl.Touch(m.rows[m.focus].path); err != nil {
		m.log.Debug().Err(err).Str("field", m.rows[m.focus].path).Msg("Touch dropped")
	}
	next := (m.focus + delta + len(m.rows)) % len(m.rows)
	return m.setFocus(next)
}

func (m *Model) setFocus(i int) tea.Cmd {
	for j := range m.rows {
		m.rows[j].input.Blur()
	}
	m.focus = i
	return m.rows[i].input.Focus()
}

func (m *Model) focusPath(path string) tea.Cmd {
	for i, r := range m.rows {
		if r.path == path {
			return m.setFocus(i)
		}
	}
	return nil
}

func (m *Model) focusFirstError(verrs invoice.ValidationErrors) {
	for i, r := range m.rows {
		if _, bad := verrs[r.path]; bad {
			m.setFocus(i)
			return
		}
	}
}

// syncRows rebuilds the rows from the controller's draft, keeping focus on
// the same path when it still exists.
func (m *Model) syncRows() {
	focused := ""
	if m.focus < len(m.rows) {
		focused = m.rows[m.focus].path
	}
	m.rows = buildRows(m.ctrl.Draft())
	if len(m.rows) == 0 {
		m.focus = 0
		return
	}
	for i, r := range m.rows {
		if r.path == focused {
			m.setFocus(i)
			return
		}
	}
	if m.focus >= len(m.rows) {
		m.focus = len(m.rows) - 1
	}
	m.setFocus(m.focus)
}

func (m Model) showToast(n form.Notification) (tea.Model, tea.Cmd) {
	m.toastSeq++
	id := m.toastSeq
	m.toast = &toast{id: id, note: n}
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return dismissToastMsg(id)
	})
}

func (m Model) saveCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		conf, err := ctrl.Save(ctx)
		return saveDoneMsg{conf: conf, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return resetDoneMsg{err: ctrl.Reset(ctx)}
	}
}

func (m Model) loadCountriesCmd() tea.Cmd {
	ctx, ctrl, p := m.ctx, m.ctrl, m.countries
	return func() tea.Msg {
		<-ctrl.LoadCountries(ctx, p)
		return countriesLoadedMsg{}
	}
}
