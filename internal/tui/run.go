package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"invoiceform/internal/countries"
	"invoiceform/internal/form"
	"invoiceform/internal/gateway"
)

// Options configures Run.
type Options struct {
	Gateway    gateway.Gateway
	Countries  countries.Provider
	ResetDelay time.Duration
}

// Run shows the form until the user quits or ctx is cancelled. Save outcomes
// are shown as toasts. Callers should point the logger away from the
// terminal first.
func Run(ctx context.Context, opts Options) error {
	var prog *tea.Program

	notifier := form.NotifierFunc(func(n form.Notification) {
		if prog != nil {
			prog.Send(notificationMsg(n))
		}
	})

	ctrl, err := form.New(form.Config{
		Gateway:    opts.Gateway,
		Notifier:   notifier,
		ResetDelay: opts.ResetDelay,
	})
	if err != nil {
		return fmt.Errorf("create form: %w", err)
	}

	prog = tea.NewProgram(NewModel(ctx, ctrl, opts.Countries), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run form: %w", err)
	}
	return nil
}
