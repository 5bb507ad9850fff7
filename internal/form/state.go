package form

import (
	"invoiceform/internal/invoice"
	"invoiceform/pkg/models"
)

// State is a point-in-time copy of everything a view needs to render the form.
type State struct {
	Draft           *models.Invoice
	Totals          invoice.Totals
	Errors          invoice.ValidationErrors
	VisibleErrors   invoice.ValidationErrors
	Touched         []string
	SubmitAttempted bool
	Saving          bool
	Resetting       bool
	Countries       []string
}

// Valid reports whether the draft currently passes validation.
func (s State) Valid() bool {
	return len(s.Errors) == 0
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.countries))
	copy(names, c.countries)

	return State{
		Draft:           c.draft.Clone(),
		Totals:          c.totals,
		Errors:          c.copyErrorsLocked(func(string) bool { return true }),
		VisibleErrors:   c.copyErrorsLocked(c.visibleLocked),
		Touched:         c.touched.Paths(),
		SubmitAttempted: c.submitAttempted,
		Saving:          c.saving,
		Resetting:       c.resetting,
		Countries:       names,
	}
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() *models.Invoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Totals returns the totals of the current draft.
func (c *Controller) Totals() invoice.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Errors returns every current validation error, shown or not.
func (c *Controller) Errors() invoice.ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyErrorsLocked(func(string) bool { return true })
}

// VisibleErrors returns the errors of touched fields, or all errors once a
// save has been attempted.
func (c *Controller) VisibleErrors() invoice.ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyErrorsLocked(c.visibleLocked)
}

// IsTouched reports whether path has been interacted with.
func (c *Controller) IsTouched(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched.Has(path)
}

// Saving reports whether a save is waiting for the gateway.
func (c *Controller) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving
}

// Resetting reports whether a reset is pending.
func (c *Controller) Resetting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetting
}

// Countries returns the loaded country names, empty until loaded.
func (c *Controller) Countries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.countries))
	copy(out, c.countries)
	return out
}

func (c *Controller) visibleLocked(path string) bool {
	return c.submitAttempted || c.touched.Has(path)
}

func (c *Controller) copyErrorsLocked(keep func(string) bool) invoice.ValidationErrors {
	return c.errs.Filter(keep)
}
