// Package form owns the invoice draft being edited and sequences its
// validate, compute, submit and reset steps.
//
// A Controller is the single owner of the draft. Views read it through
// Snapshot and change it only through the controller's operations, so the
// validation result a save acts on always reflects the latest edit.
package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"invoiceform/internal/countries"
	"invoiceform/internal/gateway"
	"invoiceform/internal/invoice"
	"invoiceform/internal/logger"
	"invoiceform/pkg/models"
)

var (
	// ErrSaveInFlight is returned by Save while a previous save is still waiting
	// for the gateway, and by Reset during a save.
	ErrSaveInFlight = errors.New("a save is already in progress")

	// ErrResetInFlight is returned by Reset while a previous reset is pending,
	// and by Save while a reset is pending.
	ErrResetInFlight = errors.New("a reset is already in progress")

	// ErrMissingGateway is returned by New when no gateway is configured.
	ErrMissingGateway = errors.New("form: gateway is required")
)

// Validator is the part of invoice.Validator the controller needs.
type Validator interface {
	Check(inv *models.Invoice) invoice.ValidationErrors
}

// Config configures a Controller.
type Config struct {
	// Gateway receives validated invoices. Required.
	Gateway gateway.Gateway

	// Validator checks the draft. Default: invoice.NewValidator().
	Validator Validator

	// Notifier presents save outcomes. Default: a LogNotifier.
	Notifier Notifier

	// Template is the draft restored by Reset and after a successful save.
	// Default: models.NewDraft(Now()).
	Template *models.Invoice

	// ResetDelay is how long Reset keeps the resetting flag up before
	// restoring the template. Zero resets synchronously.
	ResetDelay time.Duration

	// Now supplies the current time for the default template.
	Now func() time.Time
}

// Controller holds the draft, the touched fields and the in-flight flags.
// It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	template        *models.Invoice
	draft           *models.Invoice
	touched         TouchedSet
	submitAttempted bool
	errs            invoice.ValidationErrors
	totals          invoice.Totals
	saving          bool
	resetting       bool
	countries       []string

	gateway    gateway.Gateway
	validator  Validator
	notifier   Notifier
	resetDelay time.Duration
	log        zerolog.Logger
}

// New creates a controller holding a copy of the template.
func New(cfg Config) (*Controller, error) {
	if cfg.Gateway == nil {
		return nil, ErrMissingGateway
	}
	if cfg.Validator == nil {
		cfg.Validator = invoice.NewValidator()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Template == nil {
		cfg.Template = models.NewDraft(cfg.Now())
	}

	c := &Controller{
		template:   cfg.Template.Clone(),
		gateway:    cfg.Gateway,
		validator:  cfg.Validator,
		notifier:   cfg.Notifier,
		resetDelay: cfg.ResetDelay,
		log:        logger.WithComponent("form"),
	}
	c.restoreLocked()
	return c, nil
}

// UpdateField sets the field at path, marks it touched, and re-runs
// validation and totals.
func (c *Controller) UpdateField(path, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref, err := fieldRef(c.draft, path)
	if err != nil {
		return err
	}
	*ref = value
	c.touched.Add(path)
	c.refreshLocked()
	return nil
}

// Touch marks path as interacted with (e.g. the field lost focus) without
// changing its value.
func (c *Controller) Touch(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fieldRef(c.draft, path); err != nil {
		return err
	}
	c.touched.Add(path)
	return nil
}

// AddItem appends a blank line item.
func (c *Controller) AddItem() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft.Items = append(c.draft.Items, models.NewLineItem())
	c.refreshLocked()
}

// RemoveItem removes the item at index. An out-of-range index is ignored.
// Removing the last item is allowed.
func (c *Controller) RemoveItem(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.draft.Items) {
		return
	}
	items := make([]models.LineItem, 0, len(c.draft.Items)-1)
	items = append(items, c.draft.Items[:index]...)
	items = append(items, c.draft.Items[index+1:]...)
	c.draft.Items = items
	c.touched.removeItem(index)
	c.refreshLocked()
}

// Reset restores the template draft after the configured delay. The
// resetting flag is up for the duration of the delay. Save and Reset exclude
// each other.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.resetting {
		c.mu.Unlock()
		return ErrResetInFlight
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	c.resetting = true
	c.mu.Unlock()

	if c.resetDelay > 0 {
		timer := time.NewTimer(c.resetDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			c.mu.Lock()
			c.resetting = false
			c.mu.Unlock()
			return ctx.Err()
		}
	}

	c.mu.Lock()
	c.restoreLocked()
	c.resetting = false
	c.mu.Unlock()

	c.log.Debug().Msg("Form reset to template")
	return nil
}

// Save validates the whole draft and, if it is valid, submits it with freshly
// computed totals.
//
// An invalid draft returns invoice.ValidationErrors and nothing is submitted.
// A gateway failure returns an error matching gateway.ErrSubmissionFailed and
// leaves the draft untouched. On success the draft is replaced by the
// template. A Save issued while another is in flight returns ErrSaveInFlight;
// one issued during a pending Reset returns ErrResetInFlight.
func (c *Controller) Save(ctx context.Context) (*gateway.Confirmation, error) {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if c.resetting {
		c.mu.Unlock()
		return nil, ErrResetInFlight
	}

	c.submitAttempted = true
	for _, path := range Fields(c.draft) {
		c.touched.Add(path)
	}
	c.refreshLocked()
	if len(c.errs) > 0 {
		errs := c.errs
		c.mu.Unlock()
		c.log.Info().
			Strs("fields", errs.Fields()).
			Msg("Save blocked by validation errors")
		return nil, errs
	}

	submission := invoice.Apply(c.draft)
	c.saving = true
	c.mu.Unlock()

	conf, err := c.gateway.CreateInvoice(ctx, submission)
	if err == nil && conf == nil {
		err = gateway.NewError("Save", gateway.ErrUnexpectedResponse, "gateway returned no confirmation")
	}

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.mu.Unlock()
		c.log.Error().
			Err(err).
			Int("items", len(submission.Items)).
			Msg("Invoice submission failed")
		c.notifier.Notify(SaveFailedNotification)
		return nil, gateway.WrapError("Save", err, "")
	}
	c.restoreLocked()
	c.mu.Unlock()

	c.log.Info().
		Str("invoice_id", conf.ID).
		Str("total", submission.Total.StringFixed(2)).
		Msg("Invoice saved")
	c.notifier.Notify(SavedNotification)
	return conf, nil
}

// LoadCountries fetches the country list in the background. Until it
// resolves, and for good if it fails, Countries returns an empty list. The
// returned channel is closed once the fetch has finished.
func (c *Controller) LoadCountries(ctx context.Context, p countries.Provider) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		names, err := p.Countries(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("Country list unavailable")
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		c.countries = names
		c.mu.Unlock()
	}()
	return done
}

// restoreLocked replaces the draft with a copy of the template and forgets
// all interaction state.
func (c *Controller) restoreLocked() {
	c.draft = c.template.Clone()
	c.touched = make(TouchedSet)
	c.submitAttempted = false
	c.refreshLocked()
}

func (c *Controller) refreshLocked() {
	c.errs = c.validator.Check(c.draft)
	c.totals = invoice.CalculateTotals(c.draft.Items)
}
