package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceform/internal/countries"
	"invoiceform/internal/gateway"
	"invoiceform/internal/invoice"
	"invoiceform/pkg/models"
)

var testNow = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

type fakeGateway struct {
	mu        sync.Mutex
	err       error
	submitted []*models.Invoice
	block     chan struct{}
	entered   chan struct{}
}

func (g *fakeGateway) CreateInvoice(ctx context.Context, inv *models.Invoice) (*gateway.Confirmation, error) {
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = append(g.submitted, inv)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Confirmation{
		ID:          "inv-1",
		CompanyName: inv.BillFrom.CompanyName,
		ClientName:  inv.BillTo.ClientName,
		Items:       inv.Items,
		TotalAmount: *inv.Total,
	}, nil
}

func newController(t *testing.T, gw gateway.Gateway) (*Controller, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	c, err := New(Config{
		Gateway:  gw,
		Notifier: n,
		Now:      func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return c, n
}

func fill(t *testing.T, c *Controller) {
	t.Helper()
	values := []struct{ path, value string }{
		{FieldCompanyName, "Acme"},
		{FieldCompanyEmail, "billing@acme.test"},
		{FieldBillFromCountry, "Germany"},
		{FieldBillFromCity, "Berlin"},
		{FieldBillFromPostalCode, "10115"},
		{FieldBillFromStreet, "Main 1"},
		{FieldClientName, "Globex"},
		{FieldClientEmail, "ap@globex.test"},
		{FieldBillToCountry, "France"},
		{FieldBillToCity, "Paris"},
		{FieldBillToPostalCode, "75001"},
		{FieldBillToStreet, "Rue 2"},
		{FieldPaymentTerms, string(models.Net30Days)},
		{FieldProjectDescription, "Website"},
		{ItemField(0, ItemName), "Design"},
		{ItemField(0, ItemQuantity), "2"},
		{ItemField(0, ItemPrice), "100"},
	}
	for _, v := range values {
		require.NoError(t, c.UpdateField(v.path, v.value))
	}
	c.AddItem()
	require.NoError(t, c.UpdateField(ItemField(1, ItemName), "Dev"))
	require.NoError(t, c.UpdateField(ItemField(1, ItemPrice), "300"))
}

func TestNewRequiresGateway(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingGateway)
}

func TestInitialState(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})
	s := c.Snapshot()

	assert.Equal(t, models.NewDraft(testNow), s.Draft)
	assert.Empty(t, s.VisibleErrors, "nothing is touched yet")
	assert.NotEmpty(t, s.Errors)
	assert.False(t, s.Valid())
	assert.False(t, s.Saving)
	assert.False(t, s.Resetting)
	assert.Empty(t, s.Countries)
	assert.Equal(t, "0.00", s.Totals.Format().Total)
}

func TestUpdateFieldRecomputesTotals(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})
	fill(t, c)

	totals := c.Totals().Format()
	assert.Equal(t, "500.00", totals.Subtotal)
	assert.Equal(t, "50.00", totals.Tax)
	assert.Equal(t, "550.00", totals.Total)
	assert.Empty(t, c.Errors())

	// Totals are for display only.
	assert.Nil(t, c.Draft().Total)
}

func TestUpdateFieldUnknownPath(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})

	assert.ErrorIs(t, c.UpdateField("billFrom.fax", "x"), ErrUnknownField)
	assert.ErrorIs(t, c.UpdateField(ItemField(5, ItemName), "x"), ErrUnknownField)
	assert.ErrorIs(t, c.UpdateField("items[0].colour", "x"), ErrUnknownField)
	assert.ErrorIs(t, c.Touch("nope"), ErrUnknownField)
}

func TestVisibleErrorsFollowTouched(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})

	require.NoError(t, c.UpdateField(FieldCompanyEmail, "not-an-email"))
	visible := c.VisibleErrors()
	assert.Equal(t, []string{FieldCompanyEmail}, visible.Fields())
	assert.Equal(t, invoice.InvalidEmailFormat, visible[FieldCompanyEmail].Kind)

	require.NoError(t, c.Touch(FieldClientName))
	assert.Contains(t, c.VisibleErrors(), FieldClientName)
	assert.True(t, c.IsTouched(FieldClientName))
	assert.False(t, c.IsTouched(FieldClientEmail))
}

func TestAddAndRemoveItem(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})

	c.AddItem()
	c.AddItem()
	require.NoError(t, c.UpdateField(ItemField(2, ItemName), "third"))
	require.Len(t, c.Draft().Items, 3)
	assert.Equal(t, models.NewLineItem(), c.Draft().Items[1])

	c.RemoveItem(1)
	items := c.Draft().Items
	require.Len(t, items, 2)
	assert.Equal(t, "third", items[1].Name)
	assert.True(t, c.IsTouched(ItemField(1, ItemName)), "touched marks follow their row")
	assert.False(t, c.IsTouched(ItemField(2, ItemName)))

	c.RemoveItem(0)
	c.RemoveItem(0)
	assert.Empty(t, c.Draft().Items)
}

func TestRemoveItemOutOfRange(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})
	fill(t, c)
	before := c.Draft().Items

	c.RemoveItem(-1)
	c.RemoveItem(2)
	c.RemoveItem(100)

	assert.Equal(t, before, c.Draft().Items)
}

func TestSaveInvalidDoesNotSubmit(t *testing.T) {
	gw := &fakeGateway{}
	c, n := newController(t, gw)
	require.NoError(t, c.UpdateField(FieldCompanyName, "Acme"))

	conf, err := c.Save(context.Background())

	assert.Nil(t, conf)
	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrInvalidInvoice)
	assert.Empty(t, gw.submitted)
	assert.Empty(t, n.all())

	s := c.Snapshot()
	assert.True(t, s.SubmitAttempted)
	assert.False(t, s.Saving)
	assert.Equal(t, s.Errors, s.VisibleErrors, "all errors show after a save attempt")
	assert.Equal(t, "Acme", s.Draft.BillFrom.CompanyName)
}

func TestSaveSuccessResetsToBlankTemplate(t *testing.T) {
	gw := &fakeGateway{}
	c, n := newController(t, gw)
	fill(t, c)

	conf, err := c.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "inv-1", conf.ID)
	require.Len(t, gw.submitted, 1)
	sub := gw.submitted[0]
	assert.Equal(t, "500.00", sub.Subtotal.StringFixed(2))
	assert.Equal(t, "50.00", sub.Tax.StringFixed(2))
	assert.Equal(t, "550.00", sub.Total.StringFixed(2))
	assert.Equal(t, "Acme", sub.BillFrom.CompanyName)

	s := c.Snapshot()
	assert.Equal(t, models.NewDraft(testNow), s.Draft)
	assert.Empty(t, s.Touched)
	assert.False(t, s.SubmitAttempted)
	assert.False(t, s.Saving)
	assert.Equal(t, []Notification{SavedNotification}, n.all())
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	gw := &fakeGateway{err: errors.New("connection refused")}
	c, n := newController(t, gw)
	fill(t, c)
	before := c.Draft()

	conf, err := c.Save(context.Background())

	assert.Nil(t, conf)
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrSubmissionFailed)
	assert.Equal(t, before, c.Draft())
	assert.False(t, c.Saving())
	assert.Equal(t, []Notification{SaveFailedNotification}, n.all())
}

func TestSaveWithEmptyItemListReachesGateway(t *testing.T) {
	gw := &fakeGateway{}
	c, _ := newController(t, gw)
	fill(t, c)
	c.RemoveItem(1)
	c.RemoveItem(0)

	_, err := c.Save(context.Background())
	require.NoError(t, err)
	require.Len(t, gw.submitted, 1)
	assert.Empty(t, gw.submitted[0].Items)
	assert.True(t, gw.submitted[0].Total.IsZero())
}

func TestOverlappingSaveIsRejected(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, _ := newController(t, gw)
	fill(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Save(context.Background())
		done <- err
	}()
	<-gw.entered

	assert.True(t, c.Saving())
	_, err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(gw.block)
	require.NoError(t, <-done)
	assert.False(t, c.Saving())
	assert.Len(t, gw.submitted, 1)
}

func TestSaveWithoutConfirmationKeepsDraft(t *testing.T) {
	gw := gateway.GatewayFunc(func(ctx context.Context, inv *models.Invoice) (*gateway.Confirmation, error) {
		return nil, nil
	})
	c, n := newController(t, gw)
	fill(t, c)
	before := c.Draft()

	conf, err := c.Save(context.Background())
	require.Error(t, err)
	assert.Nil(t, conf)
	assert.ErrorIs(t, err, gateway.ErrSubmissionFailed)
	assert.ErrorIs(t, err, gateway.ErrUnexpectedResponse)

	assert.Equal(t, before, c.Draft())
	assert.False(t, c.Saving())
	assert.Equal(t, []Notification{SaveFailedNotification}, n.all())
}

func TestSaveDuringPendingResetIsRejected(t *testing.T) {
	gw := &fakeGateway{}
	n := &recordingNotifier{}
	c, err := New(Config{
		Gateway:    gw,
		Notifier:   n,
		ResetDelay: 200 * time.Millisecond,
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	fill(t, c)

	done := make(chan error, 1)
	go func() { done <- c.Reset(context.Background()) }()
	require.Eventually(t, c.Resetting, time.Second, 5*time.Millisecond)

	conf, err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrResetInFlight)
	assert.Nil(t, conf)
	assert.False(t, c.Saving())

	require.NoError(t, <-done)
	assert.Empty(t, gw.submitted)
	assert.Empty(t, n.all())
	assert.Equal(t, models.NewDraft(testNow), c.Draft())
}

func TestResetDuringSaveIsRejected(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, _ := newController(t, gw)
	fill(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Save(context.Background())
		done <- err
	}()
	<-gw.entered

	assert.ErrorIs(t, c.Reset(context.Background()), ErrSaveInFlight)
	assert.False(t, c.Resetting())

	close(gw.block)
	require.NoError(t, <-done)
	assert.Len(t, gw.submitted, 1)
	assert.Equal(t, models.NewDraft(testNow), c.Draft())
}

func TestResetWithDelay(t *testing.T) {
	n := &recordingNotifier{}
	c, err := New(Config{
		Gateway:    &fakeGateway{},
		Notifier:   n,
		ResetDelay: 200 * time.Millisecond,
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	fill(t, c)

	done := make(chan error, 1)
	go func() { done <- c.Reset(context.Background()) }()

	assert.Eventually(t, c.Resetting, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Reset(context.Background()), ErrResetInFlight)

	require.NoError(t, <-done)
	assert.False(t, c.Resetting())
	assert.Equal(t, models.NewDraft(testNow), c.Draft())
	assert.Empty(t, c.Snapshot().Touched)
}

func TestResetCanceled(t *testing.T) {
	c, err := New(Config{
		Gateway:    &fakeGateway{},
		ResetDelay: time.Hour,
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	require.NoError(t, c.UpdateField(FieldCompanyName, "Acme"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Reset(ctx), context.Canceled)
	assert.False(t, c.Resetting())
	assert.Equal(t, "Acme", c.Draft().BillFrom.CompanyName)
}

func TestCustomTemplate(t *testing.T) {
	tmpl := models.NewDraft(testNow)
	tmpl.BillFrom.CompanyName = "Acme"
	c, err := New(Config{Gateway: &fakeGateway{}, Template: tmpl})
	require.NoError(t, err)

	tmpl.BillFrom.CompanyName = "changed later"
	require.NoError(t, c.UpdateField(FieldCompanyName, "Other"))
	require.NoError(t, c.Reset(context.Background()))

	assert.Equal(t, "Acme", c.Draft().BillFrom.CompanyName)
}

func TestLoadCountries(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})

	c.LoadCountries(context.Background(), countries.Static{"France", "Germany"})

	assert.Eventually(t, func() bool { return len(c.Countries()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"France", "Germany"}, c.Snapshot().Countries)
}

type failingProvider struct{}

func (failingProvider) Countries(context.Context) ([]string, error) {
	return nil, countries.ErrFetchFailed
}

func TestLoadCountriesFailureLeavesListEmpty(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})

	<-c.LoadCountries(context.Background(), failingProvider{})

	assert.Empty(t, c.Countries())
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := newController(t, &fakeGateway{})
	s := c.Snapshot()

	s.Draft.BillFrom.CompanyName = "mutated"
	s.Draft.Items[0].Name = "mutated"

	assert.Empty(t, c.Draft().BillFrom.CompanyName)
	assert.Empty(t, c.Draft().Items[0].Name)
}

func TestFields(t *testing.T) {
	inv := models.NewDraft(testNow)
	inv.Items = append(inv.Items, models.NewLineItem())

	fields := Fields(inv)
	assert.Len(t, fields, 15+6)
	assert.Equal(t, FieldCompanyName, fields[0])
	assert.Equal(t, "items[1].price", fields[len(fields)-1])

	for _, path := range fields {
		_, err := FieldValue(inv, path)
		assert.NoError(t, err, path)
	}
}

func TestParseItemField(t *testing.T) {
	idx, leaf, ok := ParseItemField("items[12].quantity")
	assert.True(t, ok)
	assert.Equal(t, 12, idx)
	assert.Equal(t, "quantity", leaf)

	for _, bad := range []string{"items[].name", "items[-1].name", "items[x].name", "items[1]", "billFrom.companyName"} {
		_, _, ok := ParseItemField(bad)
		assert.False(t, ok, bad)
	}
}
