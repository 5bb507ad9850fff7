package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceform/pkg/models"
)

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.LineItem
		subtotal string
		tax      string
		total    string
	}{
		{
			name: "two items",
			items: []models.LineItem{
				{Name: "Design", Quantity: "2", Price: "100"},
				{Name: "Dev", Quantity: "1", Price: "300"},
			},
			subtotal: "500.00", tax: "50.00", total: "550.00",
		},
		{
			name:     "no items",
			items:    nil,
			subtotal: "0.00", tax: "0.00", total: "0.00",
		},
		{
			name: "fractional prices",
			items: []models.LineItem{
				{Name: "Hours", Quantity: "3", Price: "19.99"},
			},
			subtotal: "59.97", tax: "6.00", total: "65.97",
		},
		{
			name: "unparseable values count as zero",
			items: []models.LineItem{
				{Name: "a", Quantity: "abc", Price: "100"},
				{Name: "b", Quantity: "2", Price: ""},
				{Name: "c", Quantity: "1", Price: "10"},
			},
			subtotal: "10.00", tax: "1.00", total: "11.00",
		},
		{
			name: "nameless rows still count",
			items: []models.LineItem{
				{Quantity: "1", Price: "5"},
			},
			subtotal: "5.00", tax: "0.50", total: "5.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.items).Format()
			assert.Equal(t, tt.subtotal, got.Subtotal)
			assert.Equal(t, tt.tax, got.Tax)
			assert.Equal(t, tt.total, got.Total)
		})
	}
}

func TestTotalsRelations(t *testing.T) {
	items := []models.LineItem{
		{Quantity: "7", Price: "13.37"},
		{Quantity: "1.5", Price: "0.99"},
		{Quantity: "12", Price: "1000"},
	}

	got := CalculateTotals(items)

	want := decimal.Zero
	for _, item := range items {
		want = want.Add(item.Quantity.DecimalOrZero().Mul(item.Price.DecimalOrZero()))
	}
	assert.True(t, got.Subtotal.Equal(want))
	assert.True(t, got.Tax.Equal(want.Mul(decimal.NewFromFloat(0.1))))
	assert.True(t, got.Total.Equal(want.Mul(decimal.NewFromFloat(1.1))))
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, "25", LineTotal(models.LineItem{Quantity: "2.5", Price: "10"}).String())
	assert.True(t, LineTotal(models.LineItem{Quantity: "x", Price: "10"}).IsZero())
}

func TestApplyRecomputesTotals(t *testing.T) {
	stale := decimal.NewFromInt(1)
	inv := &models.Invoice{
		Items: []models.LineItem{{Name: "Design", Quantity: "2", Price: "100"}},
		Total: &stale,
	}

	out := Apply(inv)

	require.NotNil(t, out.Subtotal)
	assert.Equal(t, "200.00", out.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", out.Tax.StringFixed(2))
	assert.Equal(t, "220.00", out.Total.StringFixed(2))

	// The input is left alone.
	assert.True(t, inv.Total.Equal(stale))
	assert.Nil(t, inv.Subtotal)
}
