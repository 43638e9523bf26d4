package domain

import (
	"testing"

	"gotest.tools/v3/assert"
)

func price(v float64) *float64 { return &v }

func TestComputeTotals_MixedTaxRates(t *testing.T) {
	lines := []CartLine{
		{Product: Product{ID: 1, TaxRate: 10}, Quantity: 2, PriceAtAdd: 100},
		{Product: Product{ID: 2, TaxRate: 0}, Quantity: 1, PriceAtAdd: 50},
	}

	totals := ComputeTotals(lines, 0)

	assert.Equal(t, 250.0, totals.Subtotal)
	assert.Equal(t, 20.0, totals.Tax)
	assert.Equal(t, 270.0, totals.Grand)
	assert.Equal(t, int64(27000), totals.MinorUnits)
}

func TestComputeTotals_DeliveryFeeIncluded(t *testing.T) {
	lines := []CartLine{
		{Product: Product{ID: 1}, Quantity: 1, PriceAtAdd: 99.99},
	}

	totals := ComputeTotals(lines, 40)

	assert.Equal(t, 99.99, totals.Subtotal)
	assert.Equal(t, 139.99, totals.Grand)
	assert.Equal(t, int64(13999), totals.MinorUnits)
}

func TestComputeTotals_TaxRoundedToTwoDecimals(t *testing.T) {
	lines := []CartLine{
		{Product: Product{ID: 1, TaxRate: 18}, Quantity: 1, PriceAtAdd: 33.33},
	}

	totals := ComputeTotals(lines, 0)

	// 33.33 * 0.18 = 5.9994, rounds to 6.00
	assert.Equal(t, 6.0, totals.Tax)
	assert.Equal(t, 39.33, totals.Grand)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil, 0)
	assert.Equal(t, int64(0), totals.MinorUnits)
}

func TestUnitPrice_SalePriceWins(t *testing.T) {
	p := Product{Price: 100, SalePrice: price(80)}
	assert.Equal(t, 80.0, p.UnitPrice())
	assert.Equal(t, 100.0, Product{Price: 100}.UnitPrice())
}

func TestUnitWeight_DefaultsWhenMissing(t *testing.T) {
	w := 1.25
	assert.Equal(t, 1.25, Product{Weight: &w}.UnitWeight())
	assert.Equal(t, 0.5, Product{}.UnitWeight())
}
