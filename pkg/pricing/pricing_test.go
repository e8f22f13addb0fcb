package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.StringFixed(2))
}

func TestPriceLine(t *testing.T) {
	t.Run("37.70 x 2 at 19%", func(t *testing.T) {
		pl := PriceLine(Line{ProductID: 1, Quantity: 2, PriceHT: dec("37.70"), TaxRate: dec("19.00")})
		assertDec(t, "75.40", pl.TotalHT)
		assertDec(t, "14.33", pl.Tax)
		assertDec(t, "89.73", pl.TotalTTC)
	})

	t.Run("zero rate", func(t *testing.T) {
		pl := PriceLine(Line{Quantity: 3, PriceHT: dec("12.50"), TaxRate: decimal.Zero})
		assertDec(t, "37.50", pl.TotalHT)
		assertDec(t, "0", pl.Tax)
		assertDec(t, "37.50", pl.TotalTTC)
	})

	t.Run("half rounds away from zero", func(t *testing.T) {
		// 0.25 * 10% = 0.025
		pl := PriceLine(Line{Quantity: 1, PriceHT: dec("0.25"), TaxRate: dec("10")})
		assertDec(t, "0.03", pl.Tax)
	})
}

func TestLineTotalMatchesClosedForm(t *testing.T) {
	prices := []string{"0.01", "1.99", "9.95", "14.30", "37.70", "120.05"}
	rates := []string{"0", "5.5", "7", "19", "20"}
	for _, p := range prices {
		for _, r := range rates {
			for q := 1; q <= 12; q++ {
				pl := PriceLine(Line{Quantity: q, PriceHT: dec(p), TaxRate: dec(r)})
				factor := decimal.NewFromInt(1).Add(dec(r).Div(hundred))
				want := dec(p).Mul(decimal.NewFromInt(int64(q))).Mul(factor).Round(2)
				require.True(t, want.Equal(pl.TotalTTC), "price %s rate %s qty %d: want %s got %s", p, r, q, want, pl.TotalTTC)
			}
		}
	}
}

func TestCompute(t *testing.T) {
	q := Compute([]Line{
		{ProductID: 1, Quantity: 2, PriceHT: dec("37.70"), TaxRate: dec("19.00")},
		{ProductID: 2, Quantity: 1, PriceHT: dec("8.33"), TaxRate: dec("5.50")},
		{ProductID: 3, Quantity: 5, PriceHT: dec("3.17"), TaxRate: dec("19.00")},
	})
	require.Len(t, q.Lines, 3)

	sumTTC := decimal.Zero
	for _, l := range q.Lines {
		sumTTC = sumTTC.Add(l.TotalTTC)
	}
	assert.True(t, sumTTC.Equal(q.TotalTTC))
	assert.True(t, q.SubtotalHT.Add(q.TaxAmount).Equal(q.TotalTTC))
	assertDec(t, "99.58", q.SubtotalHT)
}

func TestComputeEmpty(t *testing.T) {
	q := Compute(nil)
	assert.Empty(t, q.Lines)
	assert.True(t, q.TotalTTC.IsZero())
}

func TestApplyDiscount(t *testing.T) {
	subtotal, tax := dec("75.40"), dec("14.33")

	t.Run("absolute amount", func(t *testing.T) {
		applied, total := ApplyDiscount(subtotal, tax, dec("10.00"))
		assertDec(t, "10.00", applied)
		assertDec(t, "79.73", total)
	})

	t.Run("negative clamps to zero", func(t *testing.T) {
		applied, total := ApplyDiscount(subtotal, tax, dec("-5"))
		assertDec(t, "0", applied)
		assertDec(t, "89.73", total)
	})

	t.Run("exceeding gross clamps to gross", func(t *testing.T) {
		applied, total := ApplyDiscount(subtotal, tax, dec("500"))
		assertDec(t, "89.73", applied)
		assertDec(t, "0", total)
	})
}
