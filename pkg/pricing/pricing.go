// Package pricing computes excluding-tax (HT) and including-tax (TTC) amounts for order lines.
//
// Every amount is rounded to two decimals, half away from zero. Each line's tax is rounded
// before it is summed, so an order's TTC is always the exact sum of its lines' TTC.
package pricing

import (
	"github.com/shopspring/decimal"
)

const places = 2

var hundred = decimal.NewFromInt(100)

// Line is a product at a quantity, priced with the product's current HT price and TVA rate.
type Line struct {
	ProductID uint
	Quantity  int
	PriceHT   decimal.Decimal
	TaxRate   decimal.Decimal
}

// PricedLine is a Line with its rounded HT total, tax and TTC total.
type PricedLine struct {
	Line
	TotalHT  decimal.Decimal
	Tax      decimal.Decimal
	TotalTTC decimal.Decimal
}

// Quote sums the priced lines of an order.
type Quote struct {
	Lines      []PricedLine
	SubtotalHT decimal.Decimal
	TaxAmount  decimal.Decimal
	TotalTTC   decimal.Decimal
}

// Round rounds d to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(places)
}

// PriceLine prices quantity units of l. The tax is rounded on the line total.
func PriceLine(l Line) PricedLine {
	totalHT := Round(l.PriceHT.Mul(decimal.NewFromInt(int64(l.Quantity))))
	tax := Round(totalHT.Mul(l.TaxRate).Div(hundred))
	return PricedLine{
		Line:     l,
		TotalHT:  totalHT,
		Tax:      tax,
		TotalTTC: totalHT.Add(tax),
	}
}

// Compute prices every line and sums them. An empty order quotes zero everywhere.
func Compute(lines []Line) Quote {
	q := Quote{
		Lines:      make([]PricedLine, 0, len(lines)),
		SubtotalHT: decimal.Zero,
		TaxAmount:  decimal.Zero,
	}
	for _, l := range lines {
		pl := PriceLine(l)
		q.Lines = append(q.Lines, pl)
		q.SubtotalHT = q.SubtotalHT.Add(pl.TotalHT)
		q.TaxAmount = q.TaxAmount.Add(pl.Tax)
	}
	q.TotalTTC = q.SubtotalHT.Add(q.TaxAmount)
	return q
}

// ApplyDiscount clamps discount into [0, subtotalHT+tax] and returns the discount actually
// applied together with the resulting TTC total.
func ApplyDiscount(subtotalHT, tax, discount decimal.Decimal) (applied, total decimal.Decimal) {
	gross := Round(subtotalHT.Add(tax))
	applied = Round(discount)
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	if applied.GreaterThan(gross) {
		applied = gross
	}
	return applied, gross.Sub(applied)
}
