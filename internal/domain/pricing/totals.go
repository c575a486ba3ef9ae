// Package pricing calcula subtotales e impuestos de los comprobantes.
// Regla de redondeo: cada línea se redondea a 2 decimales y luego se suma;
// el impuesto de cabecera es round(base imponible × tasa).
package pricing

import (
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// NormalizeRate acepta la tasa como fracción (0.18) o porcentaje (18) y devuelve la fracción.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(one) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// Line resultado del cálculo de una línea.
type Line struct {
	UnitPrice        decimal.Decimal
	UnitPriceWithTax decimal.Decimal
	Subtotal         decimal.Decimal
	TaxRate          decimal.Decimal
}

// ComputeLine calcula una línea: subtotal = round2(cantidad × precio sin impuesto).
func ComputeLine(quantity int64, unitPrice, rate decimal.Decimal) Line {
	r := NormalizeRate(rate)
	return Line{
		UnitPrice:        unitPrice,
		UnitPriceWithTax: unitPrice.Mul(one.Add(r)).Round(2),
		Subtotal:         decimal.NewFromInt(quantity).Mul(unitPrice).Round(2),
		TaxRate:          r,
	}
}

// Totals totales de cabecera.
type Totals struct {
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
	GrandTotal  decimal.Decimal
}

// ComputeTotals suma los subtotales de línea (ya redondeados) y aplica la tasa a la base.
func ComputeTotals(lines []Line, rate decimal.Decimal) Totals {
	base := decimal.Zero
	for _, l := range lines {
		base = base.Add(l.Subtotal)
	}
	tax := base.Mul(NormalizeRate(rate)).Round(2)
	return Totals{
		TaxableBase: base,
		TaxAmount:   tax,
		GrandTotal:  base.Add(tax),
	}
}
