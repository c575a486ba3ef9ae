package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNormalizeRate(t *testing.T) {
	assert.True(t, pricing.NormalizeRate(dec("18")).Equal(dec("0.18")))
	assert.True(t, pricing.NormalizeRate(dec("0.18")).Equal(dec("0.18")))
	assert.True(t, pricing.NormalizeRate(decimal.Zero).IsZero())
}

func TestComputeLine_RedondeaADosDecimales(t *testing.T) {
	l := pricing.ComputeLine(3, dec("3.335"), dec("0.18"))
	assert.Equal(t, "10.01", l.Subtotal.StringFixed(2)) // 10.005 → 10.01
	assert.Equal(t, "3.94", l.UnitPriceWithTax.StringFixed(2))
	assert.True(t, l.TaxRate.Equal(dec("0.18")))
}

// El impuesto se calcula sobre la suma de líneas redondeadas, no línea por línea.
func TestComputeTotals_ImpuestoSobreBase(t *testing.T) {
	lines := []pricing.Line{
		pricing.ComputeLine(1, dec("0.03"), dec("0.18")),
		pricing.ComputeLine(1, dec("0.03"), dec("0.18")),
		pricing.ComputeLine(1, dec("0.03"), dec("0.18")),
	}
	tot := pricing.ComputeTotals(lines, dec("0.18"))
	assert.Equal(t, "0.09", tot.TaxableBase.StringFixed(2))
	assert.Equal(t, "0.02", tot.TaxAmount.StringFixed(2)) // por línea habría dado 0.03
	assert.Equal(t, "0.11", tot.GrandTotal.StringFixed(2))
}

func TestComputeTotals_Consistencia(t *testing.T) {
	lines := []pricing.Line{
		pricing.ComputeLine(2, dec("10.50"), dec("18")),
		pricing.ComputeLine(1, dec("99.99"), dec("18")),
	}
	tot := pricing.ComputeTotals(lines, dec("18"))
	assert.True(t, tot.TaxableBase.Equal(dec("120.99")))
	assert.True(t, tot.TaxAmount.Equal(dec("21.78")))
	assert.True(t, tot.GrandTotal.Equal(tot.TaxableBase.Add(tot.TaxAmount)))
}
