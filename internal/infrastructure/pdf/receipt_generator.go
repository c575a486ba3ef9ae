// Package pdf genera la representación impresa de comprobantes electrónicos SUNAT
// (factura, boleta y nota de crédito) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  EMISOR: Razón Social + RUC  │  Tipo + Serie-Número + Fecha  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ADQUIRENTE: Nombre + documento + dirección                 │
//	│  (nota de crédito: comprobante afectado + motivo)           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Unid | Descripción | V.Unit | P.Unit | Valor  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Op. gravada / IGV / IMPORTE TOTAL                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PIE: QR + valor resumen + estado de envío                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/pkg/sunat"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Issuer datos del emisor impresos en la cabecera.
type Issuer struct {
	RUC     string
	Name    string
	Address string
}

// ReceiptGenerator arma la representación impresa de ventas y notas de crédito.
type ReceiptGenerator struct {
	issuer Issuer
}

// NewReceiptGenerator construye el generador.
func NewReceiptGenerator(issuer Issuer) *ReceiptGenerator {
	return &ReceiptGenerator{issuer: issuer}
}

// receipt vista común de comprobante y nota de crédito.
type receipt struct {
	documentType string
	fullNumber   string
	series       string
	number       int64
	issueDate    time.Time
	currency     string
	customer     entity.CustomerSnapshot
	affected     string // solo nota de crédito
	reason       string
	lines        []receiptLine
	taxableBase  decimal.Decimal
	taxAmount    decimal.Decimal
	grandTotal   decimal.Decimal
	fiscal       entity.FiscalState
}

type receiptLine struct {
	quantity         int64
	unit             string
	description      string
	unitPrice        decimal.Decimal
	unitPriceWithTax decimal.Decimal
	subtotal         decimal.Decimal
}

// SaleReceipt genera el PDF de una factura o boleta.
func (g *ReceiptGenerator) SaleReceipt(ctx context.Context, sale *entity.SaleDocument) ([]byte, error) {
	r := receipt{
		documentType: sale.DocumentType,
		fullNumber:   sale.FullNumber(),
		series:       sale.Series,
		number:       sale.Number,
		issueDate:    sale.IssueDate,
		currency:     sale.Currency,
		customer:     sale.Customer,
		taxableBase:  sale.TaxableBase,
		taxAmount:    sale.TaxAmount,
		grandTotal:   sale.GrandTotal,
		fiscal:       sale.Fiscal,
	}
	if sale.Status == entity.SaleStatusVoid {
		r.reason = "COMPROBANTE ANULADO"
	}
	for _, l := range sale.Lines {
		r.lines = append(r.lines, receiptLine{
			quantity: l.Quantity, unit: l.UnitMeasure, description: l.Description,
			unitPrice: l.UnitPrice, unitPriceWithTax: l.UnitPriceWithTax, subtotal: l.Subtotal,
		})
	}
	return g.render(ctx, r)
}

// ReturnReceipt genera el PDF de una nota de crédito.
func (g *ReceiptGenerator) ReturnReceipt(ctx context.Context, ret *entity.ReturnDocument) ([]byte, error) {
	r := receipt{
		documentType: ret.DocumentType,
		fullNumber:   ret.FullNumber(),
		series:       ret.Series,
		number:       ret.Number,
		issueDate:    ret.IssueDate,
		currency:     ret.Currency,
		customer:     ret.Customer,
		affected:     sunat.DocumentTypeName(ret.SaleDocumentType) + " " + ret.AffectedNumber(),
		reason:       strings.TrimSpace(ret.ReasonCode + " " + ret.Reason),
		taxableBase:  ret.TaxableBase,
		taxAmount:    ret.TaxAmount,
		grandTotal:   ret.GrandTotal,
		fiscal:       ret.Fiscal,
	}
	for _, l := range ret.Lines {
		r.lines = append(r.lines, receiptLine{
			quantity: l.Quantity, unit: l.UnitMeasure, description: l.Description,
			unitPrice: l.UnitPrice, unitPriceWithTax: l.UnitPriceWithTax, subtotal: l.Subtotal,
		})
	}
	return g.render(ctx, r)
}

func (g *ReceiptGenerator) render(ctx context.Context, r receipt) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(sunat.DocumentTypeName(r.documentType)+" "+r.fullNumber, true).
		WithAuthor(g.issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(r))
	if r.affected != "" || r.reason != "" {
		m.AddRows(referenceRow(r))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(r.lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(r))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRow(r))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar %s: %w", r.fullNumber, err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *ReceiptGenerator) headerRow(r receipt) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(g.issuer.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RUC: "+g.issuer.RUC, props.Text{Size: 9, Top: 9, Color: colorGray}),
			text.New(nonEmpty(g.issuer.Address, "—"), props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(sunat.DocumentTypeName(r.documentType), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.fullNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha de emisión: "+r.issueDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(r receipt) core.Row {
	doc := "—"
	if r.customer.DocNumber != "" {
		doc = identityLabel(r.customer.DocType) + ": " + r.customer.DocNumber
	}
	return row.New(16).Add(
		col.New(12).Add(
			text.New("ADQUIRENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(r.customer.Name, "CLIENTES VARIOS"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("%s   |   Dirección: %s   |   Moneda: %s",
				doc, nonEmpty(r.customer.Address, "—"), r.currency,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// referenceRow comprobante afectado y motivo (notas de crédito y anulados).
func referenceRow(r receipt) core.Row {
	c := col.New(12)
	if r.affected != "" {
		c.Add(text.New("Documento que modifica: "+r.affected, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}))
	}
	if r.reason != "" {
		c.Add(text.New("Motivo: "+r.reason, props.Text{Size: 8, Top: 6, Color: colorGray}))
	}
	return row.New(11).Add(c)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Unid.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("V. Unit.", 2, align.Right),
		h("P. Unit.", 2, align.Right),
		h("Valor venta", 2, align.Right),
	)
}

func tableDetailRows(lines []receiptLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(l.unit, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(l.description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(l.unitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(l.unitPriceWithTax), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(l.subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(r receipt) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := fmt.Sprintf("%s %s", currencySymbol(r.currency), formatMoney(r.grandTotal))
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Op. gravada:", 1),
			label("IGV:", 6),
			text.New("IMPORTE TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12}),
		),
		col.New(3).Add(
			value(formatMoney(r.taxableBase), 1),
			value(formatMoney(r.taxAmount), 6),
			text.New(grand, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12}),
		),
	)
}

func (g *ReceiptGenerator) footerRow(r receipt) core.Row {
	qr := sunat.QRData{
		IssuerRUC:         g.issuer.RUC,
		DocumentType:      r.documentType,
		Series:            r.series,
		Number:            r.number,
		TaxAmount:         r.taxAmount,
		GrandTotal:        r.grandTotal,
		IssueDate:         r.issueDate,
		CustomerDocType:   r.customer.DocType,
		CustomerDocNumber: r.customer.DocNumber,
		Hash:              r.fiscal.Hash,
	}
	status := "Estado de envío: " + r.fiscal.Status.String()
	legend := "Representación impresa de la " + strings.ToLower(sunat.DocumentTypeName(r.documentType))
	return row.New(45).Add(
		col.New(4).Add(code.NewQr(qr.String(), props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New(legend, props.Text{Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3, Color: colorPrimary}),
			text.New("Valor resumen: "+nonEmpty(r.fiscal.Hash, "pendiente"), props.Text{Size: 7, Top: 12, Left: 3, Color: colorGray}),
			text.New(status, props.Text{Size: 7, Top: 17, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func identityLabel(docType string) string {
	switch docType {
	case sunat.IdentityDNI:
		return "DNI"
	case sunat.IdentityRUC:
		return "RUC"
	case sunat.IdentityCE:
		return "C.E."
	case sunat.IdentityPassport:
		return "Pasaporte"
	}
	return "Doc."
}

func currencySymbol(code string) string {
	switch code {
	case "PEN", "":
		return "S/"
	case "USD":
		return "US$"
	}
	return code
}

// formatMoney dos decimales con comas de miles.
// Ej: 1234567.5 → "1,234,567.50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac
}
