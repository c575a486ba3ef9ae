package pse

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// FromSale arma el request de un comprobante de venta.
func FromSale(s *entity.SaleDocument) *Request {
	req := &Request{
		DocumentType:     s.DocumentType,
		Series:           s.Series,
		Number:           s.Number,
		IssueDate:        s.IssueDate.Format(dateLayout),
		Currency:         s.Currency,
		TaxOperationCode: s.TaxOperationCode,
		Customer:         customerOf(s.Customer),
		TaxRate:          s.TaxRate.Mul(hundred),
		TaxableBase:      s.TaxableBase,
		TaxAmount:        s.TaxAmount,
		GrandTotal:       s.GrandTotal,
	}
	if s.DueDate != nil {
		req.DueDate = s.DueDate.Format(dateLayout)
	}
	for _, l := range s.Lines {
		req.Items = append(req.Items, Item{
			UnitMeasure:        l.UnitMeasure,
			Description:        l.Description,
			Quantity:           l.Quantity,
			UnitValue:          l.UnitPrice,
			UnitPrice:          l.UnitPriceWithTax,
			TaxPercent:         l.TaxRate.Mul(hundred),
			TaxAffectationCode: l.TaxAffectationCode,
			Subtotal:           l.Subtotal,
		})
	}
	return req
}

// FromReturn arma el request de una nota de crédito con la referencia al comprobante afectado.
func FromReturn(r *entity.ReturnDocument) *Request {
	req := &Request{
		DocumentType: r.DocumentType,
		Series:       r.Series,
		Number:       r.Number,
		IssueDate:    r.IssueDate.Format(dateLayout),
		Currency:     r.Currency,
		Customer:     customerOf(r.Customer),
		TaxRate:      r.TaxRate.Mul(hundred),
		TaxableBase:  r.TaxableBase,
		TaxAmount:    r.TaxAmount,
		GrandTotal:   r.GrandTotal,
		Affected: &AffectedDocument{
			DocumentType: r.SaleDocumentType,
			Series:       r.SaleSeries,
			Number:       r.SaleNumber,
		},
		ReasonCode: r.ReasonCode,
		Reason:     r.Reason,
	}
	for _, l := range r.Lines {
		req.Items = append(req.Items, Item{
			UnitMeasure:        l.UnitMeasure,
			Description:        l.Description,
			Quantity:           l.Quantity,
			UnitValue:          l.UnitPrice,
			UnitPrice:          l.UnitPriceWithTax,
			TaxPercent:         l.TaxRate.Mul(hundred),
			TaxAffectationCode: l.TaxAffectationCode,
			Subtotal:           l.Subtotal,
		})
	}
	return req
}

func customerOf(c entity.CustomerSnapshot) Customer {
	docType := c.DocType
	if docType == "" {
		docType = "0" // sin documento
	}
	docNumber := c.DocNumber
	if docNumber == "" {
		docNumber = "-"
	}
	name := c.Name
	if name == "" {
		name = "CLIENTES VARIOS"
	}
	return Customer{DocType: docType, DocNumber: docNumber, Name: name, Address: c.Address}
}
