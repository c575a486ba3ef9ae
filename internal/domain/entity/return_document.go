package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Formas de reembolso de una devolución. Solo INVENTORY_RETURN reingresa stock.
const (
	RefundMethodInventoryReturn = "INVENTORY_RETURN"
	RefundMethodCash            = "CASH"
	RefundMethodCreditNote      = "CREDIT_NOTE"
)

// IsValidRefundMethod valida la forma de reembolso.
func IsValidRefundMethod(m string) bool {
	switch m {
	case RefundMethodInventoryReturn, RefundMethodCash, RefundMethodCreditNote:
		return true
	}
	return false
}

// ReturnDocument es la nota de crédito que revierte parte o todo un comprobante.
type ReturnDocument struct {
	ID                 string
	SaleID             string
	SaleDocumentType   string
	SaleSeries         string
	SaleNumber         int64
	DocumentType       string // siempre 07
	Series             string
	Number             int64
	IssueDate          time.Time
	Currency           string
	ReasonCode         string // catálogo 09 (01 anulación, 07 devolución por ítem...)
	Reason             string
	RefundMethod       string
	Customer           CustomerSnapshot
	TaxRate            decimal.Decimal
	TaxableBase        decimal.Decimal
	TaxAmount          decimal.Decimal
	GrandTotal         decimal.Decimal
	Fiscal             FiscalState
	Lines              []ReturnLine
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullNumber devuelve "SERIE-NUMERO" de la nota de crédito.
func (r *ReturnDocument) FullNumber() string {
	return fmt.Sprintf("%s-%d", r.Series, r.Number)
}

// AffectedNumber devuelve "SERIE-NUMERO" del comprobante afectado.
func (r *ReturnDocument) AffectedNumber() string {
	return fmt.Sprintf("%s-%d", r.SaleSeries, r.SaleNumber)
}

// ReturnLine es una línea devuelta; referencia la línea original de la venta.
type ReturnLine struct {
	ID                 string
	ReturnID           string
	SaleLineID         string
	ProductID          string
	Description        string
	UnitMeasure        string
	Quantity           int64
	UnitPrice          decimal.Decimal
	UnitPriceWithTax   decimal.Decimal
	Subtotal           decimal.Decimal
	TaxRate            decimal.Decimal
	TaxAffectationCode string
}
