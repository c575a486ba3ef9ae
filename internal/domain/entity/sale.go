package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del comprobante de venta.
const (
	SaleStatusIssued = "ISSUED"
	SaleStatusVoid   = "VOID"
)

// CustomerSnapshot copia de la identidad del cliente al momento de la venta.
type CustomerSnapshot struct {
	DocType   string // 1=DNI, 6=RUC, 0=sin documento
	DocNumber string
	Name      string
	Address   string
}

// SaleDocument es la cabecera del comprobante (raíz del agregado).
// Inmutable salvo Status y Fiscal; nunca se elimina físicamente.
type SaleDocument struct {
	ID               string
	DocumentType     string
	Series           string
	Number           int64
	IssueDate        time.Time
	DueDate          *time.Time
	Currency         string
	TaxOperationCode string
	Customer         CustomerSnapshot
	TaxRate          decimal.Decimal
	TaxableBase      decimal.Decimal
	TaxAmount        decimal.Decimal
	GrandTotal       decimal.Decimal
	Status           string
	Fiscal           FiscalState
	Lines            []SaleLine
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullNumber devuelve "SERIE-NUMERO" (ej: B001-11).
func (s *SaleDocument) FullNumber() string {
	return fmt.Sprintf("%s-%d", s.Series, s.Number)
}

// SaleLine es una línea del comprobante.
type SaleLine struct {
	ID                 string
	SaleID             string
	LineNo             int
	ProductID          string
	Description        string
	UnitMeasure        string
	Quantity           int64
	UnitPrice          decimal.Decimal // sin impuesto
	UnitPriceWithTax   decimal.Decimal
	Subtotal           decimal.Decimal // sin impuesto, redondeado a 2 decimales
	TaxRate            decimal.Decimal
	TaxAffectationCode string
}
