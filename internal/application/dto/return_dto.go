package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// ReturnLineRequest línea a devolver.
type ReturnLineRequest struct {
	SaleLineID string `json:"sale_line_id"`
	Quantity   int64  `json:"quantity"`
}

// CreateReturnRequest body para POST /api/returns.
type CreateReturnRequest struct {
	SaleID       string              `json:"sale_id"`
	Series       string              `json:"series"`
	ReasonCode   string              `json:"reason_code,omitempty"` // catálogo 09, por defecto 07
	Reason       string              `json:"reason"`
	RefundMethod string              `json:"refund_method"` // INVENTORY_RETURN, CASH, CREDIT_NOTE
	Lines        []ReturnLineRequest `json:"lines"`
}

// ReturnLineDTO línea devuelta.
type ReturnLineDTO struct {
	ID               string          `json:"id"`
	SaleLineID       string          `json:"sale_line_id"`
	ProductID        string          `json:"product_id"`
	Description      string          `json:"description"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitPriceWithTax decimal.Decimal `json:"unit_price_with_tax"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
}

// ReturnResponse nota de crédito emitida.
type ReturnResponse struct {
	ID             string          `json:"id"`
	SaleID         string          `json:"sale_id"`
	AffectedNumber string          `json:"affected_number"`
	DocumentType   string          `json:"document_type"`
	Series         string          `json:"series"`
	Number         int64           `json:"number"`
	FullNumber     string          `json:"full_number"`
	IssueDate      string          `json:"issue_date"`
	ReasonCode     string          `json:"reason_code"`
	Reason         string          `json:"reason"`
	RefundMethod   string          `json:"refund_method"`
	TaxableBase    decimal.Decimal `json:"taxable_base"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Fiscal         FiscalStateDTO  `json:"fiscal"`
	Lines          []ReturnLineDTO `json:"lines"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ReturnFromEntity arma la respuesta.
func ReturnFromEntity(r *entity.ReturnDocument) ReturnResponse {
	out := ReturnResponse{
		ID:             r.ID,
		SaleID:         r.SaleID,
		AffectedNumber: r.AffectedNumber(),
		DocumentType:   r.DocumentType,
		Series:         r.Series,
		Number:         r.Number,
		FullNumber:     r.FullNumber(),
		IssueDate:      r.IssueDate.Format(dateLayout),
		ReasonCode:     r.ReasonCode,
		Reason:         r.Reason,
		RefundMethod:   r.RefundMethod,
		TaxableBase:    r.TaxableBase,
		TaxAmount:      r.TaxAmount,
		GrandTotal:     r.GrandTotal,
		Fiscal:         FiscalStateFromEntity(r.Fiscal),
		Lines:          make([]ReturnLineDTO, 0, len(r.Lines)),
		CreatedAt:      r.CreatedAt,
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, ReturnLineDTO{
			ID:               l.ID,
			SaleLineID:       l.SaleLineID,
			ProductID:        l.ProductID,
			Description:      l.Description,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			UnitPriceWithTax: l.UnitPriceWithTax,
			Subtotal:         l.Subtotal,
			TaxRate:          l.TaxRate,
		})
	}
	return out
}
