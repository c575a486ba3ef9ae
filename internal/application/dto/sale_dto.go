package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// CustomerDTO identidad del cliente tal como se imprime en el comprobante.
type CustomerDTO struct {
	DocType   string `json:"doc_type"` // 1=DNI, 6=RUC, 0=sin documento
	DocNumber string `json:"doc_number"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
}

// SaleLineRequest línea pedida. Sin unit_price se usa el precio del producto.
type SaleLineRequest struct {
	ProductID   string           `json:"product_id"`
	Quantity    int64            `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Description string           `json:"description,omitempty"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	DocumentType string            `json:"document_type"` // 01 factura, 03 boleta
	Series       string            `json:"series"`
	Customer     CustomerDTO       `json:"customer"`
	Lines        []SaleLineRequest `json:"lines"`
	Currency     string            `json:"currency,omitempty"`
	DueDate      string            `json:"due_date,omitempty"` // YYYY-MM-DD
}

// ParseDueDate convierte due_date; vacío = nil.
func (r CreateSaleRequest) ParseDueDate() (*time.Time, error) {
	if r.DueDate == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, r.DueDate)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// VoidSaleRequest body para POST /api/sales/:id/void.
type VoidSaleRequest struct {
	Reason string `json:"reason"`
}

// SaleLineDTO línea emitida.
type SaleLineDTO struct {
	ID                 string          `json:"id"`
	LineNo             int             `json:"line_no"`
	ProductID          string          `json:"product_id"`
	Description        string          `json:"description"`
	UnitMeasure        string          `json:"unit_measure"`
	Quantity           int64           `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	UnitPriceWithTax   decimal.Decimal `json:"unit_price_with_tax"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	TaxAffectationCode string          `json:"tax_affectation_code"`
}

// SaleResponse comprobante emitido.
type SaleResponse struct {
	ID           string          `json:"id"`
	DocumentType string          `json:"document_type"`
	Series       string          `json:"series"`
	Number       int64           `json:"number"`
	FullNumber   string          `json:"full_number"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date,omitempty"`
	Currency     string          `json:"currency"`
	Customer     CustomerDTO     `json:"customer"`
	TaxableBase  decimal.Decimal `json:"taxable_base"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	Status       string          `json:"status"`
	Fiscal       FiscalStateDTO  `json:"fiscal"`
	Lines        []SaleLineDTO   `json:"lines"`
	CreatedBy    string          `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CustomerFromDTO a entidad.
func CustomerFromDTO(c CustomerDTO) entity.CustomerSnapshot {
	return entity.CustomerSnapshot{DocType: c.DocType, DocNumber: c.DocNumber, Name: c.Name, Address: c.Address}
}

func customerToDTO(c entity.CustomerSnapshot) CustomerDTO {
	return CustomerDTO{DocType: c.DocType, DocNumber: c.DocNumber, Name: c.Name, Address: c.Address}
}

// SaleFromEntity arma la respuesta.
func SaleFromEntity(s *entity.SaleDocument) SaleResponse {
	out := SaleResponse{
		ID:           s.ID,
		DocumentType: s.DocumentType,
		Series:       s.Series,
		Number:       s.Number,
		FullNumber:   s.FullNumber(),
		IssueDate:    s.IssueDate.Format(dateLayout),
		Currency:     s.Currency,
		Customer:     customerToDTO(s.Customer),
		TaxableBase:  s.TaxableBase,
		TaxAmount:    s.TaxAmount,
		GrandTotal:   s.GrandTotal,
		Status:       s.Status,
		Fiscal:       FiscalStateFromEntity(s.Fiscal),
		Lines:        make([]SaleLineDTO, 0, len(s.Lines)),
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt,
	}
	if s.DueDate != nil {
		out.DueDate = s.DueDate.Format(dateLayout)
	}
	for _, l := range s.Lines {
		out.Lines = append(out.Lines, SaleLineDTO{
			ID:                 l.ID,
			LineNo:             l.LineNo,
			ProductID:          l.ProductID,
			Description:        l.Description,
			UnitMeasure:        l.UnitMeasure,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			UnitPriceWithTax:   l.UnitPriceWithTax,
			Subtotal:           l.Subtotal,
			TaxRate:            l.TaxRate,
			TaxAffectationCode: l.TaxAffectationCode,
		})
	}
	return out
}
