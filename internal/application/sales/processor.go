// Package sales emite comprobantes de venta: numeración, kardex y totales en una sola unidad atómica.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-fiscal-api/internal/application/audit"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/pricing"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
	"github.com/jhoicas/pos-fiscal-api/pkg/sunat"
)

const defaultUnitMeasure = "NIU"

// Policy parámetros de emisión; se pasan explícitamente en cada llamada.
type Policy struct {
	TaxRate            decimal.Decimal
	AllowNegativeStock bool
	Currency           string
	TaxOperationCode   string // catálogo 51 (0101 venta interna)
	TaxAffectationCode string // catálogo 07 (10 gravado)
}

// SaleLineInput línea solicitada. UnitPrice nil usa el precio del producto.
type SaleLineInput struct {
	ProductID   string
	Quantity    int64
	UnitPrice   *decimal.Decimal
	Description string
}

// IssueSaleInput entrada de IssueSale.
type IssueSaleInput struct {
	DocumentType string
	Series       string
	Customer     entity.CustomerSnapshot
	Lines        []SaleLineInput
	Currency     string
	DueDate      *time.Time
	CreatedBy    string
	Policy       Policy
}

func (in IssueSaleInput) validate() error {
	if !entity.IsSaleDocumentType(in.DocumentType) {
		return fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, in.DocumentType)
	}
	if strings.TrimSpace(in.Series) == "" {
		return fmt.Errorf("%w: serie requerida", domain.ErrInvalidInput)
	}
	// La factura exige adquirente con RUC.
	if in.DocumentType == entity.DocumentTypeFactura && in.Customer.DocType != sunat.IdentityRUC {
		return fmt.Errorf("%w: la factura requiere cliente con RUC", domain.ErrInvalidInput)
	}
	if err := sunat.ValidateIdentity(in.Customer.DocType, in.Customer.DocNumber); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: al menos una línea", domain.ErrInvalidInput)
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity <= 0 {
			return fmt.Errorf("%w: línea %d", domain.ErrInvalidInput, i+1)
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: precio negativo en línea %d", domain.ErrInvalidInput, i+1)
		}
	}
	if in.Policy.TaxRate.IsNegative() {
		return fmt.Errorf("%w: tasa de impuesto negativa", domain.ErrInvalidInput)
	}
	return nil
}

// Processor procesa ventas y anulaciones.
type Processor struct {
	txRunner  repository.TxRunner
	sales     repository.SaleRepository
	allocator NumberAllocator
	ledger    *inventory.Ledger
	fiscal    FiscalEnqueuer
	audit     audit.Sink
	log       zerolog.Logger
}

// NewProcessor construye el procesador. fiscal y sink pueden ser nil.
func NewProcessor(
	txRunner repository.TxRunner,
	sales repository.SaleRepository,
	allocator NumberAllocator,
	ledger *inventory.Ledger,
	fiscal FiscalEnqueuer,
	sink audit.Sink,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		txRunner:  txRunner,
		sales:     sales,
		allocator: allocator,
		ledger:    ledger,
		fiscal:    fiscal,
		audit:     sink,
		log:       log,
	}
}

// IssueSale emite un comprobante de forma atómica:
//
//	bloquear productos → validar stock → correlativo → totales → cabecera + líneas → salidas de kardex → commit
//
// Los errores anteriores al correlativo no dejan efectos. Un fallo posterior revierte la
// transacción, registra el número como quemado y devuelve domain.ErrInconsistentState.
// Tras el commit el documento se encola para la pasarela fiscal.
func (p *Processor) IssueSale(ctx context.Context, in IssueSaleInput) (*entity.SaleDocument, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.Series = strings.ToUpper(strings.TrimSpace(in.Series))
	policy := in.Policy
	currency := in.Currency
	if currency == "" {
		currency = policy.Currency
	}

	var (
		sale      *entity.SaleDocument
		number    int64
		allocated bool
	)
	err := p.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		// 1. Bloquear filas de producto en orden fijo y validar stock (antes de consumir número)
		products, err := inventory.LockProducts(ctx, repos.Products, productIDs(in.Lines))
		if err != nil {
			return err
		}
		if !policy.AllowNegativeStock {
			for id, qty := range requestedQuantities(in.Lines) {
				if pr := products[id]; pr.CurrentStock < qty {
					return fmt.Errorf("%w: producto %s tiene %d, se requieren %d", domain.ErrInsufficientStock, id, pr.CurrentStock, qty)
				}
			}
		}

		// 2. Correlativo: desde aquí el número queda consumido
		number, err = p.allocator.NextNumber(ctx, in.DocumentType, in.Series)
		if err != nil {
			return err
		}
		allocated = true

		// 3. Totales
		sale = buildSale(in, policy, currency, number, products)

		// 4. Cabecera + líneas, luego una salida de kardex por línea
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}
		reason := "VENTA " + sale.FullNumber()
		for _, l := range sale.Lines {
			if _, err := p.ledger.ApplyInTx(ctx, repos, products[l.ProductID], inventory.MovementInput{
				ProductID:     l.ProductID,
				Kind:          entity.MovementKindOut,
				Quantity:      l.Quantity,
				Reason:        reason,
				ReferenceID:   sale.ID,
				CreatedBy:     in.CreatedBy,
				AllowNegative: policy.AllowNegativeStock,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if allocated {
			p.allocator.Burn(ctx, in.DocumentType, in.Series, number, err)
			return nil, fmt.Errorf("%w: %s %s-%d: %w", domain.ErrInconsistentState, in.DocumentType, in.Series, number, err)
		}
		return nil, err
	}

	p.log.Info().
		Str("sale_id", sale.ID).
		Str("document_type", sale.DocumentType).
		Str("series", sale.Series).
		Int64("number", sale.Number).
		Str("grand_total", sale.GrandTotal.StringFixed(2)).
		Msg("comprobante emitido")

	p.enqueue(entity.DocumentRef{Kind: entity.DocumentKindSale, ID: sale.ID})
	return sale, nil
}

func buildSale(in IssueSaleInput, policy Policy, currency string, number int64, products map[string]*entity.Product) *entity.SaleDocument {
	now := time.Now()
	rate := pricing.NormalizeRate(policy.TaxRate)
	sale := &entity.SaleDocument{
		ID:               uuid.New().String(),
		DocumentType:     in.DocumentType,
		Series:           in.Series,
		Number:           number,
		IssueDate:        now,
		DueDate:          in.DueDate,
		Currency:         currency,
		TaxOperationCode: policy.TaxOperationCode,
		Customer:         in.Customer,
		TaxRate:          rate,
		Status:           entity.SaleStatusIssued,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	computed := make([]pricing.Line, 0, len(in.Lines))
	for i, l := range in.Lines {
		product := products[l.ProductID]
		unitPrice := product.Price
		if l.UnitPrice != nil {
			unitPrice = *l.UnitPrice
		}
		description := l.Description
		if description == "" {
			description = product.Name
		}
		unit := product.UnitMeasure
		if unit == "" {
			unit = defaultUnitMeasure
		}
		c := pricing.ComputeLine(l.Quantity, unitPrice, rate)
		computed = append(computed, c)
		sale.Lines = append(sale.Lines, entity.SaleLine{
			ID:                 uuid.New().String(),
			SaleID:             sale.ID,
			LineNo:             i + 1,
			ProductID:          l.ProductID,
			Description:        description,
			UnitMeasure:        unit,
			Quantity:           l.Quantity,
			UnitPrice:          c.UnitPrice,
			UnitPriceWithTax:   c.UnitPriceWithTax,
			Subtotal:           c.Subtotal,
			TaxRate:            c.TaxRate,
			TaxAffectationCode: policy.TaxAffectationCode,
		})
	}
	t := pricing.ComputeTotals(computed, rate)
	sale.TaxableBase, sale.TaxAmount, sale.GrandTotal = t.TaxableBase, t.TaxAmount, t.GrandTotal
	return sale
}

func (p *Processor) enqueue(ref entity.DocumentRef) {
	if p.fiscal == nil {
		return
	}
	if err := p.fiscal.Enqueue(ref); err != nil {
		p.log.Warn().Err(err).Str("document", ref.String()).Msg("no se pudo encolar el envío fiscal; lo recuperará el barrido")
	}
}

// GetSale devuelve cabecera y líneas.
func (p *Processor) GetSale(ctx context.Context, id string) (*entity.SaleDocument, error) {
	s, err := p.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// SaleSnapshot vista reducida de la venta para auditoría.
type SaleSnapshot struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	Status       string `json:"status"`
	FiscalStatus string `json:"fiscal_status"`
}

func snapshotOf(s *entity.SaleDocument) SaleSnapshot {
	return SaleSnapshot{ID: s.ID, Number: s.FullNumber(), Status: s.Status, FiscalStatus: s.Fiscal.Status.String()}
}

// VoidSale anula un comprobante ISSUED y reingresa su stock con movimientos IN.
// No se anula un documento aceptado o en envío (se revierte con nota de crédito), ya anulado, o con devoluciones.
func (p *Processor) VoidSale(ctx context.Context, id, reason, by string) (*entity.SaleDocument, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: motivo requerido", domain.ErrInvalidInput)
	}
	current, err := p.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	var voided *entity.SaleDocument
	_, err = audit.Run(audit.WithActor(ctx, by), p.audit, "sale.void", id, snapshotOf(current), func() (SaleSnapshot, error) {
		txErr := p.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			s, err := repos.Sales.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if s == nil {
				return domain.ErrNotFound
			}
			switch {
			case s.Status == entity.SaleStatusVoid:
				return fmt.Errorf("%w: el comprobante ya está anulado", domain.ErrConflict)
			case s.Fiscal.Status == entity.FiscalStatusAccepted:
				return fmt.Errorf("%w: comprobante aceptado, emitir nota de crédito", domain.ErrConflict)
			case s.Fiscal.Status == entity.FiscalStatusPending:
				return fmt.Errorf("%w: envío fiscal en curso", domain.ErrConflict)
			}
			rets, err := repos.Returns.ListBySale(ctx, id)
			if err != nil {
				return err
			}
			if len(rets) > 0 {
				return fmt.Errorf("%w: el comprobante tiene devoluciones", domain.ErrConflict)
			}

			products, err := inventory.LockProducts(ctx, repos.Products, saleProductIDs(s.Lines))
			if err != nil && !errors.Is(err, domain.ErrProductInactive) {
				return err
			}
			movReason := "ANULACION " + s.FullNumber()
			for _, l := range s.Lines {
				if _, err := p.ledger.ApplyInTx(ctx, repos, products[l.ProductID], inventory.MovementInput{
					ProductID:   l.ProductID,
					Kind:        entity.MovementKindIn,
					Quantity:    l.Quantity,
					Reason:      movReason,
					ReferenceID: s.ID,
					CreatedBy:   by,
				}); err != nil {
					return err
				}
			}
			if err := repos.Sales.UpdateStatus(ctx, id, entity.SaleStatusVoid); err != nil {
				return err
			}
			s.Status = entity.SaleStatusVoid
			voided = s
			return nil
		})
		if txErr != nil {
			return SaleSnapshot{}, txErr
		}
		return snapshotOf(voided), nil
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("sale_id", id).Str("number", voided.FullNumber()).Str("by", by).Msg("comprobante anulado")
	return voided, nil
}
