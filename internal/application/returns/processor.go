// Package returns emite notas de crédito que revierten total o parcialmente un comprobante.
package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/pricing"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// Motivo por defecto (catálogo 09): devolución por ítem.
const defaultReasonCode = "07"

// ReturnLineInput cantidad a devolver de una línea de la venta original.
type ReturnLineInput struct {
	SaleLineID string
	Quantity   int64
}

// IssueReturnInput entrada de IssueReturn.
type IssueReturnInput struct {
	SaleID       string
	Series       string
	ReasonCode   string
	Reason       string
	RefundMethod string
	Lines        []ReturnLineInput
	CreatedBy    string
}

func (in IssueReturnInput) validate() error {
	if strings.TrimSpace(in.SaleID) == "" || strings.TrimSpace(in.Series) == "" {
		return fmt.Errorf("%w: venta y serie requeridas", domain.ErrInvalidInput)
	}
	if !entity.IsValidRefundMethod(in.RefundMethod) {
		return fmt.Errorf("%w: forma de reembolso %q", domain.ErrInvalidInput, in.RefundMethod)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return fmt.Errorf("%w: motivo requerido", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: al menos una línea", domain.ErrInvalidInput)
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.SaleLineID) == "" || l.Quantity <= 0 {
			return fmt.Errorf("%w: línea %d", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// Processor emite devoluciones.
type Processor struct {
	txRunner  repository.TxRunner
	returns   repository.ReturnRepository
	allocator sales.NumberAllocator
	ledger    *inventory.Ledger
	fiscal    sales.FiscalEnqueuer
	log       zerolog.Logger
}

// NewProcessor construye el procesador. fiscal puede ser nil.
func NewProcessor(
	txRunner repository.TxRunner,
	returns repository.ReturnRepository,
	allocator sales.NumberAllocator,
	ledger *inventory.Ledger,
	fiscal sales.FiscalEnqueuer,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		txRunner:  txRunner,
		returns:   returns,
		allocator: allocator,
		ledger:    ledger,
		fiscal:    fiscal,
		log:       log,
	}
}

// IssueReturn emite la nota de crédito:
//
//	bloquear venta → validar acumulado por línea → correlativo 07 → importes → persistir → IN (solo INVENTORY_RETURN) → commit
//
// El bloqueo de la venta serializa devoluciones concurrentes del mismo comprobante,
// así la suma devuelta por línea nunca supera lo vendido.
func (p *Processor) IssueReturn(ctx context.Context, in IssueReturnInput) (*entity.ReturnDocument, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.Series = strings.ToUpper(strings.TrimSpace(in.Series))
	if in.ReasonCode == "" {
		in.ReasonCode = defaultReasonCode
	}

	var (
		ret       *entity.ReturnDocument
		number    int64
		allocated bool
	)
	err := p.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		sale, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, in.SaleID)
		}
		if sale.Status == entity.SaleStatusVoid {
			return fmt.Errorf("%w: la venta %s está anulada", domain.ErrConflict, sale.FullNumber())
		}

		returned, err := repos.Returns.ReturnedQuantities(ctx, sale.ID)
		if err != nil {
			return err
		}
		saleLines := make(map[string]entity.SaleLine, len(sale.Lines))
		for _, l := range sale.Lines {
			saleLines[l.ID] = l
		}
		requested := make(map[string]int64, len(in.Lines))
		for _, l := range in.Lines {
			if _, ok := saleLines[l.SaleLineID]; !ok {
				return fmt.Errorf("%w: la línea %s no pertenece a la venta", domain.ErrInvalidInput, l.SaleLineID)
			}
			requested[l.SaleLineID] += l.Quantity
		}
		for id, qty := range requested {
			sold := saleLines[id].Quantity
			if returned[id]+qty > sold {
				return fmt.Errorf("%w: línea %d vendida %d, devuelta %d, solicitada %d",
					domain.ErrCumulativeReturnExceeded, saleLines[id].LineNo, sold, returned[id], qty)
			}
		}

		restock := in.RefundMethod == entity.RefundMethodInventoryReturn
		var products map[string]*entity.Product
		if restock {
			ids := make([]string, 0, len(requested))
			for id := range requested {
				ids = append(ids, saleLines[id].ProductID)
			}
			// Un producto inactivo igual reingresa su stock.
			products, err = inventory.LockProducts(ctx, repos.Products, dedupe(ids))
			if products == nil {
				return err
			}
		}

		// Desde aquí el número queda consumido
		number, err = p.allocator.NextNumber(ctx, entity.DocumentTypeCreditNote, in.Series)
		if err != nil {
			return err
		}
		allocated = true

		ret = buildReturn(in, sale, saleLines, number)
		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}
		if restock {
			reason := "DEVOLUCION " + ret.FullNumber()
			for _, l := range ret.Lines {
				if _, err := p.ledger.ApplyInTx(ctx, repos, products[l.ProductID], inventory.MovementInput{
					ProductID:   l.ProductID,
					Kind:        entity.MovementKindIn,
					Quantity:    l.Quantity,
					Reason:      reason,
					ReferenceID: ret.ID,
					CreatedBy:   in.CreatedBy,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if allocated {
			p.allocator.Burn(ctx, entity.DocumentTypeCreditNote, in.Series, number, err)
			return nil, fmt.Errorf("%w: %s %s-%d: %w", domain.ErrInconsistentState, entity.DocumentTypeCreditNote, in.Series, number, err)
		}
		return nil, err
	}

	p.log.Info().
		Str("return_id", ret.ID).
		Str("number", ret.FullNumber()).
		Str("affected", ret.AffectedNumber()).
		Str("refund_method", ret.RefundMethod).
		Str("grand_total", ret.GrandTotal.StringFixed(2)).
		Msg("nota de crédito emitida")

	if p.fiscal != nil {
		ref := entity.DocumentRef{Kind: entity.DocumentKindReturn, ID: ret.ID}
		if err := p.fiscal.Enqueue(ref); err != nil {
			p.log.Warn().Err(err).Str("document", ref.String()).Msg("no se pudo encolar el envío fiscal; lo recuperará el barrido")
		}
	}
	return ret, nil
}

// buildReturn revierte importes con los precios y tasas de la venta original (mismo redondeo).
func buildReturn(in IssueReturnInput, sale *entity.SaleDocument, saleLines map[string]entity.SaleLine, number int64) *entity.ReturnDocument {
	now := time.Now()
	ret := &entity.ReturnDocument{
		ID:               uuid.New().String(),
		SaleID:           sale.ID,
		SaleDocumentType: sale.DocumentType,
		SaleSeries:       sale.Series,
		SaleNumber:       sale.Number,
		DocumentType:     entity.DocumentTypeCreditNote,
		Series:           in.Series,
		Number:           number,
		IssueDate:        now,
		Currency:         sale.Currency,
		ReasonCode:       in.ReasonCode,
		Reason:           strings.TrimSpace(in.Reason),
		RefundMethod:     in.RefundMethod,
		Customer:         sale.Customer,
		TaxRate:          sale.TaxRate,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	computed := make([]pricing.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		sl := saleLines[l.SaleLineID]
		c := pricing.ComputeLine(l.Quantity, sl.UnitPrice, sl.TaxRate)
		computed = append(computed, c)
		ret.Lines = append(ret.Lines, entity.ReturnLine{
			ID:                 uuid.New().String(),
			ReturnID:           ret.ID,
			SaleLineID:         sl.ID,
			ProductID:          sl.ProductID,
			Description:        sl.Description,
			UnitMeasure:        sl.UnitMeasure,
			Quantity:           l.Quantity,
			UnitPrice:          c.UnitPrice,
			UnitPriceWithTax:   sl.UnitPriceWithTax,
			Subtotal:           c.Subtotal,
			TaxRate:            c.TaxRate,
			TaxAffectationCode: sl.TaxAffectationCode,
		})
	}
	t := pricing.ComputeTotals(computed, sale.TaxRate)
	ret.TaxableBase, ret.TaxAmount, ret.GrandTotal = t.TaxableBase, t.TaxAmount, t.GrandTotal
	return ret
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// GetReturn devuelve la nota de crédito con sus líneas.
func (p *Processor) GetReturn(ctx context.Context, id string) (*entity.ReturnDocument, error) {
	r, err := p.returns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// ListBySale lista las notas de crédito de una venta.
func (p *Processor) ListBySale(ctx context.Context, saleID string) ([]*entity.ReturnDocument, error) {
	return p.returns.ListBySale(ctx, saleID)
}
