package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// InitialStockReason motivo del movimiento de apertura.
const InitialStockReason = "STOCK INICIAL"

// ProductUseCase alta y consulta de productos. El stock solo cambia vía kardex.
type ProductUseCase struct {
	repo   repository.ProductRepository
	ledger *inventory.Ledger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, ledger *inventory.Ledger) *ProductUseCase {
	return &ProductUseCase{repo: repo, ledger: ledger}
}

// Create crea un producto activo con stock 0 y, si se pide, registra el stock inicial.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest, by string) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Price.IsNegative() || in.InitialStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "NIU"
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		SKU:         strings.TrimSpace(in.SKU),
		Name:        in.Name,
		UnitMeasure: in.UnitMeasure,
		Price:       in.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	if in.InitialStock > 0 {
		_, err := uc.ledger.ApplyMovement(ctx, inventory.MovementInput{
			ProductID:   product.ID,
			Kind:        entity.MovementKindIn,
			Quantity:    in.InitialStock,
			Reason:      InitialStockReason,
			ReferenceID: product.ID,
			CreatedBy:   by,
		})
		if err != nil {
			return nil, err
		}
	}
	return uc.GetByID(ctx, product.ID)
}

// GetByID obtiene un producto; ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return dto.ProductFromEntity(p), nil
}
