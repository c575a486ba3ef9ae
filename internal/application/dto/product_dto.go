package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto.
// InitialStock > 0 se registra como movimiento IN en el kardex.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	UnitMeasure  string          `json:"unit_measure"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int64           `json:"initial_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	UnitMeasure  string          `json:"unit_measure"`
	Price        decimal.Decimal `json:"price"`
	Active       bool            `json:"active"`
	CurrentStock int64           `json:"current_stock"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductFromEntity arma la respuesta.
func ProductFromEntity(p *entity.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		UnitMeasure:  p.UnitMeasure,
		Price:        p.Price,
		Active:       p.Active,
		CurrentStock: p.CurrentStock,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
