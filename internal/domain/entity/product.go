package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible.
// CurrentStock es un caché del kardex: siempre igual al StockAfter del último movimiento.
// Version se incrementa en cada actualización de stock.
type Product struct {
	ID           string
	SKU          string
	Name         string
	UnitMeasure  string // código de unidad (NIU, ZZ, KGM...)
	Price        decimal.Decimal // precio unitario sin impuesto
	Active       bool
	CurrentStock int64
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
