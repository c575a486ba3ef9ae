package entity

import "time"

// Tipos de movimiento del kardex.
const (
	MovementKindIn     = "IN"
	MovementKindOut    = "OUT"
	MovementKindAdjust = "ADJUST"
)

// StockMovement es una entrada del kardex (append-only).
// Quantity es positiva para IN/OUT; en ADJUST lleva signo.
// Seq ordena los movimientos de un producto; StockBefore del movimiento n
// es el StockAfter del movimiento n-1.
type StockMovement struct {
	ID          string
	ProductID   string
	Seq         int64
	Kind        string
	Reason      string
	Quantity    int64
	StockBefore int64
	StockAfter  int64
	ReferenceID string // venta, devolución o ajuste que originó el movimiento
	CreatedAt   time.Time
	CreatedBy   string
}
