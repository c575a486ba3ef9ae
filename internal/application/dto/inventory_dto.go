package dto

import (
	"time"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// StockAdjustmentRequest body para POST /api/inventory/adjustments.
// kind: IN, OUT o ADJUST (por defecto); en ADJUST quantity lleva signo.
type StockAdjustmentRequest struct {
	ProductID     string `json:"product_id"`
	Kind          string `json:"kind,omitempty"`
	Quantity      int64  `json:"quantity"`
	Reason        string `json:"reason"`
	ReferenceID   string `json:"reference_id,omitempty"`
	AllowNegative bool   `json:"allow_negative,omitempty"`
}

// StockResponse stock cacheado de un producto.
type StockResponse struct {
	ProductID    string `json:"product_id"`
	CurrentStock int64  `json:"current_stock"`
}

// MovementDTO entrada del kardex.
type MovementDTO struct {
	ID          string    `json:"id"`
	Seq         int64     `json:"seq"`
	Kind        string    `json:"kind"`
	Reason      string    `json:"reason"`
	Quantity    int64     `json:"quantity"`
	StockBefore int64     `json:"stock_before"`
	StockAfter  int64     `json:"stock_after"`
	ReferenceID string    `json:"reference_id,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovementFromEntity convierte un movimiento.
func MovementFromEntity(m *entity.StockMovement) MovementDTO {
	return MovementDTO{
		ID:          m.ID,
		Seq:         m.Seq,
		Kind:        m.Kind,
		Reason:      m.Reason,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		ReferenceID: m.ReferenceID,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// ReconciliationDTO resultado de recalcular el stock desde el kardex.
type ReconciliationDTO struct {
	ProductID   string  `json:"product_id"`
	CachedStock int64   `json:"cached_stock"`
	LedgerStock int64   `json:"ledger_stock"`
	Drift       int64   `json:"drift"`
	Movements   int     `json:"movements"`
	Breaks      []int64 `json:"breaks,omitempty"` // seq de movimientos que rompen la cadena
	Consistent  bool    `json:"consistent"`
}

// BurnedNumberDTO correlativo consumido sin documento.
type BurnedNumberDTO struct {
	Number    int64     `json:"number"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// SeriesCounterDTO estado de un contador de serie.
type SeriesCounterDTO struct {
	DocumentCode string            `json:"document_code"`
	Series       string            `json:"series"`
	LastNumber   int64             `json:"last_number"`
	Version      int64             `json:"version"`
	Burned       []BurnedNumberDTO `json:"burned,omitempty"`
}

// SeriesCounterFromEntity arma la respuesta con los correlativos quemados.
func SeriesCounterFromEntity(c *entity.SeriesCounter, burned []*entity.BurnedNumber) SeriesCounterDTO {
	out := SeriesCounterDTO{
		DocumentCode: c.DocumentCode,
		Series:       c.Series,
		LastNumber:   c.LastNumber,
		Version:      c.Version,
	}
	for _, b := range burned {
		out.Burned = append(out.Burned, BurnedNumberDTO{Number: b.Number, Reason: b.Reason, CreatedAt: b.CreatedAt})
	}
	return out
}
