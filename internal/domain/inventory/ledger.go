// Package inventory contiene la lógica pura del kardex (servicio de dominio sin I/O).
package inventory

import (
	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// Delta devuelve el efecto con signo de un movimiento sobre el stock.
// IN suma, OUT resta, ADJUST aplica la cantidad con su signo.
func Delta(kind string, quantity int64) (int64, error) {
	switch kind {
	case entity.MovementKindIn:
		if quantity <= 0 {
			return 0, domain.ErrInvalidInput
		}
		return quantity, nil
	case entity.MovementKindOut:
		if quantity <= 0 {
			return 0, domain.ErrInvalidInput
		}
		return -quantity, nil
	case entity.MovementKindAdjust:
		if quantity == 0 {
			return 0, domain.ErrInvalidInput
		}
		return quantity, nil
	}
	return 0, domain.ErrInvalidInput
}

// ChainBreak señala un movimiento cuyo StockBefore no coincide con el StockAfter anterior,
// o cuyo StockAfter no es StockBefore + delta.
type ChainBreak struct {
	MovementID string
	Seq        int64
	Expected   int64
	Found      int64
}

// ReplayResult resultado de reproducir el kardex desde stock 0.
type ReplayResult struct {
	Stock     int64
	Movements int
	Breaks    []ChainBreak
}

// Replay reproduce los movimientos (ordenados por Seq ascendente) partiendo de stock 0.
// El stock resultante se calcula solo con los deltas; los StockBefore/StockAfter
// guardados se usan para detectar rupturas de la cadena.
func Replay(movements []*entity.StockMovement) ReplayResult {
	var res ReplayResult
	var stock int64
	for _, m := range movements {
		d, err := Delta(m.Kind, m.Quantity)
		if err != nil {
			res.Breaks = append(res.Breaks, ChainBreak{MovementID: m.ID, Seq: m.Seq, Expected: stock, Found: m.StockBefore})
			continue
		}
		if m.StockBefore != stock {
			res.Breaks = append(res.Breaks, ChainBreak{MovementID: m.ID, Seq: m.Seq, Expected: stock, Found: m.StockBefore})
		}
		stock += d
		if m.StockAfter != stock {
			res.Breaks = append(res.Breaks, ChainBreak{MovementID: m.ID, Seq: m.Seq, Expected: stock, Found: m.StockAfter})
		}
		res.Movements++
	}
	res.Stock = stock
	return res
}
