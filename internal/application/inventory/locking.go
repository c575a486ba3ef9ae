package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// LockProducts bloquea (SELECT FOR UPDATE) cada producto una sola vez y en orden de id,
// así dos ventas con los mismos productos no se bloquean mutuamente.
// Con productos inactivos devuelve el mapa completo junto a domain.ErrProductInactive.
func LockProducts(ctx context.Context, products repository.ProductRepository, ids []string) (map[string]*entity.Product, error) {
	sort.Strings(ids)
	out := make(map[string]*entity.Product, len(ids))
	var inactive error
	for _, id := range ids {
		p, err := products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		if !p.Active && inactive == nil {
			inactive = fmt.Errorf("%w: %s", domain.ErrProductInactive, id)
		}
		out[id] = p
	}
	return out, inactive
}
