package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

// Store agrupa los repositorios sobre el pool, con la misma forma que memory.Store.
type Store struct {
	*TxRunner
	pool      *pgxpool.Pool
	numbering *pgxpool.Pool // contadores y quemados; ver NewNumberingPool
}

// NewStore construye el almacén PostgreSQL. numbering nil usa pool: solo vale para
// procesos que no emiten comprobantes concurrentes (seed).
func NewStore(pool, numbering *pgxpool.Pool) *Store {
	if numbering == nil {
		numbering = pool
	}
	return &Store{TxRunner: NewTxRunner(pool), pool: pool, numbering: numbering}
}

func (s *Store) Products() repository.ProductRepository { return NewProductRepository(s.pool) }

func (s *Store) Movements() repository.StockMovementRepository {
	return NewStockMovementRepository(s.pool)
}

func (s *Store) Sales() repository.SaleRepository { return NewSaleRepository(s.pool) }

func (s *Store) Returns() repository.ReturnRepository { return NewReturnRepository(s.pool) }

func (s *Store) Counters() repository.SeriesCounterRepository {
	return NewSeriesCounterRepository(s.numbering)
}

func (s *Store) BurnedNumbers() repository.BurnedNumberRepository {
	return NewBurnedNumberRepository(s.numbering)
}

func (s *Store) Attempts() repository.FiscalAttemptRepository {
	return NewFiscalAttemptRepository(s.pool)
}
