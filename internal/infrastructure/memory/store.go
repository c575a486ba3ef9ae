// Package memory implementa todos los puertos de persistencia en memoria.
// Se usa con STORE_DRIVER=memory (demo, desarrollo local) y en las pruebas de casos de uso.
// Las transacciones se serializan con un mutex y trabajan sobre una copia del dataset
// que solo se publica si fn retorna nil.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type dataset struct {
	products   map[string]entity.Product
	movements  map[string][]entity.StockMovement // por producto, orden Seq
	sales      map[string]entity.SaleDocument
	saleKeys   map[string]string // tipo|serie|número → id
	returns    map[string]entity.ReturnDocument
	returnKeys map[string]string

	// movimientos ya copiados en esta transacción (copy-on-write)
	ownMovements map[string]bool
}

func newDataset() *dataset {
	return &dataset{
		products:   make(map[string]entity.Product),
		movements:  make(map[string][]entity.StockMovement),
		sales:      make(map[string]entity.SaleDocument),
		saleKeys:   make(map[string]string),
		returns:    make(map[string]entity.ReturnDocument),
		returnKeys: make(map[string]string),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		products:     make(map[string]entity.Product, len(d.products)),
		movements:    make(map[string][]entity.StockMovement, len(d.movements)),
		sales:        make(map[string]entity.SaleDocument, len(d.sales)),
		saleKeys:     make(map[string]string, len(d.saleKeys)),
		returns:      make(map[string]entity.ReturnDocument, len(d.returns)),
		returnKeys:   make(map[string]string, len(d.returnKeys)),
		ownMovements: make(map[string]bool),
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.movements {
		c.movements[k] = v
	}
	for k, v := range d.sales {
		c.sales[k] = v
	}
	for k, v := range d.saleKeys {
		c.saleKeys[k] = v
	}
	for k, v := range d.returns {
		c.returns[k] = v
	}
	for k, v := range d.returnKeys {
		c.returnKeys[k] = v
	}
	return c
}

// appendMovement agrega sin tocar el arreglo compartido con el dataset publicado.
func (d *dataset) appendMovement(m entity.StockMovement) {
	list := d.movements[m.ProductID]
	if d.ownMovements != nil && !d.ownMovements[m.ProductID] {
		list = append([]entity.StockMovement(nil), list...)
		d.ownMovements[m.ProductID] = true
	}
	d.movements[m.ProductID] = append(list, m)
}

// access ejecuta fn con el dataset correspondiente (publicado o de la transacción).
type access func(fn func(d *dataset) error) error

// Store almacén en memoria.
type Store struct {
	mu   sync.Mutex
	data *dataset

	counterMu sync.Mutex
	counters  map[string]entity.SeriesCounter
	burned    []entity.BurnedNumber

	attemptMu sync.Mutex
	attempts  []entity.FiscalAttempt
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		data:     newDataset(),
		counters: make(map[string]entity.SeriesCounter),
	}
}

func (s *Store) direct(fn func(d *dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Run ejecuta fn en una transacción serializada. Los repositorios recibidos
// no deben usarse fuera de fn.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	inTx := func(f func(d *dataset) error) error { return f(work) }
	repos := repository.TxRepos{
		Products:  &productRepo{run: inTx},
		Movements: &movementRepo{run: inTx},
		Sales:     &saleRepo{run: inTx},
		Returns:   &returnRepo{run: inTx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	work.ownMovements = nil
	s.data = work
	return nil
}

// Products repositorio fuera de transacción.
func (s *Store) Products() repository.ProductRepository { return &productRepo{run: s.direct} }

// Movements repositorio del kardex fuera de transacción.
func (s *Store) Movements() repository.StockMovementRepository { return &movementRepo{run: s.direct} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{run: s.direct} }

// Returns repositorio de devoluciones fuera de transacción.
func (s *Store) Returns() repository.ReturnRepository { return &returnRepo{run: s.direct} }

// Counters repositorio de contadores de serie (independiente de las transacciones).
func (s *Store) Counters() repository.SeriesCounterRepository { return &counterRepo{s: s} }

// BurnedNumbers registro de correlativos quemados.
func (s *Store) BurnedNumbers() repository.BurnedNumberRepository { return &burnedRepo{s: s} }

// Attempts historial de intentos fiscales.
func (s *Store) Attempts() repository.FiscalAttemptRepository { return &attemptRepo{s: s} }
