// seed carga el catálogo de productos desde un CSV (sku;nombre;unidad;precio;stock).
//
// Uso: go run ./cmd/seed [ruta/productos.csv] [charset]
// Por defecto lee productos.csv en ISO-8859-1 (exportación típica de Excel).
// El stock inicial se registra como movimiento IN en el kardex.
package main

import (
	"context"
	"os"

	"github.com/jhoicas/pos-fiscal-api/internal/application/audit"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/application/usecase"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/seed"
	"github.com/jhoicas/pos-fiscal-api/pkg/config"
	"github.com/jhoicas/pos-fiscal-api/pkg/logger"
)

const seedActor = "seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	csvPath := "productos.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	charset := "ISO-8859-1"
	if len(os.Args) > 2 {
		charset = os.Args[2]
	}

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("abrir CSV")
	}
	defer f.Close()

	products, err := seed.ReadProducts(f, charset)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx := audit.WithActor(context.Background(), seedActor)
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	st := postgres.NewStore(pool, nil)
	ledger := inventory.NewLedger(st, st.Products(), st.Movements(), audit.NewLogSink(log), log)
	uc := usecase.NewProductUseCase(st.Products(), ledger)

	created := 0
	for _, in := range products {
		p, err := uc.Create(ctx, in, seedActor)
		if err != nil {
			log.Error().Err(err).Str("sku", in.SKU).Msg("producto no cargado")
			continue
		}
		created++
		log.Debug().Str("id", p.ID).Str("sku", p.SKU).Int64("stock", p.CurrentStock).Msg("producto cargado")
	}
	log.Info().Int("leidos", len(products)).Int("cargados", created).Msg("catálogo cargado")
}
