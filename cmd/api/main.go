package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/jhoicas/pos-fiscal-api/docs"
	"github.com/jhoicas/pos-fiscal-api/internal/application/audit"
	"github.com/jhoicas/pos-fiscal-api/internal/application/fiscal"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/application/numbering"
	"github.com/jhoicas/pos-fiscal-api/internal/application/returns"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/application/usecase"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/repository"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/pse"
	httpRouter "github.com/jhoicas/pos-fiscal-api/internal/interfaces/http"
	"github.com/jhoicas/pos-fiscal-api/pkg/config"
	"github.com/jhoicas/pos-fiscal-api/pkg/logger"
)

// store lo cumplen memory.Store y postgres.Store.
type store interface {
	repository.TxRunner
	Products() repository.ProductRepository
	Movements() repository.StockMovementRepository
	Sales() repository.SaleRepository
	Returns() repository.ReturnRepository
	Counters() repository.SeriesCounterRepository
	BurnedNumbers() repository.BurnedNumberRepository
	Attempts() repository.FiscalAttemptRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("fiscal_mode", cfg.Fiscal.Mode).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var (
		checks  []func(context.Context) error
		closers []io.Closer
		st      store
	)

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		st = memory.NewStore()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		numberingPool, err := postgres.NewNumberingPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL (correlativos)")
		}
		defer numberingPool.Close()
		checks = append(checks, pool.Ping, numberingPool.Ping)
		st = postgres.NewStore(pool, numberingPool)
	}

	var resultCache repository.FiscalResultCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisResultCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.TTL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		checks = append(checks, rc.Ping)
		closers = append(closers, rc)
		resultCache = rc
	} else {
		resultCache = cache.NewMemoryResultCache(cfg.Redis.TTL)
	}

	// Pasarela fiscal: en dev responde el simulador local.
	var submitter pse.Submitter
	if cfg.Fiscal.Mode == "dev" {
		submitter = pse.NewSimulator(cfg.Fiscal.BaseURL)
	} else {
		submitter = pse.NewClient(cfg.Fiscal.BaseURL, cfg.Fiscal.Token, cfg.Fiscal.AttemptTimeout)
	}

	auditSink := audit.NewLogSink(log)
	allocator := numbering.NewAllocator(st.Counters(), st.BurnedNumbers(), numbering.Config{
		MaxAttempts: cfg.Numbering.MaxAttempts,
		BaseBackoff: cfg.Numbering.BaseBackoff,
		MaxBackoff:  cfg.Numbering.MaxBackoff,
	}, log)
	ledger := inventory.NewLedger(st, st.Products(), st.Movements(), auditSink, log)

	gateway := fiscal.NewGateway(st.Sales(), st.Returns(), st.Attempts(), resultCache, submitter, auditSink, fiscal.Config{
		AttemptTimeout: cfg.Fiscal.AttemptTimeout,
		MaxAttempts:    cfg.Fiscal.MaxAttempts,
		BaseBackoff:    cfg.Fiscal.BaseBackoff,
		MaxBackoff:     cfg.Fiscal.MaxBackoff,
		StaleAfter:     cfg.Fiscal.StaleAfter,
	}, log)
	worker := fiscal.NewWorker(gateway, fiscal.WorkerConfig{
		QueueSize: cfg.Fiscal.QueueSize,
		Workers:   cfg.Fiscal.Workers,
	}, log)
	sweeper := fiscal.NewSweeper(st.Sales(), st.Returns(), worker, gateway, fiscal.SweeperConfig{
		Interval:      cfg.Fiscal.SweepInterval,
		StaleAfter:    cfg.Fiscal.StaleAfter,
		MaxPendingAge: cfg.Fiscal.MaxPendingAge,
	}, log)

	saleProcessor := sales.NewProcessor(st, st.Sales(), allocator, ledger, worker, auditSink, log)
	returnProcessor := returns.NewProcessor(st, st.Returns(), allocator, ledger, worker, log)
	productUC := usecase.NewProductUseCase(st.Products(), ledger)

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	worker.Start(bgCtx)
	sweeper.Start(bgCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/swagger
	if doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName()); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath:    "/",
			FilePath:    "./docs/doc.json",
			FileContent: []byte(doc),
			Path:        "swagger",
			Title:       "POS Fiscal API",
		}))
	}

	receipts := pdf.NewReceiptGenerator(pdf.Issuer{
		RUC:     cfg.Issuer.RUC,
		Name:    cfg.Issuer.Name,
		Address: cfg.Issuer.Address,
	})
	httpRouter.Router(app, httpRouter.RouterDeps{
		Sales:       saleProcessor,
		Returns:     returnProcessor,
		Ledger:      ledger,
		Allocator:   allocator,
		Products:    productUC,
		Fiscal:      gateway,
		Receipts:    receipts,
		SalesPolicy: salesPolicy(cfg.Sales),
		JWTSecret:   cfg.JWT.Secret,
		Health:      healthCheck(checks),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	shutdownBackground(shutdownCtx, log, sweeper, worker)
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar recurso")
		}
	}

	log.Info().Msg("aplicación detenida")
}

// salesPolicy política explícita que recibe cada venta.
func salesPolicy(c config.SalesConfig) sales.Policy {
	return sales.Policy{
		TaxRate:            c.TaxRate,
		AllowNegativeStock: c.AllowNegativeStock,
		Currency:           c.Currency,
		TaxOperationCode:   c.TaxOperationCode,
		TaxAffectationCode: c.TaxAffectationCode,
	}
}

func healthCheck(checks []func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		var errs []error
		for _, check := range checks {
			errs = append(errs, check(ctx))
		}
		return errors.Join(errs...)
	}
}

type stopper interface {
	Stop(ctx context.Context) error
}

// shutdownBackground detiene primero el barrido (deja de encolar) y luego el worker,
// que termina los envíos en curso.
func shutdownBackground(ctx context.Context, log zerolog.Logger, sweeper, worker stopper) {
	if err := sweeper.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("detener barrido fiscal")
	}
	if err := worker.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("envíos fiscales sin terminar; los recuperará el barrido al reiniciar")
	}
}
