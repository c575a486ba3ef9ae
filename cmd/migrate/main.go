// Comando migrate aplica el esquema embebido: migrate [up|down|version].
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-fiscal-api/pkg/config"
	"github.com/jhoicas/pos-fiscal-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := run(cmd, cfg.DB.ConnectionString(), log); err != nil {
		log.Error().Err(err).Str("cmd", cmd).Msg("migración fallida")
		os.Exit(1)
	}
}

func run(cmd, databaseURL string, log zerolog.Logger) (err error) {
	m, err := postgres.NewMigrator(databaseURL, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, m.Close())
	}()

	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión del esquema")
		return nil
	default:
		return fmt.Errorf("comando desconocido %q (uso: migrate [up|down|version])", cmd)
	}
}
