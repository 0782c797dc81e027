// Package factory abre el store.Repository indicado por configuración.
//
// Está separado del paquete store para que los consumidores de las
// interfaces no arrastren pgx cuando corren contra el backend en memoria.
package factory

import (
	"context"

	"github.com/coticdev/usersapp/internal/config"
	"github.com/coticdev/usersapp/internal/store"
	"github.com/coticdev/usersapp/internal/store/memory"
	"github.com/coticdev/usersapp/internal/store/pg"
)

// Open crea el repositorio según cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (store.Repository, error) {
	switch cfg.Driver {
	case store.DriverMemory, "":
		return memory.New(), nil
	case store.DriverPostgres:
		return pg.Open(ctx, cfg.DSN, pg.Options{
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
	default:
		return nil, store.UnknownDriverError(cfg.Driver)
	}
}
