// Package cachefactory construye la caché concreta según configuración.
//
// Vive aparte del paquete cache para que este no arrastre los drivers:
// quien solo consume cache.Cache no importa go-redis ni go-cache.
package cachefactory

import (
	"context"
	"fmt"

	"github.com/coticdev/usersapp/internal/cache"
	cachememory "github.com/coticdev/usersapp/internal/cache/memory"
	cacheredis "github.com/coticdev/usersapp/internal/cache/redis"
	"github.com/coticdev/usersapp/internal/config"
)

// New crea la caché indicada por cfg. Kinds soportados: "memory" y "redis".
func New(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Kind {
	case config.CacheMemory, "":
		return cachememory.New(cfg.Memory.DefaultTTL), nil
	case config.CacheRedis:
		c, err := cacheredis.New(ctx, cacheredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("cachefactory: conectando a redis: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("cachefactory: kind desconocido %q", cfg.Kind)
	}
}
