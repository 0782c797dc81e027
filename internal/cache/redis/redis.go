// Package redis implementa cache.Cache contra un Redis externo.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/coticdev/usersapp/internal/cache"
)

// Options configura la conexión y el namespacing de claves.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix se antepone a todas las claves para poder compartir
	// la instancia con otros servicios.
	Prefix string
}

type redisCache struct {
	client *goredis.Client
	prefix string
}

// New conecta a Redis y valida la conexión con un ping.
func New(ctx context.Context, opts Options) (cache.Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &redisCache{client: client, prefix: opts.Prefix}, nil
}

func (c *redisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *redisCache) Get(key string) ([]byte, bool) {
	b, err := c.client.Get(context.Background(), c.key(key)).Bytes()
	if err != nil {
		// Miss o Redis caído: ambos son "no está". La caché nunca
		// bloquea la operación que la consulta.
		return nil, false
	}
	return b, true
}

func (c *redisCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	_ = c.client.Set(context.Background(), c.key(key), value, ttl).Err()
}

func (c *redisCache) Delete(key string) {
	_ = c.client.Del(context.Background(), c.key(key)).Err()
}
