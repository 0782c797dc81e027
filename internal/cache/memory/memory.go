// Package memory implementa cache.Cache sobre go-cache, en proceso.
package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/coticdev/usersapp/internal/cache"
)

type memoryCache struct {
	inner *gocache.Cache
}

// New crea una caché en memoria. defaultTTL aplica cuando Set recibe
// ttl <= 0; la limpieza de expirados corre al doble del TTL por defecto.
func New(defaultTTL time.Duration) cache.Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &memoryCache{inner: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	v, ok := c.inner.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (c *memoryCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.inner.Set(key, value, ttl)
}

func (c *memoryCache) Delete(key string) {
	c.inner.Delete(key)
}
