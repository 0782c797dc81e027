// Package cache define el contrato mínimo de caché del servicio.
//
// Las implementaciones viven en los subpaquetes memory y redis; la
// elección se hace en infra/cachefactory a partir de la configuración.
package cache

import "time"

// Cache es un almacén clave → bytes con expiración por entrada.
// Un miss nunca es error: Get devuelve ok=false y ya.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
