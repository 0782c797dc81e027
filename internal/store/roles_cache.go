package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coticdev/usersapp/internal/cache"
)

// CachedRoles decora un RoleRepository con una caché de lectura. Los roles
// cambian casi nunca y se consultan en cada alta de usuario, así que la
// relación nombre → rol es la candidata obvia a cachear.
type CachedRoles struct {
	inner RoleRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRoles envuelve inner. ttl <= 0 usa 10 minutos.
func NewCachedRoles(inner RoleRepository, c cache.Cache, ttl time.Duration) *CachedRoles {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRoles{inner: inner, cache: c, ttl: ttl}
}

func roleKey(name string) string { return "role:name:" + name }

const rolesListKey = "role:list"

func (r *CachedRoles) GetByName(ctx context.Context, name string) (*Role, error) {
	if b, ok := r.cache.Get(roleKey(name)); ok {
		role := &Role{}
		if err := json.Unmarshal(b, role); err == nil {
			return role, nil
		}
		// Entrada corrupta: se descarta y se vuelve al repositorio.
		r.cache.Delete(roleKey(name))
	}

	role, err := r.inner.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(role); err == nil {
		r.cache.Set(roleKey(name), b, r.ttl)
	}
	return role, nil
}

func (r *CachedRoles) List(ctx context.Context) ([]Role, error) {
	if b, ok := r.cache.Get(rolesListKey); ok {
		var roles []Role
		if err := json.Unmarshal(b, &roles); err == nil {
			return roles, nil
		}
		r.cache.Delete(rolesListKey)
	}

	roles, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(roles); err == nil {
		r.cache.Set(rolesListKey, b, r.ttl)
	}
	return roles, nil
}

func (r *CachedRoles) Create(ctx context.Context, name string) (*Role, error) {
	role, err := r.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	// Invalidación simple: el listado queda obsoleto al crear.
	r.cache.Delete(rolesListKey)
	r.cache.Delete(roleKey(name))
	return role, nil
}
