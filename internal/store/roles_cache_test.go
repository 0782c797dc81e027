package store

import (
	"context"
	"testing"
	"time"
)

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string][]byte)} }

func (c *fakeCache) Get(key string) ([]byte, bool) {
	b, ok := c.data[key]
	return b, ok
}
func (c *fakeCache) Set(key string, value []byte, _ time.Duration) { c.data[key] = value }
func (c *fakeCache) Delete(key string)                             { delete(c.data, key) }

type countingRoles struct {
	roles   map[string]*Role
	nextID  int64
	getHits int
}

func newCountingRoles() *countingRoles { return &countingRoles{roles: make(map[string]*Role)} }

func (r *countingRoles) GetByName(_ context.Context, name string) (*Role, error) {
	r.getHits++
	role, ok := r.roles[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *countingRoles) List(context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *countingRoles) Create(_ context.Context, name string) (*Role, error) {
	r.nextID++
	role := &Role{ID: r.nextID, Name: name}
	r.roles[name] = role
	return role, nil
}

func TestCachedRolesGetByName(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRoles()
	cached := NewCachedRoles(inner, newFakeCache(), time.Minute)

	if _, err := cached.Create(ctx, RoleUser); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := cached.GetByName(ctx, RoleUser)
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	second, err := cached.GetByName(ctx, RoleUser)
	if err != nil {
		t.Fatalf("GetByName (cacheado): %v", err)
	}
	if first.ID != second.ID || first.Name != second.Name {
		t.Fatalf("respuestas distintas: %+v vs %+v", first, second)
	}
	if inner.getHits != 1 {
		t.Fatalf("getHits = %d, esperaba 1 (la segunda lectura viene de caché)", inner.getHits)
	}
}

func TestCachedRolesMiss(t *testing.T) {
	ctx := context.Background()
	cached := NewCachedRoles(newCountingRoles(), newFakeCache(), time.Minute)

	if _, err := cached.GetByName(ctx, "NOPE"); !IsNotFound(err) {
		t.Fatalf("err = %v, esperaba ErrNotFound", err)
	}
}

func TestCachedRolesCreateInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRoles()
	fc := newFakeCache()
	cached := NewCachedRoles(inner, fc, time.Minute)

	if _, err := cached.Create(ctx, RoleUser); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := cached.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, ok := fc.Get(rolesListKey); !ok {
		t.Fatalf("el listado no quedó cacheado")
	}

	if _, err := cached.Create(ctx, RoleAdmin); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := fc.Get(rolesListKey); ok {
		t.Fatalf("Create no invalidó el listado cacheado")
	}

	roles, err := cached.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("len = %d", len(roles))
	}
}

func TestCachedRolesCorruptEntry(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRoles()
	fc := newFakeCache()
	cached := NewCachedRoles(inner, fc, time.Minute)

	if _, err := cached.Create(ctx, RoleUser); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fc.Set(roleKey(RoleUser), []byte("{esto no es json"), time.Minute)

	role, err := cached.GetByName(ctx, RoleUser)
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if role.Name != RoleUser {
		t.Fatalf("role = %+v", role)
	}
}
