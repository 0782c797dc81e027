// Package memory implementa store.Repository sobre mapas en memoria.
//
// Es el backend por defecto en desarrollo y el que usan los tests de
// integración HTTP: sin estado externo y sin dependencias.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coticdev/usersapp/internal/store"
)

type repo struct {
	mu sync.RWMutex

	users      map[int64]*store.User
	roles      map[int64]store.Role
	nextUserID int64
	nextRoleID int64
}

// New crea un repositorio en memoria vacío.
func New() store.Repository {
	return &repo{
		users: make(map[int64]*store.User),
		roles: make(map[int64]store.Role),
	}
}

func (r *repo) Users() store.UserRepository { return (*userRepo)(r) }
func (r *repo) Roles() store.RoleRepository { return (*roleRepo)(r) }

func (r *repo) Ping(context.Context) error { return nil }
func (r *repo) Close() error               { return nil }

// ===== USUARIOS =====

type userRepo repo

func (r *userRepo) Create(_ context.Context, in store.CreateUserInput) (*store.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == in.Username || u.Email == in.Email {
			return nil, store.ErrConflict
		}
	}
	roles, err := r.resolveRoles(in.RoleIDs)
	if err != nil {
		return nil, err
	}

	r.nextUserID++
	u := &store.User{
		ID:           r.nextUserID,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Roles:        roles,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*store.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*store.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]*store.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*store.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) Update(_ context.Context, id int64, in store.UpdateUserInput) (*store.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, u := range r.users {
		if u.ID == id {
			continue
		}
		if u.Username == in.Username || u.Email == in.Email {
			return nil, store.ErrConflict
		}
	}
	roles, err := r.resolveRoles(in.RoleIDs)
	if err != nil {
		return nil, err
	}

	current.Username = in.Username
	current.Email = in.Email
	if in.PasswordHash != "" {
		current.PasswordHash = in.PasswordHash
	}
	current.Roles = roles
	return cloneUser(current), nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *userRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// resolveRoles materializa los IDs de rol. Se llama ya con el lock tomado.
func (r *userRepo) resolveRoles(ids []int64) ([]store.Role, error) {
	roles := make([]store.Role, 0, len(ids))
	for _, id := range ids {
		role, ok := r.roles[id]
		if !ok {
			return nil, store.ErrNotFound
		}
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

// ===== ROLES =====

type roleRepo repo

func (r *roleRepo) GetByName(_ context.Context, name string) (*store.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.roles {
		if role.Name == name {
			cp := role
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *roleRepo) List(_ context.Context) ([]store.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]store.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *roleRepo) Create(_ context.Context, name string) (*store.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, role := range r.roles {
		if role.Name == name {
			return nil, store.ErrConflict
		}
	}
	r.nextRoleID++
	role := store.Role{ID: r.nextRoleID, Name: name}
	r.roles[role.ID] = role
	return &role, nil
}

func cloneUser(u *store.User) *store.User {
	cp := *u
	cp.Roles = append([]store.Role(nil), u.Roles...)
	return &cp
}
