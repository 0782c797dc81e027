package memory

import (
	"context"
	"testing"

	"github.com/coticdev/usersapp/internal/store"
)

func seedRoles(t *testing.T, repo store.Repository) (userID, adminID int64) {
	t.Helper()
	ctx := context.Background()
	u, err := repo.Roles().Create(ctx, store.RoleUser)
	if err != nil {
		t.Fatalf("creando rol USER: %v", err)
	}
	a, err := repo.Roles().Create(ctx, store.RoleAdmin)
	if err != nil {
		t.Fatalf("creando rol ADMIN: %v", err)
	}
	return u.ID, a.ID
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := New()
	userID, adminID := seedRoles(t, repo)

	created, err := repo.Users().Create(ctx, store.CreateUserInput{
		Username:     "paco",
		Email:        "paco@example.com",
		PasswordHash: "$argon2id$...",
		RoleIDs:      []int64{userID, adminID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("ID sin asignar")
	}
	if !created.HasRole(store.RoleAdmin) || !created.HasRole(store.RoleUser) {
		t.Fatalf("roles = %v", created.RoleNames())
	}

	byID, err := repo.Users().GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Username != "paco" {
		t.Fatalf("username = %q", byID.Username)
	}

	byName, err := repo.Users().GetByUsername(ctx, "paco")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("IDs distintos: %d vs %d", byName.ID, created.ID)
	}
}

func TestCreateConflict(t *testing.T) {
	ctx := context.Background()
	repo := New()
	userID, _ := seedRoles(t, repo)

	in := store.CreateUserInput{
		Username:     "ana",
		Email:        "ana@example.com",
		PasswordHash: "h",
		RoleIDs:      []int64{userID},
	}
	if _, err := repo.Users().Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Users().Create(ctx, in); !store.IsConflict(err) {
		t.Fatalf("err = %v, esperaba ErrConflict", err)
	}

	// Mismo email con otro username también es conflicto.
	in.Username = "ana2"
	if _, err := repo.Users().Create(ctx, in); !store.IsConflict(err) {
		t.Fatalf("err = %v, esperaba ErrConflict", err)
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	repo := New()

	if _, err := repo.Users().GetByID(ctx, 42); !store.IsNotFound(err) {
		t.Fatalf("GetByID err = %v, esperaba ErrNotFound", err)
	}
	if _, err := repo.Users().GetByUsername(ctx, "nadie"); !store.IsNotFound(err) {
		t.Fatalf("GetByUsername err = %v, esperaba ErrNotFound", err)
	}
	if err := repo.Users().Delete(ctx, 42); !store.IsNotFound(err) {
		t.Fatalf("Delete err = %v, esperaba ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := New()
	userID, adminID := seedRoles(t, repo)

	created, err := repo.Users().Create(ctx, store.CreateUserInput{
		Username:     "ana",
		Email:        "ana@example.com",
		PasswordHash: "hash-original",
		RoleIDs:      []int64{userID},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Sin hash nuevo conserva el actual.
	updated, err := repo.Users().Update(ctx, created.ID, store.UpdateUserInput{
		Username: "ana.maria",
		Email:    "ana@example.com",
		RoleIDs:  []int64{userID, adminID},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Username != "ana.maria" {
		t.Fatalf("username = %q", updated.Username)
	}
	if updated.PasswordHash != "hash-original" {
		t.Fatalf("el hash no debía cambiar")
	}
	if !updated.HasRole(store.RoleAdmin) {
		t.Fatalf("roles = %v", updated.RoleNames())
	}

	if _, err := repo.Users().Update(ctx, 9999, store.UpdateUserInput{Username: "x", Email: "x@x", RoleIDs: nil}); !store.IsNotFound(err) {
		t.Fatalf("err = %v, esperaba ErrNotFound", err)
	}
}

func TestListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := New()
	userID, _ := seedRoles(t, repo)

	n, err := repo.Users().Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	for _, name := range []string{"uno", "dos", "tres"} {
		if _, err := repo.Users().Create(ctx, store.CreateUserInput{
			Username: name, Email: name + "@example.com", PasswordHash: "h", RoleIDs: []int64{userID},
		}); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	users, err := repo.Users().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("len = %d", len(users))
	}
	// Orden estable por ID.
	for i := 1; i < len(users); i++ {
		if users[i-1].ID >= users[i].ID {
			t.Fatalf("listado desordenado: %d antes de %d", users[i-1].ID, users[i].ID)
		}
	}

	n, _ = repo.Users().Count(ctx)
	if n != 3 {
		t.Fatalf("Count = %d", n)
	}

	if err := repo.Users().Delete(ctx, users[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, _ = repo.Users().Count(ctx)
	if n != 2 {
		t.Fatalf("Count tras borrar = %d", n)
	}
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	repo := New()

	created, err := repo.Roles().Create(ctx, store.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Roles().Create(ctx, store.RoleUser); !store.IsConflict(err) {
		t.Fatalf("err = %v, esperaba ErrConflict", err)
	}

	got, err := repo.Roles().GetByName(ctx, store.RoleUser)
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("IDs distintos")
	}
	if _, err := repo.Roles().GetByName(ctx, "NOPE"); !store.IsNotFound(err) {
		t.Fatalf("err = %v, esperaba ErrNotFound", err)
	}

	roles, err := repo.Roles().List(ctx)
	if err != nil || len(roles) != 1 {
		t.Fatalf("List = %v, %v", roles, err)
	}
}

func TestCopyOnReturn(t *testing.T) {
	ctx := context.Background()
	repo := New()
	userID, _ := seedRoles(t, repo)

	created, _ := repo.Users().Create(ctx, store.CreateUserInput{
		Username: "ana", Email: "ana@example.com", PasswordHash: "h", RoleIDs: []int64{userID},
	})

	// Mutar lo devuelto no toca el estado interno.
	created.Username = "hackeada"
	created.Roles[0].Name = "ROOT"

	fresh, _ := repo.Users().GetByID(ctx, created.ID)
	if fresh.Username != "ana" || fresh.Roles[0].Name != store.RoleUser {
		t.Fatalf("el repo compartió estado interno: %+v", fresh)
	}
}
