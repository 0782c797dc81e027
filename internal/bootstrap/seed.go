// Package bootstrap prepara el estado inicial del servicio: roles del
// sistema y cuenta administradora de arranque.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coticdev/usersapp/internal/observability/logger"
	"github.com/coticdev/usersapp/internal/security/password"
	"github.com/coticdev/usersapp/internal/store"
)

// SeedOptions parametriza el seed inicial.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	// HashParams permite abaratar argon2 en tests.
	HashParams password.Params
}

// EnsureRoles garantiza que los roles del sistema existan. Es idempotente:
// un rol ya presente no es error.
func EnsureRoles(ctx context.Context, roles store.RoleRepository) error {
	for _, name := range []string{store.RoleUser, store.RoleAdmin} {
		if _, err := roles.GetByName(ctx, name); err == nil {
			continue
		} else if !store.IsNotFound(err) {
			return fmt.Errorf("bootstrap: consultando rol %s: %w", name, err)
		}
		if _, err := roles.Create(ctx, name); err != nil && !store.IsConflict(err) {
			return fmt.Errorf("bootstrap: creando rol %s: %w", name, err)
		}
	}
	return nil
}

// SeedIfEmpty crea la cuenta administradora inicial solo cuando no hay
// ningún usuario. Con datos existentes no toca nada.
func SeedIfEmpty(ctx context.Context, repo store.Repository, opts SeedOptions) error {
	log := seedLogger()

	n, err := repo.Users().Count(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: contando usuarios: %w", err)
	}
	if n > 0 {
		log.Debug("seed omitido, ya hay usuarios", logger.Count(int(n)))
		return nil
	}

	if opts.HashParams == (password.Params{}) {
		opts.HashParams = password.Default
	}
	hash, err := password.Hash(opts.HashParams, opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap: hasheando password inicial: %w", err)
	}

	userRole, err := repo.Roles().GetByName(ctx, store.RoleUser)
	if err != nil {
		return fmt.Errorf("bootstrap: rol %s: %w", store.RoleUser, err)
	}
	adminRole, err := repo.Roles().GetByName(ctx, store.RoleAdmin)
	if err != nil {
		return fmt.Errorf("bootstrap: rol %s: %w", store.RoleAdmin, err)
	}

	u, err := repo.Users().Create(ctx, store.CreateUserInput{
		Username:     opts.AdminUsername,
		Email:        opts.AdminEmail,
		PasswordHash: hash,
		RoleIDs:      []int64{userRole.ID, adminRole.ID},
	})
	if err != nil {
		// Carrera con otra instancia arrancando: el admin ya existe.
		if store.IsConflict(err) {
			return nil
		}
		return fmt.Errorf("bootstrap: creando admin inicial: %w", err)
	}
	log.Info("cuenta administradora inicial creada",
		logger.UserID(u.ID),
		logger.Username(u.Username),
	)
	return nil
}

func seedLogger() *zap.Logger { return logger.Named("bootstrap") }
