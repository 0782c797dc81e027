// Package users implementa la capa de servicio del CRUD de usuarios:
// validación, resolución de roles y hashing de contraseñas.
package users

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	dto "github.com/coticdev/usersapp/internal/http/dto/users"
	"github.com/coticdev/usersapp/internal/observability/logger"
	"github.com/coticdev/usersapp/internal/security/password"
	"github.com/coticdev/usersapp/internal/store"
)

// Service expone las operaciones del CRUD. Los controllers solo hablan
// con esta interfaz.
type Service interface {
	List(ctx context.Context) ([]dto.UserResponse, error)
	Get(ctx context.Context, id int64) (*dto.UserResponse, error)
	Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, id int64) error
}

// ValidationError transporta los problemas campo a campo.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// Deps agrupa las dependencias del servicio.
type Deps struct {
	Users store.UserRepository
	Roles store.RoleRepository
	// HashParams permite bajar el costo de argon2 en tests.
	HashParams password.Params
}

type service struct {
	deps Deps
	log  *zap.Logger
}

// NewService arma el servicio del CRUD de usuarios.
func NewService(deps Deps) Service {
	if deps.HashParams == (password.Params{}) {
		deps.HashParams = password.Default
	}
	return &service{deps: deps, log: logger.Named("users")}
}

func (s *service) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.deps.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*dto.UserResponse, error) {
	u, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(u)
	return &resp, nil
}

func (s *service) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	normalize(&in.Username, &in.Email)
	if fields := validate(in.Username, in.Email, in.Password, true); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := password.Hash(s.deps.HashParams, in.Password)
	if err != nil {
		return nil, err
	}
	roleIDs, err := s.resolveRoles(ctx, in.Admin)
	if err != nil {
		return nil, err
	}

	u, err := s.deps.Users.Create(ctx, store.CreateUserInput{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		RoleIDs:      roleIDs,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("usuario creado",
		logger.UserID(u.ID),
		logger.Username(u.Username),
		logger.Any("roles", u.RoleNames()),
	)
	resp := toResponse(u)
	return &resp, nil
}

func (s *service) Update(ctx context.Context, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	normalize(&in.Username, &in.Email)
	if fields := validate(in.Username, in.Email, in.Password, false); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var hash string
	if in.Password != "" {
		var err error
		if hash, err = password.Hash(s.deps.HashParams, in.Password); err != nil {
			return nil, err
		}
	}
	roleIDs, err := s.resolveRoles(ctx, in.Admin)
	if err != nil {
		return nil, err
	}

	u, err := s.deps.Users.Update(ctx, id, store.UpdateUserInput{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		RoleIDs:      roleIDs,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("usuario actualizado", logger.UserID(u.ID), logger.Username(u.Username))
	resp := toResponse(u)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.deps.Users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("usuario eliminado", logger.UserID(id))
	return nil
}

// resolveRoles traduce el flag admin a IDs de rol: USER siempre, y ADMIN
// además cuando el flag está activo.
func (s *service) resolveRoles(ctx context.Context, admin bool) ([]int64, error) {
	userRole, err := s.deps.Roles.GetByName(ctx, store.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("resolviendo rol %s: %w", store.RoleUser, err)
	}
	ids := []int64{userRole.ID}
	if admin {
		adminRole, err := s.deps.Roles.GetByName(ctx, store.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("resolviendo rol %s: %w", store.RoleAdmin, err)
		}
		ids = append(ids, adminRole.ID)
	}
	return ids, nil
}

func normalize(username, email *string) {
	*username = strings.TrimSpace(*username)
	*email = strings.TrimSpace(strings.ToLower(*email))
}

// validate aplica las reglas de campos. passwordRequired distingue alta
// (siempre exige contraseña) de update (vacía conserva la actual).
func validate(username, email, plain string, passwordRequired bool) map[string]string {
	fields := make(map[string]string)
	switch {
	case username == "":
		fields["username"] = "es requerido"
	case len(username) < 4:
		fields["username"] = "debe tener al menos 4 caracteres"
	case len(username) > 8:
		fields["username"] = "no puede superar 8 caracteres"
	}
	switch {
	case email == "":
		fields["email"] = "es requerido"
	case !strings.Contains(email, "@"):
		fields["email"] = "no parece una dirección válida"
	}
	if plain == "" {
		if passwordRequired {
			fields["password"] = "es requerida"
		}
	} else if len(plain) < 6 {
		fields["password"] = "debe tener al menos 6 caracteres"
	}
	return fields
}

func toResponse(u *store.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Admin:    u.HasRole(store.RoleAdmin),
	}
}
