package store

import (
	"context"
	"errors"
	"fmt"
)

// Errores de persistencia que el resto del servicio traduce a HTTP.
var (
	// ErrNotFound: la entidad pedida no existe.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict: violación de unicidad (username o email ya tomados).
	ErrConflict = errors.New("store: conflict")
)

// IsNotFound informa si err envuelve ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict informa si err envuelve ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// UserRepository es el contrato de persistencia de cuentas. Todas las
// lecturas devuelven el usuario con sus roles ya cargados.
type UserRepository interface {
	Create(ctx context.Context, in CreateUserInput) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// RoleRepository es el contrato de persistencia de roles.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Create(ctx context.Context, name string) (*Role, error)
}

// Repository agrupa los repositorios sobre un mismo backend.
type Repository interface {
	Users() UserRepository
	Roles() RoleRepository
	Ping(ctx context.Context) error
	Close() error
}

// Drivers soportados por Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver lo devuelve Open ante un driver no soportado.
var ErrUnknownDriver = errors.New("store: unknown driver")

// UnknownDriverError arma el error para un nombre de driver concreto.
func UnknownDriverError(driver string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
