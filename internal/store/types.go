// Package store define el modelo de datos y los contratos de persistencia.
//
// Las implementaciones concretas viven en los subpaquetes memory y pg; el
// resto del servicio solo conoce estas interfaces.
package store

import "time"

// Nombres canónicos de los roles del sistema. Son un conjunto plano:
// tener ADMIN no implica tener USER.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Role es un rol nombrado del sistema.
type Role struct {
	ID   int64
	Name string
}

// User es la cuenta persistida. PasswordHash es el PHC argon2id, nunca
// la contraseña en claro.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

// RoleNames devuelve los nombres de rol del usuario, en orden estable.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole informa si el usuario tiene el rol con ese nombre.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// CreateUserInput son los datos ya validados para crear una cuenta.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	RoleIDs      []int64
}

// UpdateUserInput son los datos ya validados para reemplazar una cuenta.
// Un PasswordHash vacío conserva el hash actual.
type UpdateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	RoleIDs      []int64
}
