// Package users define los DTOs del CRUD de usuarios.
package users

// CreateUserRequest es el body de POST /users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// UpdateUserRequest es el body de PUT /users/{id}. Password vacío
// conserva la contraseña actual.
type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// UserResponse es la representación pública de una cuenta. Nunca incluye
// hash ni contraseña.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Admin    bool   `json:"admin"`
}
