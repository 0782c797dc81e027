// Package auth define los DTOs de login y validación de token.
package auth

// LoginRequest es el body de POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse es la respuesta de un login exitoso.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"` // segundos
	Username  string `json:"username"`
}

// TokenRequest es el body de POST /users/validate-token.
type TokenRequest struct {
	Token string `json:"token"`
}

// TokenValidationResponse es el veredicto de inspección de un token.
// Siempre viaja con status 200: el veredicto va en el body.
type TokenValidationResponse struct {
	Valid    bool     `json:"valid"`
	Username *string  `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}
