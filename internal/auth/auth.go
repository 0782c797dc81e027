// Package auth implementa la verificación de credenciales y la emisión y
// validación de tokens de sesión.
package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/observability/logger"
	"github.com/coticdev/usersapp/internal/security/password"
	"github.com/coticdev/usersapp/internal/store"
)

// ErrInvalidCredentials cubre tanto usuario inexistente como contraseña
// incorrecta. El caller no debe poder distinguirlos.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Identity es el resultado de una verificación de credenciales exitosa:
// el usuario y el snapshot de sus roles en ese momento.
type Identity struct {
	Username string
	Roles    []string
}

// Verifier valida pares usuario/contraseña contra el repositorio.
type Verifier struct {
	users store.UserRepository
}

// NewVerifier crea un verificador sobre el repositorio dado.
func NewVerifier(users store.UserRepository) *Verifier {
	return &Verifier{users: users}
}

// Verify comprueba las credenciales. Cualquier fallo de autenticación
// devuelve ErrInvalidCredentials, sin filtrar si la cuenta existe.
func (v *Verifier) Verify(ctx context.Context, username, plain string) (*Identity, error) {
	u, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(plain, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Username: u.Username, Roles: u.RoleNames()}, nil
}

// Session es el token emitido tras un login exitoso.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Username  string
}

// TokenValidation es el veredicto de inspección de un token presentado.
// Valid en false deja Username y Roles vacíos.
type TokenValidation struct {
	Valid    bool
	Username string
	Roles    []string
}

// Service orquesta login y validación de tokens.
type Service struct {
	verifier *Verifier
	codec    *jwt.Codec
	log      *zap.Logger
}

// NewService arma el servicio de autenticación.
func NewService(verifier *Verifier, codec *jwt.Codec) *Service {
	return &Service{
		verifier: verifier,
		codec:    codec,
		log:      logger.Named("auth"),
	}
}

// Login verifica credenciales y emite un token firmado con el snapshot de
// roles del usuario.
func (s *Service) Login(ctx context.Context, username, plain string) (*Session, error) {
	id, err := s.verifier.Verify(ctx, username, plain)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.log.Info("login rechazado", logger.Username(username))
		}
		return nil, err
	}

	token, exp, err := s.codec.Issue(id.Username, id.Roles)
	if err != nil {
		return nil, err
	}
	s.log.Info("login ok", logger.Username(id.Username))
	return &Session{Token: token, ExpiresAt: exp, Username: id.Username}, nil
}

// ValidateToken inspecciona un token presentado. Nunca devuelve error por
// un token inválido: el veredicto va en el resultado.
func (s *Service) ValidateToken(raw string) TokenValidation {
	claims, err := s.codec.Verify(raw)
	if err != nil {
		return TokenValidation{Valid: false}
	}
	return TokenValidation{
		Valid:    true,
		Username: claims.Username(),
		Roles:    claims.Roles,
	}
}
