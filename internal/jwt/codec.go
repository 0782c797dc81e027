// Package jwt emite y valida los tokens de sesión firmados del servicio.
//
// Un único secreto compartido (HS256) firma todos los tokens. El codec se
// construye una vez al arrancar el proceso y es inmutable: seguro para uso
// concurrente sin locks.
package jwt

import (
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Prefijo convencional del header Authorization. Su ausencia no es error:
// Verify acepta el token con o sin prefijo.
const BearerPrefix = "Bearer "

// Fallos de verificación. El caller decide cuánto de esto expone: el
// middleware de autorización colapsa los tres en un 401 uniforme.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
)

// Claims es el esquema tipado del payload. Nada de mapeo dinámico: un payload
// que no calza con esta forma se rechaza como malformado.
type Claims struct {
	jwtv5.RegisteredClaims
	Roles []string `json:"roles"`
}

// Username devuelve el subject (el nombre de usuario al momento del login).
func (c *Claims) Username() string { return c.Subject }

// HasRole informa si el snapshot de roles incluye name. Los roles son un
// conjunto plano: ADMIN no implica USER.
func (c *Claims) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Codec firma y verifica tokens con un secreto compartido.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewCodec crea un codec. ttl <= 0 usa la ventana por defecto de 24h.
func NewCodec(secret []byte, ttl time.Duration, issuer string) *Codec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{secret: secret, ttl: ttl, issuer: issuer}
}

// TTL devuelve la ventana de validez configurada.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue firma un token para subject con el snapshot de roles dado.
// Es la única vía de creación de tokens en el sistema.
func (c *Codec) Issue(subject string, roles []string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(c.ttl)

	if roles == nil {
		roles = []string{} // el claim "roles" siempre serializa como lista
	}
	claims := &Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
		Roles: roles,
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify valida firma, estructura y expiración de un token presentado
// (con o sin prefijo "Bearer ") y devuelve las claims.
//
// Devuelve exactamente uno de ErrMalformed, ErrBadSignature o ErrExpired.
// Fail closed: un claim "roles" ausente o con forma irreconocible es
// ErrMalformed, nunca "sin roles".
func (c *Codec) Verify(raw string) (*Claims, error) {
	raw = StripBearer(raw)
	if raw == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}))

	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
			return nil, ErrBadSignature
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}
	if !tok.Valid {
		return nil, ErrMalformed
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, ErrMalformed
	}
	if claims.ExpiresAt == nil || claims.Roles == nil {
		return nil, ErrMalformed
	}
	return claims, nil
}

// StripBearer quita el prefijo "Bearer " (case-insensitive) si está presente.
func StripBearer(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(BearerPrefix) && strings.EqualFold(raw[:len(BearerPrefix)], BearerPrefix) {
		raw = strings.TrimSpace(raw[len(BearerPrefix):])
	}
	return raw
}
