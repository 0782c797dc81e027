package http

import (
	"context"
	"net/http"

	httperrors "github.com/coticdev/usersapp/internal/http/errors"
	jwtx "github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/observability/logger"
	"github.com/coticdev/usersapp/internal/policy"
)

type claimsKey struct{}

// ClaimsFrom devuelve las claims del token validado por el guard, si la
// petición traía uno.
func ClaimsFrom(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*jwtx.Claims)
	return c, ok
}

// WithGuard valida el token (si viene) y aplica la tabla de acceso.
//
// Una petición sin header Authorization sigue anónima hasta la tabla: las
// rutas públicas pasan y el resto recibe 401. Un token presente pero
// inválido es siempre 401 con el mismo body, sin distinguir si estaba
// vencido, mal firmado o roto.
func WithGuard(next http.Handler, codec *jwtx.Codec, table *policy.Table, onReject func(reason string)) http.Handler {
	reject := func(reason string) {
		if onReject != nil {
			onReject(reason)
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			claims        *jwtx.Claims
			roles         []string
			authenticated bool
		)

		if raw := r.Header.Get("Authorization"); raw != "" {
			c, err := codec.Verify(raw)
			if err != nil {
				// Uniforme a propósito: el motivo va solo a logs y métricas.
				logger.From(r.Context()).Info("token rechazado",
					logger.Path(r.URL.Path),
					logger.Err(err),
				)
				reject(rejectReason(err))
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			claims = c
			roles = c.Roles
			authenticated = true
		}

		switch table.Decide(r.Method, r.URL.Path, authenticated, roles) {
		case policy.Allow:
			ctx := r.Context()
			if claims != nil {
				ctx = context.WithValue(ctx, claimsKey{}, claims)
				ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.Username(claims.Username())))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		case policy.Unauthenticated:
			reject("unauthenticated")
			httperrors.WriteError(w, httperrors.ErrUnauthorized)
		case policy.Forbidden:
			reject("forbidden")
			httperrors.WriteError(w, httperrors.ErrForbidden)
		}
	})
}

func rejectReason(err error) string {
	switch err {
	case jwtx.ErrExpired:
		return "token_expired"
	case jwtx.ErrBadSignature:
		return "token_bad_signature"
	default:
		return "token_malformed"
	}
}
