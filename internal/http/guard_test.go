package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtx "github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/policy"
)

func guardFixture(t *testing.T) (*jwtx.Codec, http.Handler, *[]string) {
	t.Helper()
	codec := jwtx.NewCodec([]byte("secreto-de-pruebas"), time.Hour, "usersapp")
	table := policy.NewTable(
		policy.Rule{Method: http.MethodGet, Pattern: "/publico", Require: policy.Public()},
		policy.Rule{Method: http.MethodGet, Pattern: "/privado", Require: policy.Authenticated()},
		policy.Rule{Method: http.MethodGet, Pattern: "/admin", Require: policy.Role("ADMIN")},
	)

	var reasons []string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFrom(r.Context()); ok {
			w.Header().Set("X-Test-User", claims.Username())
		}
		w.WriteHeader(http.StatusOK)
	})
	guarded := WithGuard(inner, codec, table, func(reason string) {
		reasons = append(reasons, reason)
	})
	return codec, guarded, &reasons
}

func get(handler http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardPublicRoute(t *testing.T) {
	_, guarded, _ := guardFixture(t)

	rec := get(guarded, "/publico", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Test-User"), "anónimo no debe tener identidad")
}

func TestGuardInjectsClaims(t *testing.T) {
	codec, guarded, _ := guardFixture(t)
	token, _, err := codec.Issue("ana", []string{"USER"})
	require.NoError(t, err)

	rec := get(guarded, "/privado", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ana", rec.Header().Get("X-Test-User"))
}

func TestGuardAnonymousOnProtected(t *testing.T) {
	_, guarded, reasons := guardFixture(t)

	rec := get(guarded, "/privado", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	require.Equal(t, []string{"unauthenticated"}, *reasons)
}

func TestGuardRoleEnforcement(t *testing.T) {
	codec, guarded, reasons := guardFixture(t)

	user, _, err := codec.Issue("ana", []string{"USER"})
	require.NoError(t, err)
	admin, _, err := codec.Issue("jefa", []string{"USER", "ADMIN"})
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, get(guarded, "/admin", user).Code)
	require.Equal(t, http.StatusOK, get(guarded, "/admin", admin).Code)
	require.Equal(t, []string{"forbidden"}, *reasons)
}

func TestGuardUniformRejection(t *testing.T) {
	codec, guarded, reasons := guardFixture(t)

	valid, _, err := codec.Issue("ana", []string{"USER"})
	require.NoError(t, err)
	otherSecret := jwtx.NewCodec([]byte("otro"), time.Hour, "usersapp")
	foreign, _, err := otherSecret.Issue("ana", []string{"USER"})
	require.NoError(t, err)

	// Token roto y token de otro secreto: mismo status y mismo body,
	// incluso en rutas públicas.
	for _, tok := range []string{"basura", foreign, valid[:len(valid)-4]} {
		rec := get(guarded, "/publico", tok)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, get(guarded, "/privado", "basura").Body.String(), rec.Body.String())
	}
	require.Contains(t, *reasons, "token_malformed")
	require.Contains(t, *reasons, "token_bad_signature")
}
