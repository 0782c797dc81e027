package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/coticdev/usersapp/internal/auth"
	"github.com/coticdev/usersapp/internal/bootstrap"
	userssvc "github.com/coticdev/usersapp/internal/http/services/users"
	jwtx "github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/policy"
	"github.com/coticdev/usersapp/internal/security/password"
	"github.com/coticdev/usersapp/internal/store"
	"github.com/coticdev/usersapp/internal/store/memory"
)

var testHashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

// newTestServer levanta el stack completo sobre el store en memoria, con
// la cuenta admin inicial ya sembrada.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	if err := bootstrap.EnsureRoles(ctx, repo.Roles()); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	if err := bootstrap.SeedIfEmpty(ctx, repo, bootstrap.SeedOptions{
		AdminUsername: "admin",
		AdminPassword: "123456",
		AdminEmail:    "admin@localhost",
		HashParams:    testHashParams,
	}); err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}

	codec := jwtx.NewCodec([]byte("secreto-de-pruebas"), time.Hour, "usersapp")
	handler := NewRouter(RouterDeps{
		Codec:       codec,
		Policy:      policy.Default(store.RoleUser, store.RoleAdmin),
		AuthService: auth.NewService(auth.NewVerifier(repo.Users()), codec),
		UsersService: userssvc.NewService(userssvc.Deps{
			Users:      repo.Users(),
			Roles:      repo.Roles(),
			HashParams: testHashParams,
		}),
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func login(t *testing.T, base, username, pass string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/login", "", map[string]string{
		"username": username, "password": pass,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, resp.StatusCode, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("login sin token: %s", body)
	}
	return out.Token
}

func TestAccessScenario(t *testing.T) {
	srv := newTestServer(t)
	adminToken := login(t, srv.URL, "admin", "123456")

	t.Run("listado público sin token", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/users", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("detalle sin token es 401", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/users/1", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if resp.Header.Get("WWW-Authenticate") == "" {
			t.Fatalf("falta WWW-Authenticate en el 401")
		}
	})

	t.Run("detalle con token admin", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/users/1", adminToken, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var u struct {
			Username string `json:"username"`
			Admin    bool   `json:"admin"`
		}
		if err := json.Unmarshal(body, &u); err != nil || u.Username != "admin" || !u.Admin {
			t.Fatalf("body = %s", body)
		}
	})

	t.Run("alta requiere admin", func(t *testing.T) {
		// El admin crea una cuenta sin privilegios.
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/users", adminToken, map[string]any{
			"username": "usuaria", "email": "u@example.com", "password": "s3creta",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}

		userToken := login(t, srv.URL, "usuaria", "s3creta")

		// La cuenta sin ADMIN puede ver detalle pero no crear.
		if resp, _ := doJSON(t, http.MethodGet, srv.URL+"/users/1", userToken, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("detalle con USER: %d", resp.StatusCode)
		}
		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/users", userToken, map[string]any{
			"username": "intrusa", "email": "i@example.com", "password": "s3creta",
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("alta con USER: %d", resp.StatusCode)
		}
	})

	t.Run("token inválido es 401 uniforme", func(t *testing.T) {
		for _, token := range []string{"basura", adminToken[:len(adminToken)-3]} {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/users/1", token, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("token %q: status = %d", token[:6], resp.StatusCode)
			}
		}
	})

	t.Run("borrado inexistente es 404", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/users/99999", adminToken, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})
}

func TestUserCRUDOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	adminToken := login(t, srv.URL, "admin", "123456")

	// Alta.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/users", adminToken, map[string]any{
		"username": "usuaria", "email": "u@example.com", "password": "s3creta", "admin": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("alta: %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID    int64 `json:"id"`
		Admin bool  `json:"admin"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == 0 || !created.Admin {
		t.Fatalf("alta body = %s", body)
	}

	// Alta duplicada es 409.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/users", adminToken, map[string]any{
		"username": "usuaria", "email": "otra@example.com", "password": "s3creta",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicado: %d", resp.StatusCode)
	}

	// Update responde 201 con la representación resultante.
	url := fmt.Sprintf("%s/users/%d", srv.URL, created.ID)
	resp, body = doJSON(t, http.MethodPut, url, adminToken, map[string]any{
		"username": "usuaria2", "email": "u@example.com", "admin": false,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("update: %d: %s", resp.StatusCode, body)
	}
	var updated struct {
		Username string `json:"username"`
		Admin    bool   `json:"admin"`
	}
	if err := json.Unmarshal(body, &updated); err != nil || updated.Username != "usuaria2" || updated.Admin {
		t.Fatalf("update body = %s", body)
	}

	// Validación con detalle de campos.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/users", adminToken, map[string]any{
		"username": "ab", "email": "sin-arroba", "password": "123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("validación: %d", resp.StatusCode)
	}
	var verr struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &verr); err != nil || len(verr.Fields) != 3 {
		t.Fatalf("fields = %s", body)
	}

	// ID no numérico es 400.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/users/abc", adminToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("id inválido: %d", resp.StatusCode)
	}

	// Borrado: 204 y luego 404.
	resp, _ = doJSON(t, http.MethodDelete, url, adminToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, url, adminToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete repetido: %d", resp.StatusCode)
	}
}

func TestValidateTokenEndpoint(t *testing.T) {
	srv := newTestServer(t)
	adminToken := login(t, srv.URL, "admin", "123456")

	// Token válido: 200 con identidad y roles.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/users/validate-token", "", map[string]string{
		"token": adminToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Valid    bool     `json:"valid"`
		Username *string  `json:"username"`
		Roles    []string `json:"roles"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("body = %s", body)
	}
	if !out.Valid || out.Username == nil || *out.Username != "admin" || len(out.Roles) != 2 {
		t.Fatalf("veredicto = %s", body)
	}

	// Token basura: también 200, con valid=false y sin identidad.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/users/validate-token", "", map[string]string{
		"token": "no.es.jwt",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var bad struct {
		Valid    bool    `json:"valid"`
		Username *string `json:"username"`
	}
	if err := json.Unmarshal(body, &bad); err != nil || bad.Valid || bad.Username != nil {
		t.Fatalf("veredicto = %s", body)
	}

	// Body que no es JSON: 400.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/users/validate-token", bytes.NewBufferString("{roto"))
	req.Header.Set("Content-Type", "application/json")
	r2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	r2.Body.Close()
	if r2.StatusCode != http.StatusBadRequest {
		t.Fatalf("json roto: %d", r2.StatusCode)
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)

	// Password errónea y usuario inexistente devuelven el mismo 401.
	for _, creds := range []map[string]string{
		{"username": "admin", "password": "equivocada"},
		{"username": "fantasma", "password": "123456"},
	} {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/login", "", creds)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d: %s", resp.StatusCode, body)
		}
		var e struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(body, &e); err != nil || e.Code != "INVALID_CREDENTIALS" {
			t.Fatalf("body = %s", body)
		}
	}

	// Campos faltantes: 400.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/login", "", map[string]string{"username": "admin"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/readyz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: %d", resp.StatusCode)
	}

	// Ruta desconocida: primero manda la tabla de acceso (401 anónimo).
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/no-existe", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("ruta desconocida anónima: %d", resp.StatusCode)
	}
	adminToken := login(t, srv.URL, "admin", "123456")
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/no-existe", adminToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("ruta desconocida autenticada: %d", resp.StatusCode)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	srv := newTestServer(t)

	// Token firmado con el mismo secreto e issuer pero ya vencido.
	now := time.Now().UTC()
	claims := &jwtx.Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "usersapp",
			Subject:   "admin",
			IssuedAt:  jwtv5.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(-time.Hour)),
		},
		Roles: []string{store.RoleUser, store.RoleAdmin},
	}
	raw, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("secreto-de-pruebas"))
	if err != nil {
		t.Fatalf("firmando token vencido: %v", err)
	}

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/users/1", raw, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
