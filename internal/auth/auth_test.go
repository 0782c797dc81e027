package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/security/password"
	"github.com/coticdev/usersapp/internal/store"
	"github.com/coticdev/usersapp/internal/store/memory"
)

var hashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func newFixture(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	userRole, err := repo.Roles().Create(ctx, store.RoleUser)
	if err != nil {
		t.Fatalf("creando rol: %v", err)
	}
	adminRole, err := repo.Roles().Create(ctx, store.RoleAdmin)
	if err != nil {
		t.Fatalf("creando rol: %v", err)
	}

	hash, err := password.Hash(hashParams, "s3creta")
	if err != nil {
		t.Fatalf("hasheando: %v", err)
	}
	if _, err := repo.Users().Create(ctx, store.CreateUserInput{
		Username:     "ana",
		Email:        "ana@example.com",
		PasswordHash: hash,
		RoleIDs:      []int64{userRole.ID, adminRole.ID},
	}); err != nil {
		t.Fatalf("creando usuario: %v", err)
	}

	codec := jwt.NewCodec([]byte("secreto-de-pruebas"), time.Hour, "usersapp")
	return NewService(NewVerifier(repo.Users()), codec), repo
}

func TestLogin(t *testing.T) {
	svc, _ := newFixture(t)

	sess, err := svc.Login(context.Background(), "ana", "s3creta")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || sess.Username != "ana" {
		t.Fatalf("sesión incompleta: %+v", sess)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiración en el pasado")
	}

	v := svc.ValidateToken(sess.Token)
	if !v.Valid || v.Username != "ana" {
		t.Fatalf("validación = %+v", v)
	}
	if len(v.Roles) != 2 {
		t.Fatalf("roles = %v", v.Roles)
	}
}

func TestLoginUniformFailure(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	_, errBadPass := svc.Login(ctx, "ana", "equivocada")
	_, errNoUser := svc.Login(ctx, "nadie", "s3creta")

	// Usuario inexistente y contraseña errónea son indistinguibles.
	if !errors.Is(errBadPass, ErrInvalidCredentials) {
		t.Fatalf("password errónea: %v", errBadPass)
	}
	if !errors.Is(errNoUser, ErrInvalidCredentials) {
		t.Fatalf("usuario inexistente: %v", errNoUser)
	}
	if errBadPass.Error() != errNoUser.Error() {
		t.Fatalf("mensajes distintos filtran existencia de la cuenta")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	svc, _ := newFixture(t)

	for _, raw := range []string{"", "basura", "a.b.c", "Bearer tampoco"} {
		v := svc.ValidateToken(raw)
		if v.Valid {
			t.Fatalf("ValidateToken(%q) válido", raw)
		}
		if v.Username != "" || v.Roles != nil {
			t.Fatalf("veredicto inválido con datos: %+v", v)
		}
	}
}

func TestValidateTokenTampered(t *testing.T) {
	svc, _ := newFixture(t)

	sess, err := svc.Login(context.Background(), "ana", "s3creta")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// Un token truncado deja de validar.
	if v := svc.ValidateToken(sess.Token[:len(sess.Token)-2]); v.Valid {
		t.Fatalf("token truncado validó")
	}
}
