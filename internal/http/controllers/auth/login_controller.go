// Package auth contiene los controllers de login y validación de token.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	authsvc "github.com/coticdev/usersapp/internal/auth"
	dto "github.com/coticdev/usersapp/internal/http/dto/auth"
	httperrors "github.com/coticdev/usersapp/internal/http/errors"
	"github.com/coticdev/usersapp/internal/observability/logger"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	service *authsvc.Service
}

// NewLoginController crea el controller de login.
func NewLoginController(service *authsvc.Service) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /login.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.LoginRequest
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Content-Type debe ser application/json"))
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.Username == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("username y password son requeridos"))
		return
	}

	sess, err := c.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
			return
		}
		log.Error("login falló", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.LoginResponse{
		Token:     sess.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(time.Until(sess.ExpiresAt).Seconds()),
		Username:  sess.Username,
	})
}
