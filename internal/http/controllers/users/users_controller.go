// Package users contiene el controller del CRUD de usuarios.
package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dto "github.com/coticdev/usersapp/internal/http/dto/users"
	httperrors "github.com/coticdev/usersapp/internal/http/errors"
	svc "github.com/coticdev/usersapp/internal/http/services/users"
	"github.com/coticdev/usersapp/internal/observability/logger"
	"github.com/coticdev/usersapp/internal/store"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// Controller expone el CRUD de usuarios sobre HTTP.
type Controller struct {
	service svc.Service
}

// NewController crea el controller del CRUD.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// List maneja GET /users.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	users, err := c.service.List(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get maneja GET /users/{id}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	u, err := c.service.Get(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Create maneja POST /users.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !readJSON(w, r, &req) {
		return
	}
	u, err := c.service.Create(r.Context(), req)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Update maneja PUT /users/{id}. Responde 201 con la representación
// resultante, igual que el alta.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !readJSON(w, r, &req) {
		return
	}
	u, err := c.service.Update(r.Context(), id, req)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Delete maneja DELETE /users/{id}. Responde 204 sin body.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := c.service.Delete(r.Context(), id); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError traduce errores de servicio y store a HTTP.
func (c *Controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *svc.ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.WriteValidationError(w, verr.Fields)
	case store.IsNotFound(err):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case store.IsConflict(err):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("username o email ya registrados"))
	default:
		logger.From(r.Context()).Error("operación de usuarios falló",
			logger.Layer("controller"), logger.Err(err))
		httperrors.WriteError(w, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("id debe ser un entero positivo"))
		return 0, false
	}
	return id, true
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
