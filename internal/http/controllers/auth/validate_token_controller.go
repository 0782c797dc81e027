package auth

import (
	"encoding/json"
	"net/http"

	authsvc "github.com/coticdev/usersapp/internal/auth"
	dto "github.com/coticdev/usersapp/internal/http/dto/auth"
	httperrors "github.com/coticdev/usersapp/internal/http/errors"
)

// ValidateTokenController maneja la inspección de tokens.
type ValidateTokenController struct {
	service *authsvc.Service
}

// NewValidateTokenController crea el controller de validación.
func NewValidateTokenController(service *authsvc.Service) *ValidateTokenController {
	return &ValidateTokenController{service: service}
}

// ValidateToken maneja POST /users/validate-token.
//
// Siempre responde 200 con el veredicto en el body: un token inválido no
// es un error de la operación de inspección. Solo un body que no es JSON
// produce 400.
func (c *ValidateTokenController) ValidateToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	v := c.service.ValidateToken(req.Token)
	resp := dto.TokenValidationResponse{Valid: v.Valid}
	if v.Valid {
		resp.Username = &v.Username
		resp.Roles = v.Roles
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
