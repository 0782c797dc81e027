package http

import (
	"encoding/json"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/coticdev/usersapp/internal/auth"
	authctrl "github.com/coticdev/usersapp/internal/http/controllers/auth"
	usersctrl "github.com/coticdev/usersapp/internal/http/controllers/users"
	httperrors "github.com/coticdev/usersapp/internal/http/errors"
	userssvc "github.com/coticdev/usersapp/internal/http/services/users"
	jwtx "github.com/coticdev/usersapp/internal/jwt"
	"github.com/coticdev/usersapp/internal/policy"
)

// RouterDeps agrupa todo lo que el router necesita para armarse.
type RouterDeps struct {
	Codec        *jwtx.Codec
	Policy       *policy.Table
	AuthService  *authsvc.Service
	UsersService userssvc.Service

	CORSAllowedOrigins []string
	MetricsHandler     stdhttp.Handler // nil deshabilita /metrics
	Ready              func() error    // nil = siempre listo
}

// NewRouter arma el router completo con su cadena de middlewares:
// RequestID → Logging → Recover → CORS → Metrics → Guard → handler.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	login := authctrl.NewLoginController(deps.AuthService)
	validate := authctrl.NewValidateTokenController(deps.AuthService)
	users := usersctrl.NewController(deps.UsersService)

	r := chi.NewRouter()

	r.Post("/login", login.Login)
	r.Post("/users/validate-token", validate.ValidateToken)

	r.Get("/users", users.List)
	r.Post("/users", users.Create)
	r.Get("/users/{id}", users.Get)
	r.Put("/users/{id}", users.Update)
	r.Delete("/users/{id}", users.Delete)

	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		writeStatus(w, stdhttp.StatusOK, "ok")
	})
	r.Get("/readyz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				writeStatus(w, stdhttp.StatusServiceUnavailable, "not ready")
				return
			}
		}
		writeStatus(w, stdhttp.StatusOK, "ready")
	})
	if deps.MetricsHandler != nil {
		r.Method(stdhttp.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.NotFound(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// La cadena se arma de adentro hacia afuera: el guard queda pegado a
	// las rutas para que CORS y métricas vean también los rechazos.
	var h stdhttp.Handler = r
	h = WithGuard(h, deps.Codec, deps.Policy, ObserveAuthRejection)
	h = WithMetrics(h)
	h = WithCORS(h, deps.CORSAllowedOrigins)
	h = WithRecover(h)
	h = WithLogging(h)
	h = WithRequestID(h)
	return h
}

func writeStatus(w stdhttp.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": msg})
}
