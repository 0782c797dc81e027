package policy

import "net/http"

// Default arma la tabla de acceso del servicio. Recibe los nombres de los
// roles de usuario y administrador para no acoplarse a su definición.
//
// El orden importa: el listado público de usuarios va antes que el
// catch-all de administración sobre /users/**.
func Default(userRole, adminRole string) *Table {
	return NewTable(
		Rule{Method: http.MethodPost, Pattern: "/login", Require: Public()},
		Rule{Method: http.MethodPost, Pattern: "/users/validate-token", Require: Public()},
		Rule{Method: http.MethodGet, Pattern: "/healthz", Require: Public()},
		Rule{Method: http.MethodGet, Pattern: "/readyz", Require: Public()},
		Rule{Method: http.MethodGet, Pattern: "/metrics", Require: Public()},
		Rule{Method: http.MethodGet, Pattern: "/users", Require: Public()},
		Rule{Method: http.MethodGet, Pattern: "/users/*", Require: AnyRole(userRole, adminRole)},
		Rule{Method: http.MethodPost, Pattern: "/users", Require: Role(adminRole)},
		Rule{Method: AnyMethod, Pattern: "/users/**", Require: Role(adminRole)},
	)
}
