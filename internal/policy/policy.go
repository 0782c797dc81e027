// Package policy implementa la tabla declarativa de reglas de acceso.
//
// La tabla es una lista ordenada: la primera regla cuyo método y patrón
// calzan con la petición decide el resultado. Si ninguna calza aplica el
// default conservador (requiere autenticación).
package policy

import "strings"

// Decision es el veredicto de la tabla para una petición concreta.
type Decision int

const (
	// Allow deja pasar la petición.
	Allow Decision = iota
	// Unauthenticated exige credenciales que la petición no trae (401).
	Unauthenticated
	// Forbidden reconoce la identidad pero le niega la operación (403).
	Forbidden
)

// AnyMethod en una regla calza con cualquier método HTTP.
const AnyMethod = "*"

// Rule asocia un método y un patrón de ruta con un requisito de acceso.
//
// El patrón se compara segmento a segmento: "*" calza exactamente un
// segmento y un "**" final calza cero o más segmentos restantes.
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

// Requirement es lo que una regla exige de la petición.
type Requirement struct {
	kind  reqKind
	roles []string
}

type reqKind int

const (
	reqPublic reqKind = iota
	reqAuthenticated
	reqAnyRole
)

// Public no exige nada: acceso anónimo.
func Public() Requirement { return Requirement{kind: reqPublic} }

// Authenticated exige identidad válida, sin importar roles.
func Authenticated() Requirement { return Requirement{kind: reqAuthenticated} }

// AnyRole exige identidad válida con al menos uno de los roles dados.
func AnyRole(roles ...string) Requirement {
	return Requirement{kind: reqAnyRole, roles: roles}
}

// Role exige identidad válida con el rol dado.
func Role(role string) Requirement { return AnyRole(role) }

// Table es una lista ordenada de reglas más el default implícito.
type Table struct {
	rules []Rule
}

// NewTable construye una tabla con las reglas dadas, en orden.
func NewTable(rules ...Rule) *Table {
	return &Table{rules: rules}
}

// Decide evalúa la petición contra la tabla. authenticated indica si la
// petición trae identidad válida; roles es su snapshot de roles (ignorado
// cuando authenticated es false).
//
// Anónimo contra una regla con requisito de identidad es siempre
// Unauthenticated; identidad presente pero sin el rol exigido es Forbidden.
func (t *Table) Decide(method, path string, authenticated bool, roles []string) Decision {
	for _, r := range t.rules {
		if !methodMatches(r.Method, method) || !pathMatches(r.Pattern, path) {
			continue
		}
		return evaluate(r.Require, authenticated, roles)
	}
	// Default: todo lo no listado requiere autenticación.
	return evaluate(Authenticated(), authenticated, roles)
}

func evaluate(req Requirement, authenticated bool, roles []string) Decision {
	switch req.kind {
	case reqPublic:
		return Allow
	case reqAuthenticated:
		if !authenticated {
			return Unauthenticated
		}
		return Allow
	case reqAnyRole:
		if !authenticated {
			return Unauthenticated
		}
		for _, want := range req.roles {
			for _, have := range roles {
				if want == have {
					return Allow
				}
			}
		}
		return Forbidden
	default:
		return Unauthenticated
	}
}

func methodMatches(ruleMethod, method string) bool {
	return ruleMethod == AnyMethod || strings.EqualFold(ruleMethod, method)
}

// pathMatches compara segmento a segmento. El slash final de la petición
// no cuenta: "/users/" y "/users" son la misma ruta.
func pathMatches(pattern, path string) bool {
	pp := splitPath(pattern)
	sp := splitPath(path)

	for i, seg := range pp {
		if seg == "**" && i == len(pp)-1 {
			return true // calza el resto, incluso vacío
		}
		if i >= len(sp) {
			return false
		}
		if seg == "*" {
			continue
		}
		if seg != sp[i] {
			return false
		}
	}
	return len(pp) == len(sp)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
