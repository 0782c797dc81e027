// Package postgres embebe y aplica las migraciones SQL del servicio.
package postgres

import "embed"

// FS contiene las migraciones. Formato de archivo: {version}_{name}.sql
// (ej: 0001_init.sql).
//
//go:embed *.sql
var FS embed.FS
