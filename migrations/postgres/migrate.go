package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coticdev/usersapp/internal/observability/logger"
)

// Lock de advisory compartido por todas las instancias del servicio para
// que solo una aplique migraciones a la vez.
const advisoryLockKey = 7421840091731

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

type migration struct {
	version int
	name    string
	sql     string
}

// Run aplica las migraciones pendientes sobre el pool dado. Es seguro
// correrlo en cada arranque: las versiones ya aplicadas se omiten.
func Run(ctx context.Context, pool *pgxpool.Pool) error {
	log := logger.Named("migrations")

	migrations, err := parse()
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("migrations: adquiriendo conexión: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("migrations: advisory lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("migrations: creando ledger: %w", err)
	}

	appliedSet := make(map[int]bool)
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("migrations: leyendo ledger: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		appliedSet[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	applied := 0
	for _, m := range migrations {
		if appliedSet[m.version] {
			continue
		}
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migrations: aplicando %04d_%s: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		log.Info("migración aplicada",
			logger.Int("version", m.version),
			logger.Any("name", m.name),
		)
		applied++
	}
	if applied == 0 {
		log.Debug("sin migraciones pendientes")
	}
	return nil
}

func parse() ([]migration, error) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return nil, err
	}

	var migrations []migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(e.Name())
		if matches == nil {
			continue
		}
		version, _ := strconv.Atoi(matches[1])
		content, err := FS.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("migrations: leyendo %s: %w", e.Name(), err)
		}
		migrations = append(migrations, migration{
			version: version,
			name:    matches[2],
			sql:     string(content),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}
