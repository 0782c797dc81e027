// Package pg implementa store.Repository sobre PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coticdev/usersapp/internal/store"
)

// Options ajusta el pool de conexiones.
type Options struct {
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

type repo struct {
	pool *pgxpool.Pool
}

// Open conecta al DSN dado y verifica la conexión con un ping.
func Open(ctx context.Context, dsn string, opts Options) (store.Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parseando DSN: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: creando pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &repo{pool: pool}, nil
}

// Pooler lo implementa este repositorio para exponer su pool a las
// migraciones sin ensanchar store.Repository.
type Pooler interface {
	Pool() *pgxpool.Pool
}

// Pool expone el pool subyacente (lo usan las migraciones).
func (r *repo) Pool() *pgxpool.Pool { return r.pool }

func (r *repo) Users() store.UserRepository { return &userRepo{pool: r.pool} }
func (r *repo) Roles() store.RoleRepository { return &roleRepo{pool: r.pool} }

func (r *repo) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *repo) Close() error {
	r.pool.Close()
	return nil
}

// translate mapea errores de Postgres a los sentinelas del paquete store.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// ===== USUARIOS =====

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.created_at`

func (r *userRepo) Create(ctx context.Context, in store.CreateUserInput) (*store.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3) RETURNING id`,
		in.Username, in.Email, in.PasswordHash,
	).Scan(&id)
	if err != nil {
		return nil, translate(err)
	}
	if err := replaceRoles(ctx, tx, id, in.RoleIDs); err != nil {
		return nil, translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*store.User, error) {
	return r.getOne(ctx, `WHERE u.id = $1`, id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	return r.getOne(ctx, `WHERE u.username = $1`, username)
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (*store.User, error) {
	u := &store.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u `+where, arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if err := loadRoles(ctx, r.pool, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context) ([]*store.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u := &store.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, u := range users {
		if err := loadRoles(ctx, r.pool, u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *userRepo) Update(ctx context.Context, id int64, in store.UpdateUserInput) (*store.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var tag pgconn.CommandTag
	if in.PasswordHash != "" {
		tag, err = tx.Exec(ctx,
			`UPDATE users SET username = $1, email = $2, password_hash = $3 WHERE id = $4`,
			in.Username, in.Email, in.PasswordHash, id)
	} else {
		tag, err = tx.Exec(ctx,
			`UPDATE users SET username = $1, email = $2 WHERE id = $3`,
			in.Username, in.Email, id)
	}
	if err != nil {
		return nil, translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrNotFound
	}
	if err := replaceRoles(ctx, tx, id, in.RoleIDs); err != nil {
		return nil, translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func replaceRoles(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
			userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func loadRoles(ctx context.Context, pool *pgxpool.Pool, u *store.User) error {
	rows, err := pool.Query(ctx,
		`SELECT r.id, r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1 ORDER BY r.id`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	u.Roles = u.Roles[:0]
	for rows.Next() {
		var role store.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return err
		}
		u.Roles = append(u.Roles, role)
	}
	return rows.Err()
}

// ===== ROLES =====

type roleRepo struct {
	pool *pgxpool.Pool
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*store.Role, error) {
	role := &store.Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, translate(err)
	}
	return role, nil
}

func (r *roleRepo) List(ctx context.Context) ([]store.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []store.Role
	for rows.Next() {
		var role store.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepo) Create(ctx context.Context, name string) (*store.Role, error) {
	role := &store.Role{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, translate(err)
	}
	return role, nil
}
