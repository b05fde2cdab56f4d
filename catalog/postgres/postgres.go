// Package postgres stores the credential catalog in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore/catalog"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Schema creates the users table. The unique index on email is what makes
// InsertIfAbsent race-free.
const Schema = `CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	requires_2fa  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// Backend implements catalog.Backend over *sql.DB.
type Backend struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// Open connects with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	return New(db), nil
}

// EnsureSchema applies Schema.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) InsertIfAbsent(ctx context.Context, user catalog.User) (bool, error) {
	query :=
		`INSERT INTO users (id, email, password_hash, requires_2fa, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO NOTHING
		 `

	res, err := b.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Requires2FA, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (b *Backend) FindByEmail(ctx context.Context, email string) (catalog.User, bool, error) {
	query :=
		`SELECT id, email, password_hash, requires_2fa, created_at, updated_at FROM users
		 WHERE email = $1
		 `

	var u catalog.User
	err := b.db.QueryRowContext(ctx, query, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Requires2FA, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.User{}, false, nil
		}
		return catalog.User{}, false, fmt.Errorf("db error: %w", err)
	}

	return u, true, nil
}
