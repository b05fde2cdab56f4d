// Package sqlite stores the credential catalog in SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/catalog"
	_ "modernc.org/sqlite"
)

// Schema creates the users table. Timestamps are unix microseconds.
const Schema = `CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	requires_2fa  INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
)`

// Backend implements catalog.Backend over a SQLite database.
type Backend struct {
	db *sql.DB
}

// Open opens dsn (a file path or ":memory:") and applies Schema. SQLite
// serializes writers, so the pool is limited to a single connection.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Backend{db: db}, nil
}

func (b *Backend) Close() error { return b.db.Close() }

// Ping verifies the database connection is still alive.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Backend) InsertIfAbsent(ctx context.Context, user catalog.User) (bool, error) {
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, requires_2fa, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		user.ID, user.Email, user.PasswordHash, boolToInt(user.Requires2FA),
		user.CreatedAt.UnixMicro(), user.UpdatedAt.UnixMicro(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (b *Backend) FindByEmail(ctx context.Context, email string) (catalog.User, bool, error) {
	var (
		u                catalog.User
		requires2FA      int64
		created, updated int64
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, requires_2fa, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &requires2FA, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.User{}, false, nil
		}
		return catalog.User{}, false, err
	}

	u.Requires2FA = requires2FA != 0
	u.CreatedAt = time.UnixMicro(created).UTC()
	u.UpdatedAt = time.UnixMicro(updated).UTC()
	return u, true, nil
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
