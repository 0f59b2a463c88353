package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Config struct {
	DSN            string
	MaxConns       int
	Timeout        time.Duration
	TimeZone       string
	ClientEncoding string
}

// Connect opens a Postgres pool, verifies connectivity with a ping and wraps
// it with sqlx. TimeZone and ClientEncoding are sent as startup parameters so
// every pooled connection carries them.
func Connect(cfg Config) (*sqlx.DB, error) {
	dsn, err := sessionDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return sqlx.NewDb(db, "postgres"), nil
}

// sessionDSN turns cfg.DSN into lib/pq key=value form and appends the
// session parameters. lib/pq forwards unknown keys to the server.
func sessionDSN(cfg Config) (string, error) {
	dsn := cfg.DSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		kv, err := pq.ParseURL(dsn)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}
		dsn = kv
	}
	if cfg.TimeZone != "" {
		dsn += " timezone=" + quoteValue(cfg.TimeZone)
	}
	if cfg.ClientEncoding != "" {
		dsn += " client_encoding=" + quoteValue(cfg.ClientEncoding)
	}
	return strings.TrimSpace(dsn), nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// IsForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// quoteValue quotes a value for a lib/pq key=value connection string.
func quoteValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
