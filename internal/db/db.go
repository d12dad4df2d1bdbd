package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour of an open database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB wraps a database/sql connection pool for PostgreSQL or SQLite.
type DB struct {
	Pool    *sql.DB
	dialect Dialect
}

// New opens the database named by databaseURL. postgres:// and
// postgresql:// URLs use lib/pq; sqlite:// URLs, file: DSNs and
// ":memory:" use modernc.org/sqlite.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	dialect, dsn, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch dialect {
	case DialectPostgres:
		pool.SetMaxOpenConns(25)
		pool.SetMaxIdleConns(5)
	case DialectSQLite:
		// SQLite allows one writer; an in-memory database exists per connection.
		pool.SetMaxOpenConns(1)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool, dialect: dialect}, nil
}

func parseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("database url %q: missing path", databaseURL)
		}
		return DialectSQLite, path, nil
	case strings.HasPrefix(databaseURL, "file:"), databaseURL == ":memory:":
		return DialectSQLite, databaseURL, nil
	}
	return "", "", fmt.Errorf("database url %q: unsupported scheme", databaseURL)
}

// Dialect reports which driver backs d.
func (d *DB) Dialect() Dialect { return d.dialect }

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.Pool.Close()
}

// Migrate runs the database schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	ddl := postgresMigration
	if d.dialect == DialectSQLite {
		ddl = sqliteMigration
	}
	if _, err := d.Pool.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS imports (
    id           TEXT PRIMARY KEY,
    filename     TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    size         BIGINT NOT NULL DEFAULT 0,
    file_id      TEXT NOT NULL DEFAULT '',
    format       TEXT NOT NULL,
    text_preview TEXT NOT NULL DEFAULT '',
    parse_source TEXT NOT NULL,
    attempts     INTEGER NOT NULL DEFAULT 0,
    resume       JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_imports_created_at ON imports(created_at);
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS imports (
    id           TEXT PRIMARY KEY,
    filename     TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    size         INTEGER NOT NULL DEFAULT 0,
    file_id      TEXT NOT NULL DEFAULT '',
    format       TEXT NOT NULL,
    text_preview TEXT NOT NULL DEFAULT '',
    parse_source TEXT NOT NULL,
    attempts     INTEGER NOT NULL DEFAULT 0,
    resume       TEXT NOT NULL DEFAULT '{}',
    created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_imports_created_at ON imports(created_at);
`
