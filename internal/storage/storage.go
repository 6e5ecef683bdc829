package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Storage engines accepted by Open. PostgreSQL backs production
// deployments, SQLite local development; both are driven through
// database/sql with the differences folded into a Dialect.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

var (
	// ErrSchemaConflict reports a pre-existing structure the schema manager
	// cannot reconcile. Fatal for startup: proceeding risks corrupting data.
	ErrSchemaConflict = errors.New("schema conflict")

	// ErrMigrationIncomplete reports that the ownership migration had no
	// valid fallback owner and removed ownerless rows. The schema is still
	// consistent; callers should log a warning, not abort.
	ErrMigrationIncomplete = errors.New("ownership migration incomplete")
)

// Options configures a storage connection.
type Options struct {
	Engine          string // EnginePostgres or EngineSQLite
	DSN             string // connection string, or a file path for SQLite
	MaxConns        int
	MaxConnLifetime time.Duration
}

// DB wraps a database/sql pool together with its dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		dialect Dialect
		driver  string
		dsn     string
	)

	switch opts.Engine {
	case EnginePostgres:
		dialect, driver, dsn = postgresDialect{}, "pgx", opts.DSN
	case EngineSQLite:
		dialect, driver, dsn = sqliteDialect{}, "sqlite", sqliteDSN(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", opts.Engine)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Engine, err)
	}

	if opts.MaxConns > 0 {
		conn.SetMaxOpenConns(opts.MaxConns)
	}
	if opts.MaxConnLifetime > 0 {
		conn.SetConnMaxLifetime(opts.MaxConnLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Engine, err)
	}

	return &DB{conn: conn, dialect: dialect}, nil
}

// sqliteDSN appends the pragmas the trainer relies on: WAL for concurrent
// readers and a busy timeout so parallel counter updates queue instead of
// failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// SQL exposes the underlying pool for repositories.
func (db *DB) SQL() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// WithinTx runs fn inside a transaction, rolling back on error.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}
