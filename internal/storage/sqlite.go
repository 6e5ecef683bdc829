package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return EngineSQLite }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) AutoIncrementPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

// SQLite cannot attach a foreign key to an existing table without rebuilding
// it, so additive reference columns stay plain; referential cleanup is
// enforced at the repository layer.
func (sqliteDialect) ReferenceColumn(refTable, refColumn string) string {
	return "BIGINT"
}

func (sqliteDialect) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	const query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

	var n int
	if err := db.QueryRowContext(ctx, query, table).Scan(&n); err != nil {
		return false, fmt.Errorf("table exists %s: %w", table, err)
	}

	return n > 0, nil
}

func (sqliteDialect) ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("column exists %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate table info: %w", err)
	}

	return false, nil
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// RescopeGroupTable rebuilds the table with the owner column and the scoped
// uniqueness constraint, copying rows through with the backfilled owner.
// SQLite cannot alter constraints in place, so create-copy-drop-rename is
// the only route; the surrogate ids are preserved by the copy. Foreign key
// enforcement is suspended for the duration because the pragma cannot change
// inside a transaction.
func (sqliteDialect) RescopeGroupTable(ctx context.Context, conn *sql.Conn, table string, owner sql.NullInt64) error {
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON")
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	tmp := table + "_new"

	steps := []string{
		fmt.Sprintf(`
			CREATE TABLE %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id BIGINT NOT NULL REFERENCES users(user_id),
				name TEXT NOT NULL,
				UNIQUE(user_id, name)
			)`, tmp),
	}
	if owner.Valid {
		// ownerless rows inherit the fallback owner during the copy
		steps = append(steps, fmt.Sprintf(
			`INSERT INTO %s (id, user_id, name) SELECT id, %d, name FROM %s`,
			tmp, owner.Int64, table,
		))
	}
	steps = append(steps,
		fmt.Sprintf(`DROP TABLE %s`, table),
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, tmp, table),
	)

	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step); err != nil {
			return fmt.Errorf("rescope %s: %w", table, err)
		}
	}

	return tx.Commit()
}
