package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MigrationReport summarizes one ownership migration run.
type MigrationReport struct {
	MigratedTables []string
	FallbackOwner  int64 // zero when no fallback user existed
	RowsBackfilled int64
	RowsDropped    int64
}

// MigrateOwnership re-scopes lessons and categories that pre-date per-user
// ownership. Pre-existing rows are assigned to a fallback owner: the
// earliest-added admin, otherwise the earliest-added tracked user. If no
// such user exists the ownerless rows are removed instead, and the run
// reports ErrMigrationIncomplete alongside a still-consistent schema.
//
// Each table migrates in its own exclusive transaction, and a table that
// already carries the owner column is skipped, so re-running after success
// is a no-op.
func (db *DB) MigrateOwnership(ctx context.Context) (*MigrationReport, error) {
	report := &MigrationReport{}

	for _, table := range []string{tableLessons, tableCategories} {
		exists, err := db.dialect.TableExists(ctx, db.conn, table)
		if err != nil {
			return report, err
		}
		if !exists {
			continue
		}

		hasOwner, err := db.dialect.ColumnExists(ctx, db.conn, table, "user_id")
		if err != nil {
			return report, err
		}
		if hasOwner {
			continue
		}

		if err := db.rescopeTable(ctx, table, report); err != nil {
			return report, fmt.Errorf("migrate %s: %w", table, err)
		}
		report.MigratedTables = append(report.MigratedTables, table)
	}

	if report.RowsDropped > 0 {
		return report, fmt.Errorf("%w: removed %d ownerless rows", ErrMigrationIncomplete, report.RowsDropped)
	}

	return report, nil
}

func (db *DB) rescopeTable(ctx context.Context, table string, report *MigrationReport) error {
	owner, err := db.fallbackOwner(ctx)
	if err != nil {
		return err
	}

	var pre int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&pre); err != nil {
		return fmt.Errorf("count rows: %w", err)
	}

	// A dedicated connection keeps the rewrite on one session; the SQLite
	// path toggles connection-scoped pragmas around its transaction.
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	if err := db.dialect.RescopeGroupTable(ctx, conn, table, owner); err != nil {
		return err
	}

	if owner.Valid {
		report.FallbackOwner = owner.Int64
		report.RowsBackfilled += pre
	} else {
		report.RowsDropped += pre
	}

	return nil
}

// fallbackOwner picks the user that inherits ownerless rows: the
// earliest-added admin, otherwise the earliest-added tracked user.
func (db *DB) fallbackOwner(ctx context.Context) (sql.NullInt64, error) {
	const query = `
		SELECT user_id FROM users
		WHERE is_admin OR is_tracked
		ORDER BY is_admin DESC, added_at, user_id
		LIMIT 1
	`

	var owner sql.NullInt64
	err := db.conn.QueryRowContext(ctx, query).Scan(&owner.Int64)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("fallback owner: %w", err)
	}

	owner.Valid = true
	return owner, nil
}
