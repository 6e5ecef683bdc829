package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
)

// unique_violation, https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

type postgresDialect struct{}

func (postgresDialect) Name() string { return EnginePostgres }

func (postgresDialect) Rebind(query string) string { return rebindDollar(query) }

func (postgresDialect) AutoIncrementPK() string { return "BIGSERIAL PRIMARY KEY" }

func (postgresDialect) ReferenceColumn(refTable, refColumn string) string {
	return fmt.Sprintf("BIGINT REFERENCES %s(%s) ON DELETE SET NULL", refTable, refColumn)
}

func (postgresDialect) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables WHERE table_name = $1
		)
	`

	var exists bool
	if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("table exists %s: %w", table, err)
	}

	return exists, nil
}

func (postgresDialect) ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2
		)
	`

	var exists bool
	if err := db.QueryRowContext(ctx, query, table, column).Scan(&exists); err != nil {
		return false, fmt.Errorf("column exists %s.%s: %w", table, column, err)
	}

	return exists, nil
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// RescopeGroupTable widens the identity key under live data: add the owner
// column nullable, backfill or purge, tighten to NOT NULL, then swap the
// global name constraint for the scoped one. PostgreSQL DDL is
// transactional, so the whole sequence commits or rolls back as one unit.
func (postgresDialect) RescopeGroupTable(ctx context.Context, conn *sql.Conn, table string, owner sql.NullInt64) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []string{
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN user_id BIGINT REFERENCES users(user_id)`, table),
	}
	if owner.Valid {
		steps = append(steps, fmt.Sprintf(`UPDATE %s SET user_id = %d WHERE user_id IS NULL`, table, owner.Int64))
	} else {
		steps = append(steps, fmt.Sprintf(`DELETE FROM %s WHERE user_id IS NULL`, table))
	}
	steps = append(steps,
		fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN user_id SET NOT NULL`, table),
		fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s_name_key`, table, table),
		fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s_user_id_name_key UNIQUE (user_id, name)`, table, table),
	)

	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step); err != nil {
			return fmt.Errorf("rescope %s: %w", table, err)
		}
	}

	return tx.Commit()
}
