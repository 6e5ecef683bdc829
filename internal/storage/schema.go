package storage

import (
	"context"
	"fmt"
)

const (
	tableUsers      = "users"
	tableLessons    = "lessons"
	tableCategories = "categories"
	tableVocabulary = "vocabulary"
)

// keyColumns are the columns each table must carry if it already exists.
// A table present with a different shape means the database belongs to some
// other application and touching it would be destructive.
var keyColumns = map[string][]string{
	tableUsers:      {"user_id", "is_admin", "is_tracked", "added_at"},
	tableLessons:    {"id", "name"},
	tableCategories: {"id", "name"},
	tableVocabulary: {"id", "user_id", "source_text", "target_text", "success_count", "failure_count"},
}

// EnsureSchema creates any missing table, column or index. It is safe to run
// on every process start: existing objects are left untouched and no user
// data is read or written. Ownership of pre-existing lessons and categories
// is handled separately by MigrateOwnership.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if err := db.checkConflicts(ctx); err != nil {
		return err
	}

	pk := db.dialect.AutoIncrementPK()

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username TEXT,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_tracked BOOLEAN NOT NULL DEFAULT FALSE,
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			notes TEXT
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS lessons (
			id %s,
			user_id BIGINT NOT NULL REFERENCES users(user_id),
			name TEXT NOT NULL,
			UNIQUE(user_id, name)
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
			id %s,
			user_id BIGINT NOT NULL REFERENCES users(user_id),
			name TEXT NOT NULL,
			UNIQUE(user_id, name)
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vocabulary (
			id %s,
			user_id BIGINT NOT NULL REFERENCES users(user_id),
			source_text TEXT NOT NULL,
			target_text TEXT NOT NULL,
			success_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			lesson_id BIGINT REFERENCES lessons(id) ON DELETE SET NULL,
			category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, source_text, target_text)
		)`, pk),
	}

	for _, stmt := range tables {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Grouping reference columns arrived after the first deployments, so a
	// pre-existing vocabulary table may lack them.
	refColumns := []struct {
		column   string
		refTable string
	}{
		{"lesson_id", tableLessons},
		{"category_id", tableCategories},
	}
	for _, rc := range refColumns {
		typ := db.dialect.ReferenceColumn(rc.refTable, "id")
		if err := db.ensureColumn(ctx, tableVocabulary, rc.column, typ); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_user_id ON vocabulary(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_lesson_id ON vocabulary(lesson_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_category_id ON vocabulary(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_admin ON users(is_admin)`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_tracked ON users(is_tracked)`,
	}
	for _, stmt := range indexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// ensureColumn adds a column if the table does not already carry it.
func (db *DB) ensureColumn(ctx context.Context, table, column, typ string) error {
	exists, err := db.dialect.ColumnExists(ctx, db.conn, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)
	if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}

	return nil
}

// checkConflicts verifies that any pre-existing table carries its key
// columns. The owner columns on lessons and categories are deliberately not
// required here: their absence is the ownership migration's trigger.
func (db *DB) checkConflicts(ctx context.Context) error {
	for table, columns := range keyColumns {
		exists, err := db.dialect.TableExists(ctx, db.conn, table)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}

		for _, column := range columns {
			ok, err := db.dialect.ColumnExists(ctx, db.conn, table, column)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: table %s exists without column %s", ErrSchemaConflict, table, column)
			}
		}
	}

	return nil
}
