package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect hides the engine-specific corners of the two supported backends:
// surrogate key syntax, placeholder style, catalog introspection and
// constraint-violation detection. Callers ask "does column X exist on table
// Y" through the one ColumnExists method instead of branching on engine
// identity at every call site.
type Dialect interface {
	Name() string

	// Rebind converts ?-style placeholders to the engine's native style.
	Rebind(query string) string

	// AutoIncrementPK returns the column clause for a surrogate primary key.
	AutoIncrementPK() string

	// ReferenceColumn returns the column type clause used when a reference
	// column is added to an existing table.
	ReferenceColumn(refTable, refColumn string) string

	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
	ColumnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error)

	// IsUniqueViolation reports whether err is a uniqueness constraint error.
	IsUniqueViolation(err error) bool

	// RescopeGroupTable adds the owner column to a pre-ownership lessons or
	// categories table and swaps UNIQUE(name) for UNIQUE(user_id, name).
	// Rows are backfilled with owner when it is valid, otherwise dropped.
	// The whole rewrite runs in a single transaction on the given
	// connection: either the table is fully migrated or left untouched.
	RescopeGroupTable(ctx context.Context, conn *sql.Conn, table string, owner sql.NullInt64) error
}

// rebindDollar rewrites ?-placeholders as $1..$N.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}
