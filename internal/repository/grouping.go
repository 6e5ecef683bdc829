package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/storage"
)

// GroupRepository manages one of the two grouping tables. Lessons and
// categories share shape and invariants, so a single implementation is
// parameterized by table; NewLessonRepository and NewCategoryRepository
// bind it to each.
type GroupRepository struct {
	db        *storage.DB
	table     string
	refColumn string // vocabulary column pointing at this table
}

func NewLessonRepository(db *storage.DB) *GroupRepository {
	return &GroupRepository{db: db, table: "lessons", refColumn: "lesson_id"}
}

func NewCategoryRepository(db *storage.DB) *GroupRepository {
	return &GroupRepository{db: db, table: "categories", refColumn: "category_id"}
}

// GetOrCreate looks the group up by owner and name, creating it when absent.
// Concurrent callers may race on the insert; the uniqueness constraint is
// the source of truth, and a duplicate insert falls back to a re-fetch.
func (r *GroupRepository) GetOrCreate(ctx context.Context, userID int64, name string) (*entities.Group, error) {
	group, err := r.getByName(ctx, userID, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := r.db.Dialect().Rebind(
		fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES (?, ?) RETURNING id`, r.table),
	)

	var id int64
	if err := r.db.SQL().QueryRowContext(ctx, query, userID, name).Scan(&id); err != nil {
		if r.db.Dialect().IsUniqueViolation(err) {
			return r.getByName(ctx, userID, name)
		}
		return nil, fmt.Errorf("create %s %q: %w", r.table, name, err)
	}

	return &entities.Group{ID: id, UserID: userID, Name: name}, nil
}

func (r *GroupRepository) getByName(ctx context.Context, userID int64, name string) (*entities.Group, error) {
	query := r.db.Dialect().Rebind(
		fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = ? AND name = ?`, r.table),
	)

	var group entities.Group
	err := r.db.SQL().QueryRowContext(ctx, query, userID, name).Scan(&group.ID, &group.UserID, &group.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s by name: %w", r.table, err)
	}

	return &group, nil
}

// GetByID retrieves a group, checking it belongs to the asserting user.
func (r *GroupRepository) GetByID(ctx context.Context, userID, id int64) (*entities.Group, error) {
	query := r.db.Dialect().Rebind(
		fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = ? AND user_id = ?`, r.table),
	)

	var group entities.Group
	err := r.db.SQL().QueryRowContext(ctx, query, id, userID).Scan(&group.ID, &group.UserID, &group.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}

	return &group, nil
}

// List returns all groups of a user, ordered by name.
func (r *GroupRepository) List(ctx context.Context, userID int64) ([]*entities.Group, error) {
	query := r.db.Dialect().Rebind(
		fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = ? ORDER BY name`, r.table),
	)

	rows, err := r.db.SQL().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	var groups []*entities.Group
	for rows.Next() {
		var group entities.Group
		if err := rows.Scan(&group.ID, &group.UserID, &group.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		groups = append(groups, &group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table, err)
	}

	return groups, nil
}

// Delete removes a group. Vocabulary entries that reference it keep their
// rows: the reference is nulled out in the same transaction, so no entry is
// ever deleted and no dangling reference survives.
func (r *GroupRepository) Delete(ctx context.Context, userID, id int64) error {
	return r.db.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		clear := r.db.Dialect().Rebind(
			fmt.Sprintf(`UPDATE vocabulary SET %s = NULL WHERE user_id = ? AND %s = ?`, r.refColumn, r.refColumn),
		)
		if _, err := tx.ExecContext(ctx, clear, userID, id); err != nil {
			return fmt.Errorf("clear %s references: %w", r.table, err)
		}

		del := r.db.Dialect().Rebind(
			fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND user_id = ?`, r.table),
		)
		res, err := tx.ExecContext(ctx, del, id, userID)
		if err != nil {
			return fmt.Errorf("delete %s: %w", r.table, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete %s: %w", r.table, err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		return nil
	})
}
