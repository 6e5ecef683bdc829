package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/storage"
)

// UserRepository provides access to user records.
type UserRepository struct {
	db *storage.DB
}

func NewUserRepository(db *storage.DB) *UserRepository {
	return &UserRepository{db: db}
}

// SaveUser inserts a user on first contact or refreshes an existing row.
// Username and notes only overwrite when non-empty, and the admin/tracked
// flags are elevate-only: a plain save never demotes an existing user.
func (r *UserRepository) SaveUser(ctx context.Context, user *entities.User) error {
	query := r.db.Dialect().Rebind(`
		INSERT INTO users (user_id, username, is_admin, is_tracked, added_at, notes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			username = COALESCE(excluded.username, users.username),
			is_admin = (users.is_admin OR excluded.is_admin),
			is_tracked = (users.is_tracked OR excluded.is_tracked),
			notes = COALESCE(excluded.notes, users.notes)
	`)

	_, err := r.db.SQL().ExecContext(
		ctx, query,
		user.ID,
		nullString(user.Username),
		user.IsAdmin,
		user.IsTracked,
		user.AddedAt,
		nullString(user.Notes),
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by id. Returns ErrNotFound if unknown.
func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	query := r.db.Dialect().Rebind(`
		SELECT user_id, username, is_admin, is_tracked, added_at, notes
		FROM users
		WHERE user_id = ?
	`)

	var (
		user            entities.User
		username, notes sql.NullString
	)
	err := r.db.SQL().QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&username,
		&user.IsAdmin,
		&user.IsTracked,
		&user.AddedAt,
		&notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Username = username.String
	user.Notes = notes.String

	return &user, nil
}

// UserExists checks if a user with the given id exists.
func (r *UserRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	query := r.db.Dialect().Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = ?)`)

	var exists bool
	if err := r.db.SQL().QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}

	return exists, nil
}

// SetTracked toggles statistics tracking for a user without removing the row.
func (r *UserRepository) SetTracked(ctx context.Context, userID int64, tracked bool) error {
	return r.setFlag(ctx, "is_tracked", userID, tracked)
}

// SetAdmin grants or revokes the admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, userID int64, admin bool) error {
	return r.setFlag(ctx, "is_admin", userID, admin)
}

func (r *UserRepository) setFlag(ctx context.Context, column string, userID int64, value bool) error {
	query := r.db.Dialect().Rebind(fmt.Sprintf(`UPDATE users SET %s = ? WHERE user_id = ?`, column))

	res, err := r.db.SQL().ExecContext(ctx, query, value, userID)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// TrackedUsers lists users with statistics tracking enabled, newest first.
func (r *UserRepository) TrackedUsers(ctx context.Context) ([]*entities.User, error) {
	query := `
		SELECT user_id, username, is_admin, is_tracked, added_at, notes
		FROM users
		WHERE is_tracked
		ORDER BY added_at DESC
	`

	rows, err := r.db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tracked users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		var (
			user            entities.User
			username, notes sql.NullString
		)
		err := rows.Scan(&user.ID, &username, &user.IsAdmin, &user.IsTracked, &user.AddedAt, &notes)
		if err != nil {
			return nil, fmt.Errorf("scan tracked user: %w", err)
		}
		user.Username = username.String
		user.Notes = notes.String
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked users: %w", err)
	}

	return users, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
