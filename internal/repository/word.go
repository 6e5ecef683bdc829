package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/storage"
)

// WordRepository provides access to the vocabulary entries of all users.
type WordRepository struct {
	db *storage.DB
}

func NewWordRepository(db *storage.DB) *WordRepository {
	return &WordRepository{db: db}
}

// WordFilter narrows vocabulary queries to one lesson and/or category.
type WordFilter struct {
	LessonID   *int64
	CategoryID *int64
}

// UserStats aggregates a user's training record.
type UserStats struct {
	TotalWords    int
	TotalSuccess  int
	TotalFailure  int
	Accuracy      float64 // share of successful attempts, 0 when untrained
	LessonCount   int
	CategoryCount int
}

// Add stores one vocabulary pair. Lesson and category references are
// verified to belong to the same user before anything is written; a pair
// the user already has yields ErrDuplicateEntry.
func (r *WordRepository) Add(ctx context.Context, word *entities.Word) error {
	if err := r.checkReference(ctx, "lessons", word.UserID, word.LessonID); err != nil {
		return err
	}
	if err := r.checkReference(ctx, "categories", word.UserID, word.CategoryID); err != nil {
		return err
	}

	query := r.db.Dialect().Rebind(`
		INSERT INTO vocabulary (user_id, source_text, target_text, lesson_id, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.SQL().QueryRowContext(
		ctx, query,
		word.UserID,
		word.SourceText,
		word.TargetText,
		nullID(word.LessonID),
		nullID(word.CategoryID),
		word.CreatedAt,
	).Scan(&word.ID)
	if err != nil {
		if r.db.Dialect().IsUniqueViolation(err) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("add word: %w", err)
	}

	return nil
}

// AddBatch inserts pairs one by one, counting duplicates instead of failing
// on them. Any other error aborts the batch.
func (r *WordRepository) AddBatch(ctx context.Context, words []*entities.Word) (added, skipped int, err error) {
	for _, word := range words {
		switch err := r.Add(ctx, word); {
		case err == nil:
			added++
		case errors.Is(err, ErrDuplicateEntry):
			skipped++
		default:
			return added, skipped, err
		}
	}

	return added, skipped, nil
}

func (r *WordRepository) checkReference(ctx context.Context, table string, userID int64, id *int64) error {
	if id == nil {
		return nil
	}

	query := r.db.Dialect().Rebind(
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = ? AND user_id = ?)`, table),
	)

	var ok bool
	if err := r.db.SQL().QueryRowContext(ctx, query, *id, userID).Scan(&ok); err != nil {
		return fmt.Errorf("check %s reference: %w", table, err)
	}
	if !ok {
		return ErrInvalidReference
	}

	return nil
}

// Get retrieves one entry, checking it belongs to the asserting user.
func (r *WordRepository) Get(ctx context.Context, userID, wordID int64) (*entities.Word, error) {
	query := r.db.Dialect().Rebind(`
		SELECT id, user_id, source_text, target_text, success_count, failure_count,
		       lesson_id, category_id, created_at
		FROM vocabulary
		WHERE id = ? AND user_id = ?
	`)

	word, err := scanWord(r.db.SQL().QueryRowContext(ctx, query, wordID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get word: %w", err)
	}

	return word, nil
}

// List returns a user's vocabulary, optionally filtered, oldest first.
func (r *WordRepository) List(ctx context.Context, userID int64, filter WordFilter) ([]*entities.Word, error) {
	query := `
		SELECT id, user_id, source_text, target_text, success_count, failure_count,
		       lesson_id, category_id, created_at
		FROM vocabulary
		WHERE user_id = ?
	`
	args := []any{userID}

	if filter.LessonID != nil {
		query += ` AND lesson_id = ?`
		args = append(args, *filter.LessonID)
	}
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.SQL().QueryContext(ctx, r.db.Dialect().Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer rows.Close()

	var words []*entities.Word
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, word)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate words: %w", err)
	}

	return words, nil
}

// Count returns the size of a user's vocabulary.
func (r *WordRepository) Count(ctx context.Context, userID int64) (int, error) {
	query := r.db.Dialect().Rebind(`SELECT COUNT(*) FROM vocabulary WHERE user_id = ?`)

	var count int
	if err := r.db.SQL().QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}

	return count, nil
}

// RecordOutcome bumps exactly one counter of one entry in a single atomic
// update, so concurrent outcomes for the same word never lose increments.
// The ownership check is part of the WHERE clause: a caller can never mutate
// another user's statistics.
func (r *WordRepository) RecordOutcome(ctx context.Context, userID, wordID int64, success bool) error {
	column := "failure_count"
	if success {
		column = "success_count"
	}

	query := r.db.Dialect().Rebind(
		fmt.Sprintf(`UPDATE vocabulary SET %s = %s + 1 WHERE id = ? AND user_id = ?`, column, column),
	)

	res, err := r.db.SQL().ExecContext(ctx, query, wordID, userID)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetStats zeroes all counters of a user and reports how many entries
// were touched.
func (r *WordRepository) ResetStats(ctx context.Context, userID int64) (int64, error) {
	query := r.db.Dialect().Rebind(`
		UPDATE vocabulary SET success_count = 0, failure_count = 0
		WHERE user_id = ? AND (success_count > 0 OR failure_count > 0)
	`)

	res, err := r.db.SQL().ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("reset stats: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset stats: %w", err)
	}

	return affected, nil
}

// Stats aggregates counters and group counts for one user.
func (r *WordRepository) Stats(ctx context.Context, userID int64) (*UserStats, error) {
	query := r.db.Dialect().Rebind(`
		SELECT COUNT(*),
		       COALESCE(SUM(success_count), 0),
		       COALESCE(SUM(failure_count), 0)
		FROM vocabulary
		WHERE user_id = ?
	`)

	var stats UserStats
	err := r.db.SQL().QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalWords,
		&stats.TotalSuccess,
		&stats.TotalFailure,
	)
	if err != nil {
		return nil, fmt.Errorf("word stats: %w", err)
	}

	if attempts := stats.TotalSuccess + stats.TotalFailure; attempts > 0 {
		stats.Accuracy = float64(stats.TotalSuccess) / float64(attempts)
	}

	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"lessons", &stats.LessonCount},
		{"categories", &stats.CategoryCount},
	} {
		q := r.db.Dialect().Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ?`, c.table))
		if err := r.db.SQL().QueryRowContext(ctx, q, userID).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	return &stats, nil
}

// HardestWords returns up to limit entries with the worst accuracy,
// considering only words that have actually been missed.
func (r *WordRepository) HardestWords(ctx context.Context, userID int64, limit int) ([]*entities.Word, error) {
	query := r.db.Dialect().Rebind(`
		SELECT id, user_id, source_text, target_text, success_count, failure_count,
		       lesson_id, category_id, created_at
		FROM vocabulary
		WHERE user_id = ? AND failure_count > 0
		ORDER BY CAST(failure_count AS REAL) / (success_count + failure_count) DESC,
		         failure_count DESC, id
		LIMIT ?
	`)

	rows, err := r.db.SQL().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("hardest words: %w", err)
	}
	defer rows.Close()

	var words []*entities.Word
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, word)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hardest words: %w", err)
	}

	return words, nil
}

// ExportRows flattens a user's vocabulary into a tabular record set with a
// header row; group references are resolved to names.
func (r *WordRepository) ExportRows(ctx context.Context, userID int64) ([][]string, error) {
	query := r.db.Dialect().Rebind(`
		SELECT v.source_text, v.target_text,
		       COALESCE(l.name, ''), COALESCE(c.name, ''),
		       v.success_count, v.failure_count, v.created_at
		FROM vocabulary v
		LEFT JOIN lessons l ON l.id = v.lesson_id
		LEFT JOIN categories c ON c.id = v.category_id
		WHERE v.user_id = ?
		ORDER BY v.created_at, v.id
	`)

	rows, err := r.db.SQL().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("export words: %w", err)
	}
	defer rows.Close()

	records := [][]string{
		{"source", "target", "lesson", "category", "success_count", "failure_count", "created_at"},
	}

	for rows.Next() {
		var (
			source, target, lesson, category string
			success, failure                 int
			createdAt                        sql.NullTime
		)
		err := rows.Scan(&source, &target, &lesson, &category, &success, &failure, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}

		created := ""
		if createdAt.Valid {
			created = createdAt.Time.Format("2006-01-02 15:04:05")
		}
		records = append(records, []string{
			source, target, lesson, category,
			fmt.Sprintf("%d", success), fmt.Sprintf("%d", failure),
			created,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export rows: %w", err)
	}

	return records, nil
}

func scanWord(row interface{ Scan(dest ...any) error }) (*entities.Word, error) {
	var (
		word                 entities.Word
		lessonID, categoryID sql.NullInt64
	)
	err := row.Scan(
		&word.ID,
		&word.UserID,
		&word.SourceText,
		&word.TargetText,
		&word.SuccessCount,
		&word.FailureCount,
		&lessonID,
		&categoryID,
		&word.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lessonID.Valid {
		word.LessonID = &lessonID.Int64
	}
	if categoryID.Valid {
		word.CategoryID = &categoryID.Int64
	}

	return &word, nil
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
