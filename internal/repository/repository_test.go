package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.Options{
		Engine:          storage.EngineSQLite,
		DSN:             filepath.Join(t.TempDir(), "test.db"),
		MaxConns:        4,
		MaxConnLifetime: time.Minute,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	return db
}

func mustUser(t *testing.T, db *storage.DB, id int64) {
	t.Helper()

	repo := NewUserRepository(db)
	if err := repo.SaveUser(context.Background(), entities.NewUser(id, "")); err != nil {
		t.Fatalf("save user %d: %v", id, err)
	}
}

func mustWord(t *testing.T, repo *WordRepository, word *entities.Word) *entities.Word {
	t.Helper()

	if err := repo.Add(context.Background(), word); err != nil {
		t.Fatalf("add word %q: %v", word.SourceText, err)
	}
	return word
}
