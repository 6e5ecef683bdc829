package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
)

func TestGetOrCreateReturnsExisting(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	mustUser(t, db, 1)

	first, err := repo.GetOrCreate(ctx, 1, "greetings")
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	second, err := repo.GetOrCreate(ctx, 1, "greetings")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("got ids %d and %d for the same name, want equal", first.ID, second.ID)
	}
}

func TestGroupNamesScopedPerUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCategoryRepository(db)

	mustUser(t, db, 1)
	mustUser(t, db, 2)

	a, err := repo.GetOrCreate(ctx, 1, "food")
	if err != nil {
		t.Fatalf("GetOrCreate user 1: %v", err)
	}
	b, err := repo.GetOrCreate(ctx, 2, "food")
	if err != nil {
		t.Fatalf("GetOrCreate user 2: %v", err)
	}
	if a.ID == b.ID {
		t.Error("same group shared across users, want separate rows")
	}

	// Each user sees only their own.
	groups, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != a.ID {
		t.Errorf("got %d groups for user 1, want only their own", len(groups))
	}
}

func TestGetByIDChecksOwnership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	mustUser(t, db, 1)
	mustUser(t, db, 2)

	lesson, err := repo.GetOrCreate(ctx, 1, "verbs")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if _, err := repo.GetByID(ctx, 2, lesson.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v for foreign lesson, want ErrNotFound", err)
	}
}

func TestDeleteGroupKeepsWords(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	lessons := NewLessonRepository(db)
	words := NewWordRepository(db)

	mustUser(t, db, 1)

	lesson, err := lessons.GetOrCreate(ctx, 1, "basics")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	word := mustWord(t, words, entities.NewWord(1, "σπίτι", "дом", &lesson.ID, nil))

	if err := lessons.Delete(ctx, 1, lesson.ID); err != nil {
		t.Fatalf("delete lesson: %v", err)
	}

	got, err := words.Get(ctx, 1, word.ID)
	if err != nil {
		t.Fatalf("word gone after lesson delete: %v", err)
	}
	if got.LessonID != nil {
		t.Errorf("got lesson id %d on word, want nil after delete", *got.LessonID)
	}

	if err := lessons.Delete(ctx, 1, lesson.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v deleting twice, want ErrNotFound", err)
	}
}

func TestDeleteGroupChecksOwnership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	mustUser(t, db, 1)
	mustUser(t, db, 2)

	lesson, err := repo.GetOrCreate(ctx, 1, "verbs")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if err := repo.Delete(ctx, 2, lesson.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v deleting foreign lesson, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, 1, lesson.ID); err != nil {
		t.Errorf("lesson gone after foreign delete attempt: %v", err)
	}
}
