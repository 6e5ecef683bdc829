package service

import (
	"context"
	"fmt"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/repository"
)

type WordStore interface {
	AddBatch(ctx context.Context, words []*entities.Word) (added, skipped int, err error)
	List(ctx context.Context, userID int64, filter repository.WordFilter) ([]*entities.Word, error)
	Count(ctx context.Context, userID int64) (int, error)
	Stats(ctx context.Context, userID int64) (*repository.UserStats, error)
	HardestWords(ctx context.Context, userID int64, limit int) ([]*entities.Word, error)
	ResetStats(ctx context.Context, userID int64) (int64, error)
	ExportRows(ctx context.Context, userID int64) ([][]string, error)
}

type GroupStore interface {
	GetOrCreate(ctx context.Context, userID int64, name string) (*entities.Group, error)
	List(ctx context.Context, userID int64) ([]*entities.Group, error)
	Delete(ctx context.Context, userID, id int64) error
}

// VocabularyService is the collaborator-facing surface for everything except
// training turns: bulk submission, listing, statistics and export.
type VocabularyService struct {
	words      WordStore
	lessons    GroupStore
	categories GroupStore
}

func NewVocabularyService(words WordStore, lessons, categories GroupStore) *VocabularyService {
	return &VocabularyService{
		words:      words,
		lessons:    lessons,
		categories: categories,
	}
}

// AddReport summarizes one bulk submission.
type AddReport struct {
	Added    int
	Skipped  int // duplicates the user already had
	Problems []string
	Total    int // vocabulary size after the submission
}

// AddWords parses a bulk submission and stores the pairs, optionally
// attaching every pair to a lesson and/or category created on demand.
// reversed flips the textual order from "source, target" to "target,
// source".
func (s *VocabularyService) AddWords(
	ctx context.Context,
	userID int64,
	text string,
	reversed bool,
	lessonName, categoryName string,
) (*AddReport, error) {
	pairs, problems, err := ParsePairs(text, reversed)
	if err != nil {
		return nil, err
	}

	var lessonID, categoryID *int64
	if lessonName != "" {
		lesson, err := s.lessons.GetOrCreate(ctx, userID, lessonName)
		if err != nil {
			return nil, fmt.Errorf("resolve lesson: %w", err)
		}
		lessonID = &lesson.ID
	}
	if categoryName != "" {
		category, err := s.categories.GetOrCreate(ctx, userID, categoryName)
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		categoryID = &category.ID
	}

	words := make([]*entities.Word, 0, len(pairs))
	for _, pair := range pairs {
		words = append(words, entities.NewWord(userID, pair.Source, pair.Target, lessonID, categoryID))
	}

	added, skipped, err := s.words.AddBatch(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("add words: %w", err)
	}

	total, err := s.words.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count words: %w", err)
	}

	return &AddReport{
		Added:    added,
		Skipped:  skipped,
		Problems: problems,
		Total:    total,
	}, nil
}

// ListWords returns a user's vocabulary, optionally scoped.
func (s *VocabularyService) ListWords(ctx context.Context, userID int64, filter repository.WordFilter) ([]*entities.Word, error) {
	return s.words.List(ctx, userID, filter)
}

// Stats returns a user's aggregate training record.
func (s *VocabularyService) Stats(ctx context.Context, userID int64) (*repository.UserStats, error) {
	return s.words.Stats(ctx, userID)
}

// HardestWords lists the user's most-missed entries, worst accuracy first.
func (s *VocabularyService) HardestWords(ctx context.Context, userID int64, limit int) ([]*entities.Word, error) {
	return s.words.HardestWords(ctx, userID, limit)
}

// ResetStatistics zeroes the user's counters and reports how many entries
// were affected.
func (s *VocabularyService) ResetStatistics(ctx context.Context, userID int64) (int64, error) {
	return s.words.ResetStats(ctx, userID)
}

// Export flattens the user's vocabulary into tabular records with a header.
func (s *VocabularyService) Export(ctx context.Context, userID int64) ([][]string, error) {
	return s.words.ExportRows(ctx, userID)
}

// Lessons lists the user's lessons.
func (s *VocabularyService) Lessons(ctx context.Context, userID int64) ([]*entities.Group, error) {
	return s.lessons.List(ctx, userID)
}

// Categories lists the user's categories.
func (s *VocabularyService) Categories(ctx context.Context, userID int64) ([]*entities.Group, error) {
	return s.categories.List(ctx, userID)
}

// DeleteLesson removes a lesson; entries that referenced it stay, unscoped.
func (s *VocabularyService) DeleteLesson(ctx context.Context, userID, id int64) error {
	return s.lessons.Delete(ctx, userID, id)
}

// DeleteCategory removes a category; entries that referenced it stay.
func (s *VocabularyService) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.categories.Delete(ctx, userID, id)
}
