package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/repository"
)

// ErrNothingToTrain signals an empty vocabulary for the requested scope.
var ErrNothingToTrain = errors.New("nothing to train")

type WordRepo interface {
	List(ctx context.Context, userID int64, filter repository.WordFilter) ([]*entities.Word, error)
	Get(ctx context.Context, userID, wordID int64) (*entities.Word, error)
	RecordOutcome(ctx context.Context, userID, wordID int64, success bool) error
}

// TrainerScope optionally narrows a session to one lesson or category.
type TrainerScope struct {
	LessonID   *int64
	CategoryID *int64
}

// Turn is one training prompt: the target-language text is shown and the
// source-language text is the expected answer.
type Turn struct {
	WordID int64
	Prompt string
}

// AnswerResult reports correctness and the counters after recording.
type AnswerResult struct {
	Correct      bool
	Expected     string
	SuccessCount int
	FailureCount int
}

// TrainerService picks the next word to quiz and records the outcome of
// each answer. Selection is stateless: every pick is a fresh weighted draw
// over the counters currently stored.
type TrainerService struct {
	words     WordRepo
	validator *AnswerValidator

	mu  sync.Mutex // rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

func NewTrainerService(words WordRepo) *TrainerService {
	return &TrainerService{
		words:     words,
		validator: NewAnswerValidator(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// selectionWeight biases training toward words answered incorrectly and
// words with little history. A word with no attempts weighs 1.0, the
// maximum, so new words are never shadowed by a long perfect record, and
// the weight never reaches zero, so no word is permanently excluded.
func selectionWeight(w *entities.Word) float64 {
	return float64(w.FailureCount+1) / float64(w.Attempts()+1)
}

// PickNext returns the next word to quiz, weighted random over the user's
// vocabulary in the given scope. Returns ErrNothingToTrain when the scope
// holds no entries.
func (s *TrainerService) PickNext(ctx context.Context, userID int64, scope TrainerScope) (*entities.Word, error) {
	words, err := s.words.List(ctx, userID, repository.WordFilter{
		LessonID:   scope.LessonID,
		CategoryID: scope.CategoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrNothingToTrain
	}

	total := 0.0
	for _, w := range words {
		total += selectionWeight(w)
	}

	s.mu.Lock()
	draw := s.rng.Float64() * total
	s.mu.Unlock()

	for _, w := range words {
		draw -= selectionWeight(w)
		if draw < 0 {
			return w, nil
		}
	}

	return words[len(words)-1], nil
}

// BeginTurn starts one training turn for the user.
func (s *TrainerService) BeginTurn(ctx context.Context, userID int64, scope TrainerScope) (*Turn, error) {
	word, err := s.PickNext(ctx, userID, scope)
	if err != nil {
		return nil, err
	}

	return &Turn{WordID: word.ID, Prompt: word.TargetText}, nil
}

// SubmitAnswer grades the answer against the word's source text, delegates
// the counter write to the record store and returns the updated counts.
func (s *TrainerService) SubmitAnswer(ctx context.Context, userID, wordID int64, answer string) (*AnswerResult, error) {
	word, err := s.words.Get(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}

	correct := s.validator.Validate(answer, word.SourceText)

	if err := s.words.RecordOutcome(ctx, userID, wordID, correct); err != nil {
		return nil, err
	}

	result := &AnswerResult{
		Correct:      correct,
		Expected:     word.SourceText,
		SuccessCount: word.SuccessCount,
		FailureCount: word.FailureCount,
	}
	if correct {
		result.SuccessCount++
	} else {
		result.FailureCount++
	}

	return result, nil
}
