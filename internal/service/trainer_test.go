package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
	"github.com/ppodrugin/silver-greek-bot/internal/repository"
)

// stubWordRepo serves a fixed word list and records outcomes in memory.
type stubWordRepo struct {
	words []*entities.Word
}

func (s *stubWordRepo) List(_ context.Context, userID int64, filter repository.WordFilter) ([]*entities.Word, error) {
	var out []*entities.Word
	for _, w := range s.words {
		if w.UserID != userID {
			continue
		}
		if filter.LessonID != nil && (w.LessonID == nil || *w.LessonID != *filter.LessonID) {
			continue
		}
		if filter.CategoryID != nil && (w.CategoryID == nil || *w.CategoryID != *filter.CategoryID) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *stubWordRepo) find(userID, wordID int64) *entities.Word {
	for _, w := range s.words {
		if w.ID == wordID && w.UserID == userID {
			return w
		}
	}
	return nil
}

// Get returns a copy, like a real row scan would.
func (s *stubWordRepo) Get(_ context.Context, userID, wordID int64) (*entities.Word, error) {
	w := s.find(userID, wordID)
	if w == nil {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *stubWordRepo) RecordOutcome(_ context.Context, userID, wordID int64, success bool) error {
	w := s.find(userID, wordID)
	if w == nil {
		return repository.ErrNotFound
	}
	if success {
		w.SuccessCount++
	} else {
		w.FailureCount++
	}
	return nil
}

func testWord(id int64, success, failure int) *entities.Word {
	return &entities.Word{
		ID:           id,
		UserID:       1,
		SourceText:   "λέξη",
		TargetText:   "слово",
		SuccessCount: success,
		FailureCount: failure,
	}
}

func TestSelectionWeight(t *testing.T) {
	testCases := []struct {
		name             string
		success, failure int
		want             float64
	}{
		{"untrained", 0, 0, 1.0},
		{"always wrong", 0, 5, 1.0},
		{"always right", 5, 0, 1.0 / 6.0},
		{"mixed", 3, 1, 2.0 / 5.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := selectionWeight(testWord(1, tc.success, tc.failure))
			if got != tc.want {
				t.Errorf("got weight %v, want %v", got, tc.want)
			}
		})
	}

	// Failing words must outweigh mastered ones, untrained words must match
	// the maximum, and no weight may ever reach zero.
	failing := selectionWeight(testWord(1, 0, 5))
	mastered := selectionWeight(testWord(2, 5, 0))
	untrained := selectionWeight(testWord(3, 0, 0))

	if failing <= mastered {
		t.Errorf("failing word weight %v not above mastered %v", failing, mastered)
	}
	if untrained != failing {
		t.Errorf("untrained weight %v below maximum %v", untrained, failing)
	}
	heavilyMastered := selectionWeight(testWord(4, 1000, 0))
	if heavilyMastered <= 0 {
		t.Errorf("weight reached %v, must stay positive", heavilyMastered)
	}
	if heavilyMastered >= mastered {
		t.Errorf("more attempts at the same ratio should weigh less: %v >= %v", heavilyMastered, mastered)
	}
}

func TestPickNextFavorsFailingWords(t *testing.T) {
	failing := testWord(1, 0, 5)
	mastered := testWord(2, 5, 0)

	s := NewTrainerService(&stubWordRepo{words: []*entities.Word{failing, mastered}})
	s.rng = rand.New(rand.NewSource(1))

	picks := map[int64]int{}
	for i := 0; i < 1000; i++ {
		w, err := s.PickNext(context.Background(), 1, TrainerScope{})
		if err != nil {
			t.Fatalf("PickNext: %v", err)
		}
		picks[w.ID]++
	}

	// Weight 1.0 vs 1/6: the failing word should take roughly 6 of every 7
	// picks. Anything under a 2:1 majority means the weighting is broken.
	if picks[failing.ID] <= 2*picks[mastered.ID] {
		t.Errorf("failing word picked %d times vs %d, want a clear majority", picks[failing.ID], picks[mastered.ID])
	}
	if picks[mastered.ID] == 0 {
		t.Error("mastered word never picked, weights must stay positive")
	}
}

func TestPickNextHonorsScope(t *testing.T) {
	lessonID := int64(9)
	in := testWord(1, 0, 0)
	in.LessonID = &lessonID
	out := testWord(2, 0, 0)

	s := NewTrainerService(&stubWordRepo{words: []*entities.Word{in, out}})
	s.rng = rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		w, err := s.PickNext(context.Background(), 1, TrainerScope{LessonID: &lessonID})
		if err != nil {
			t.Fatalf("PickNext: %v", err)
		}
		if w.ID != in.ID {
			t.Fatalf("picked word %d outside the requested lesson", w.ID)
		}
	}
}

func TestPickNextEmpty(t *testing.T) {
	s := NewTrainerService(&stubWordRepo{})

	_, err := s.PickNext(context.Background(), 1, TrainerScope{})
	if !errors.Is(err, ErrNothingToTrain) {
		t.Fatalf("got %v, want ErrNothingToTrain", err)
	}
}

func TestBeginTurnPromptsTarget(t *testing.T) {
	word := testWord(1, 0, 0)
	s := NewTrainerService(&stubWordRepo{words: []*entities.Word{word}})

	turn, err := s.BeginTurn(context.Background(), 1, TrainerScope{})
	if err != nil {
		t.Fatalf("BeginTurn: %v", err)
	}
	if turn.WordID != word.ID {
		t.Errorf("got word id %d, want %d", turn.WordID, word.ID)
	}
	if turn.Prompt != word.TargetText {
		t.Errorf("got prompt %q, want the translation %q", turn.Prompt, word.TargetText)
	}
}

func TestSubmitAnswer(t *testing.T) {
	testCases := []struct {
		name        string
		answer      string
		wantCorrect bool
	}{
		{"exact", "λέξη", true},
		{"unaccented", "λεξη", true},
		{"wrong", "σπίτι", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			word := testWord(1, 0, 0)
			repo := &stubWordRepo{words: []*entities.Word{word}}
			s := NewTrainerService(repo)

			result, err := s.SubmitAnswer(context.Background(), 1, word.ID, tc.answer)
			if err != nil {
				t.Fatalf("SubmitAnswer: %v", err)
			}
			if result.Correct != tc.wantCorrect {
				t.Errorf("got correct=%v, want %v", result.Correct, tc.wantCorrect)
			}
			if result.Expected != word.SourceText {
				t.Errorf("got expected %q, want %q", result.Expected, word.SourceText)
			}

			wantSuccess, wantFailure := 0, 1
			if tc.wantCorrect {
				wantSuccess, wantFailure = 1, 0
			}
			if word.SuccessCount != wantSuccess || word.FailureCount != wantFailure {
				t.Errorf("counters %d/%d, want %d/%d", word.SuccessCount, word.FailureCount, wantSuccess, wantFailure)
			}
			if result.SuccessCount != wantSuccess || result.FailureCount != wantFailure {
				t.Errorf("result counters %d/%d, want %d/%d", result.SuccessCount, result.FailureCount, wantSuccess, wantFailure)
			}
		})
	}
}

func TestSubmitAnswerUnknownWord(t *testing.T) {
	s := NewTrainerService(&stubWordRepo{})

	_, err := s.SubmitAnswer(context.Background(), 1, 404, "anything")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
