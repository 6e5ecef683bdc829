package entities

import "time"

// Word is a single source/target vocabulary pair belonging to one user,
// together with its training counters. The counters are only ever mutated
// through the record store, one atomic increment per quiz outcome.
type Word struct {
	ID           int64
	UserID       int64
	SourceText   string
	TargetText   string
	SuccessCount int
	FailureCount int
	LessonID     *int64
	CategoryID   *int64
	CreatedAt    time.Time
}

func NewWord(userID int64, source, target string, lessonID, categoryID *int64) *Word {
	return &Word{
		UserID:     userID,
		SourceText: source,
		TargetText: target,
		LessonID:   lessonID,
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
	}
}

// Attempts returns the total number of recorded training outcomes.
func (w *Word) Attempts() int {
	return w.SuccessCount + w.FailureCount
}
