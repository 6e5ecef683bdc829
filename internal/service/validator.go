package service

import (
	"strings"
)

// AnswerValidator compares a trainee's answer with the expected text,
// tolerating case, accents and small typos.
type AnswerValidator struct {
	threshold float64 // Similarity threshold (0.0 - 1.0)
}

// NewAnswerValidator creates a new AnswerValidator.
func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{
		threshold: 0.8, // 80% similarity required
	}
}

// Validate checks if the user's answer matches the correct answer.
func (v *AnswerValidator) Validate(userAnswer, correctAnswer string) bool {
	user := v.normalize(userAnswer)
	correct := v.normalize(correctAnswer)

	if user == correct {
		return true
	}
	if user == "" || correct == "" {
		return false
	}

	// Fuzzy match using Levenshtein distance
	return v.similarity(user, correct) >= v.threshold
}

// normalize normalizes a string for comparison.
func (v *AnswerValidator) normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	s = foldGreek(s)

	// Remove extra whitespace
	s = strings.Join(strings.Fields(s), " ")

	return s
}

// similarity calculates the similarity between two strings using Levenshtein distance.
func (v *AnswerValidator) similarity(s1, s2 string) float64 {
	distance := levenshteinDistance(s1, s2)
	maxLen := max(len([]rune(s1)), len([]rune(s2)))

	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// foldGreek strips accents and diaereses from Greek vowels and folds the
// final sigma, so spelling differences that carry no meaning do not count
// as mistakes. Expects lowercased input.
func foldGreek(s string) string {
	replacements := map[rune]rune{
		'ά': 'α',
		'έ': 'ε',
		'ή': 'η',
		'ί': 'ι',
		'ό': 'ο',
		'ύ': 'υ',
		'ώ': 'ω',
		'ϊ': 'ι',
		'ϋ': 'υ',
		'ΐ': 'ι',
		'ΰ': 'υ',
		'ς': 'σ',
	}

	return strings.Map(func(r rune) rune {
		if folded, ok := replacements[r]; ok {
			return folded
		}
		return r
	}, s)
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	rows := len(r1) + 1
	cols := len(r2) + 1

	// Use two rows instead of the full matrix for space optimization
	prev := make([]int, cols)
	curr := make([]int, cols)

	for j := 0; j < cols; j++ {
		prev[j] = j
	}

	for i := 1; i < rows; i++ {
		curr[0] = i

		for j := 1; j < cols; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[cols-1]
}
