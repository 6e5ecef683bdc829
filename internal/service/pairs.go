package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits on one bulk submission.
const (
	maxSubmissionLen = 4096 // runes of raw text
	maxSideLen       = 500  // runes per word or translation
	maxPairsPerBatch = 100
)

var (
	ErrSubmissionTooLong = errors.New("submission text too long")
	ErrTooManyPairs      = errors.New("too many pairs in one submission")
)

// Pair is one parsed source/target submission.
type Pair struct {
	Source string
	Target string
}

// ParsePairs extracts word pairs from free-form text. Two layouts are
// accepted: CSV ("word,translation" per line) and multiline pairs separated
// by blank lines. The layout is sniffed from the first non-blank lines.
// When reversed is true the textual order is "translation, word" and the
// sides are swapped back. Unparseable lines are reported as problems, not
// errors, so one bad line never sinks a batch.
func ParsePairs(text string, reversed bool) ([]Pair, []string, error) {
	if utf8.RuneCountInString(text) > maxSubmissionLen {
		return nil, nil, ErrSubmissionTooLong
	}

	var (
		pairs    []Pair
		problems []string
	)

	if isCSVFormat(text) {
		pairs, problems = parseCSV(text)
	} else {
		pairs, problems = parseMultiline(text)
	}

	if len(pairs) > maxPairsPerBatch {
		return nil, nil, ErrTooManyPairs
	}

	if reversed {
		for i := range pairs {
			pairs[i].Source, pairs[i].Target = pairs[i].Target, pairs[i].Source
		}
	}

	return pairs, problems, nil
}

// isCSVFormat checks the first few non-blank lines: if most of them contain
// exactly one comma, the submission is treated as CSV.
func isCSVFormat(text string) bool {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
		if len(lines) == 5 {
			break
		}
	}
	if len(lines) == 0 {
		return false
	}

	csvLines := 0
	for _, line := range lines {
		if strings.Count(line, ",") == 1 {
			csvLines++
		}
	}

	return float64(csvLines) >= float64(len(lines))*0.6
}

func parseCSV(text string) (pairs []Pair, problems []string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, ",") {
			continue
		}

		left, right, _ := strings.Cut(line, ",")
		pair, problem := makePair(left, right, line)
		if problem != "" {
			problems = append(problems, problem)
			continue
		}
		pairs = append(pairs, pair)
	}

	return pairs, problems
}

// parseMultiline reads pairs as "word" on one line and "translation" on the
// next non-blank line. A trailing word without a translation is dropped.
func parseMultiline(text string) (pairs []Pair, problems []string) {
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); {
		word := strings.TrimSpace(lines[i])
		if word == "" {
			i++
			continue
		}

		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			break
		}

		translation := strings.TrimSpace(lines[i])
		i++

		pair, problem := makePair(word, translation, word)
		if problem != "" {
			problems = append(problems, problem)
			continue
		}
		pairs = append(pairs, pair)
	}

	return pairs, problems
}

func makePair(left, right, context string) (Pair, string) {
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)

	if left == "" || right == "" {
		return Pair{}, fmt.Sprintf("empty side in %q", context)
	}
	if utf8.RuneCountInString(left) > maxSideLen || utf8.RuneCountInString(right) > maxSideLen {
		return Pair{}, fmt.Sprintf("side too long in %q", context)
	}

	return Pair{Source: left, Target: right}, ""
}
