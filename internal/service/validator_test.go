package service

import "testing"

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		answer  string
		correct string
		want    bool
	}{
		{"exact match", "καλημέρα", "καλημέρα", true},
		{"case insensitive", "ΚΑΛΗΜΕΡΑ", "καλημέρα", true},
		{"missing accents", "καλημερα", "καλημέρα", true},
		{"extra whitespace", "  καλή   όρεξη ", "καλή όρεξη", true},
		{"final sigma folded", "άνθρωποσ", "άνθρωπος", true},
		{"diaeresis folded", "προϊόν", "προιον", true},
		{"one typo in long word", "θαλασα", "θάλασσα", true},
		{"different word", "σπίτι", "νερό", false},
		{"too many typos", "καμηλα", "καλημέρα", false},
		{"empty answer", "", "νερό", false},
		{"whitespace only", "   ", "νερό", false},
	}

	v := NewAnswerValidator()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.Validate(tc.answer, tc.correct); got != tc.want {
				t.Errorf("Validate(%q, %q) = %v, want %v", tc.answer, tc.correct, got, tc.want)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"νερό", "νερό", 0},
		{"γάτα", "γάλα", 1},
	}

	for _, tc := range testCases {
		if got := levenshteinDistance(tc.s1, tc.s2); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.s1, tc.s2, got, tc.want)
		}
	}
}
