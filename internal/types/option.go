package types

import "strings"

// ConceptCount is the number of concepts every refinement must carry.
const ConceptCount = 4

// OptionLetters are the selectable letters, in positional order.
var OptionLetters = [ConceptCount]string{"A", "B", "C", "D"}

// ValidOptionLetter reports whether s is exactly one of A..D.
func ValidOptionLetter(s string) bool {
	return OptionIndex(s) >= 0
}

// OptionIndex returns the positional index of letter, or -1.
func OptionIndex(letter string) int {
	for i, l := range OptionLetters {
		if l == letter {
			return i
		}
	}
	return -1
}

// OptionLetterAt returns the letter for a zero-based position, or "" when
// the position is outside A..D.
func OptionLetterAt(i int) string {
	if i < 0 || i >= ConceptCount {
		return ""
	}
	return OptionLetters[i]
}

// ConceptID derives the stable concept identifier for a letter.
func ConceptID(letter string) string {
	return "option_" + strings.ToLower(letter)
}
