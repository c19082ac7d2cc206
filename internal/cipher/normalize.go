package cipher

import "strings"

// Class tags a ciphertext character as a Latin letter or anything else.
type Class uint8

const (
	ClassOther Class = iota
	ClassLetter
)

// Symbol is a classified ciphertext character. Index is the 0-25 alphabet
// position and is only meaningful for letters.
type Symbol struct {
	Raw   rune
	Class Class
	Index int
}

// IsLetter reports whether the symbol is an A-Z letter in either case.
func (s Symbol) IsLetter() bool { return s.Class == ClassLetter }

// Classify folds ASCII letters to their alphabet index. Every other rune,
// including non-Latin letters, is Other.
func Classify(r rune) Symbol {
	switch {
	case r >= 'A' && r <= 'Z':
		return Symbol{Raw: r, Class: ClassLetter, Index: int(r - 'A')}
	case r >= 'a' && r <= 'z':
		return Symbol{Raw: r, Class: ClassLetter, Index: int(r - 'a')}
	default:
		return Symbol{Raw: r, Class: ClassOther}
	}
}

// Normalize classifies every rune of text in order.
func Normalize(text string) []Symbol {
	out := make([]Symbol, 0, len(text))
	for _, r := range text {
		out = append(out, Classify(r))
	}
	return out
}

// Letters returns the alphabet indices of the letters in text, dropping
// everything else.
func Letters(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		if sym := Classify(r); sym.IsLetter() {
			out = append(out, sym.Index)
		}
	}
	return out
}

func letter(idx int) rune {
	return rune('A' + mod(idx, AlphabetSize))
}

// mapLetters rewrites each letter with fn (given its index) and copies every
// other character through unchanged. Output letters are uppercase.
func mapLetters(text string, fn func(idx int) int) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		sym := Classify(r)
		if !sym.IsLetter() {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(letter(fn(sym.Index)))
	}
	return b.String()
}
