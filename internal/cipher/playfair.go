package cipher

import "strings"

const squareSide = 5

// KeySquare is a 5x5 Playfair grid holding every letter except J once.
type KeySquare struct {
	grid [squareSide][squareSide]rune
	pos  map[rune][2]int
}

// NewKeySquare builds the grid row by row from the letters of phrase
// (uppercased, J folded into I, repeats dropped) followed by the unused
// letters in alphabet order. Non-letters in the phrase are ignored.
func NewKeySquare(phrase string) *KeySquare {
	sq := &KeySquare{pos: make(map[rune][2]int, squareSide*squareSide)}
	n := 0
	place := func(r rune) {
		if _, ok := sq.pos[r]; ok {
			return
		}
		row, col := n/squareSide, n%squareSide
		sq.grid[row][col] = r
		sq.pos[r] = [2]int{row, col}
		n++
	}
	for _, idx := range Letters(phrase) {
		r := letter(idx)
		if r == 'J' {
			r = 'I'
		}
		place(r)
	}
	for r := 'A'; r <= 'Z'; r++ {
		if r != 'J' {
			place(r)
		}
	}
	return sq
}

// String renders the grid as five lines of five letters.
func (sq *KeySquare) String() string {
	var b strings.Builder
	for row := 0; row < squareSide; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(sq.grid[row][:]))
	}
	return b.String()
}

// Rows returns the grid as five strings.
func (sq *KeySquare) Rows() []string {
	out := make([]string, squareSide)
	for row := range out {
		out[row] = string(sq.grid[row][:])
	}
	return out
}

func (sq *KeySquare) at(row, col int) rune {
	return sq.grid[mod(row, squareSide)][mod(col, squareSide)]
}

// DecryptPlayfair decrypts ciphertext that is already laid out as digraphs.
// No padding is stripped and no repeated-letter splitting is undone. A literal
// J is not mapped to I, so it fails the grid lookup.
func DecryptPlayfair(ciphertext, key string) (string, error) {
	return playfair(ciphertext, key, -1)
}

// EncryptPlayfair encrypts text already laid out as digraphs with no
// adjacent-equal letters in a pair; it does not insert padding.
func EncryptPlayfair(plaintext, key string) (string, error) {
	return playfair(plaintext, key, 1)
}

func playfair(text, key string, step int) (string, error) {
	runes := []rune(text)
	if len(runes)%2 != 0 {
		return "", &PairingError{Input: text, Length: len(runes)}
	}
	sq := NewKeySquare(key)

	locate := func(i int) ([2]int, error) {
		r := runes[i]
		if sym := Classify(r); sym.IsLetter() {
			r = letter(sym.Index)
		}
		p, ok := sq.pos[r]
		if !ok {
			return [2]int{}, &GridLookupError{Char: runes[i], Position: i, Input: text}
		}
		return p, nil
	}

	var b strings.Builder
	b.Grow(len(runes))
	for i := 0; i < len(runes); i += 2 {
		p1, err := locate(i)
		if err != nil {
			return "", err
		}
		p2, err := locate(i + 1)
		if err != nil {
			return "", err
		}
		switch {
		case p1[0] == p2[0]:
			b.WriteRune(sq.at(p1[0], p1[1]+step))
			b.WriteRune(sq.at(p2[0], p2[1]+step))
		case p1[1] == p2[1]:
			b.WriteRune(sq.at(p1[0]+step, p1[1]))
			b.WriteRune(sq.at(p2[0]+step, p2[1]))
		default:
			b.WriteRune(sq.at(p1[0], p2[1]))
			b.WriteRune(sq.at(p2[0], p1[1]))
		}
	}
	return b.String(), nil
}
