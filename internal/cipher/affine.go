package cipher

import (
	"fmt"
	"slices"
)

// UnsolvableMessage is reported when no affine key fits the frequency guess.
const UnsolvableMessage = "Unable to solve for a and b."

// englishTopPair lists the two most frequent English letters, E then T.
var englishTopPair = [2]int{'E' - 'A', 'T' - 'A'}

// AffineKey is the pair (a,b) of c = a*p + b (mod 26).
type AffineKey struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Validate checks that A is invertible modulo 26.
func (k AffineKey) Validate() error {
	if GCD(mod(k.A, AlphabetSize), AlphabetSize) != 1 {
		return &InvalidKeyError{
			Cipher: "affine",
			Key:    fmt.Sprintf("a=%d,b=%d", k.A, k.B),
			Reason: fmt.Sprintf("a must be coprime with %d", AlphabetSize),
		}
	}
	return nil
}

// AffineResult is the outcome of frequency-based affine key recovery.
type AffineResult struct {
	Frequencies *FrequencyTable
	// CipherLetters are the most frequent ciphertext letters used for the guess.
	CipherLetters []int
	// Candidates holds every distinct valid key in discovery order.
	Candidates []AffineKey
	Key        *AffineKey
	Solved     bool
	Message    string
	Plaintext  string
}

// RecoverAffineKey assumes the two most frequent ciphertext letters are the
// images of E and T, solves for (a,b), and decrypts with the first valid
// solution found. Candidates are tried with the plaintext pair as [E,T] then
// [T,E]; the first hit is used even when later ones exist.
func RecoverAffineKey(ciphertext string) (*AffineResult, error) {
	table, err := AnalyzeFrequency(ciphertext)
	if err != nil {
		return nil, err
	}

	result := &AffineResult{
		Frequencies:   table,
		CipherLetters: table.MostCommon(2),
	}
	if len(result.CipherLetters) == 2 {
		result.Candidates = solveAffine(result.CipherLetters)
	}
	if len(result.Candidates) == 0 {
		result.Message = UnsolvableMessage
		return result, nil
	}

	key := result.Candidates[0]
	plaintext, err := DecryptAffine(ciphertext, key)
	if err != nil {
		return nil, err
	}
	result.Key = &key
	result.Solved = true
	result.Plaintext = plaintext
	return result, nil
}

func solveAffine(cipherLetters []int) []AffineKey {
	orderings := [][2]int{
		{englishTopPair[0], englishTopPair[1]},
		{englishTopPair[1], englishTopPair[0]},
	}
	var out []AffineKey
	for _, plain := range orderings {
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				if i == j {
					continue
				}
				key, ok := solvePair(cipherLetters[i], cipherLetters[j], plain[i], plain[j])
				if ok && !slices.Contains(out, key) {
					out = append(out, key)
				}
			}
		}
	}
	return out
}

// solvePair solves c1 = a*p1 + b, c2 = a*p2 + b (mod 26).
func solvePair(c1, c2, p1, p2 int) (AffineKey, bool) {
	det := p1 - p2
	if mod(det, AlphabetSize) == 0 {
		return AffineKey{}, false
	}
	detInv, err := ModInverse(det, AlphabetSize)
	if err != nil {
		return AffineKey{}, false
	}
	a := mod(detInv*(c1-c2), AlphabetSize)
	b := mod(c1-a*p1, AlphabetSize)
	if GCD(a, AlphabetSize) != 1 {
		return AffineKey{}, false
	}
	return AffineKey{A: a, B: b}, true
}

// DecryptAffine maps every letter c to a^-1 * (c - b) mod 26.
func DecryptAffine(ciphertext string, key AffineKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	inv, err := ModInverse(key.A, AlphabetSize)
	if err != nil {
		return "", err
	}
	return mapLetters(ciphertext, func(idx int) int { return inv * (idx - key.B) }), nil
}

// EncryptAffine maps every letter p to a*p + b mod 26.
func EncryptAffine(plaintext string, key AffineKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	return mapLetters(plaintext, func(idx int) int { return key.A*idx + key.B }), nil
}
