package cipher

import "strings"

// DecryptVigenere subtracts the repeating key from the ciphertext letters.
//
// The key index advances on every character, letters or not, so "A B" under
// key "XY" uses X for A and Y is consumed by the space. Callers used to
// letter-only keystreams should strip non-letters first.
func DecryptVigenere(ciphertext, key string) (string, error) {
	shifts, err := vigenereKey(key)
	if err != nil {
		return "", err
	}
	return applyVigenere(ciphertext, shifts, -1), nil
}

// EncryptVigenere adds the repeating key to the plaintext letters, with the
// same key index rules as DecryptVigenere.
func EncryptVigenere(plaintext, key string) (string, error) {
	shifts, err := vigenereKey(key)
	if err != nil {
		return "", err
	}
	return applyVigenere(plaintext, shifts, 1), nil
}

func vigenereKey(key string) ([]int, error) {
	if key == "" {
		return nil, &InvalidKeyError{Cipher: "vigenere", Key: key, Reason: "key must not be empty"}
	}
	shifts := make([]int, 0, len(key))
	for _, r := range key {
		sym := Classify(r)
		if !sym.IsLetter() {
			return nil, &InvalidKeyError{Cipher: "vigenere", Key: key, Reason: "key must contain only letters A-Z"}
		}
		shifts = append(shifts, sym.Index)
	}
	return shifts, nil
}

func applyVigenere(text string, shifts []int, sign int) string {
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for _, r := range text {
		sym := Classify(r)
		if sym.IsLetter() {
			b.WriteRune(letter(sym.Index + sign*shifts[i%len(shifts)]))
		} else {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}
