package cipher

// CaesarCandidate pairs a shift with the text it decrypts to.
type CaesarCandidate struct {
	Key       int    `json:"key"`
	Plaintext string `json:"plaintext"`
}

// BruteForceCaesar decrypts ciphertext under every shift 0..25, in ascending
// order. No candidate is ranked; picking the right one is left to the caller.
func BruteForceCaesar(ciphertext string) []CaesarCandidate {
	out := make([]CaesarCandidate, 0, AlphabetSize)
	for key := 0; key < AlphabetSize; key++ {
		out = append(out, CaesarCandidate{Key: key, Plaintext: DecryptCaesar(ciphertext, key)})
	}
	return out
}

// DecryptCaesar subtracts key from every letter. Letters come back uppercase.
func DecryptCaesar(ciphertext string, key int) string {
	return mapLetters(ciphertext, func(idx int) int { return idx - key })
}

// EncryptCaesar adds key to every letter.
func EncryptCaesar(plaintext string, key int) string {
	return mapLetters(plaintext, func(idx int) int { return idx + key })
}
