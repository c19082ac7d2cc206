package cipher

import "math"

// EnglishFrequencies holds reference single-letter percentages for English,
// indexed A..Z. Every entry is non-zero so expected counts never divide by zero.
var EnglishFrequencies = [AlphabetSize]float64{
	8.2, 1.5, 2.8, 4.3, 12.7, 2.2, 2.0, 6.1, 7.0, 0.2, 0.8, 4.0, 2.4, // A-M
	6.7, 7.5, 1.9, 0.1, 6.0, 6.3, 9.1, 2.8, 1.0, 2.4, 0.2, 2.0, 0.1, // N-Z
}

// ShiftResult is the outcome of chi-square shift detection.
type ShiftResult struct {
	Frequencies *FrequencyTable
	Shift       int
	ChiSquare   float64
	// Scores holds the statistic for every shift, indexed by shift.
	Scores    [AlphabetSize]float64
	Plaintext string
}

// DetectShift picks the Caesar shift whose decryption best fits English
// letter frequencies and decrypts ciphertext with it. The smallest statistic
// wins; on a tie the lowest shift is kept.
func DetectShift(ciphertext string) (*ShiftResult, error) {
	table, err := AnalyzeFrequency(ciphertext)
	if err != nil {
		return nil, err
	}

	result := &ShiftResult{Frequencies: table, ChiSquare: math.Inf(1)}
	for shift := 0; shift < AlphabetSize; shift++ {
		score := chiSquare(table, shift)
		result.Scores[shift] = score
		if score < result.ChiSquare {
			result.ChiSquare = score
			result.Shift = shift
		}
	}
	result.Plaintext = DecryptCaesar(ciphertext, result.Shift)
	return result, nil
}

// chiSquare compares the table, read as if shifted by shift, against the
// English reference distribution.
func chiSquare(table *FrequencyTable, shift int) float64 {
	total := float64(table.Total)
	var sum float64
	for plain, pct := range EnglishFrequencies {
		observed := table.Percent(plain+shift) * total / 100
		expected := total * pct / 100
		diff := observed - expected
		sum += diff * diff / expected
	}
	return sum
}
