package cipher

import "sort"

const trigramLen = 3

// TrigramRepeat records a trigram that occurs more than once.
type TrigramRepeat struct {
	Trigram   string `json:"trigram"`
	Positions []int  `json:"positions"`
	Distances []int  `json:"distances"`
}

// KasiskiResult holds the candidate key lengths of a Kasiski examination.
type KasiskiResult struct {
	KeyLengths []int
	Repeats    []TrigramRepeat
	// NoRepeats is set when the text is too short or no trigram repeats.
	NoRepeats bool
}

// ExamineKasiski proposes polyalphabetic key lengths from the distances
// between repeated trigrams of the letters in ciphertext. Candidates are the
// gcds of every pair of distances that are greater than one, sorted.
//
// The pairwise step is quadratic in the number of distances, which can be
// large for long, highly repetitive texts.
func ExamineKasiski(ciphertext string) *KasiskiResult {
	letters := Letters(ciphertext)
	result := &KasiskiResult{}
	if len(letters) < trigramLen {
		result.NoRepeats = true
		return result
	}

	positions := make(map[string][]int)
	var seen []string
	for i := 0; i+trigramLen <= len(letters); i++ {
		tri := string([]rune{letter(letters[i]), letter(letters[i+1]), letter(letters[i+2])})
		if _, ok := positions[tri]; !ok {
			seen = append(seen, tri)
		}
		positions[tri] = append(positions[tri], i)
	}

	var distances []int
	for _, tri := range seen {
		idx := positions[tri]
		if len(idx) < 2 {
			continue
		}
		repeat := TrigramRepeat{Trigram: tri, Positions: idx}
		for k := 1; k < len(idx); k++ {
			repeat.Distances = append(repeat.Distances, idx[k]-idx[k-1])
		}
		distances = append(distances, repeat.Distances...)
		result.Repeats = append(result.Repeats, repeat)
	}
	if len(result.Repeats) == 0 {
		result.NoRepeats = true
		return result
	}

	lengths := make(map[int]struct{})
	for i := 0; i < len(distances); i++ {
		for j := i + 1; j < len(distances); j++ {
			if g := GCD(distances[i], distances[j]); g > 1 {
				lengths[g] = struct{}{}
			}
		}
	}
	result.KeyLengths = make([]int, 0, len(lengths))
	for g := range lengths {
		result.KeyLengths = append(result.KeyLengths, g)
	}
	sort.Ints(result.KeyLengths)
	return result
}
