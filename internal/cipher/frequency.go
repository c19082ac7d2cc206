package cipher

import "sort"

// LetterFrequency is one row of a frequency table.
type LetterFrequency struct {
	Letter  string  `json:"letter"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FrequencyTable is the per-letter occurrence distribution of a text.
type FrequencyTable struct {
	Total  int
	Counts [AlphabetSize]int
	// order holds letter indices in the order they were first seen.
	order []int
}

// AnalyzeFrequency counts the letters of text, case-insensitively.
func AnalyzeFrequency(text string) (*FrequencyTable, error) {
	table := &FrequencyTable{}
	for _, idx := range Letters(text) {
		if table.Counts[idx] == 0 {
			table.order = append(table.order, idx)
		}
		table.Counts[idx]++
		table.Total++
	}
	if table.Total == 0 {
		return nil, &EmptyInputError{Input: text}
	}
	return table, nil
}

// Percent returns the share of letter idx in the alphabetic total.
func (t *FrequencyTable) Percent(idx int) float64 {
	if t == nil || t.Total == 0 {
		return 0
	}
	return float64(t.Counts[mod(idx, AlphabetSize)]) / float64(t.Total) * 100
}

// Entries lists the letters present, in alphabet order.
func (t *FrequencyTable) Entries() []LetterFrequency {
	if t == nil {
		return nil
	}
	out := make([]LetterFrequency, 0, len(t.order))
	for idx, count := range t.Counts {
		if count == 0 {
			continue
		}
		out = append(out, LetterFrequency{
			Letter:  string(letter(idx)),
			Count:   count,
			Percent: t.Percent(idx),
		})
	}
	return out
}

// Map returns letter -> percentage for the letters present.
func (t *FrequencyTable) Map() map[string]float64 {
	entries := t.Entries()
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.Letter] = e.Percent
	}
	return out
}

// MostCommon returns up to n letter indices by descending count. Equal counts
// keep the order in which the letters were first encountered.
func (t *FrequencyTable) MostCommon(n int) []int {
	if t == nil || n <= 0 {
		return nil
	}
	ranked := make([]int, len(t.order))
	copy(ranked, t.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.Counts[ranked[i]] > t.Counts[ranked[j]]
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
