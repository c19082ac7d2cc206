package cipher

import (
	"errors"
	"strings"
	"testing"
)

const declaration = "When in the course of human events it becomes necessary for one people " +
	"to dissolve the political bands which have connected them with another and to " +
	"assume among the powers of the earth the separate and equal station to which the " +
	"laws of nature and of natures god entitle them a decent respect to the opinions " +
	"of mankind requires that they should declare the causes which impel them to the separation"

func TestCaesarDecrypt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		key      int
		expected string
	}{
		{"classic", "KHOOR ZRUOG", 3, "HELLO WORLD"},
		{"lowercase is uppercased", "khoor", 3, "HELLO"},
		{"wraps around", "ABC", 1, "ZAB"},
		{"negative key", "HELLO", -3, "KHOOR"},
		{"key above modulus", "KHOOR", 29, "HELLO"},
		{"punctuation preserved", "Khoor, Zruog!", 3, "HELLO, WORLD!"},
		{"non-ascii passes through", "É B", 1, "É A"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecryptCaesar(tt.input, tt.key); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCaesarRoundTrip(t *testing.T) {
	for key := -30; key <= 30; key++ {
		encrypted := EncryptCaesar("Attack at dawn, 0600.", key)
		if got := DecryptCaesar(encrypted, key); got != "ATTACK AT DAWN, 0600." {
			t.Fatalf("key %d: roundtrip gave %q", key, got)
		}
	}
}

func TestBruteForceCaesar(t *testing.T) {
	candidates := BruteForceCaesar("KHOOR ZRUOG")
	if len(candidates) != AlphabetSize {
		t.Fatalf("expected %d candidates, got %d", AlphabetSize, len(candidates))
	}
	for i, c := range candidates {
		if c.Key != i {
			t.Errorf("candidate %d has key %d", i, c.Key)
		}
	}
	if candidates[0].Plaintext != "KHOOR ZRUOG" {
		t.Errorf("key 0 should be the identity, got %q", candidates[0].Plaintext)
	}
	if candidates[3].Plaintext != "HELLO WORLD" {
		t.Errorf("key 3: expected HELLO WORLD, got %q", candidates[3].Plaintext)
	}
}

func TestBruteForceCaesarContainsEveryKey(t *testing.T) {
	const plaintext = "THE QUICK BROWN FOX, 1999!"
	for key := 0; key < AlphabetSize; key++ {
		candidates := BruteForceCaesar(EncryptCaesar(plaintext, key))
		if got := candidates[key]; got.Key != key || got.Plaintext != plaintext {
			t.Errorf("key %d: candidate is %+v", key, got)
		}
	}
}

func TestDetectShiftTieKeepsLowestShift(t *testing.T) {
	result, err := DetectShift("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if err != nil {
		t.Fatal(err)
	}
	for shift, score := range result.Scores {
		if score != result.Scores[0] {
			t.Fatalf("shift %d scored %f, expected every shift to tie at %f", shift, score, result.Scores[0])
		}
	}
	if result.Shift != 0 {
		t.Errorf("expected the lowest shift to win the tie, got %d", result.Shift)
	}
	if result.Plaintext != "ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		t.Errorf("unexpected plaintext %q", result.Plaintext)
	}
}

func TestDetectShift(t *testing.T) {
	for _, key := range []int{0, 3, 7, 13, 25} {
		ciphertext := EncryptCaesar(declaration, key)
		result, err := DetectShift(ciphertext)
		if err != nil {
			t.Fatalf("key %d: %v", key, err)
		}
		if result.Shift != key {
			t.Errorf("key %d: detected shift %d", key, result.Shift)
		}
		if result.Plaintext != strings.ToUpper(declaration) {
			t.Errorf("key %d: unexpected plaintext %q", key, result.Plaintext)
		}
		for shift, score := range result.Scores {
			if score < result.ChiSquare {
				t.Errorf("key %d: shift %d scored %f below the minimum %f", key, shift, score, result.ChiSquare)
			}
		}
	}
}

func TestDetectShiftEmptyInput(t *testing.T) {
	_, err := DetectShift("1234 !?")
	var empty *EmptyInputError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyInputError, got %v", err)
	}
	if empty.Kind() != KindEmptyInput {
		t.Errorf("unexpected kind %q", empty.Kind())
	}
}

func TestChiSquareMatchesDefinition(t *testing.T) {
	table, err := AnalyzeFrequency("AABZ")
	if err != nil {
		t.Fatal(err)
	}
	// shift 1 reads B as A, so observed(A)=1, observed(Z)=2 and observed(Y)=1.
	var want float64
	for l, pct := range EnglishFrequencies {
		expected := 4 * pct / 100
		var observed float64
		switch l {
		case 0:
			observed = 1
		case 24:
			observed = 1
		case 25:
			observed = 2
		}
		want += (observed - expected) * (observed - expected) / expected
	}
	got := chiSquare(table, 1)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}
