package cipher

import (
	"errors"
	"reflect"
	"testing"
)

func TestAffineEncryptDecrypt(t *testing.T) {
	key := AffineKey{A: 5, B: 8}
	encrypted, err := EncryptAffine("Affine Cipher", key)
	if err != nil {
		t.Fatal(err)
	}
	if encrypted != "IHHWVC SWFRCP" {
		t.Errorf("expected IHHWVC SWFRCP, got %q", encrypted)
	}
	decrypted, err := DecryptAffine(encrypted, key)
	if err != nil {
		t.Fatal(err)
	}
	if decrypted != "AFFINE CIPHER" {
		t.Errorf("expected AFFINE CIPHER, got %q", decrypted)
	}
}

func TestAffineRoundTripAllKeys(t *testing.T) {
	const plaintext = "THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG"
	for a := 0; a < AlphabetSize; a++ {
		for b := 0; b < AlphabetSize; b++ {
			key := AffineKey{A: a, B: b}
			encrypted, err := EncryptAffine(plaintext, key)
			if GCD(a, AlphabetSize) != 1 {
				var invalid *InvalidKeyError
				if !errors.As(err, &invalid) {
					t.Fatalf("a=%d: expected InvalidKeyError, got %v", a, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("a=%d b=%d: %v", a, b, err)
			}
			decrypted, err := DecryptAffine(encrypted, key)
			if err != nil {
				t.Fatalf("a=%d b=%d: %v", a, b, err)
			}
			if decrypted != plaintext {
				t.Fatalf("a=%d b=%d: roundtrip gave %q", a, b, decrypted)
			}
		}
	}
}

func TestAffineKeyValidate(t *testing.T) {
	tests := []struct {
		key   AffineKey
		valid bool
	}{
		{AffineKey{A: 1, B: 0}, true},
		{AffineKey{A: 25, B: 3}, true},
		{AffineKey{A: -1, B: 3}, true},
		{AffineKey{A: 2, B: 3}, false},
		{AffineKey{A: 13, B: 3}, false},
		{AffineKey{A: 0, B: 3}, false},
	}
	for _, tt := range tests {
		err := tt.key.Validate()
		if tt.valid && err != nil {
			t.Errorf("%+v: unexpected error %v", tt.key, err)
		}
		if !tt.valid {
			var invalid *InvalidKeyError
			if !errors.As(err, &invalid) || invalid.Kind() != KindInvalidKey {
				t.Errorf("%+v: expected InvalidKeyError, got %v", tt.key, err)
			}
		}
	}
}

func TestRecoverAffineKey(t *testing.T) {
	// E occurs 8 times and T 5 times, so the E/T guess holds.
	const plaintext = "THE TREE SEES THE STREET"
	key := AffineKey{A: 5, B: 8}
	ciphertext, err := EncryptAffine(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}

	result, err := RecoverAffineKey(ciphertext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Solved {
		t.Fatalf("expected a solution, got message %q", result.Message)
	}
	if *result.Key != key {
		t.Errorf("expected key %+v, got %+v", key, *result.Key)
	}
	if result.Candidates[0] != key {
		t.Errorf("first candidate should be the chosen key, got %+v", result.Candidates[0])
	}
	if result.Plaintext != plaintext {
		t.Errorf("expected %q, got %q", plaintext, result.Plaintext)
	}
	if len(result.CipherLetters) != 2 || letter(result.CipherLetters[0]) != 'C' || letter(result.CipherLetters[1]) != 'Z' {
		t.Errorf("unexpected top cipher letters %v", result.CipherLetters)
	}
}

func TestRecoverAffineKeyCandidatesDistinct(t *testing.T) {
	ciphertext, err := EncryptAffine("THE TREE SEES THE STREET", AffineKey{A: 5, B: 8})
	if err != nil {
		t.Fatal(err)
	}
	result, err := RecoverAffineKey(ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	// Both pairings of one E/T assignment solve the same system.
	want := []AffineKey{{A: 5, B: 8}, {A: 21, B: 19}}
	if !reflect.DeepEqual(result.Candidates, want) {
		t.Errorf("expected candidates %v, got %v", want, result.Candidates)
	}
}

func TestRecoverAffineKeyUnsolvable(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single distinct letter", "AAAA"},
		// C and A differ by an even amount, so every candidate a is even.
		{"no invertible a", "CCCAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RecoverAffineKey(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Solved || result.Key != nil {
				t.Errorf("expected no solution, got %+v", result.Key)
			}
			if result.Message != UnsolvableMessage {
				t.Errorf("expected %q, got %q", UnsolvableMessage, result.Message)
			}
			if len(result.Candidates) != 0 {
				t.Errorf("expected no candidates, got %v", result.Candidates)
			}
		})
	}
}

func TestRecoverAffineKeyEmpty(t *testing.T) {
	_, err := RecoverAffineKey("42")
	var empty *EmptyInputError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyInputError, got %v", err)
	}
}

func TestSolvePairSatisfiesEquations(t *testing.T) {
	for c1 := 0; c1 < AlphabetSize; c1++ {
		for c2 := 0; c2 < AlphabetSize; c2++ {
			if c1 == c2 {
				continue
			}
			key, ok := solvePair(c1, c2, englishTopPair[0], englishTopPair[1])
			if !ok {
				continue
			}
			if mod(key.A*englishTopPair[0]+key.B, AlphabetSize) != c1 {
				t.Errorf("c1=%d c2=%d: %+v does not map E to c1", c1, c2, key)
			}
			if mod(key.A*englishTopPair[1]+key.B, AlphabetSize) != c2 {
				t.Errorf("c1=%d c2=%d: %+v does not map T to c2", c1, c2, key)
			}
		}
	}
}
