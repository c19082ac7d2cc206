package cipher

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExamineKasiski(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		keyLengths []int
		repeats    int
		noRepeats  bool
	}{
		{"stride of five", "ABCXXABCYYABC", []int{5}, 1, false},
		{"letters only", "abc xx abc, yy abc!", []int{5}, 1, false},
		{"distances six and nine", "ABCXYZABCQRSTUVABC", []int{3}, 1, false},
		{"single distance", "ABCXABC", []int{}, 1, false},
		{"no repeats", "ABCDEFG", nil, 0, true},
		{"too short", "AB", nil, 0, true},
		{"empty", "", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExamineKasiski(tt.input)
			if result.NoRepeats != tt.noRepeats {
				t.Errorf("expected NoRepeats=%v, got %v", tt.noRepeats, result.NoRepeats)
			}
			if len(result.Repeats) != tt.repeats {
				t.Errorf("expected %d repeats, got %d", tt.repeats, len(result.Repeats))
			}
			if len(result.KeyLengths) != len(tt.keyLengths) || (len(tt.keyLengths) > 0 && !reflect.DeepEqual(result.KeyLengths, tt.keyLengths)) {
				t.Errorf("expected key lengths %v, got %v", tt.keyLengths, result.KeyLengths)
			}
		})
	}
}

func TestExamineKasiskiRepeatDetail(t *testing.T) {
	result := ExamineKasiski("ABCXXABCYYABC")
	want := TrigramRepeat{Trigram: "ABC", Positions: []int{0, 5, 10}, Distances: []int{5, 5}}
	if !reflect.DeepEqual(result.Repeats[0], want) {
		t.Errorf("expected %+v, got %+v", want, result.Repeats[0])
	}
}

func TestVigenere(t *testing.T) {
	tests := []struct {
		name       string
		ciphertext string
		key        string
		plaintext  string
	}{
		{"classic", "LXFOPVEFRNHR", "LEMON", "ATTACKATDAWN"},
		{"lowercase key and text", "lxfopvefrnhr", "lemon", "ATTACKATDAWN"},
		{"key index advances on spaces", "X Y", "XY", "A B"},
		{"key A is identity", "Hello, World", "A", "HELLO, WORLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecryptVigenere(tt.ciphertext, tt.key)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("decrypt: expected %q, got %q", tt.plaintext, got)
			}
		})
	}
}

func TestVigenereRoundTrip(t *testing.T) {
	const plaintext = "WE ARE DISCOVERED, FLEE AT ONCE"
	for _, key := range []string{"A", "KEY", "lemon", "Zebra"} {
		encrypted, err := EncryptVigenere(plaintext, key)
		if err != nil {
			t.Fatalf("key %q: %v", key, err)
		}
		decrypted, err := DecryptVigenere(encrypted, key)
		if err != nil {
			t.Fatalf("key %q: %v", key, err)
		}
		if decrypted != plaintext {
			t.Errorf("key %q: roundtrip gave %q", key, decrypted)
		}
	}
}

func TestVigenereInvalidKey(t *testing.T) {
	for _, key := range []string{"", "KEY1", "TWO WORDS", "ÉTÉ"} {
		_, err := DecryptVigenere("ABC", key)
		var invalid *InvalidKeyError
		if !errors.As(err, &invalid) {
			t.Errorf("key %q: expected InvalidKeyError, got %v", key, err)
		}
	}
}

func TestNewKeySquare(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		rows   []string
	}{
		{"wikipedia example", "PLAYFAIR EXAMPLE", []string{"PLAYF", "IREXM", "BCDGH", "KNOQS", "TUVWZ"}},
		{"empty phrase", "", []string{"ABCDE", "FGHIK", "LMNOP", "QRSTU", "VWXYZ"}},
		{"j folds into i", "jam", []string{"IAMBC", "DEFGH", "KLNOP", "QRSTU", "VWXYZ"}},
		{"non-letters ignored", "k-e y!", []string{"KEYAB", "CDFGH", "ILMNO", "PQRST", "UVWXZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sq := NewKeySquare(tt.phrase)
			if got := sq.Rows(); !reflect.DeepEqual(got, tt.rows) {
				t.Errorf("expected %v, got %v", tt.rows, got)
			}
		})
	}
}

func TestPlayfair(t *testing.T) {
	const (
		key        = "PLAYFAIR EXAMPLE"
		plaintext  = "HIDETHEGOLDINTHETREXESTUMP"
		ciphertext = "BMODZBXDNABEKUDMUIXMMOUVIF"
	)

	encrypted, err := EncryptPlayfair(plaintext, key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted != ciphertext {
		t.Errorf("encrypt: expected %s, got %s", ciphertext, encrypted)
	}

	decrypted, err := DecryptPlayfair(ciphertext, key)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("decrypt: expected %s, got %s", plaintext, decrypted)
	}

	lower, err := DecryptPlayfair("bmod", key)
	if err != nil {
		t.Fatalf("lowercase decrypt failed: %v", err)
	}
	if lower != "HIDE" {
		t.Errorf("expected HIDE, got %s", lower)
	}
}

func TestPlayfairDigraphRules(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		plaintext string
		expected  string
	}{
		{"same row wraps right", "PLAYFAIR EXAMPLE", "FP", "PL"},
		{"same column wraps down", "PLAYFAIR EXAMPLE", "TP", "PI"},
		{"rectangle swaps columns", "PLAYFAIR EXAMPLE", "HI", "BM"},
		{"same row wraps right, other key", "MONARCHY", "RM", "MO"},
		{"same column wraps down, other key", "MONARCHY", "UM", "MC"},
		{"mixed digraphs", "MONARCHY", "instrumentsz", "GATLMZCLRQTX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := EncryptPlayfair(tt.plaintext, tt.key)
			if err != nil {
				t.Fatalf("encrypt failed: %v", err)
			}
			if encrypted != tt.expected {
				t.Errorf("encrypt: expected %s, got %s", tt.expected, encrypted)
			}
			decrypted, err := DecryptPlayfair(encrypted, tt.key)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}
			if decrypted != strings.ToUpper(tt.plaintext) {
				t.Errorf("roundtrip: expected %s, got %s", strings.ToUpper(tt.plaintext), decrypted)
			}
		})
	}
}

func TestPlayfairRoundTrip(t *testing.T) {
	keys := []string{"", "PLAYFAIR EXAMPLE", "MONARCHY", "keyword", "The Quick Brown Fox"}
	texts := []string{"HIDETHEGOLDINTHETREXESTUMP", "ATTACKATDAWN", "ZYXWVUTSRQPONMLKIHGFEDCBAZ", "QUIZ"}

	for _, key := range keys {
		for _, text := range texts {
			encrypted, err := EncryptPlayfair(text, key)
			if err != nil {
				t.Fatalf("key %q text %s: encrypt failed: %v", key, text, err)
			}
			decrypted, err := DecryptPlayfair(encrypted, key)
			if err != nil {
				t.Fatalf("key %q text %s: decrypt failed: %v", key, text, err)
			}
			if decrypted != text {
				t.Errorf("key %q: expected %s, got %s", key, text, decrypted)
			}
		}
	}
}

func TestPlayfairErrors(t *testing.T) {
	t.Run("odd length", func(t *testing.T) {
		_, err := DecryptPlayfair("ABC", "KEY")
		var pairing *PairingError
		if !errors.As(err, &pairing) {
			t.Fatalf("expected PairingError, got %v", err)
		}
		if pairing.Length != 3 {
			t.Errorf("expected length 3, got %d", pairing.Length)
		}
	})

	t.Run("odd length checked before lookup", func(t *testing.T) {
		_, err := DecryptPlayfair("J12", "KEY")
		var pairing *PairingError
		if !errors.As(err, &pairing) {
			t.Fatalf("expected PairingError, got %v", err)
		}
	})

	t.Run("literal J", func(t *testing.T) {
		_, err := DecryptPlayfair("JA", "KEY")
		var lookup *GridLookupError
		if !errors.As(err, &lookup) {
			t.Fatalf("expected GridLookupError, got %v", err)
		}
		if lookup.Char != 'J' || lookup.Position != 0 {
			t.Errorf("unexpected error detail: %+v", lookup)
		}
	})

	t.Run("space", func(t *testing.T) {
		_, err := DecryptPlayfair("AB C", "KEY")
		var lookup *GridLookupError
		if !errors.As(err, &lookup) {
			t.Fatalf("expected GridLookupError, got %v", err)
		}
		if lookup.Char != ' ' || lookup.Position != 2 {
			t.Errorf("unexpected error detail: %+v", lookup)
		}
	})
}
