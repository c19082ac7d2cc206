package cipher

import (
	"fmt"
	"strings"
)

// Kind values reported by the error types in this package. The API, gRPC and
// metrics layers key on these strings.
const (
	KindEmptyInput = "empty_input"
	KindNoInverse  = "no_inverse"
	KindInvalidKey = "invalid_key"
	KindPairing    = "pairing"
	KindGridLookup = "grid_lookup"

	KindNotReversible = "not_reversible"
)

// KindedError is implemented by every precondition failure raised by the
// analysers.
type KindedError interface {
	error
	Kind() string
}

// EmptyInputError reports that a frequency table was required but the input
// held no alphabetic characters.
type EmptyInputError struct {
	Input string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("input contains no alphabetic characters: %s", quote(e.Input))
}

func (e *EmptyInputError) Kind() string { return KindEmptyInput }

// NoInverseError reports that Value has no multiplicative inverse modulo Modulus.
type NoInverseError struct {
	Value   int
	Modulus int
}

func (e *NoInverseError) Error() string {
	return fmt.Sprintf("%d has no inverse modulo %d (gcd is %d)", e.Value, e.Modulus, GCD(e.Value, e.Modulus))
}

func (e *NoInverseError) Kind() string { return KindNoInverse }

// InvalidKeyError reports a key that does not satisfy the cipher's shape rules.
// The key itself is kept out of the message so it does not end up in logs.
type InvalidKeyError struct {
	Cipher string
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid %s key: %s", e.Cipher, e.Reason)
}

func (e *InvalidKeyError) Kind() string { return KindInvalidKey }

// PairingError reports Playfair ciphertext that cannot be split into digraphs.
type PairingError struct {
	Input  string
	Length int
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("playfair input must have even length, got %d characters: %s", e.Length, quote(e.Input))
}

func (e *PairingError) Kind() string { return KindPairing }

// GridLookupError reports a character absent from the Playfair key square.
type GridLookupError struct {
	Char     rune
	Position int
	Input    string
}

func (e *GridLookupError) Error() string {
	return fmt.Sprintf("character %q at position %d is not in the key square: %s", e.Char, e.Position, quote(e.Input))
}

func (e *GridLookupError) Kind() string { return KindGridLookup }

// NotReversibleError reports a pipeline that cannot be inverted, either
// because it was not marked reversible or because Operation has no inverse.
type NotReversibleError struct {
	Operation string
}

func (e *NotReversibleError) Error() string {
	if e.Operation == "" {
		return "pipeline is not reversible"
	}
	return fmt.Sprintf("operation %s is not reversible", e.Operation)
}

func (e *NotReversibleError) Kind() string { return KindNotReversible }

const maxQuoted = 64

// quote renders an offending input for error messages, truncating long text.
func quote(s string) string {
	r := []rune(s)
	if len(r) <= maxQuoted {
		return fmt.Sprintf("%q", s)
	}
	var b strings.Builder
	b.WriteString(string(r[:maxQuoted]))
	b.WriteString("...")
	return fmt.Sprintf("%q (%d characters)", b.String(), len(r))
}
