package cipher

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Analyses

// FrequencyOp reports the letter distribution of the input
type FrequencyOp struct {
	BaseOperation
}

func (op *FrequencyOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := AnalyzeFrequency(input)
	if err != nil {
		return nil, err
	}
	report := op.report()
	report.Frequencies = table.Entries()
	report.TotalLetters = table.Total
	return report, nil
}

// CaesarBruteForceOp lists the decryption under all 26 shifts
type CaesarBruteForceOp struct {
	BaseOperation
}

func (op *CaesarBruteForceOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := op.report()
	report.Candidates = BruteForceCaesar(input)
	return report, nil
}

// ChiSquareShiftOp selects the Caesar shift that best fits English
type ChiSquareShiftOp struct {
	BaseOperation
}

func (op *ChiSquareShiftOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := DetectShift(input)
	if err != nil {
		return nil, err
	}
	report := op.report()
	report.Frequencies = result.Frequencies.Entries()
	report.TotalLetters = result.Frequencies.Total
	report.Shift = &result.Shift
	report.ChiSquare = &result.ChiSquare
	report.Plaintext = result.Plaintext
	return report, nil
}

// AffineRecoverOp recovers affine keys from the E/T frequency guess
type AffineRecoverOp struct {
	BaseOperation
}

func (op *AffineRecoverOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := RecoverAffineKey(input)
	if err != nil {
		return nil, err
	}
	report := op.report()
	report.Frequencies = result.Frequencies.Entries()
	report.TotalLetters = result.Frequencies.Total
	report.AffineSolutions = result.Candidates
	report.AffineKey = result.Key
	report.Plaintext = result.Plaintext
	report.Message = result.Message
	return report, nil
}

// KasiskiOp proposes Vigenère key lengths from repeated trigrams
type KasiskiOp struct {
	BaseOperation
}

func (op *KasiskiOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := ExamineKasiski(input)
	report := op.report()
	report.KeyLengths = result.KeyLengths
	report.Repeats = result.Repeats
	if result.NoRepeats {
		report.Message = NoRepeatsMessage
	}
	return report, nil
}

// NoRepeatsMessage accompanies an empty Kasiski result.
const NoRepeatsMessage = "No repeated sequences found for key length determination."

// Keyed transformations

// CaesarOp shifts letters by the "key" parameter
type CaesarOp struct {
	BaseOperation
}

func (op *CaesarOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := intParam(params, "caesar", "key")
	if err != nil {
		return nil, err
	}
	report := op.report()
	if op.TypeValue == OperationTypeEncrypt {
		report.Plaintext = EncryptCaesar(input, key)
	} else {
		report.Plaintext = DecryptCaesar(input, key)
	}
	return report, nil
}

// AffineOp applies the affine map given by the "a" and "b" parameters
type AffineOp struct {
	BaseOperation
}

func (op *AffineOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := intParam(params, "affine", "a")
	if err != nil {
		return nil, err
	}
	b, err := intParam(params, "affine", "b")
	if err != nil {
		return nil, err
	}
	key := AffineKey{A: a, B: b}
	var out string
	if op.TypeValue == OperationTypeEncrypt {
		out, err = EncryptAffine(input, key)
	} else {
		out, err = DecryptAffine(input, key)
	}
	if err != nil {
		return nil, err
	}
	report := op.report()
	report.AffineKey = &key
	report.Plaintext = out
	return report, nil
}

// VigenereOp applies the repeating "key" parameter
type VigenereOp struct {
	BaseOperation
}

func (op *VigenereOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := stringParam(params, "vigenere", "key")
	if err != nil {
		return nil, err
	}
	var out string
	if op.TypeValue == OperationTypeEncrypt {
		out, err = EncryptVigenere(input, key)
	} else {
		out, err = DecryptVigenere(input, key)
	}
	if err != nil {
		return nil, err
	}
	report := op.report()
	report.Plaintext = out
	return report, nil
}

// PlayfairOp substitutes digraphs using the square built from "key"
type PlayfairOp struct {
	BaseOperation
}

func (op *PlayfairOp) Execute(ctx context.Context, input string, params map[string]interface{}) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := stringParam(params, "playfair", "key")
	if err != nil {
		return nil, err
	}
	var out string
	if op.TypeValue == OperationTypeEncrypt {
		out, err = EncryptPlayfair(input, key)
	} else {
		out, err = DecryptPlayfair(input, key)
	}
	if err != nil {
		return nil, err
	}
	report := op.report()
	report.KeySquare = NewKeySquare(key).Rows()
	report.Plaintext = out
	return report, nil
}

func (b *BaseOperation) report() *Report {
	return &Report{Operation: b.NameValue}
}

func intParam(params map[string]interface{}, cipherName, name string) (int, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return 0, &InvalidKeyError{Cipher: cipherName, Reason: fmt.Sprintf("parameter %q is required", name)}
	}
	invalid := func() error {
		return &InvalidKeyError{Cipher: cipherName, Key: fmt.Sprint(raw), Reason: fmt.Sprintf("parameter %q must be an integer", name)}
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, invalid()
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, invalid()
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalid()
		}
		return n, nil
	default:
		return 0, invalid()
	}
}

func stringParam(params map[string]interface{}, cipherName, name string) (string, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return "", &InvalidKeyError{Cipher: cipherName, Reason: fmt.Sprintf("parameter %q is required", name)}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &InvalidKeyError{Cipher: cipherName, Key: fmt.Sprint(raw), Reason: fmt.Sprintf("parameter %q must be a string", name)}
	}
	return s, nil
}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	frequency := &FrequencyOp{BaseOperation{
		NameValue:        "frequency",
		TypeValue:        OperationTypeAnalyze,
		DescriptionValue: "Letter frequency distribution as percentages of the alphabetic total",
	}}
	bruteForce := &CaesarBruteForceOp{BaseOperation{
		NameValue:        "caesar_bruteforce",
		TypeValue:        OperationTypeAnalyze,
		DescriptionValue: "Decrypt under all 26 Caesar shifts",
	}}
	chiSquare := &ChiSquareShiftOp{BaseOperation{
		NameValue:        "chi_square_shift",
		TypeValue:        OperationTypeAnalyze,
		DescriptionValue: "Pick the Caesar shift with the best chi-square fit to English",
	}}
	affineRecover := &AffineRecoverOp{BaseOperation{
		NameValue:        "affine_recover",
		TypeValue:        OperationTypeAnalyze,
		DescriptionValue: "Recover affine (a,b) by mapping the top two letters onto E and T",
	}}
	kasiski := &KasiskiOp{BaseOperation{
		NameValue:        "kasiski",
		TypeValue:        OperationTypeAnalyze,
		DescriptionValue: "Candidate Vigenère key lengths from repeated trigram distances",
	}}

	caesarDecrypt := &CaesarOp{BaseOperation{
		NameValue:        "caesar_decrypt",
		TypeValue:        OperationTypeDecrypt,
		DescriptionValue: "Shift letters back by key",
		ParamNames:       []string{"key"},
	}}
	caesarEncrypt := &CaesarOp{BaseOperation{
		NameValue:        "caesar_encrypt",
		TypeValue:        OperationTypeEncrypt,
		DescriptionValue: "Shift letters forward by key",
		ParamNames:       []string{"key"},
	}}
	caesarDecrypt.ReverseOp = caesarEncrypt
	caesarEncrypt.ReverseOp = caesarDecrypt

	affineDecrypt := &AffineOp{BaseOperation{
		NameValue:        "affine_decrypt",
		TypeValue:        OperationTypeDecrypt,
		DescriptionValue: "Decrypt p = a^-1 (c - b) mod 26",
		ParamNames:       []string{"a", "b"},
	}}
	affineEncrypt := &AffineOp{BaseOperation{
		NameValue:        "affine_encrypt",
		TypeValue:        OperationTypeEncrypt,
		DescriptionValue: "Encrypt c = a p + b mod 26",
		ParamNames:       []string{"a", "b"},
	}}
	affineDecrypt.ReverseOp = affineEncrypt
	affineEncrypt.ReverseOp = affineDecrypt

	vigenereDecrypt := &VigenereOp{BaseOperation{
		NameValue:        "vigenere_decrypt",
		TypeValue:        OperationTypeDecrypt,
		DescriptionValue: "Subtract a repeating alphabetic key",
		ParamNames:       []string{"key"},
	}}
	vigenereEncrypt := &VigenereOp{BaseOperation{
		NameValue:        "vigenere_encrypt",
		TypeValue:        OperationTypeEncrypt,
		DescriptionValue: "Add a repeating alphabetic key",
		ParamNames:       []string{"key"},
	}}
	vigenereDecrypt.ReverseOp = vigenereEncrypt
	vigenereEncrypt.ReverseOp = vigenereDecrypt

	playfairDecrypt := &PlayfairOp{BaseOperation{
		NameValue:        "playfair_decrypt",
		TypeValue:        OperationTypeDecrypt,
		DescriptionValue: "Decrypt digraphs with a 5x5 key square",
		ParamNames:       []string{"key"},
	}}
	playfairEncrypt := &PlayfairOp{BaseOperation{
		NameValue:        "playfair_encrypt",
		TypeValue:        OperationTypeEncrypt,
		DescriptionValue: "Encrypt digraphs with a 5x5 key square",
		ParamNames:       []string{"key"},
	}}
	playfairDecrypt.ReverseOp = playfairEncrypt
	playfairEncrypt.ReverseOp = playfairDecrypt

	mustRegister(
		frequency, bruteForce, chiSquare, affineRecover, kasiski,
		caesarDecrypt, caesarEncrypt,
		affineDecrypt, affineEncrypt,
		vigenereDecrypt, vigenereEncrypt,
		playfairDecrypt, playfairEncrypt,
	)
}
