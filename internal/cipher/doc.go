// Package cipher implements cryptanalysis of classical ciphers over the
// 26-letter Latin alphabet.
//
// # Overview
//
// The package offers frequency analysis, Caesar brute force, chi-square
// shift detection, affine key recovery, Kasiski examination for Vigenère
// key lengths, and keyed Vigenère and Playfair transforms. Only the ASCII
// letters A-Z and a-z count as letters; every other rune is carried through
// untouched and output letters are always uppercase.
//
// # Quick Start
//
// Analyses are plain functions:
//
//	result, err := cipher.DetectShift(ciphertext)
//	// result.Shift is the key with the lowest chi-square statistic
//
// The same functionality is exposed through the operation registry, which
// is what the REST, gRPC and CLI front ends drive:
//
//	op, _ := cipher.GetOperation("vigenere_decrypt")
//	report, _ := op.Execute(ctx, "LXFOPVEFRNHR", map[string]interface{}{
//	    "key": "LEMON",
//	})
//	// report.Plaintext == "ATTACKATDAWN"
//
// # Pipelines
//
// Operations chain through the plaintext of each report:
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "vigenere_encrypt", Parameters: map[string]interface{}{"key": "KEY"}},
//	        {Name: "caesar_encrypt", Parameters: map[string]interface{}{"key": 7}},
//	    },
//	    Reversible: true,
//	}
//	reversed, _ := pipeline.Reverse()
//
// Reverse fails with NotReversibleError when a step has no inverse. Named
// pipelines can be stored as recipes with RecipeManager.
//
// # Available Operations
//
// Analysis:
//   - frequency - letter counts and percentages
//   - caesar_bruteforce - all 26 shifts
//   - chi_square_shift - best Caesar shift against English
//   - affine_recover - affine key from the E/T guess
//   - kasiski - Vigenère key length candidates
//
// Keyed (each reversible):
//   - caesar_encrypt/decrypt - param key (int)
//   - affine_encrypt/decrypt - params a, b (int)
//   - vigenere_encrypt/decrypt - param key (letters)
//   - playfair_encrypt/decrypt - param key (phrase)
//
// # Errors
//
// Failures are typed (EmptyInputError, NoInverseError, InvalidKeyError,
// PairingError, GridLookupError, NotReversibleError) and each reports a
// stable Kind so callers can map them to transport status codes.
//
// # Thread Safety
//
// The operation registry is thread-safe and all operations are stateless.
package cipher
