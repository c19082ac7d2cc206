package cipher

// AlphabetSize is the modulus for every cipher in this package.
const AlphabetSize = 26

// GCD computes the greatest common divisor using the Euclidean algorithm.
// The result is always non-negative.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// ModInverse returns x in [0,m) such that (a*x) mod m == 1, computed with the
// extended Euclidean algorithm.
func ModInverse(a, m int) (int, error) {
	if m <= 0 {
		return 0, &NoInverseError{Value: a, Modulus: m}
	}
	a = mod(a, m)
	if GCD(a, m) != 1 {
		return 0, &NoInverseError{Value: a, Modulus: m}
	}
	if m == 1 {
		return 0, nil
	}

	oldR, r := a, m
	oldS, s := 1, 0
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	return mod(oldS, m), nil
}

// mod is the mathematical modulo, always in [0,m).
func mod(a, m int) int {
	a %= m
	if a < 0 {
		a += m
	}
	return a
}
