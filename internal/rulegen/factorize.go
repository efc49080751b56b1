package rulegen

import (
	"fmt"
	"strconv"
	"strings"
)

// SmallPrimes are the 25 primes below 100.
var SmallPrimes = []int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97,
}

// Factor is one prime power.
type Factor struct {
	Prime    int
	Exponent int
}

// Factorization of N over SmallPrimes. Cofactor is what remains after
// dividing out every small prime (1 when N is 97-smooth).
type Factorization struct {
	N        int
	Factors  []Factor
	Cofactor int
}

// Factorize divides n by each small prime in turn.
func Factorize(n int) Factorization {
	f := Factorization{N: n, Cofactor: n}
	for _, p := range SmallPrimes {
		if f.Cofactor <= 1 {
			break
		}
		exp := 0
		for f.Cofactor%p == 0 {
			f.Cofactor /= p
			exp++
		}
		if exp > 0 {
			f.Factors = append(f.Factors, Factor{Prime: p, Exponent: exp})
		}
	}
	return f
}

// Count returns the number of distinct small primes dividing N. The
// cofactor does not count. N <= 1 counts as one factor.
func (f Factorization) Count() int {
	if len(f.Factors) == 0 && f.Cofactor <= 1 {
		return 1
	}
	return len(f.Factors)
}

// String renders "2^1 × 3^2 × 101". N <= 1 renders as N itself.
func (f Factorization) String() string {
	if len(f.Factors) == 0 && f.Cofactor <= 1 {
		return strconv.Itoa(f.N)
	}
	parts := make([]string, 0, len(f.Factors)+1)
	for _, fac := range f.Factors {
		parts = append(parts, fmt.Sprintf("%d^%d", fac.Prime, fac.Exponent))
	}
	if f.Cofactor > 1 {
		parts = append(parts, strconv.Itoa(f.Cofactor))
	}
	return strings.Join(parts, " × ")
}
