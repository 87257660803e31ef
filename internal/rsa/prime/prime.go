// Package prime tests candidate RSA primes.
package prime

// IsPrime reports whether n is prime using deterministic trial division.
//
// Values below 2 are never prime, 2 and 3 always are, and multiples of 2 or
// 3 are rejected before the loop. The remaining candidates are checked
// against divisors of the form 6k±1 up to √n. IsPrime is total over int64.
func IsPrime(n int64) bool {
	if n <= 1 {
		return false
	}
	if n <= 3 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	// i <= n/i keeps i*i from overflowing near MaxInt64.
	for i := int64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

var smallPrimes = []int64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}

// SmallPrimes returns the primes below 100 offered to players as p and q.
func SmallPrimes() []int64 {
	return append([]int64(nil), smallPrimes...)
}
