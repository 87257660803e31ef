// Package modular implements the modular arithmetic behind RSA encryption:
// square-and-multiply exponentiation with a replayable trace, modular
// multiplication, and Euler's totient for a product of two primes.
package modular

import (
	"math/bits"
	"strconv"

	"github.com/louisbranch/rsacity/internal/rsa/trace"
)

// PowResult holds base^exponent mod modulus and the steps that computed it.
type PowResult struct {
	Result int64
	Steps  trace.Trace
}

// ModPow computes base^exponent mod modulus with left-to-right
// square-and-multiply and records each step.
//
// # Trace shape
//
// A trace.BinaryConversion step is always recorded first. The leading bit
// seeds the accumulator directly with base (a trace.Initialize step): it is
// never squared and never multiplied, even though it is always 1. Every
// following bit squares the accumulator (trace.Square) and, only when the
// bit is 1, multiplies it by base (trace.Multiply). For exponent 13 (1101)
// that is Initialize, Square, Multiply, Square, Square, Multiply.
//
// # Edge cases
//
//   - modulus ≤ 1 returns 0 with an empty trace.
//   - base is reduced into [0, modulus) first, so negative or oversized bases
//     wrap silently.
//   - exponent 0 has the single bit 0; the accumulator is seeded with 1 mod
//     modulus instead of base.
//
// Products are formed in 128 bits before reduction, so squaring cannot
// overflow for any int64 modulus.
func ModPow(base int64, exponent uint64, modulus int64) PowResult {
	if modulus <= 1 {
		return PowResult{}
	}

	var rec trace.Recorder
	base = reduce(base, modulus)

	binary := strconv.FormatUint(exponent, 2)
	rec.Record(trace.BinaryConversion{Exponent: exponent, Binary: binary})

	var result int64
	for i := 0; i < len(binary); i++ {
		bit := binary[i] - '0'

		if i == 0 {
			result = base
			if bit == 0 {
				result = 1
			}
			rec.Record(trace.Initialize{Value: result, Modulus: modulus})
			continue
		}

		old := result
		result = ModMul(result, result, modulus)
		rec.Record(trace.Square{OldValue: old, NewValue: result, Modulus: modulus, Bit: bit})

		if bit == 1 {
			old = result
			result = ModMul(result, base, modulus)
			rec.Record(trace.Multiply{OldValue: old, Base: base, NewValue: result, Modulus: modulus, Bit: bit})
		}
	}

	return PowResult{Result: result, Steps: rec.Trace()}
}

// ModMul returns (a·b) mod modulus in [0, modulus). It returns 0 when
// modulus ≤ 0.
func ModMul(a, b, modulus int64) int64 {
	if modulus <= 0 {
		return 0
	}
	a, b = reduce(a, modulus), reduce(b, modulus)
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	// a, b < modulus so hi < modulus and Div64 cannot panic.
	_, rem := bits.Div64(hi, lo, uint64(modulus))
	return int64(rem)
}

// EulerTotient returns φ(p·q) = (p-1)(q-1) for distinct primes p and q.
func EulerTotient(p, q int64) int64 {
	return (p - 1) * (q - 1)
}

func reduce(v, modulus int64) int64 {
	v %= modulus
	if v < 0 {
		v += modulus
	}
	return v
}
