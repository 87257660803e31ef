// Package euclid implements the Euclidean algorithms used to validate the
// public exponent and derive the private exponent, recording every iteration.
package euclid

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/rsacity/internal/platform/errors"
	"github.com/louisbranch/rsacity/internal/rsa/trace"
)

// ErrNoInverse indicates the operands are not coprime, so no modular inverse
// exists.
var ErrNoInverse = apperrors.New(apperrors.CodeKeyNoInverse, "no modular inverse exists")

// GCDResult holds the greatest common divisor and the division chain that
// produced it.
type GCDResult struct {
	Result int64
	Steps  trace.Trace
}

// ExtendedResult holds gcd(a, b) and Bézout coefficients with
// a·X + b·Y = GCD.
type ExtendedResult struct {
	GCD   int64
	X     int64
	Y     int64
	Steps trace.Trace
}

// InverseResult holds d with (e·d) mod phi = 1 and the extended Euclidean
// steps that derived it.
type InverseResult struct {
	D     int64
	Steps trace.Trace
}

// GCD computes gcd(a, b) iteratively. Each iteration records a
// trace.Division before (a, b) becomes (b, a mod b); the loop ends when b
// reaches zero and the result is the final a.
func GCD(a, b int64) GCDResult {
	var rec trace.Recorder
	for b != 0 {
		remainder := a % b
		rec.Record(trace.Division{
			Dividend:  a,
			Divisor:   b,
			Quotient:  floorDiv(a, b),
			Remainder: remainder,
		})
		a, b = b, remainder
	}
	return GCDResult{Result: a, Steps: rec.Trace()}
}

// ExtendedGCD computes gcd(a, b) and Bézout coefficients without recursion.
//
// Three pairs rotate together: (oldR, r), (oldS, s), and (oldT, t), starting
// at (a, b), (1, 0), (0, 1). Every iteration records the pre-update state and
// quotient as a trace.Bezout, then replaces each pair with
// (cur, old − quotient·cur). When r reaches zero, oldR is the gcd and
// (oldS, oldT) are the coefficients.
//
// When b is zero the loop is skipped and the result is (a, 1, 0) with an
// empty trace.
func ExtendedGCD(a, b int64) ExtendedResult {
	if b == 0 {
		return ExtendedResult{GCD: a, X: 1, Y: 0}
	}

	var rec trace.Recorder
	oldR, r := a, b
	oldS, s := int64(1), int64(0)
	oldT, t := int64(0), int64(1)

	for r != 0 {
		quotient := floorDiv(oldR, r)
		rec.Record(trace.Bezout{
			OldR:     oldR,
			R:        r,
			OldS:     oldS,
			S:        s,
			OldT:     oldT,
			T:        t,
			Quotient: quotient,
		})

		oldR, r = r, oldR-quotient*r
		oldS, s = s, oldS-quotient*s
		oldT, t = t, oldT-quotient*t
	}

	return ExtendedResult{GCD: oldR, X: oldS, Y: oldT, Steps: rec.Trace()}
}

// ModInverse returns d with (e·d) mod phi = 1.
//
// It fails with ErrNoInverse when gcd(e, phi) ≠ 1; the returned result still
// carries the steps so the failure can be replayed. The Bézout coefficient is
// moved into [0, phi) by adding phi once when negative, which is sufficient
// because extended Euclid keeps |x| < phi.
func ModInverse(e, phi int64) (InverseResult, error) {
	ext := ExtendedGCD(e, phi)
	if ext.GCD != 1 {
		return InverseResult{Steps: ext.Steps}, apperrors.WithMetadata(
			apperrors.CodeKeyNoInverse,
			fmt.Sprintf("no modular inverse exists: gcd(%d, %d) = %d", e, phi, ext.GCD),
			map[string]string{
				"e":   strconv.FormatInt(e, 10),
				"phi": strconv.FormatInt(phi, 10),
				"gcd": strconv.FormatInt(ext.GCD, 10),
			},
		)
	}

	d := ext.X
	if d < 0 {
		d += phi
	}
	return InverseResult{D: d, Steps: ext.Steps}, nil
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
