// Package keygen derives RSA key pairs through an explicit staged pipeline.
//
// A Generator walks StageInit → StagePrimesValidated → StageNComputed →
// StagePhiComputed → StageEChosen → StageDComputed. Each transition checks
// the current stage and fails with ErrStageOrder when called out of order,
// so a half-built key can never be read back as if it were complete.
//
// A Generator belongs to one key-generation session and must not be shared
// between goroutines without external synchronization. Keys it hands out are
// plain values with no reference back to it.
package keygen

import (
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/louisbranch/rsacity/internal/platform/errors"
	"github.com/louisbranch/rsacity/internal/rsa/euclid"
	"github.com/louisbranch/rsacity/internal/rsa/modular"
	"github.com/louisbranch/rsacity/internal/rsa/prime"
	"github.com/louisbranch/rsacity/internal/rsa/trace"
)

// DefaultExponent is the public exponent used when none is chosen.
const DefaultExponent int64 = 65537

var (
	// ErrInvalidPrime indicates p or q is not prime, or p equals q.
	ErrInvalidPrime = apperrors.New(apperrors.CodeKeyInvalidPrime, "p and q must be distinct primes")
	// ErrInvalidExponent indicates e is out of range or shares a factor with φ(n).
	ErrInvalidExponent = apperrors.New(apperrors.CodeKeyInvalidExponent, "invalid public exponent")
	// ErrNoInverse indicates e has no inverse modulo φ(n).
	ErrNoInverse = euclid.ErrNoInverse
	// ErrModulusTooLarge indicates p·q does not fit in an int64.
	ErrModulusTooLarge = apperrors.New(apperrors.CodeKeyModulusTooLarge, "modulus p·q overflows int64")
	// ErrStageOrder indicates a pipeline step was called before its prerequisites.
	ErrStageOrder = apperrors.New(apperrors.CodeKeyStageOutOfOrder, "key generation step called out of order")
)

// Stage identifies how far key generation has progressed.
type Stage int

const (
	StageInit Stage = iota
	StagePrimesValidated
	StageNComputed
	StagePhiComputed
	StageEChosen
	StageDComputed
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StagePrimesValidated:
		return "primes validated"
	case StageNComputed:
		return "n computed"
	case StagePhiComputed:
		return "phi computed"
	case StageEChosen:
		return "e chosen"
	case StageDComputed:
		return "d computed"
	default:
		return "unknown"
	}
}

// PrimePair holds the two candidate primes.
type PrimePair struct {
	P int64
	Q int64
}

// PublicKey is the (e, n) half of a key pair. Keys compare with ==.
type PublicKey struct {
	E int64
	N int64
}

// PrivateKey is the (d, n) half of a key pair.
type PrivateKey struct {
	D int64
	N int64
}

// KeyPair bundles both halves produced by Generate.
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// PrimeValidation reports which prime preconditions hold.
type PrimeValidation struct {
	PIsPrime     bool
	QIsPrime     bool
	AreDifferent bool
	Valid        bool
}

// Totient holds φ(n) and the factors it was built from.
type Totient struct {
	Phi     int64
	PMinus1 int64
	QMinus1 int64
}

// ExponentChoice reports the gcd check performed for a candidate e.
// GCDSteps is empty when e was rejected by the range check.
type ExponentChoice struct {
	E        int64
	GCD      int64
	GCDSteps trace.Trace
}

// PrivateExponent holds d and the extended Euclidean steps behind it.
type PrivateExponent struct {
	D     int64
	Steps trace.Trace
}

// Generator accumulates key material one stage at a time.
type Generator struct {
	stage Stage
	p     int64
	q     int64
	n     int64
	phi   int64
	e     int64
	d     int64
}

// New starts a key-generation session for p and q.
func New(p, q int64) *Generator {
	return &Generator{p: p, q: q}
}

// Stage returns the last completed stage.
func (g *Generator) Stage() Stage {
	return g.stage
}

// Primes returns the candidate primes.
func (g *Generator) Primes() PrimePair {
	return PrimePair{P: g.p, Q: g.q}
}

// ValidatePrimes checks both candidates and reports each condition.
// It advances to StagePrimesValidated only when all conditions hold; an
// invalid report leaves the generator where it was.
func (g *Generator) ValidatePrimes() PrimeValidation {
	report := validate(g.p, g.q)
	if report.Valid && g.stage == StageInit {
		g.stage = StagePrimesValidated
	}
	return report
}

// CalculateN computes n = p·q.
//
// Calling ValidatePrimes first is the caller's contract but not required:
// CalculateN re-checks the primes and fails with ErrInvalidPrime when they
// are not distinct primes.
func (g *Generator) CalculateN() (int64, error) {
	if err := g.require("calculate n", StageInit, StagePrimesValidated); err != nil {
		return 0, err
	}
	if report := validate(g.p, g.q); !report.Valid {
		return 0, invalidPrimeError(g.p, g.q, report)
	}
	if g.q > math.MaxInt64/g.p {
		return 0, apperrors.WithMetadata(
			apperrors.CodeKeyModulusTooLarge,
			fmt.Sprintf("modulus %d × %d overflows int64", g.p, g.q),
			map[string]string{"p": strconv.FormatInt(g.p, 10), "q": strconv.FormatInt(g.q, 10)},
		)
	}

	g.n = g.p * g.q
	g.stage = StageNComputed
	return g.n, nil
}

// CalculatePhi computes φ(n) = (p-1)(q-1).
func (g *Generator) CalculatePhi() (Totient, error) {
	if err := g.require("calculate phi", StageNComputed); err != nil {
		return Totient{}, err
	}
	g.phi = modular.EulerTotient(g.p, g.q)
	g.stage = StagePhiComputed
	return Totient{Phi: g.phi, PMinus1: g.p - 1, QMinus1: g.q - 1}, nil
}

// ChooseE commits e as the public exponent.
//
// e must satisfy 1 < e < φ(n) and gcd(e, φ(n)) = 1, otherwise ErrInvalidExponent
// is returned and the previous state is kept. When the gcd check fails the
// returned choice still carries the gcd and its steps. ChooseE may be called
// again after a success to pick a different exponent, which discards any
// computed d.
func (g *Generator) ChooseE(e int64) (ExponentChoice, error) {
	if err := g.require("choose e", StagePhiComputed, StageEChosen, StageDComputed); err != nil {
		return ExponentChoice{}, err
	}
	if e <= 1 || e >= g.phi {
		return ExponentChoice{E: e}, apperrors.WithMetadata(
			apperrors.CodeKeyInvalidExponent,
			"e must be between 1 and φ(n)",
			map[string]string{"e": strconv.FormatInt(e, 10), "phi": strconv.FormatInt(g.phi, 10)},
		)
	}

	gcd := euclid.GCD(e, g.phi)
	choice := ExponentChoice{E: e, GCD: gcd.Result, GCDSteps: gcd.Steps}
	if gcd.Result != 1 {
		return choice, apperrors.WithMetadata(
			apperrors.CodeKeyInvalidExponent,
			fmt.Sprintf("gcd(e, φ(n)) = %d, must be 1", gcd.Result),
			map[string]string{
				"e":   strconv.FormatInt(e, 10),
				"phi": strconv.FormatInt(g.phi, 10),
				"gcd": strconv.FormatInt(gcd.Result, 10),
			},
		)
	}

	g.e = e
	g.d = 0
	g.stage = StageEChosen
	return choice, nil
}

// CalculateD derives d as the inverse of e modulo φ(n).
func (g *Generator) CalculateD() (PrivateExponent, error) {
	if err := g.require("calculate d", StageEChosen, StageDComputed); err != nil {
		return PrivateExponent{}, err
	}
	inverse, err := euclid.ModInverse(g.e, g.phi)
	if err != nil {
		// ChooseE already rejected non-coprime exponents.
		return PrivateExponent{Steps: inverse.Steps}, err
	}
	g.d = inverse.D
	g.stage = StageDComputed
	return PrivateExponent{D: inverse.D, Steps: inverse.Steps}, nil
}

// PublicKey returns (e, n) once e has been chosen.
func (g *Generator) PublicKey() (PublicKey, error) {
	if err := g.require("public key", StageEChosen, StageDComputed); err != nil {
		return PublicKey{}, err
	}
	return PublicKey{E: g.e, N: g.n}, nil
}

// PrivateKey returns (d, n) once d has been computed.
func (g *Generator) PrivateKey() (PrivateKey, error) {
	if err := g.require("private key", StageDComputed); err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{D: g.d, N: g.n}, nil
}

// Generate runs the whole pipeline for pair and e. The error names the stage
// that failed and matches the stage's sentinel with errors.Is.
func Generate(pair PrimePair, e int64) (KeyPair, error) {
	g := New(pair.P, pair.Q)
	if report := g.ValidatePrimes(); !report.Valid {
		return KeyPair{}, fmt.Errorf("validate primes: %w", invalidPrimeError(pair.P, pair.Q, report))
	}
	if _, err := g.CalculateN(); err != nil {
		return KeyPair{}, fmt.Errorf("calculate n: %w", err)
	}
	if _, err := g.CalculatePhi(); err != nil {
		return KeyPair{}, fmt.Errorf("calculate phi: %w", err)
	}
	if _, err := g.ChooseE(e); err != nil {
		return KeyPair{}, fmt.Errorf("choose e: %w", err)
	}
	if _, err := g.CalculateD(); err != nil {
		return KeyPair{}, fmt.Errorf("calculate d: %w", err)
	}

	public, err := g.PublicKey()
	if err != nil {
		return KeyPair{}, err
	}
	private, err := g.PrivateKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: public, Private: private}, nil
}

func (g *Generator) require(op string, allowed ...Stage) error {
	for _, stage := range allowed {
		if g.stage == stage {
			return nil
		}
	}
	return apperrors.WithMetadata(
		apperrors.CodeKeyStageOutOfOrder,
		fmt.Sprintf("%s: not allowed at stage %q", op, g.stage),
		map[string]string{"operation": op, "stage": g.stage.String()},
	)
}

func validate(p, q int64) PrimeValidation {
	pIsPrime := prime.IsPrime(p)
	qIsPrime := prime.IsPrime(q)
	different := p != q
	return PrimeValidation{
		PIsPrime:     pIsPrime,
		QIsPrime:     qIsPrime,
		AreDifferent: different,
		Valid:        pIsPrime && qIsPrime && different,
	}
}

func invalidPrimeError(p, q int64, report PrimeValidation) error {
	var reason string
	switch {
	case !report.PIsPrime:
		reason = fmt.Sprintf("p = %d is not prime", p)
	case !report.QIsPrime:
		reason = fmt.Sprintf("q = %d is not prime", q)
	default:
		reason = fmt.Sprintf("p and q must be different, both are %d", p)
	}
	return apperrors.WithMetadata(
		apperrors.CodeKeyInvalidPrime,
		reason,
		map[string]string{"p": strconv.FormatInt(p, 10), "q": strconv.FormatInt(q, 10)},
	)
}
