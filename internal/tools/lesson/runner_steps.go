package lesson

import (
	"context"
	"errors"

	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/rsacity/internal/platform/errors"
	"github.com/louisbranch/rsacity/internal/rsa/cipher"
	"github.com/louisbranch/rsacity/internal/rsa/euclid"
	"github.com/louisbranch/rsacity/internal/rsa/keygen"
	"github.com/louisbranch/rsacity/internal/rsa/modular"
	"github.com/louisbranch/rsacity/internal/rsa/prime"
	"github.com/louisbranch/rsacity/internal/rsa/trace"
)

const rejectionLocale = "en-US"

func (r *Runner) runStep(ctx context.Context, state *lessonState, step Step) error {
	switch step.Kind {
	case "primes":
		return r.runPrimesStep(state, step)
	case "n":
		return r.runNStep(state, step)
	case "phi":
		return r.runPhiStep(state, step)
	case "choose_e":
		return r.runChooseEStep(state, step)
	case "compute_d":
		return r.runComputeDStep(state, step)
	case "encrypt":
		return r.runEncryptStep(state, step)
	case "decrypt":
		return r.runDecryptStep(state, step)
	case "round_trip":
		return r.runRoundTripStep(ctx, state, step)
	case "mod_pow":
		return r.runModPowStep(step)
	case "gcd":
		return r.runGCDStep(step)
	case "inverse":
		return r.runInverseStep(step)
	case "is_prime":
		return r.runIsPrimeStep(step)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runPrimesStep(state *lessonState, step Step) error {
	p, okP := readInt64(step.Args, "p")
	q, okQ := readInt64(step.Args, "q")
	if !okP || !okQ {
		return r.failf("primes requires p and q")
	}

	*state = lessonState{generator: keygen.New(p, q)}
	report := state.generator.ValidatePrimes()
	r.logf("primes p = %d (prime %t), q = %d (prime %t), different %t",
		p, report.PIsPrime, q, report.QIsPrime, report.AreDifferent)

	want := optionalBool(step.Args, "expect_valid", true)
	if report.Valid != want {
		return r.assertf("primes %d, %d: valid = %t, want %t", p, q, report.Valid, want)
	}
	return nil
}

func (r *Runner) runNStep(state *lessonState, step Step) error {
	if state.generator == nil {
		return r.failf("n requires a primes step first")
	}
	n, err := state.generator.CalculateN()
	if done, outcomeErr := r.checkOutcome(step, err); done {
		return outcomeErr
	}
	r.logf("n = %d", n)
	return r.expectInt64(step, "expect", "n", n)
}

func (r *Runner) runPhiStep(state *lessonState, step Step) error {
	if state.generator == nil {
		return r.failf("phi requires a primes step first")
	}
	totient, err := state.generator.CalculatePhi()
	if done, outcomeErr := r.checkOutcome(step, err); done {
		return outcomeErr
	}
	r.logf("φ(n) = %d × %d = %d", totient.PMinus1, totient.QMinus1, totient.Phi)
	return r.expectInt64(step, "expect", "phi", totient.Phi)
}

func (r *Runner) runChooseEStep(state *lessonState, step Step) error {
	if state.generator == nil {
		return r.failf("choose_e requires a primes step first")
	}
	e := optionalInt64(step.Args, "e", keygen.DefaultExponent)
	choice, err := state.generator.ChooseE(e)
	r.logTrace(choice.GCDSteps)
	if choice.GCDSteps.Len() > 0 {
		if expectErr := r.expectInt64(step, "expect_gcd", "gcd", choice.GCD); expectErr != nil {
			return expectErr
		}
	}
	if done, outcomeErr := r.checkOutcome(step, err); done {
		return outcomeErr
	}

	public, err := state.generator.PublicKey()
	if err != nil {
		return err
	}
	state.public, state.hasPublic = public, true
	state.private, state.hasPrivate = keygen.PrivateKey{}, false
	r.logf("e = %d", e)
	return nil
}

func (r *Runner) runComputeDStep(state *lessonState, step Step) error {
	if state.generator == nil {
		return r.failf("compute_d requires a primes step first")
	}
	exponent, err := state.generator.CalculateD()
	r.logTrace(exponent.Steps)
	if done, outcomeErr := r.checkOutcome(step, err); done {
		return outcomeErr
	}

	private, err := state.generator.PrivateKey()
	if err != nil {
		return err
	}
	state.private, state.hasPrivate = private, true
	r.logf("d = %d", exponent.D)
	return r.expectInt64(step, "expect", "d", exponent.D)
}

func (r *Runner) runEncryptStep(state *lessonState, step Step) error {
	message, ok := readInt64(step.Args, "message")
	if !ok {
		return r.failf("encrypt requires message")
	}
	key := state.public
	e, hasE := readInt64(step.Args, "e")
	n, hasN := readInt64(step.Args, "n")
	switch {
	case hasE && hasN:
		key = keygen.PublicKey{E: e, N: n}
	case !state.hasPublic:
		return r.failf("encrypt requires a chosen e or explicit e and n")
	}

	encrypted, err := cipher.Encrypt(message, key)
	if done, outcomeErr := r.checkOutcome(step, err); done {
		return outcomeErr
	}
	r.logTrace(encrypted.Steps)
	state.ciphertext, state.hasCiphertext = encrypted.Ciphertext, true
	r.logf("c = %d^%d mod %d = %d", message, key.E, key.N, encrypted.Ciphertext)
	return r.expectInt64(step, "expect", "ciphertext", encrypted.Ciphertext)
}

func (r *Runner) runDecryptStep(state *lessonState, step Step) error {
	ciphertext, ok := readInt64(step.Args, "ciphertext")
	if !ok {
		if !state.hasCiphertext {
			return r.failf("decrypt requires ciphertext or a previous encrypt step")
		}
		ciphertext = state.ciphertext
	}
	key := state.private
	d, hasD := readInt64(step.Args, "d")
	n, hasN := readInt64(step.Args, "n")
	switch {
	case hasD && hasN:
		key = keygen.PrivateKey{D: d, N: n}
	case !state.hasPrivate:
		return r.failf("decrypt requires a computed d or explicit d and n")
	}

	decrypted := cipher.Decrypt(ciphertext, key)
	r.logTrace(decrypted.Steps)
	r.logf("m = %d^%d mod %d = %d", ciphertext, key.D, key.N, decrypted.Message)
	return r.expectInt64(step, "expect", "message", decrypted.Message)
}

func (r *Runner) runRoundTripStep(ctx context.Context, state *lessonState, step Step) error {
	if !state.hasPublic || !state.hasPrivate {
		return r.failf("round_trip requires computed keys")
	}
	from := optionalInt64(step.Args, "from", 0)
	to := optionalInt64(step.Args, "to", state.public.N-1)
	if from < 0 || to >= state.public.N || from > to {
		return r.failf("round_trip range [%d, %d] must lie within [0, %d)", from, to, state.public.N)
	}

	for m := from; m <= to; m++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		encrypted, err := cipher.Encrypt(m, state.public)
		if err != nil {
			return r.assertf("round_trip encrypt %d: %v", m, err)
		}
		if got := cipher.Decrypt(encrypted.Ciphertext, state.private).Message; got != m {
			return r.assertf("round_trip %d: decrypted %d", m, got)
		}
	}
	r.logf("round trip ok for %d messages", to-from+1)
	return nil
}

func (r *Runner) runModPowStep(step Step) error {
	base, okBase := readInt64(step.Args, "base")
	exponent, okExp := readInt64(step.Args, "exponent")
	modulus, okMod := readInt64(step.Args, "modulus")
	if !okBase || !okExp || !okMod {
		return r.failf("mod_pow requires base, exponent and modulus")
	}
	if exponent < 0 {
		return r.failf("mod_pow exponent must be non-negative, got %d", exponent)
	}

	result := modular.ModPow(base, uint64(exponent), modulus)
	r.logTrace(result.Steps)
	if err := r.expectInt64(step, "expect", "result", result.Result); err != nil {
		return err
	}
	return r.expectInt64(step, "expect_steps", "steps", int64(result.Steps.Len()))
}

func (r *Runner) runGCDStep(step Step) error {
	a, okA := readInt64(step.Args, "a")
	b, okB := readInt64(step.Args, "b")
	if !okA || !okB {
		return r.failf("gcd requires a and b")
	}

	result := euclid.GCD(a, b)
	r.logTrace(result.Steps)
	if err := r.expectInt64(step, "expect", "gcd", result.Result); err != nil {
		return err
	}
	return r.expectInt64(step, "expect_steps", "steps", int64(result.Steps.Len()))
}

func (r *Runner) runInverseStep(step Step) error {
	e, okE := readInt64(step.Args, "e")
	phi, okPhi := readInt64(step.Args, "phi")
	if !okE || !okPhi {
		return r.failf("inverse requires e and phi")
	}

	result, err := euclid.ModInverse(e, phi)
	r.logTrace(result.Steps)
	if done, outcomeErr := r.checkOutcome(step, err); done {
		return outcomeErr
	}
	return r.expectInt64(step, "expect", "inverse", result.D)
}

func (r *Runner) runIsPrimeStep(step Step) error {
	n, ok := readInt64(step.Args, "n")
	if !ok {
		return r.failf("is_prime requires n")
	}
	want, ok := readBool(step.Args, "expect")
	if !ok {
		return r.failf("is_prime requires expect")
	}
	if got := prime.IsPrime(n); got != want {
		return r.assertf("is_prime %d = %t, want %t", n, got, want)
	}
	return nil
}

// checkOutcome compares err against the step's expect_valid and
// expect_error options. done reports that the step has nothing more to check,
// either because the operation failed or because an expectation was missed.
func (r *Runner) checkOutcome(step Step, err error) (done bool, outcomeErr error) {
	wantCode := optionalString(step.Args, "expect_error", "")
	wantValid := optionalBool(step.Args, "expect_valid", wantCode == "")

	if err == nil {
		if !wantValid {
			return true, r.assertf("%s: expected failure, got success", step.Kind)
		}
		return false, nil
	}

	r.logRejection(step.Kind, err)
	if wantValid {
		return true, r.assertf("%s: %v", step.Kind, err)
	}
	if wantCode != "" {
		if got := apperrors.CodeOf(err); got != apperrors.Code(wantCode) {
			return true, r.assertf("%s: error code %s, want %s", step.Kind, got, wantCode)
		}
	}
	return true, nil
}

func (r *Runner) expectInt64(step Step, key, label string, got int64) error {
	want, ok := readInt64(step.Args, key)
	if !ok || want == got {
		return nil
	}
	return r.assertf("%s: %s = %d, want %d", step.Kind, label, got, want)
}

// logRejection reports an engine failure in the same shape a gRPC boundary
// would return it.
func (r *Runner) logRejection(kind string, err error) {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		r.logf("%s rejected: %v", kind, err)
		return
	}
	st := status.Convert(domainErr.ToGRPCStatus(rejectionLocale, err.Error()))
	r.logf("%s rejected: %s (%s): %s", kind, domainErr.Code, st.Code(), st.Message())
}

func (r *Runner) logTrace(steps trace.Trace) {
	if !r.verbose {
		return
	}
	for _, description := range steps.Descriptions() {
		r.logf("  %s", description)
	}
}
