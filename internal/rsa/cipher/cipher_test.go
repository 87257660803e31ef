package cipher

import (
	"errors"
	"testing"

	apperrors "github.com/louisbranch/rsacity/internal/platform/errors"
	"github.com/louisbranch/rsacity/internal/rsa/keygen"
	"github.com/louisbranch/rsacity/internal/rsa/trace"
)

func TestRoundTripEveryMessage(t *testing.T) {
	pair := generate(t, 17, 23, 5)
	for m := int64(0); m < pair.Public.N; m++ {
		encrypted, err := Encrypt(m, pair.Public)
		if err != nil {
			t.Fatalf("Encrypt(%d) returned error: %v", m, err)
		}
		if encrypted.Ciphertext < 0 || encrypted.Ciphertext >= pair.Public.N {
			t.Fatalf("Encrypt(%d) = %d, out of range", m, encrypted.Ciphertext)
		}
		decrypted := Decrypt(encrypted.Ciphertext, pair.Private)
		if decrypted.Message != m {
			t.Fatalf("Decrypt(Encrypt(%d)) = %d", m, decrypted.Message)
		}
	}
}

func TestRoundTripAcrossKeys(t *testing.T) {
	tcs := []struct {
		p, q, e int64
	}{
		{61, 53, 17},
		{19, 29, 5},
		{101, 103, 7},
		{1009, 1013, 65537},
	}
	for _, tc := range tcs {
		pair := generate(t, tc.p, tc.q, tc.e)
		for _, m := range []int64{0, 1, 2, 42, pair.Public.N - 1} {
			encrypted, err := Encrypt(m, pair.Public)
			if err != nil {
				t.Fatalf("Encrypt(%d) with %+v returned error: %v", m, pair.Public, err)
			}
			if got := Decrypt(encrypted.Ciphertext, pair.Private).Message; got != m {
				t.Fatalf("round trip of %d with %+v gave %d", m, pair.Public, got)
			}
		}
	}
}

func TestEncryptRejectsMessageAtOrAboveN(t *testing.T) {
	key := keygen.PublicKey{E: 5, N: 391}
	for _, m := range []int64{391, 392, 10_000} {
		encrypted, err := Encrypt(m, key)
		if !errors.Is(err, ErrMessageTooLarge) {
			t.Fatalf("Encrypt(%d) error = %v, want %v", m, err, ErrMessageTooLarge)
		}
		if err.Error() != "Message must be less than n (391)" {
			t.Fatalf("unexpected reason %q", err.Error())
		}
		if encrypted.Steps.Len() != 0 {
			t.Fatalf("expected no steps on rejection")
		}
	}
}

func TestEncryptErrorCode(t *testing.T) {
	_, err := Encrypt(391, keygen.PublicKey{E: 5, N: 391})
	if apperrors.CodeOf(err) != apperrors.CodeCipherMessageTooLarge {
		t.Fatalf("unexpected code %s", apperrors.CodeOf(err))
	}
}

func TestEncryptForwardsTrace(t *testing.T) {
	encrypted, err := Encrypt(4, keygen.PublicKey{E: 13, N: 497})
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if encrypted.Ciphertext != 445 {
		t.Fatalf("expected 445, got %d", encrypted.Ciphertext)
	}
	if encrypted.Steps.Len() != 7 {
		t.Fatalf("expected 7 steps, got %d", encrypted.Steps.Len())
	}
	if encrypted.Steps.At(0).Kind() != trace.KindBinaryConversion {
		t.Fatalf("expected binary conversion first, got %s", encrypted.Steps.At(0).Kind())
	}
}

func TestNegativeMessageWraps(t *testing.T) {
	key := keygen.PublicKey{E: 5, N: 391}
	negative, err := Encrypt(-1, key)
	if err != nil {
		t.Fatalf("Encrypt(-1) returned error: %v", err)
	}
	wrapped, err := Encrypt(390, key)
	if err != nil {
		t.Fatalf("Encrypt(390) returned error: %v", err)
	}
	if negative.Ciphertext != wrapped.Ciphertext {
		t.Fatalf("expected -1 to wrap to 390: %d != %d", negative.Ciphertext, wrapped.Ciphertext)
	}
}

func TestDecryptWrapsOutOfRangeCiphertext(t *testing.T) {
	pair := generate(t, 17, 23, 5)
	encrypted, err := Encrypt(88, pair.Public)
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	shifted := encrypted.Ciphertext + 3*pair.Private.N
	if got := Decrypt(shifted, pair.Private).Message; got != 88 {
		t.Fatalf("expected wrapped ciphertext to decrypt to 88, got %d", got)
	}
}

func generate(t *testing.T, p, q, e int64) keygen.KeyPair {
	t.Helper()

	pair, err := keygen.Generate(keygen.PrimePair{P: p, Q: q}, e)
	if err != nil {
		t.Fatalf("Generate(%d, %d, %d) returned error: %v", p, q, e, err)
	}
	return pair
}
