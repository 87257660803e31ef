// Package cipher encrypts and decrypts integer messages with textbook RSA.
//
// Both directions forward the square-and-multiply trace from modular.ModPow
// unchanged so callers can replay the computation.
package cipher

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/rsacity/internal/platform/errors"
	"github.com/louisbranch/rsacity/internal/rsa/keygen"
	"github.com/louisbranch/rsacity/internal/rsa/modular"
	"github.com/louisbranch/rsacity/internal/rsa/trace"
)

// ErrMessageTooLarge indicates the message is not smaller than the modulus.
var ErrMessageTooLarge = apperrors.New(apperrors.CodeCipherMessageTooLarge, "message must be less than n")

// Encryption holds a ciphertext and the steps that produced it.
type Encryption struct {
	Ciphertext int64
	Steps      trace.Trace
}

// Decryption holds a recovered message and the steps that produced it.
type Decryption struct {
	Message int64
	Steps   trace.Trace
}

// Encrypt computes message^e mod n.
//
// Messages at or above n are rejected with ErrMessageTooLarge. Negative
// messages are not rejected and wrap into [0, n).
func Encrypt(message int64, key keygen.PublicKey) (Encryption, error) {
	if message >= key.N {
		return Encryption{}, apperrors.WithMetadata(
			apperrors.CodeCipherMessageTooLarge,
			fmt.Sprintf("Message must be less than n (%d)", key.N),
			map[string]string{
				"message": strconv.FormatInt(message, 10),
				"n":       strconv.FormatInt(key.N, 10),
			},
		)
	}
	pow := modular.ModPow(message, uint64(key.E), key.N)
	return Encryption{Ciphertext: pow.Result, Steps: pow.Steps}, nil
}

// Decrypt computes ciphertext^d mod n. It never fails: ciphertexts outside
// [0, n) wrap modulo n instead of being rejected.
func Decrypt(ciphertext int64, key keygen.PrivateKey) Decryption {
	pow := modular.ModPow(ciphertext, uint64(key.D), key.N)
	return Decryption{Message: pow.Result, Steps: pow.Steps}
}
