// Package errors provides structured error handling for the RSA engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Key generation errors
	CodeKeyInvalidPrime    Code = "KEY_INVALID_PRIME"
	CodeKeyInvalidExponent Code = "KEY_INVALID_EXPONENT"
	CodeKeyNoInverse       Code = "KEY_NO_INVERSE"
	CodeKeyModulusTooLarge Code = "KEY_MODULUS_TOO_LARGE"
	CodeKeyStageOutOfOrder Code = "KEY_STAGE_OUT_OF_ORDER"

	// Cipher errors
	CodeCipherMessageTooLarge Code = "CIPHER_MESSAGE_TOO_LARGE"

	// Puzzle errors
	CodePuzzleInvalidKeyRing Code = "PUZZLE_INVALID_KEY_RING"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - bad numeric input
	case CodeKeyInvalidPrime,
		CodeKeyInvalidExponent,
		CodeCipherMessageTooLarge,
		CodePuzzleInvalidKeyRing:
		return codes.InvalidArgument

	// FailedPrecondition - pipeline state doesn't allow operation
	case CodeKeyStageOutOfOrder,
		CodeKeyNoInverse:
		return codes.FailedPrecondition

	// OutOfRange - value does not fit the arithmetic representation
	case CodeKeyModulusTooLarge:
		return codes.OutOfRange

	default:
		return codes.Internal
	}
}
