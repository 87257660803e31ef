package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeKeyInvalidExponent, "invalid exponent")
	detailed := WithMetadata(CodeKeyInvalidExponent, "gcd(e, φ(n)) = 3, must be 1", map[string]string{"gcd": "3"})

	if !stderrors.Is(detailed, sentinel) {
		t.Fatal("expected errors.Is to match on code")
	}
	if stderrors.Is(detailed, New(CodeKeyNoInverse, "no inverse")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeUnknown, "wrapped", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "wrapped" {
		t.Fatalf("expected message %q, got %q", "wrapped", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("choose e: %w", New(CodeKeyInvalidExponent, "bad e"))
	if got := CodeOf(err); got != CodeKeyInvalidExponent {
		t.Fatalf("expected %s, got %s", CodeKeyInvalidExponent, got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s, got %s", CodeUnknown, got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("expected %s for nil, got %s", CodeUnknown, got)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tcs := []struct {
		code Code
		want codes.Code
	}{
		{CodeKeyInvalidPrime, codes.InvalidArgument},
		{CodeKeyInvalidExponent, codes.InvalidArgument},
		{CodeCipherMessageTooLarge, codes.InvalidArgument},
		{CodePuzzleInvalidKeyRing, codes.InvalidArgument},
		{CodeKeyStageOutOfOrder, codes.FailedPrecondition},
		{CodeKeyNoInverse, codes.FailedPrecondition},
		{CodeKeyModulusTooLarge, codes.OutOfRange},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tcs {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("%s.GRPCCode() = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeCipherMessageTooLarge, "Message must be less than n (391)", map[string]string{"n": "391"})

	st, ok := status.FromError(err.ToGRPCStatus("en-US", "Message must be less than n (391)"))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch typed := detail.(type) {
		case *errdetails.ErrorInfo:
			info = typed
		case *errdetails.LocalizedMessage:
			localized = typed
		}
	}
	wantInfo := &errdetails.ErrorInfo{
		Reason:   string(CodeCipherMessageTooLarge),
		Domain:   Domain,
		Metadata: map[string]string{"n": "391"},
	}
	if !proto.Equal(info, wantInfo) {
		t.Fatalf("error info = %v, want %v", info, wantInfo)
	}
	if localized == nil || localized.Locale != "en-US" {
		t.Fatalf("unexpected localized message: %+v", localized)
	}
}
