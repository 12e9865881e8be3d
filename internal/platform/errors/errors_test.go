package errors

import (
	stderrors "errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeRulesetMissing, "no active ruleset")
	target := New(CodeRulesetMissing, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with same code to match")
	}

	other := New(CodeNotFound, "no active ruleset")
	if stderrors.Is(err, other) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk failure")
	err := Wrap(CodeNotFound, "load ruleset", cause)

	if !stderrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable, got %v", err)
	}
	if err.Error() != "load ruleset" {
		t.Fatalf("expected internal message, got %q", err.Error())
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeRulesetMissing, codes.FailedPrecondition},
		{CodeWorldScopeMissing, codes.FailedPrecondition},
		{CodePointerMalformed, codes.InvalidArgument},
		{CodeNotFound, codes.NotFound},
		{CodeBundleInvalid, codes.Internal},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("code %s: expected %v, got %v", tc.code, tc.want, got)
		}
	}
}

func TestToGRPCStatusCarriesDetails(t *testing.T) {
	err := WithMetadata(CodeRulesetMissing, "no active ruleset", map[string]string{"rulesetId": "rs1"})

	stErr := err.ToGRPCStatus("en-US", "No active ruleset is configured.")
	st, ok := status.FromError(stErr)
	if !ok {
		t.Fatalf("expected grpc status, got %v", stErr)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", st.Code())
	}
	if st.Message() != "no active ruleset" {
		t.Fatalf("expected internal message, got %q", st.Message())
	}
	if len(st.Details()) != 2 {
		t.Fatalf("expected 2 detail entries, got %d", len(st.Details()))
	}
}
