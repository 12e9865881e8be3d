package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Assembly precondition errors
	CodeSkeletonMissing   Code = "BUNDLE_SKELETON_MISSING"
	CodeContextMissing    Code = "BUNDLE_CONTEXT_MISSING"
	CodeRulesetMissing    Code = "BUNDLE_RULESET_MISSING"
	CodeWorldScopeMissing Code = "BUNDLE_WORLD_SCOPE_MISSING"

	// Assembly validation errors
	CodeBundleInvalid Code = "BUNDLE_VALIDATION_FAILED"

	// Pointer errors
	CodePointerMalformed Code = "POINTER_MALFORMED"

	// Scope errors
	CodeScopeUnknown Code = "SCOPE_UNKNOWN"

	// Locale errors
	CodeLocalePackMissing Code = "LOCALE_PACK_MISSING"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// GRPCCode maps a domain error code to its gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed or rejected input
	case CodePointerMalformed,
		CodeScopeUnknown:
		return codes.InvalidArgument

	// FailedPrecondition - required upstream input is absent
	case CodeSkeletonMissing,
		CodeContextMissing,
		CodeRulesetMissing,
		CodeWorldScopeMissing:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeLocalePackMissing:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
