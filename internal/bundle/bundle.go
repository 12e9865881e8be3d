// Package bundle assembles size-bounded content bundles from scoped sources.
//
// An assembly takes a caller-supplied skeleton, a read-only scope context,
// and an ordered injection rule list, and produces a single structured
// document plus metrics and diagnostics. Assembly is a pure in-memory
// transformation: deterministic, idempotent, free of I/O, and never sharing
// state across calls. Fatal errors (preconditions, validation) are surfaced
// as typed errors and never yield a partial bundle; per-rule problems ride on
// the returned report instead.
package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/budget"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/pointer"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/rules"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/scope"
	apperrors "github.com/Daakon/stone-caster-2-sub004/internal/platform/errors"
)

// Violation describes one structural check failure on the assembled bundle.
type Violation struct {
	Pointer string `json:"pointer"`
	Message string `json:"message"`
}

// Validator checks an assembled bundle's structural invariants. The checks
// themselves come from an external schema collaborator.
type Validator interface {
	Validate(doc any) []Violation
}

// ValidationError is the fatal error returned when the assembled document
// fails structural checks. The bundle is withheld.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("bundle failed validation with %d violation(s)", len(e.Violations))
}

// PointerChecks is a Validator that requires a set of pointers to resolve on
// the assembled document.
type PointerChecks struct {
	Required []string
}

// Validate reports a violation for every required pointer that is absent.
func (p PointerChecks) Validate(doc any) []Violation {
	var violations []Violation
	for _, ptr := range p.Required {
		if _, ok := pointer.Get(doc, ptr); !ok {
			violations = append(violations, Violation{Pointer: ptr, Message: "required value missing"})
		}
	}
	return violations
}

// Metrics describes the assembled bundle. Metrics never affect the bundle's
// content, only the returned metadata.
type Metrics struct {
	ByteSize        int            `json:"byteSize"`
	EstimatedTokens int            `json:"estimatedTokens"`
	EntityCounts    map[string]int `json:"entityCounts"`
	BuildTimeMs     int64          `json:"buildTimeMs"`
}

// Input carries everything one assembly call consumes. Every field is built
// fresh by the caller and discarded after the call.
type Input struct {
	// Skeleton is the target document, typically pre-populated with static
	// metadata. It is mutated in place during assembly.
	Skeleton any
	// Context holds the named scope roots rules resolve against.
	Context *scope.Context
	// Rules is the ordered injection rule list.
	Rules []rules.Rule
	// Validator optionally checks the assembled document; violations are
	// fatal.
	Validator Validator
	// Clock overrides time measurement in tests.
	Clock func() time.Time
}

// Result is the caller-visible outcome of a successful assembly.
type Result struct {
	Bundle  any
	Metrics Metrics
	Report  rules.Report
}

// Assemble builds a bundle from in. Missing required inputs fail before any
// rule executes with a precondition error; validation failures fail after
// rule execution with a *ValidationError. In both cases no bundle is
// returned.
func Assemble(in Input) (Result, error) {
	clock := in.Clock
	if clock == nil {
		clock = time.Now
	}
	start := clock()

	if in.Skeleton == nil {
		return Result{}, apperrors.New(apperrors.CodeSkeletonMissing, "target skeleton is required")
	}
	if in.Context == nil {
		return Result{}, apperrors.New(apperrors.CodeContextMissing, "scope context is required")
	}
	if len(in.Rules) == 0 {
		return Result{}, apperrors.New(apperrors.CodeRulesetMissing, "injection rule list is empty")
	}
	if _, ok := in.Context.Root(scope.World); !ok {
		return Result{}, apperrors.New(apperrors.CodeWorldScopeMissing, "world scope is not registered")
	}

	doc, report := rules.Execute(in.Skeleton, in.Context, in.Rules)

	if in.Validator != nil {
		if violations := in.Validator.Validate(doc); len(violations) > 0 {
			return Result{}, &ValidationError{Violations: violations}
		}
	}

	return Result{
		Bundle:  doc,
		Metrics: measure(doc, clock().Sub(start)),
		Report:  report,
	}, nil
}

func measure(doc any, elapsed time.Duration) Metrics {
	size := 0
	if encoded, err := json.Marshal(doc); err == nil {
		size = len(encoded)
	}
	return Metrics{
		ByteSize:        size,
		EstimatedTokens: budget.Estimate(doc),
		EntityCounts:    countEntities(doc),
		BuildTimeMs:     elapsed.Milliseconds(),
	}
}

// countEntities reports per-section entity counts on the bundle's top level:
// array length for arrays, key count for objects, 1 for scalars.
func countEntities(doc any) map[string]int {
	counts := map[string]int{}
	obj, ok := doc.(map[string]any)
	if !ok {
		return counts
	}
	for key, value := range obj {
		switch v := value.(type) {
		case []any:
			counts[key] = len(v)
		case map[string]any:
			counts[key] = len(v)
		default:
			counts[key] = 1
		}
	}
	return counts
}
