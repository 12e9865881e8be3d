package bundle

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/rules"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/scope"
	apperrors "github.com/Daakon/stone-caster-2-sub004/internal/platform/errors"
)

func testContext(t *testing.T) *scope.Context {
	t.Helper()
	ctx := scope.NewContext()
	if err := ctx.SetRoot(scope.World, map[string]any{
		"title": "Glade",
		"npcs":  []any{"npc1", "npc2"},
	}); err != nil {
		t.Fatalf("set world root: %v", err)
	}
	return ctx
}

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 25 * time.Millisecond)
	}
}

func TestAssembleInjectsAndMeasures(t *testing.T) {
	in := Input{
		Skeleton: map[string]any{"a": map[string]any{}},
		Context:  testContext(t),
		Rules: []rules.Rule{
			{From: "/world/title", To: "/a/title"},
			{From: "/world/npcs", To: "/npcs"},
		},
		Clock: fixedClock(t),
	}

	result, err := Assemble(in)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	wantDoc := map[string]any{
		"a":    map[string]any{"title": "Glade"},
		"npcs": []any{"npc1", "npc2"},
	}
	if !reflect.DeepEqual(result.Bundle, wantDoc) {
		t.Fatalf("expected %v, got %v", wantDoc, result.Bundle)
	}
	if result.Report.Applied != 2 {
		t.Fatalf("expected 2 applied rules, got %d", result.Report.Applied)
	}

	encoded, err := json.Marshal(wantDoc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if result.Metrics.ByteSize != len(encoded) {
		t.Fatalf("expected byte size %d, got %d", len(encoded), result.Metrics.ByteSize)
	}
	if result.Metrics.EstimatedTokens <= 0 {
		t.Fatalf("expected positive token estimate, got %d", result.Metrics.EstimatedTokens)
	}
	if result.Metrics.BuildTimeMs != 25 {
		t.Fatalf("expected 25ms build time, got %d", result.Metrics.BuildTimeMs)
	}
	if result.Metrics.EntityCounts["npcs"] != 2 {
		t.Fatalf("expected 2 npcs counted, got %d", result.Metrics.EntityCounts["npcs"])
	}
	if result.Metrics.EntityCounts["a"] != 1 {
		t.Fatalf("expected 1 entry under a, got %d", result.Metrics.EntityCounts["a"])
	}
}

func TestAssemblePreconditionSkeleton(t *testing.T) {
	_, err := Assemble(Input{Context: testContext(t), Rules: []rules.Rule{{From: "/world/title", To: "/t"}}})
	if !errors.Is(err, apperrors.New(apperrors.CodeSkeletonMissing, "")) {
		t.Fatalf("expected skeleton precondition error, got %v", err)
	}
}

func TestAssemblePreconditionContext(t *testing.T) {
	_, err := Assemble(Input{Skeleton: map[string]any{}, Rules: []rules.Rule{{From: "/world/title", To: "/t"}}})
	if !errors.Is(err, apperrors.New(apperrors.CodeContextMissing, "")) {
		t.Fatalf("expected context precondition error, got %v", err)
	}
}

func TestAssemblePreconditionRuleset(t *testing.T) {
	_, err := Assemble(Input{Skeleton: map[string]any{}, Context: testContext(t)})
	if !errors.Is(err, apperrors.New(apperrors.CodeRulesetMissing, "")) {
		t.Fatalf("expected ruleset precondition error, got %v", err)
	}
}

func TestAssemblePreconditionWorldScope(t *testing.T) {
	ctx := scope.NewContext()
	if err := ctx.SetRoot(scope.Player, map[string]any{"name": "Ash"}); err != nil {
		t.Fatalf("set player root: %v", err)
	}

	_, err := Assemble(Input{
		Skeleton: map[string]any{},
		Context:  ctx,
		Rules:    []rules.Rule{{From: "/player/name", To: "/name"}},
	})
	if !errors.Is(err, apperrors.New(apperrors.CodeWorldScopeMissing, "")) {
		t.Fatalf("expected world scope precondition error, got %v", err)
	}
}

func TestAssembleValidationFailureWithholdsBundle(t *testing.T) {
	in := Input{
		Skeleton:  map[string]any{},
		Context:   testContext(t),
		Rules:     []rules.Rule{{From: "/world/title", To: "/title"}},
		Validator: PointerChecks{Required: []string{"/title", "/missing/section"}},
	}

	result, err := Assemble(in)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", validationErr.Violations)
	}
	if validationErr.Violations[0].Pointer != "/missing/section" {
		t.Fatalf("unexpected violation: %+v", validationErr.Violations[0])
	}
	if result.Bundle != nil {
		t.Fatal("expected no bundle on validation failure")
	}
}

func TestAssembleValidationPasses(t *testing.T) {
	in := Input{
		Skeleton:  map[string]any{},
		Context:   testContext(t),
		Rules:     []rules.Rule{{From: "/world/title", To: "/title"}},
		Validator: PointerChecks{Required: []string{"/title"}},
	}

	result, err := Assemble(in)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if result.Bundle.(map[string]any)["title"] != "Glade" {
		t.Fatalf("expected title injected, got %v", result.Bundle)
	}
}

func TestAssembleSkippedRuleScenario(t *testing.T) {
	ctx := scope.NewContext()
	if err := ctx.SetRoot(scope.World, map[string]any{"title": ""}); err != nil {
		t.Fatalf("set world root: %v", err)
	}
	in := Input{
		Skeleton: map[string]any{"a": map[string]any{}},
		Context:  ctx,
		Rules:    []rules.Rule{{From: "/world/title", To: "/a/title", SkipIfEmpty: true}},
	}

	result, err := Assemble(in)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !reflect.DeepEqual(result.Bundle, map[string]any{"a": map[string]any{}}) {
		t.Fatalf("expected untouched skeleton, got %v", result.Bundle)
	}
	if len(result.Report.Skipped) != 1 {
		t.Fatalf("expected 1 skipped rule, got %+v", result.Report)
	}
}

func TestPointerChecksValidateNilDoc(t *testing.T) {
	violations := PointerChecks{Required: []string{"/a"}}.Validate(nil)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", violations)
	}
}
