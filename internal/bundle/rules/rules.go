// Package rules executes declarative injection rules against a target
// document.
//
// Rules are evaluated independently and in declaration order. Later rules may
// overwrite values written by earlier rules at overlapping destinations;
// last-write-wins is intentional. A failure on one rule is recorded as a
// non-fatal diagnostic and never aborts the remaining rules. Execution is
// deterministic given identical inputs: no randomness, no I/O.
package rules

import (
	"fmt"
	"strings"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/budget"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/pointer"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/scope"
)

// Rule maps a scoped source pointer to a destination pointer on the target
// document, with optional fallback and budget limit.
type Rule struct {
	From        string        `json:"from"`
	To          string        `json:"to"`
	SkipIfEmpty bool          `json:"skipIfEmpty"`
	Fallback    *Fallback     `json:"fallback,omitempty"`
	Limit       *budget.Limit `json:"limit,omitempty"`
}

// Fallback supplies a substitute value when the source resolves empty.
type Fallback struct {
	IfMissing any `json:"ifMissing"`
}

// Diagnostic records a non-fatal per-rule outcome.
type Diagnostic struct {
	RuleIndex int    `json:"ruleIndex"`
	Reason    string `json:"reason"`
}

// Report summarizes one executor pass over a rule list.
type Report struct {
	Applied  int          `json:"applied"`
	Skipped  []Diagnostic `json:"skipped,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty"`
}

// IsEmpty reports whether value carries no injectable content: nil, a string
// that is blank after trimming, an empty array, or an empty object.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// Execute applies ruleList in order to target, resolving sources through ctx.
// The returned document replaces target; the caller must use it since a write
// at the document root or through array extension can replace the top-level
// value.
func Execute(target any, ctx *scope.Context, ruleList []Rule) (any, Report) {
	var report Report
	for i, rule := range ruleList {
		if _, err := pointer.Parse(rule.From); err != nil {
			report.Warnings = append(report.Warnings, Diagnostic{
				RuleIndex: i,
				Reason:    fmt.Sprintf("resolve source: %v", err),
			})
			continue
		}

		value, _ := ctx.Resolve(rule.From)

		if rule.SkipIfEmpty && IsEmpty(value) {
			report.Skipped = append(report.Skipped, Diagnostic{
				RuleIndex: i,
				Reason:    "source empty",
			})
			continue
		}

		if IsEmpty(value) && rule.Fallback != nil {
			value = rule.Fallback.IfMissing
		}

		if rule.Limit != nil {
			value = budget.Apply(value, *rule.Limit)
		}

		if IsEmpty(value) {
			report.Skipped = append(report.Skipped, Diagnostic{
				RuleIndex: i,
				Reason:    "value empty after fallback and limit",
			})
			continue
		}

		next, err := pointer.Set(target, rule.To, value)
		if err != nil {
			report.Warnings = append(report.Warnings, Diagnostic{
				RuleIndex: i,
				Reason:    fmt.Sprintf("write destination: %v", err),
			})
			continue
		}
		target = next
		report.Applied++
	}
	return target, report
}
