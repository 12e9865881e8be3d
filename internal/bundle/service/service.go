// Package service exposes the storage-backed, traced assembly entry point.
//
// The service owns the request-scoped plumbing the pure core stays free of:
// loading the ruleset from the configuration store, fetching and applying
// locale overlays before source documents enter the scope context, running
// the reference collector, and tracing the call. The core itself receives
// only plain in-memory values.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/locale"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/pointer"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/refs"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/scope"
	apperrors "github.com/Daakon/stone-caster-2-sub004/internal/platform/errors"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage"
)

// referencesPointer is where collected references land in the local scope.
const referencesPointer = "/references"

// Policy carries externally-supplied assembly limits.
type Policy struct {
	// ReferenceCap bounds the collected reference set. Zero selects
	// refs.DefaultCap.
	ReferenceCap int
}

// Document is one raw source document entering the assembly context.
type Document struct {
	Scope scope.Name
	ID    string
	Body  any
}

// Request describes one assembly call.
type Request struct {
	// Skeleton is the target document skeleton.
	Skeleton any
	// Documents are the raw per-scope source documents.
	Documents []Document
	// RulesetID selects a stored ruleset; empty selects the active one.
	RulesetID string
	// Locale is the requested locale; empty or the native locale skips
	// overlays.
	Locale string
	// References are the candidate reference lists.
	References refs.Sources
	// Validator optionally checks the assembled document.
	Validator bundle.Validator
}

// Outcome is the result of one service assembly, including service-level
// degradation warnings that are not tied to a single rule.
type Outcome struct {
	bundle.Result
	Warnings []string
}

// Service assembles bundles from stored configuration and caller documents.
type Service struct {
	rulesets storage.RulesetStore
	packs    storage.LocalePackStore
	policy   Policy
	tracer   trace.Tracer
	clock    func() time.Time
}

// New creates a Service backed by the given stores.
func New(rulesets storage.RulesetStore, packs storage.LocalePackStore, policy Policy) *Service {
	return &Service{
		rulesets: rulesets,
		packs:    packs,
		policy:   policy,
		tracer:   otel.Tracer("bundle/service"),
		clock:    time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Assemble loads configuration, prepares the scope context, and builds a
// bundle. Fatal errors never return a partial bundle.
func (s *Service) Assemble(ctx context.Context, req Request) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "bundle.assemble")
	defer span.End()

	outcome := Outcome{}

	ruleset, err := s.loadRuleset(ctx, req.RulesetID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load ruleset")
		return Outcome{}, err
	}
	span.SetAttributes(
		attribute.String("bundle.ruleset_id", ruleset.ID),
		attribute.Int("bundle.rule_count", len(ruleset.Rules)),
		attribute.String("bundle.locale", req.Locale),
	)

	scopeCtx := scope.NewContext()
	localRoot := any(map[string]any{})

	for _, doc := range req.Documents {
		body, warning := s.localize(ctx, doc, req.Locale)
		if warning != "" {
			outcome.Warnings = append(outcome.Warnings, warning)
		}
		if doc.Scope == scope.Local {
			localRoot = body
			continue
		}
		if err := scopeCtx.SetRoot(doc.Scope, body); err != nil {
			span.RecordError(err)
			return Outcome{}, apperrors.Wrap(apperrors.CodeScopeUnknown, fmt.Sprintf("register scope %q", doc.Scope), err)
		}
	}

	referenceCap := s.policy.ReferenceCap
	if referenceCap == 0 {
		referenceCap = refs.DefaultCap
	}
	references := req.References.Collect(referenceCap)
	ids := make([]any, len(references))
	for i, id := range references {
		ids[i] = id
	}
	localRoot, err = pointer.Set(localRoot, referencesPointer, ids)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}
	if err := scopeCtx.SetRoot(scope.Local, localRoot); err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}

	result, err := bundle.Assemble(bundle.Input{
		Skeleton:  req.Skeleton,
		Context:   scopeCtx,
		Rules:     ruleset.Rules,
		Validator: req.Validator,
		Clock:     s.clock,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assemble")
		return Outcome{}, err
	}

	span.SetAttributes(
		attribute.Int("bundle.byte_size", result.Metrics.ByteSize),
		attribute.Int("bundle.estimated_tokens", result.Metrics.EstimatedTokens),
		attribute.Int("bundle.rules_applied", result.Report.Applied),
		attribute.Int("bundle.rules_skipped", len(result.Report.Skipped)),
		attribute.Int("bundle.rule_warnings", len(result.Report.Warnings)),
		attribute.Int("bundle.references", len(references)),
	)

	outcome.Result = result
	return outcome, nil
}

func (s *Service) loadRuleset(ctx context.Context, id string) (storage.RulesetRecord, error) {
	if s.rulesets == nil {
		return storage.RulesetRecord{}, apperrors.New(apperrors.CodeRulesetMissing, "ruleset store is not configured")
	}

	var (
		record storage.RulesetRecord
		err    error
	)
	if id != "" {
		record, err = s.rulesets.GetRuleset(ctx, id)
	} else {
		record, err = s.rulesets.GetActiveRuleset(ctx)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.RulesetRecord{}, apperrors.Wrap(apperrors.CodeRulesetMissing, "no active ruleset", err)
		}
		return storage.RulesetRecord{}, fmt.Errorf("load ruleset: %w", err)
	}
	return record, nil
}

// localize applies a stored locale overlay to one source document. A missing
// pack or an unoverlayable document degrades to the base document with a
// warning.
func (s *Service) localize(ctx context.Context, doc Document, requested string) (any, string) {
	if requested == "" || locale.Same(requested, locale.DefaultLocale) {
		return doc.Body, ""
	}
	if s.packs == nil || doc.ID == "" {
		return doc.Body, ""
	}
	base, ok := doc.Body.(map[string]any)
	if !ok {
		return doc.Body, ""
	}

	record, err := s.packs.GetLocalePack(ctx, string(doc.Scope), doc.ID, requested)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return doc.Body, fmt.Sprintf("locale pack %s/%s missing for %s", doc.Scope, doc.ID, requested)
		}
		return doc.Body, fmt.Sprintf("locale pack %s/%s: %v", doc.Scope, doc.ID, err)
	}

	pack := &locale.Pack{Locale: record.Locale, Payload: record.Payload}
	return locale.Overlay(base, pack, locale.DefaultLocale), ""
}
