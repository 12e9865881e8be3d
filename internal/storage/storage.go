// Package storage defines persistence contracts for bundle configuration.
//
// Only configuration records live here: injection rulesets and locale packs.
// Entity repositories (worlds, characters, adventures) belong to upstream
// services and are injected into assemblies as already-resolved documents.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/rules"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// RulesetRecord stores one named, versioned injection rule list.
type RulesetRecord struct {
	ID        string
	Name      string
	Version   int
	Active    bool
	Rules     []rules.Rule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocalePackRecord stores one locale overlay payload for a document,
// keyed by (document type, document id, locale).
type LocalePackRecord struct {
	DocType   string
	DocID     string
	Locale    string
	Payload   map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RulesetStore persists injection rulesets.
type RulesetStore interface {
	PutRuleset(ctx context.Context, record RulesetRecord) error
	GetRuleset(ctx context.Context, id string) (RulesetRecord, error)
	GetActiveRuleset(ctx context.Context) (RulesetRecord, error)
	ListRulesets(ctx context.Context) ([]RulesetRecord, error)
}

// LocalePackStore persists locale overlay payloads.
type LocalePackStore interface {
	PutLocalePack(ctx context.Context, record LocalePackRecord) error
	GetLocalePack(ctx context.Context, docType, docID, locale string) (LocalePackRecord, error)
}
