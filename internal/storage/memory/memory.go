// Package memory provides in-memory bundle configuration stores for tools
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Daakon/stone-caster-2-sub004/internal/storage"
)

// Store keeps configuration records in memory. It implements both
// storage.RulesetStore and storage.LocalePackStore.
type Store struct {
	mu       sync.RWMutex
	rulesets map[string]storage.RulesetRecord
	active   string
	packs    map[packKey]storage.LocalePackRecord
}

type packKey struct {
	docType string
	docID   string
	locale  string
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		rulesets: map[string]storage.RulesetRecord{},
		packs:    map[packKey]storage.LocalePackRecord{},
	}
}

// PutRuleset inserts or replaces a ruleset record. Marking a record active
// deactivates every other ruleset.
func (s *Store) PutRuleset(_ context.Context, record storage.RulesetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.Active {
		for id, existing := range s.rulesets {
			if existing.Active && id != record.ID {
				existing.Active = false
				s.rulesets[id] = existing
			}
		}
		s.active = record.ID
	} else if s.active == record.ID {
		s.active = ""
	}
	s.rulesets[record.ID] = record
	return nil
}

// GetRuleset returns a ruleset record by id.
func (s *Store) GetRuleset(_ context.Context, id string) (storage.RulesetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.rulesets[id]
	if !ok {
		return storage.RulesetRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// GetActiveRuleset returns the currently active ruleset record.
func (s *Store) GetActiveRuleset(_ context.Context) (storage.RulesetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return storage.RulesetRecord{}, storage.ErrNotFound
	}
	record, ok := s.rulesets[s.active]
	if !ok {
		return storage.RulesetRecord{}, storage.ErrNotFound
	}
	return record, nil
}

// ListRulesets returns every ruleset record ordered by id.
func (s *Store) ListRulesets(_ context.Context) ([]storage.RulesetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]storage.RulesetRecord, 0, len(s.rulesets))
	for _, record := range s.rulesets {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// PutLocalePack inserts or replaces a locale pack record.
func (s *Store) PutLocalePack(_ context.Context, record storage.LocalePackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packs[packKey{record.DocType, record.DocID, record.Locale}] = record
	return nil
}

// GetLocalePack returns the locale pack for a document and locale.
func (s *Store) GetLocalePack(_ context.Context, docType, docID, locale string) (storage.LocalePackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.packs[packKey{docType, docID, locale}]
	if !ok {
		return storage.LocalePackRecord{}, storage.ErrNotFound
	}
	return record, nil
}
