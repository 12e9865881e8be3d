package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Daakon/stone-caster-2-sub004/internal/storage"
)

func TestPutRulesetDeactivatesOthers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.PutRuleset(ctx, storage.RulesetRecord{ID: "rs-1", Active: true}); err != nil {
		t.Fatalf("put rs-1: %v", err)
	}
	if err := store.PutRuleset(ctx, storage.RulesetRecord{ID: "rs-2", Active: true}); err != nil {
		t.Fatalf("put rs-2: %v", err)
	}

	active, err := store.GetActiveRuleset(ctx)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != "rs-2" {
		t.Fatalf("expected rs-2 active, got %q", active.ID)
	}
	first, err := store.GetRuleset(ctx, "rs-1")
	if err != nil {
		t.Fatalf("get rs-1: %v", err)
	}
	if first.Active {
		t.Fatal("expected rs-1 to be deactivated")
	}
}

func TestGetRulesetNotFound(t *testing.T) {
	store := NewStore()
	if _, err := store.GetRuleset(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRulesetsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, id := range []string{"rs-b", "rs-a", "rs-c"} {
		if err := store.PutRuleset(ctx, storage.RulesetRecord{ID: id}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	records, err := store.ListRulesets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 || records[0].ID != "rs-a" || records[2].ID != "rs-c" {
		t.Fatalf("unexpected order: %v", records)
	}
}

func TestLocalePackRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	record := storage.LocalePackRecord{
		DocType: "scenario",
		DocID:   "sc-1",
		Locale:  "pt-BR",
		Payload: map[string]any{"title": "A Clareira"},
	}
	if err := store.PutLocalePack(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetLocalePack(ctx, "scenario", "sc-1", "pt-BR")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Payload["title"] != "A Clareira" {
		t.Fatalf("unexpected payload: %v", got.Payload)
	}
	if _, err := store.GetLocalePack(ctx, "scenario", "sc-1", "fr-FR"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
