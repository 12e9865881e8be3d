// Package locale overlays localized payloads onto base documents.
//
// An overlay is a field-level merge: every leaf present in the overlay
// replaces the corresponding base leaf, leaves absent from the overlay keep
// the base value, and the base document's shape is never altered, so the
// overlay cannot introduce keys the base schema does not carry. Merging
// returns a new document; the base is never mutated.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is the canonical source locale for documents.
const DefaultLocale = "en-US"

// Pack carries a locale-specific partial overlay for one document.
type Pack struct {
	Locale  string         `json:"locale"`
	Payload map[string]any `json:"payload"`
}

// Same reports whether two locale tags identify the same locale. Tags are
// compared after canonicalization; unparseable tags fall back to a
// case-insensitive string comparison.
func Same(a, b string) bool {
	tagA, errA := language.Parse(strings.TrimSpace(a))
	tagB, errB := language.Parse(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return tagA == tagB
}

// Overlay merges pack's payload over base field by field. It returns base
// unchanged when pack is nil, when the pack carries no payload, or when the
// pack's locale equals the document's native locale (the no-op case). A
// missing pack is a degradation, not an error; the caller records the
// warning.
func Overlay(base map[string]any, pack *Pack, nativeLocale string) map[string]any {
	if pack == nil || len(pack.Payload) == 0 {
		return base
	}
	if Same(pack.Locale, nativeLocale) {
		return base
	}
	return merge(base, pack.Payload)
}

func merge(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base))
	for key, baseValue := range base {
		overlayValue, ok := overlay[key]
		if !ok {
			merged[key] = baseValue
			continue
		}
		baseChild, baseIsMap := baseValue.(map[string]any)
		overlayChild, overlayIsMap := overlayValue.(map[string]any)
		if baseIsMap && overlayIsMap {
			merged[key] = merge(baseChild, overlayChild)
			continue
		}
		merged[key] = overlayValue
	}
	return merged
}
