// Package refs selects a bounded, deduplicated set of entity references from
// multiple candidate sources.
package refs

import "strings"

// DefaultCap bounds collected references when policy supplies no cap.
const DefaultCap = 10

// Sources carries candidate reference lists in their fixed priority order:
// scenario fixed cast first, then adventure cast, then live relationship
// state, then pinned entities from the active encounter.
type Sources struct {
	ScenarioCast  []string `json:"scenarioCast,omitempty"`
	AdventureCast []string `json:"adventureCast,omitempty"`
	Relationships []string `json:"relationships,omitempty"`
	Pinned        []string `json:"pinned,omitempty"`
}

// Lists returns the candidate lists in priority order.
func (s Sources) Lists() [][]string {
	return [][]string{s.ScenarioCast, s.AdventureCast, s.Relationships, s.Pinned}
}

// Collect merges s into a deduplicated reference list bounded by cap.
func (s Sources) Collect(cap int) []string {
	return Collect(s.Lists(), cap)
}

// Collect walks every candidate list in order and gathers identifiers,
// keeping only the first occurrence of each. Identifiers may carry a version
// suffix ("id@version"); deduplication is on the full identifier. Collection
// stops once cap identifiers are gathered, so only the first cap ids in
// order of first appearance survive. Blank identifiers are ignored.
func Collect(lists [][]string, cap int) []string {
	collected := []string{}
	if cap <= 0 {
		return collected
	}
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, id := range list {
			if strings.TrimSpace(id) == "" || seen[id] {
				continue
			}
			seen[id] = true
			collected = append(collected, id)
			if len(collected) == cap {
				return collected
			}
		}
	}
	return collected
}
