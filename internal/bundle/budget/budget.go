// Package budget estimates value sizes and enforces limits by truncation.
//
// Truncation is greedy and always removes from the end of a string or array,
// never re-ordering or prioritizing content. Downstream consumers depend on
// this exact truncation order, so smarter trimming must not be substituted
// silently.
package budget

import "encoding/json"

// Unit selects how a limit is measured.
type Unit string

const (
	// UnitCount caps strings by character count and arrays by element count.
	UnitCount Unit = "count"
	// UnitTokens caps values by estimated token size.
	UnitTokens Unit = "tokens"
)

// Limit caps the size of one injected value.
type Limit struct {
	Unit Unit `json:"unit"`
	Max  int  `json:"max"`
}

// charsPerToken is the canonical character-to-token estimate ratio.
const charsPerToken = 4

// Estimate assigns an abstract token size to a value: strings cost
// ceil(chars/4), arrays and objects cost ceil(serializedLength/4) using
// canonical JSON serialization, and everything else costs 1.
func Estimate(value any) int {
	switch v := value.(type) {
	case string:
		return ceilDiv(len([]rune(v)), charsPerToken)
	case []any, map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return 1
		}
		return ceilDiv(len(encoded), charsPerToken)
	default:
		return 1
	}
}

// Apply enforces limit on value by truncation. Strings and arrays are
// truncated from the end; other types pass through unchanged. Objects that
// exceed a token budget also pass through unchanged.
func Apply(value any, limit Limit) any {
	switch limit.Unit {
	case UnitCount:
		return applyCount(value, limit.Max)
	case UnitTokens:
		return applyTokens(value, limit.Max)
	default:
		return value
	}
}

func applyCount(value any, max int) any {
	if max < 0 {
		max = 0
	}
	switch v := value.(type) {
	case string:
		runes := []rune(v)
		if len(runes) <= max {
			return v
		}
		return string(runes[:max])
	case []any:
		if len(v) <= max {
			return v
		}
		truncated := make([]any, max)
		copy(truncated, v)
		return truncated
	default:
		return value
	}
}

func applyTokens(value any, max int) any {
	if Estimate(value) <= max {
		return value
	}
	switch v := value.(type) {
	case string:
		runes := []rune(v)
		for len(runes) > 0 {
			runes = runes[:len(runes)-1]
			if Estimate(string(runes)) <= max {
				break
			}
		}
		return string(runes)
	case []any:
		items := make([]any, len(v))
		copy(items, v)
		for len(items) > 0 {
			items = items[:len(items)-1]
			if Estimate(items) <= max {
				break
			}
		}
		return items
	default:
		return value
	}
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
