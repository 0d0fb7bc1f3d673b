package seed

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

// Matches reports whether runtime arguments satisfy matchArgs. Every key of
// matchArgs must be present in args; nested objects are matched recursively
// and other values must be deep-equal. Unless partial is set, the recursive
// key count of both sides must also be equal.
func Matches(matchArgs, args map[string]any, partial bool) bool {
	if !containsArgs(matchArgs, args) {
		return false
	}
	if !partial && CountKeys(matchArgs) != CountKeys(args) {
		return false
	}
	return true
}

func containsArgs(want, got map[string]any) bool {
	for key, wantValue := range want {
		gotValue, ok := got[key]
		if !ok {
			return false
		}
		if wantObj, ok := wantValue.(map[string]any); ok {
			gotObj, ok := gotValue.(map[string]any)
			if !ok || !containsArgs(wantObj, gotObj) {
				return false
			}
			continue
		}
		if !cmp.Equal(normalizeNumbers(wantValue), normalizeNumbers(gotValue)) {
			return false
		}
	}
	return true
}

// CountKeys counts the keys of m plus, recursively, the keys of every
// nested object. Lists count as leaves.
func CountKeys(m map[string]any) int {
	n := 0
	for _, v := range m {
		n++
		if obj, ok := v.(map[string]any); ok {
			n += CountKeys(obj)
		}
	}
	return n
}

// normalizeNumbers converts every numeric value to float64 so values decoded
// from YAML compare equal to the same values decoded from JSON.
func normalizeNumbers(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = normalizeNumbers(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[k] = normalizeNumbers(item)
		}
		return out
	default:
		return v
	}
}
