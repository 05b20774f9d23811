package vector

import (
	"fmt"
	"strconv"
)

// MatchesFilter evaluates the filter against a payload map in-process.
// Providers without native disjunction support (chromem, memory) post-filter
// with this.
func MatchesFilter(metadata map[string]any, f *Filter) bool {
	if f.Empty() {
		return true
	}
	for _, clause := range f.All {
		if !clauseMatches(metadata, clause) {
			return false
		}
	}
	return true
}

func clauseMatches(metadata map[string]any, clause Clause) bool {
	for _, fm := range clause.Any {
		raw, ok := metadata[fm.Field]
		if !ok {
			continue
		}
		for _, want := range fm.Values {
			if valueMatches(raw, want) {
				return true
			}
		}
	}
	return false
}

// valueMatches compares a payload value (scalar or list) against a filter
// value. Numeric payloads match their decimal string form, so year filters
// work whether the store returns ints or strings.
func valueMatches(raw any, want string) bool {
	switch v := raw.(type) {
	case string:
		return v == want
	case []any:
		for _, item := range v {
			if valueMatches(item, want) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if item == want {
				return true
			}
		}
		return false
	case int:
		return strconv.Itoa(v) == want
	case int64:
		return strconv.FormatInt(v, 10) == want
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10) == want
		}
		return fmt.Sprint(v) == want
	case bool:
		return strconv.FormatBool(v) == want
	default:
		return fmt.Sprint(v) == want
	}
}
