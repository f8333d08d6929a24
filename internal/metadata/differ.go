package metadata

import (
	"fmt"
	"sort"
	"strings"
)

// Diff returns the names of candidate fields whose values differ from the
// existing record, sorted. Fields present only in the existing record are
// ignored so hand-added keys survive a rewrite check. Comparison rules:
// lists compare order-insensitively after stringifying every element, maps
// recurse, everything else compares as trimmed strings where empty and absent
// are the same value.
func Diff(existing, candidate map[string]any) []string {
	var changed []string
	for key, newValue := range candidate {
		existingValue := existing[key]
		switch nv := newValue.(type) {
		case []any:
			ev, ok := existingValue.([]any)
			if !ok || !equalUnordered(ev, nv) {
				changed = append(changed, key)
			}
		case map[string]any:
			ev, ok := existingValue.(map[string]any)
			if !ok || len(Diff(ev, nv)) > 0 {
				changed = append(changed, key)
			}
		default:
			if stringify(existingValue) != stringify(newValue) {
				changed = append(changed, key)
			}
		}
	}
	sort.Strings(changed)
	return changed
}

func equalUnordered(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	for i := range a {
		as[i] = fmt.Sprintf("%v", a[i])
	}
	for i := range b {
		bs[i] = fmt.Sprintf("%v", b[i])
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// stringify folds every zero value to "" so a missing field and an empty one
// never register as a change.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	case int:
		if t == 0 {
			return ""
		}
	case float64:
		if t == 0 {
			return ""
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
