// Package extract pulls values out of arbitrarily-shaped raw finding
// records. Raw records are decoded JSON trees (map[string]any); each field
// has an ordered list of candidate paths and the first path resolving to a
// non-empty value wins. Traversal never panics: a missing key or a
// non-mapping intermediate value simply means the candidate is absent.
package extract

import (
	"fmt"
	"strconv"
)

// Path is an ordered sequence of keys describing a nested lookup.
type Path []string

// Lookup walks the record along the path and returns the value found.
// It returns false as soon as an intermediate key is missing or the
// current value is not a mapping.
func Lookup(record map[string]any, path Path) (any, bool) {
	var current any = record
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String tries each candidate path in order and returns the first value
// that resolves to a non-empty string. Absent means no path resolved:
// nil values and empty strings do not count as present.
func String(record map[string]any, paths []Path) (string, bool) {
	for _, path := range paths {
		value, ok := Lookup(record, path)
		if !ok {
			continue
		}
		if s, ok := coerce(value); ok {
			return s, true
		}
	}
	return "", false
}

// FromResources returns the named key from the first element of the
// record's "resources" array, the OCSF placement checked before any
// flat fallback paths.
func FromResources(record map[string]any, key string) (string, bool) {
	resources, ok := record["resources"].([]any)
	if !ok || len(resources) == 0 {
		return "", false
	}
	first, ok := resources[0].(map[string]any)
	if !ok {
		return "", false
	}
	value, ok := first[key]
	if !ok {
		return "", false
	}
	return coerce(value)
}

// coerce renders a scalar as a string. Integral float64 values (the JSON
// decoder's number type) render without a decimal point. Composite values
// are not textual fields and count as absent.
func coerce(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		// 'f' with -1 precision keeps every digit of large ids such as
		// 12-digit account numbers; %v would switch those to scientific
		// notation. Integral values render without a decimal point.
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprintf("%v", v), true
	}
}
