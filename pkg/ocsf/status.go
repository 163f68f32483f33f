package ocsf

import "strings"

// Status represents a normalized finding status.
// The zero value means the raw status did not map to a known value.
type Status string

const (
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusNotApplicable Status = "not_applicable"
	StatusInformational Status = "informational"

	// StatusUnset means the raw value was absent or unrecognized.
	StatusUnset Status = ""
)

// statusSynonyms maps common scanner status spellings to canonical
// values. The table is fixed; unrecognized values normalize to unset.
var statusSynonyms = map[string]Status{
	"pass":           StatusPass,
	"passed":         StatusPass,
	"success":        StatusPass,
	"ok":             StatusPass,
	"fail":           StatusFail,
	"failed":         StatusFail,
	"failure":        StatusFail,
	"error":          StatusFail,
	"not_applicable": StatusNotApplicable,
	"n/a":            StatusNotApplicable,
	"na":             StatusNotApplicable,
	"skip":           StatusNotApplicable,
	"skipped":        StatusNotApplicable,
	"info":           StatusInformational,
	"informational":  StatusInformational,
	"information":    StatusInformational,
}

// NormalizeStatus maps a raw status value to a canonical value.
// Matching is case-insensitive and ignores surrounding whitespace.
func NormalizeStatus(raw string) Status {
	return statusSynonyms[strings.ToLower(strings.TrimSpace(raw))]
}

// IsSet reports whether the status holds a canonical value.
func (s Status) IsSet() bool {
	return s != StatusUnset
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
