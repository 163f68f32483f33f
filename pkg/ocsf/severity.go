package ocsf

import "strings"

// Severity represents a normalized finding severity level.
// The zero value means the raw severity did not map to a known level.
type Severity string

const (
	SeverityCritical      Severity = "critical"
	SeverityHigh          Severity = "high"
	SeverityMedium        Severity = "medium"
	SeverityLow           Severity = "low"
	SeverityInformational Severity = "informational"

	// SeverityUnset means the raw value was absent or unrecognized.
	SeverityUnset Severity = ""
)

// severitySynonyms maps common scanner severity spellings to canonical
// levels. The table is fixed; unrecognized values normalize to unset.
var severitySynonyms = map[string]Severity{
	"critical":      SeverityCritical,
	"crit":          SeverityCritical,
	"high":          SeverityHigh,
	"medium":        SeverityMedium,
	"med":           SeverityMedium,
	"moderate":      SeverityMedium,
	"low":           SeverityLow,
	"info":          SeverityInformational,
	"informational": SeverityInformational,
	"information":   SeverityInformational,
	"notice":        SeverityInformational,
}

// NormalizeSeverity maps a raw severity value to a canonical level.
// Matching is case-insensitive and ignores surrounding whitespace.
func NormalizeSeverity(raw string) Severity {
	return severitySynonyms[strings.ToLower(strings.TrimSpace(raw))]
}

// IsSet reports whether the severity holds a canonical level.
func (s Severity) IsSet() bool {
	return s != SeverityUnset
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Priority returns the numeric priority of the severity level.
// Higher numbers = higher priority; unset is lowest.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInformational:
		return 1
	default:
		return 0
	}
}

// AllSeverities returns all canonical severities in priority order
// (highest first).
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInformational,
	}
}
