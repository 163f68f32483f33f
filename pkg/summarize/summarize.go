// Package summarize computes rollups over batches of findings for
// reporting. Every function here is a pure, single-pass transform that
// never fails: empty input produces zero-valued summaries.
package summarize

import (
	"sort"
	"strings"

	"github.com/postureio/sdk/pkg/ocsf"
)

// SeverityCounts counts findings by severity level, bucketing unset
// severities under "unknown".
func SeverityCounts(findings []ocsf.EnrichedFinding) map[string]int {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[labelOf(f.Severity.String())]++
	}
	return counts
}

// StatusCounts counts findings by status, bucketing unset statuses under
// "unknown".
func StatusCounts(findings []ocsf.EnrichedFinding) map[string]int {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[labelOf(f.Status.String())]++
	}
	return counts
}

// ProviderCounts counts findings by cloud provider.
func ProviderCounts(findings []ocsf.EnrichedFinding) map[string]int {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Provider.String()]++
	}
	return counts
}

// ProductCounts counts findings by security product.
func ProductCounts(findings []ocsf.EnrichedFinding) map[string]int {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Product]++
	}
	return counts
}

// ScanTimeRange returns the min/max of the findings' timestamps, or both
// ends nil for an empty batch.
func ScanTimeRange(findings []ocsf.EnrichedFinding) ocsf.TimeRange {
	var tr ocsf.TimeRange
	for _, f := range findings {
		t := f.Time
		if tr.Start == nil || t.Before(*tr.Start) {
			start := t
			tr.Start = &start
		}
		if tr.End == nil || t.After(*tr.End) {
			end := t
			tr.End = &end
		}
	}
	return tr
}

// FrameworksCovered returns the sorted distinct framework ids referenced
// across the batch.
func FrameworksCovered(findings []ocsf.EnrichedFinding) []string {
	seen := make(map[string]bool)
	for _, f := range findings {
		for _, ref := range f.FrameworkRefs {
			if framework, _, ok := strings.Cut(ref, ":"); ok {
				seen[framework] = true
			}
		}
	}

	covered := make([]string, 0, len(seen))
	for framework := range seen {
		covered = append(covered, framework)
	}
	sort.Strings(covered)
	return covered
}

// Summarize generates the comprehensive summary snapshot for a batch.
func Summarize(findings []ocsf.EnrichedFinding) ocsf.FindingSummary {
	uniqueResources := make(map[string]bool)
	uniqueAccounts := make(map[string]bool)
	for _, f := range findings {
		if f.ResourceID != "" {
			uniqueResources[f.ResourceID] = true
		}
		if f.AccountID != "" {
			uniqueAccounts[f.AccountID] = true
		}
	}

	return ocsf.FindingSummary{
		TotalFindings:     len(findings),
		BySeverity:        SeverityCounts(findings),
		ByStatus:          StatusCounts(findings),
		ByProvider:        ProviderCounts(findings),
		ByProduct:         ProductCounts(findings),
		FrameworksCovered: FrameworksCovered(findings),
		ScanTimeRange:     ScanTimeRange(findings),
		UniqueResources:   len(uniqueResources),
		UniqueAccounts:    len(uniqueAccounts),
	}
}

// Score is a framework compliance tally. Warn aggregates informational
// and not_applicable statuses; Unknown counts findings without a
// recognized status.
type Score struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Warn    int `json:"warn"`
	Unknown int `json:"unknown"`
	Total   int `json:"total"`
}

// FrameworkScore tallies pass/fail/warn for the findings that reference
// the given framework.
func FrameworkScore(findings []ocsf.EnrichedFinding, frameworkID string) Score {
	prefix := frameworkID + ":"

	var score Score
	for _, f := range findings {
		referenced := false
		for _, ref := range f.FrameworkRefs {
			if strings.HasPrefix(ref, prefix) {
				referenced = true
				break
			}
		}
		if !referenced {
			continue
		}

		score.Total++
		switch f.Status {
		case ocsf.StatusPass:
			score.Pass++
		case ocsf.StatusFail:
			score.Fail++
		case ocsf.StatusInformational, ocsf.StatusNotApplicable:
			score.Warn++
		default:
			score.Unknown++
		}
	}
	return score
}

func labelOf(value string) string {
	if value == "" {
		return ocsf.LabelUnknown
	}
	return value
}
