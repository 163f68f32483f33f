package summarize

import (
	"sort"
	"strings"

	"github.com/postureio/sdk/pkg/ocsf"
)

// ProviderBreakdown is the per-provider slice of a batch, consumed by the
// report builder.
type ProviderBreakdown struct {
	Total           int            `json:"total"`
	BySeverity      map[string]int `json:"by_severity"`
	ByStatus        map[string]int `json:"by_status"`
	ByProduct       map[string]int `json:"by_product"`
	UniqueResources int            `json:"unique_resources"`
	UniqueAccounts  int            `json:"unique_accounts"`
}

// ByProvider groups findings by provider with a detailed breakdown each.
func ByProvider(findings []ocsf.EnrichedFinding) map[string]ProviderBreakdown {
	type acc struct {
		total      int
		bySeverity map[string]int
		byStatus   map[string]int
		byProduct  map[string]int
		resources  map[string]bool
		accounts   map[string]bool
	}

	grouped := make(map[string]*acc)
	for _, f := range findings {
		provider := f.Provider.String()
		a, ok := grouped[provider]
		if !ok {
			a = &acc{
				bySeverity: make(map[string]int),
				byStatus:   make(map[string]int),
				byProduct:  make(map[string]int),
				resources:  make(map[string]bool),
				accounts:   make(map[string]bool),
			}
			grouped[provider] = a
		}

		a.total++
		a.bySeverity[labelOf(f.Severity.String())]++
		a.byStatus[labelOf(f.Status.String())]++
		a.byProduct[f.Product]++
		if f.ResourceID != "" {
			a.resources[f.ResourceID] = true
		}
		if f.AccountID != "" {
			a.accounts[f.AccountID] = true
		}
	}

	result := make(map[string]ProviderBreakdown, len(grouped))
	for provider, a := range grouped {
		result[provider] = ProviderBreakdown{
			Total:           a.total,
			BySeverity:      a.bySeverity,
			ByStatus:        a.byStatus,
			ByProduct:       a.byProduct,
			UniqueResources: len(a.resources),
			UniqueAccounts:  len(a.accounts),
		}
	}
	return result
}

// FrameworkBreakdown is the per-framework slice of a batch. A finding
// referencing a framework through several controls counts once per
// reference, mirroring how control-level reports present it.
type FrameworkBreakdown struct {
	Total      int                    `json:"total"`
	BySeverity map[string]int         `json:"by_severity"`
	ByStatus   map[string]int         `json:"by_status"`
	Controls   []string               `json:"controls"`
	Findings   []ocsf.EnrichedFinding `json:"findings"`
}

// ByFramework groups findings by the frameworks their references name.
func ByFramework(findings []ocsf.EnrichedFinding) map[string]FrameworkBreakdown {
	type acc struct {
		total      int
		bySeverity map[string]int
		byStatus   map[string]int
		controls   map[string]bool
		findings   []ocsf.EnrichedFinding
	}

	grouped := make(map[string]*acc)
	for _, f := range findings {
		for _, ref := range f.FrameworkRefs {
			framework, control, ok := strings.Cut(ref, ":")
			if !ok {
				continue
			}
			a, found := grouped[framework]
			if !found {
				a = &acc{
					bySeverity: make(map[string]int),
					byStatus:   make(map[string]int),
					controls:   make(map[string]bool),
				}
				grouped[framework] = a
			}

			a.total++
			a.bySeverity[labelOf(f.Severity.String())]++
			a.byStatus[labelOf(f.Status.String())]++
			a.controls[control] = true
			a.findings = append(a.findings, f)
		}
	}

	result := make(map[string]FrameworkBreakdown, len(grouped))
	for framework, a := range grouped {
		controls := make([]string, 0, len(a.controls))
		for control := range a.controls {
			controls = append(controls, control)
		}
		sort.Strings(controls)

		result[framework] = FrameworkBreakdown{
			Total:      a.total,
			BySeverity: a.bySeverity,
			ByStatus:   a.byStatus,
			Controls:   controls,
			Findings:   a.findings,
		}
	}
	return result
}

// Risk score histogram bucket labels, aligned with CVSS-style ranges.
const (
	riskBucketCritical = "critical (9-10)"
	riskBucketHigh     = "high (7-8.9)"
	riskBucketMedium   = "medium (4-6.9)"
	riskBucketLow      = "low (1-3.9)"
	riskBucketInfo     = "info (0-0.9)"
	riskBucketUnknown  = "unknown"
)

// RiskScoreDistribution buckets externally assigned risk scores.
// Findings without a score, or with one outside 0-10, count as unknown.
func RiskScoreDistribution(findings []ocsf.EnrichedFinding) map[string]int {
	dist := map[string]int{
		riskBucketCritical: 0,
		riskBucketHigh:     0,
		riskBucketMedium:   0,
		riskBucketLow:      0,
		riskBucketInfo:     0,
		riskBucketUnknown:  0,
	}

	for _, f := range findings {
		if f.RiskScore == nil {
			dist[riskBucketUnknown]++
			continue
		}
		score := *f.RiskScore
		switch {
		case score < 0 || score > 10:
			dist[riskBucketUnknown]++
		case score >= 9:
			dist[riskBucketCritical]++
		case score >= 7:
			dist[riskBucketHigh]++
		case score >= 4:
			dist[riskBucketMedium]++
		case score >= 1:
			dist[riskBucketLow]++
		default:
			dist[riskBucketInfo]++
		}
	}
	return dist
}
