package ocsf

import "time"

// TimeRange is the min/max span of finding timestamps in a batch. Both
// ends are nil for an empty batch.
type TimeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// FindingSummary is a derived, immutable snapshot of summary statistics
// for a collection of findings. It is computed fresh from a batch, never
// updated incrementally.
type FindingSummary struct {
	TotalFindings int `json:"total_findings"`

	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
	ByProvider map[string]int `json:"by_provider"`
	ByProduct  map[string]int `json:"by_product"`

	// FrameworksCovered is the sorted distinct list of framework ids seen
	// across all findings' framework references.
	FrameworksCovered []string `json:"frameworks_covered"`

	ScanTimeRange TimeRange `json:"scan_time_range"`

	UniqueResources int `json:"unique_resources"`
	UniqueAccounts  int `json:"unique_accounts"`
}
