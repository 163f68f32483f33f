package summarize

import (
	"strings"

	"github.com/postureio/sdk/pkg/ocsf"
)

// ResourceStats describes the unique resources and accounts seen in a
// batch, with a resource-type histogram derived from identifiers.
type ResourceStats struct {
	UniqueResources     int            `json:"unique_resources"`
	UniqueAccounts      int            `json:"unique_accounts"`
	ResourceTypes       map[string]int `json:"resource_types"`
	ResourcesPerAccount float64        `json:"resources_per_account"`
}

// ResourceAnalysis computes resource cardinality and the resource-type
// histogram for a batch.
func ResourceAnalysis(findings []ocsf.EnrichedFinding) ResourceStats {
	resources := make(map[string]bool)
	accounts := make(map[string]bool)
	types := make(map[string]int)

	for _, f := range findings {
		if f.ResourceID != "" {
			resources[f.ResourceID] = true
			if t, ok := ResourceTypeOf(f.ResourceID); ok {
				types[t]++
			}
		}
		if f.AccountID != "" {
			accounts[f.AccountID] = true
		}
	}

	accountCount := len(accounts)
	if accountCount == 0 {
		accountCount = 1
	}

	return ResourceStats{
		UniqueResources:     len(resources),
		UniqueAccounts:      len(accounts),
		ResourceTypes:       types,
		ResourcesPerAccount: float64(len(resources)) / float64(accountCount),
	}
}

// ResourceTypeOf guesses a resource type from a cloud resource
// identifier. AWS ARNs yield the service segment, GCP resource names the
// first label of the googleapis host, Azure resource paths the
// "provider/type" pair. Anything else is unrecognized.
func ResourceTypeOf(resourceID string) (string, bool) {
	if strings.HasPrefix(resourceID, "arn:aws:") {
		parts := strings.Split(resourceID, ":")
		if len(parts) >= 3 {
			return parts[2], true
		}
	}

	if strings.Contains(resourceID, "googleapis.com") && strings.Contains(resourceID, "//") {
		host := strings.SplitN(resourceID, "//", 2)[1]
		return strings.SplitN(host, ".", 2)[0], true
	}

	if strings.HasPrefix(resourceID, "/subscriptions/") {
		parts := strings.Split(resourceID, "/")
		for i, part := range parts {
			if part != "providers" {
				continue
			}
			if i+1 < len(parts) {
				if i+2 < len(parts) {
					return parts[i+1] + "/" + parts[i+2], true
				}
				return parts[i+1], true
			}
			break
		}
	}

	return "", false
}
