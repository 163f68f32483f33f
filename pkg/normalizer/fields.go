package normalizer

import (
	"github.com/postureio/sdk/pkg/extract"
)

// Candidate paths per canonical field, highest priority first. The order
// is a contract: it resolves ambiguity when a record carries several of
// the candidate keys, so it must not be reordered.
var (
	resourceIDPaths = []extract.Path{
		{"resource", "uid"},
		{"resource", "id"},
		{"resource_uid"},
		{"resource_id"},
		{"arn"},
		{"resource_arn"},
	}

	accountIDPaths = []extract.Path{
		{"cloud", "account", "uid"},
		{"cloud", "account", "id"},
		{"account_uid"},
		{"account_id"},
		{"account"},
	}

	regionPaths = []extract.Path{
		{"cloud", "region"},
		{"resource", "region"},
		{"region"},
	}

	checkIDPaths = []extract.Path{
		{"finding", "uid"},
		{"finding", "id"},
		{"check_id"},
		{"rule_id"},
		{"uid"},
		{"id"},
	}

	titlePaths = []extract.Path{
		{"finding", "title"},
		{"title"},
		{"summary"},
		{"name"},
	}

	descriptionPaths = []extract.Path{
		{"finding", "desc"},
		{"finding", "description"},
		{"description"},
		{"desc"},
		{"message"},
	}

	remediationPaths = []extract.Path{
		{"finding", "remediation", "desc"},
		{"finding", "remediation", "description"},
		{"remediation", "desc"},
		{"remediation", "description"},
		{"remediation"},
		{"recommendation"},
		{"fix"},
	}
)

// extractResourceID checks the OCSF resources array before the flat
// fallback paths: first element's uid, then name.
func extractResourceID(record map[string]any) string {
	if v, ok := extract.FromResources(record, "uid"); ok {
		return v
	}
	if v, ok := extract.FromResources(record, "name"); ok {
		return v
	}
	v, _ := extract.String(record, resourceIDPaths)
	return v
}

func extractAccountID(record map[string]any) string {
	if v, ok := extract.FromResources(record, "account_uid"); ok {
		return v
	}
	v, _ := extract.String(record, accountIDPaths)
	return v
}

func extractRegion(record map[string]any) string {
	if v, ok := extract.FromResources(record, "region"); ok {
		return v
	}
	v, _ := extract.String(record, regionPaths)
	return v
}

func extractCheckID(record map[string]any) string {
	v, _ := extract.String(record, checkIDPaths)
	return v
}

func extractTitle(record map[string]any) string {
	v, _ := extract.String(record, titlePaths)
	return v
}

func extractDescription(record map[string]any) string {
	v, _ := extract.String(record, descriptionPaths)
	return v
}

func extractRemediation(record map[string]any) string {
	v, _ := extract.String(record, remediationPaths)
	return v
}
