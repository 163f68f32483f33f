package summarize

import (
	"reflect"
	"testing"

	"github.com/postureio/sdk/pkg/ocsf"
)

func TestResourceTypeOf(t *testing.T) {
	tests := []struct {
		name       string
		resourceID string
		want       string
		found      bool
	}{
		{
			name:       "aws arn service segment",
			resourceID: "arn:aws:s3:::my-bucket",
			want:       "s3",
			found:      true,
		},
		{
			name:       "aws iam arn",
			resourceID: "arn:aws:iam::123456789012:root",
			want:       "iam",
			found:      true,
		},
		{
			name:       "gcp googleapis host label",
			resourceID: "//compute.googleapis.com/projects/p/zones/z/instances/i",
			want:       "compute",
			found:      true,
		},
		{
			name:       "azure provider and type",
			resourceID: "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/acct",
			want:       "Microsoft.Storage/storageAccounts",
			found:      true,
		},
		{
			name:       "azure provider only",
			resourceID: "/subscriptions/sub/providers/Microsoft.Compute",
			want:       "Microsoft.Compute",
			found:      true,
		},
		{
			name:       "azure path without providers segment",
			resourceID: "/subscriptions/sub/resourceGroups/rg",
			found:      false,
		},
		{
			name:       "unrecognized identifier",
			resourceID: "not-a-resource",
			found:      false,
		},
		{
			name:       "empty identifier",
			resourceID: "",
			found:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ResourceTypeOf(tt.resourceID)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && got != tt.want {
				t.Errorf("ResourceTypeOf(%q) = %q, want %q", tt.resourceID, got, tt.want)
			}
		})
	}
}

func TestResourceAnalysis(t *testing.T) {
	findings := []ocsf.EnrichedFinding{
		{Finding: ocsf.Finding{Provider: ocsf.ProviderAWS, ResourceID: "arn:aws:s3:::a", AccountID: "1"}},
		{Finding: ocsf.Finding{Provider: ocsf.ProviderAWS, ResourceID: "arn:aws:s3:::b", AccountID: "1"}},
		{Finding: ocsf.Finding{Provider: ocsf.ProviderAWS, ResourceID: "arn:aws:iam::1:root", AccountID: "2"}},
		{Finding: ocsf.Finding{Provider: ocsf.ProviderAWS, ResourceID: "plain-id"}},
		{Finding: ocsf.Finding{Provider: ocsf.ProviderAWS}},
	}

	got := ResourceAnalysis(findings)

	if got.UniqueResources != 4 {
		t.Errorf("UniqueResources = %d, want 4", got.UniqueResources)
	}
	if got.UniqueAccounts != 2 {
		t.Errorf("UniqueAccounts = %d, want 2", got.UniqueAccounts)
	}
	wantTypes := map[string]int{"s3": 2, "iam": 1}
	if !reflect.DeepEqual(got.ResourceTypes, wantTypes) {
		t.Errorf("ResourceTypes = %v, want %v", got.ResourceTypes, wantTypes)
	}
	if got.ResourcesPerAccount != 2 {
		t.Errorf("ResourcesPerAccount = %v, want 2", got.ResourcesPerAccount)
	}
}

func TestResourceAnalysis_NoAccounts(t *testing.T) {
	findings := []ocsf.EnrichedFinding{
		{Finding: ocsf.Finding{Provider: ocsf.ProviderAWS, ResourceID: "r1"}},
	}

	got := ResourceAnalysis(findings)
	if got.ResourcesPerAccount != 1 {
		t.Errorf("ResourcesPerAccount = %v, want 1 (division guarded)", got.ResourcesPerAccount)
	}
}
