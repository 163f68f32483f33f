package enrich

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/mapping"
	"github.com/postureio/sdk/pkg/metrics"
	"github.com/postureio/sdk/pkg/ocsf"
)

func newStore(t *testing.T, ruleSets map[string]string) *mapping.Store {
	t.Helper()
	dir := t.TempDir()
	for id, content := range ruleSets {
		if err := os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return mapping.NewStore(dir)
}

const cisRuleSet = `
map_id: cis_aws_14
name: CIS AWS Foundations
version: "1.4"
description: CIS benchmark mapping
framework_type: cis
rules:
  - source: "prowler:check_a"
    target: "CIS-1.1"
    title: Avoid root
    description: Root account should not be used
    severity: high
  - source: "prowler:check_a"
    target: "CIS-1.2"
    title: Root MFA
    description: Root account must have MFA
    severity: critical
  - source: "prowler:check_b"
    target: "CIS-2.1"
    title: CloudTrail
    description: CloudTrail should be enabled
`

const nistRuleSet = `
map_id: nist_800_53
name: NIST 800-53
version: "5"
description: NIST control mapping
framework_type: nist
rules:
  - source: "prowler:check_a"
    target: "AC-6"
    title: Least privilege
    description: Enforce least privilege
`

func TestApply_AttachesRefsAndOverridesSeverity(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a"},
	}

	enriched, err := enricher.Apply(findings, []string{"cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	wantRefs := []string{"cis_aws_14:CIS-1.1", "cis_aws_14:CIS-1.2"}
	if !reflect.DeepEqual(enriched[0].FrameworkRefs, wantRefs) {
		t.Errorf("FrameworkRefs = %v, want %v", enriched[0].FrameworkRefs, wantRefs)
	}
	// First matching override wins; the later "critical" must not apply.
	if enriched[0].Severity != ocsf.SeverityHigh {
		t.Errorf("Severity = %q, want high", enriched[0].Severity)
	}
}

func TestApply_OverrideDoesNotClobberSetSeverity(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a", Severity: ocsf.SeverityLow},
	}

	enriched, err := enricher.Apply(findings, []string{"cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if enriched[0].Severity != ocsf.SeverityLow {
		t.Errorf("Severity = %q, want low (already-set severity must survive)", enriched[0].Severity)
	}
}

func TestApply_NoCheckIDMeansNoRefs(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler"},
	}

	enriched, err := enricher.Apply(findings, []string{"cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if enriched[0].FrameworkRefs == nil {
		t.Fatalf("FrameworkRefs is nil, want empty slice")
	}
	if len(enriched[0].FrameworkRefs) != 0 {
		t.Errorf("FrameworkRefs = %v, want empty", enriched[0].FrameworkRefs)
	}
}

func TestApply_NoMatchKeepsEmptyRefs(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_unmapped"},
	}

	enriched, err := enricher.Apply(findings, []string{"cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(enriched[0].FrameworkRefs) != 0 {
		t.Errorf("FrameworkRefs = %v, want empty", enriched[0].FrameworkRefs)
	}
}

func TestApply_RuleSetOrderFixesRefOrder(t *testing.T) {
	store := newStore(t, map[string]string{
		"cis_aws_14":  cisRuleSet,
		"nist_800_53": nistRuleSet,
	})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a"},
	}

	enriched, err := enricher.Apply(findings, []string{"nist_800_53", "cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	wantRefs := []string{"nist_800_53:AC-6", "cis_aws_14:CIS-1.1", "cis_aws_14:CIS-1.2"}
	if !reflect.DeepEqual(enriched[0].FrameworkRefs, wantRefs) {
		t.Errorf("FrameworkRefs = %v, want %v (caller order, then file order)", enriched[0].FrameworkRefs, wantRefs)
	}
}

func TestApply_Idempotent(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a"},
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_b"},
	}

	first, err := enricher.Apply(findings, []string{"cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Re-enrich the canonical projection of the already-enriched batch.
	canonical := make([]ocsf.Finding, len(first))
	for i, ef := range first {
		canonical[i] = ef.Finding
	}
	second, err := enricher.Apply(canonical, []string{"cis_aws_14"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	for i := range first {
		if !reflect.DeepEqual(first[i].FrameworkRefs, second[i].FrameworkRefs) {
			t.Errorf("finding %d: refs differ between passes: %v vs %v",
				i, first[i].FrameworkRefs, second[i].FrameworkRefs)
		}
	}
}

func TestApply_LoadFailureAbortsWholeCall(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a"},
	}

	enriched, err := enricher.Apply(findings, []string{"cis_aws_14", "missing_set"})
	if err == nil {
		t.Fatalf("expected error for missing rule set")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("kind = %v, want not_found", errors.GetKind(err))
	}
	if enriched != nil {
		t.Errorf("expected no partial enrichment, got %d findings", len(enriched))
	}
}

func TestApply_InputNotMutated(t *testing.T) {
	store := newStore(t, map[string]string{"cis_aws_14": cisRuleSet})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a"},
	}

	if _, err := enricher.Apply(findings, []string{"cis_aws_14"}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if findings[0].Severity != ocsf.SeverityUnset {
		t.Errorf("input finding mutated: severity = %q", findings[0].Severity)
	}
}

func TestApply_CountsMatchesPerRuleSet(t *testing.T) {
	collector := metrics.NewInMemoryCollector()
	metrics.SetDefaultCollector(collector)
	t.Cleanup(func() { metrics.SetDefaultCollector(nil) })

	store := newStore(t, map[string]string{
		"cis_aws_14":  cisRuleSet,
		"nist_800_53": nistRuleSet,
	})
	enricher := New(store)

	findings := []ocsf.Finding{
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_a"},
		{Provider: ocsf.ProviderAWS, Product: "prowler", CheckID: "check_b"},
		{Provider: ocsf.ProviderAWS, Product: "prowler"},
	}

	if _, err := enricher.Apply(findings, []string{"cis_aws_14", "nist_800_53"}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if got := collector.GetCounter(metrics.EnrichMatchesTotal.Name, "rule_set", "cis_aws_14"); got != 3 {
		t.Errorf("cis match counter = %v, want 3 (two for check_a, one for check_b)", got)
	}
	if got := collector.GetCounter(metrics.EnrichMatchesTotal.Name, "rule_set", "nist_800_53"); got != 1 {
		t.Errorf("nist match counter = %v, want 1", got)
	}
}
