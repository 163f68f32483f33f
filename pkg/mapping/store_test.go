package mapping

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/metrics"
)

const validRuleSet = `
map_id: cis_aws_14
name: CIS AWS Foundations
version: "1.4"
description: CIS benchmark mapping for AWS
framework_type: cis
provider: aws
rules:
  - source: "prowler:check_a"
    target: "CIS-1.1"
    title: Avoid the root account
    description: The root account should not be used
    severity: high
  - source: "prowler:check_b"
    target: "CIS-1.2"
    title: Require MFA
    description: MFA should be enabled for all users
categories:
  - id: iam
    name: Identity and Access Management
    controls: ["CIS-1.1", "CIS-1.2"]
metadata:
  author: security-team
  anything_goes: true
`

func writeRuleSet(t *testing.T, dir, id, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "cis_aws_14", validRuleSet)
	writeRuleSet(t, dir, "aws_well_architected", validRuleSet)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir)
	ids, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"aws_well_architected", "cis_aws_14"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("List() = %v, want %v (sorted, non-yaml ignored)", ids, want)
	}
}

func TestStore_List_MissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("List() = %v, want empty", ids)
	}
}

func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "cis_aws_14", validRuleSet)

	store := NewStore(dir)
	rs, err := store.Load("cis_aws_14")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if rs.MapID != "cis_aws_14" {
		t.Errorf("MapID = %q", rs.MapID)
	}
	if rs.FrameworkType != "cis" {
		t.Errorf("FrameworkType = %q", rs.FrameworkType)
	}
	if len(rs.Rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(rs.Rules))
	}
	if rs.Rules[0].Source != "prowler:check_a" || rs.Rules[0].Severity != "high" {
		t.Errorf("Rules[0] = %+v", rs.Rules[0])
	}
	if rs.Rules[1].Severity != "" {
		t.Errorf("Rules[1].Severity = %q, want empty", rs.Rules[1].Severity)
	}
	if rs.Metadata["author"] != "security-team" {
		t.Errorf("Metadata = %v", rs.Metadata)
	}
}

func TestStore_Load_NotFoundListsAvailable(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "cis_aws_14", validRuleSet)

	store := NewStore(dir)
	_, err := store.Load("nist_800_53")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("kind = %v, want not_found", errors.GetKind(err))
	}
	if !strings.Contains(err.Error(), "cis_aws_14") {
		t.Errorf("error %q does not list available ids", err)
	}
}

func TestStore_Load_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "broken", "map_id: [unclosed")

	_, err := NewStore(dir).Load("broken")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.IsLoad(err) {
		t.Errorf("kind = %v, want load", errors.GetKind(err))
	}
}

func TestStore_Load_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "extra", validRuleSet+"\nsurprise_field: boom\n")

	_, err := NewStore(dir).Load("extra")
	if err == nil {
		t.Fatalf("expected error for unknown top-level field")
	}
	if !errors.IsLoad(err) {
		t.Errorf("kind = %v, want load", errors.GetKind(err))
	}
}

func TestStore_Load_ShapeValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "missing framework_type",
			content: `
map_id: x
name: X
version: "1"
description: d
rules: []
`,
			wantMsg: "framework_type is required",
		},
		{
			name: "missing rules",
			content: `
map_id: x
name: X
version: "1"
description: d
framework_type: cis
`,
			wantMsg: "rules is required",
		},
		{
			name: "source without colon",
			content: `
map_id: x
name: X
version: "1"
description: d
framework_type: cis
rules:
  - source: "no-colon-here"
    target: "C-1"
    title: t
    description: d
`,
			wantMsg: "product:check_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeRuleSet(t, dir, "bad", tt.content)

			_, err := NewStore(dir).Load("bad")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.IsLoad(err) {
				t.Errorf("kind = %v, want load", errors.GetKind(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestStore_Load_CachesByMtime(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "cis_aws_14", validRuleSet)
	path := filepath.Join(dir, "cis_aws_14.yaml")

	store := NewStore(dir)
	first, err := store.Load("cis_aws_14")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	again, err := store.Load("cis_aws_14")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if first != again {
		t.Errorf("unchanged file should come from cache")
	}

	updated := strings.Replace(validRuleSet, "name: CIS AWS Foundations", "name: CIS AWS Foundations v2", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	reloaded, err := store.Load("cis_aws_14")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Name != "CIS AWS Foundations v2" {
		t.Errorf("Name = %q, want reloaded content", reloaded.Name)
	}
}

func TestStore_ControlsByCategory(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "cis_aws_14", validRuleSet)

	store := NewStore(dir)
	got, err := store.ControlsByCategory("cis_aws_14")
	if err != nil {
		t.Fatalf("ControlsByCategory() error = %v", err)
	}

	want := map[string][]string{
		"Identity and Access Management": {"CIS-1.1", "CIS-1.2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ControlsByCategory() = %v, want %v", got, want)
	}
}

func TestStore_ControlsByCategory_Synthesized(t *testing.T) {
	content := `
map_id: flat
name: Flat
version: "1"
description: no categories
framework_type: cis
rules:
  - source: "prowler:b"
    target: "C-2"
    title: t
    description: d
  - source: "prowler:a"
    target: "C-1"
    title: t
    description: d
  - source: "prowler:c"
    target: "C-2"
    title: t
    description: d
`
	dir := t.TempDir()
	writeRuleSet(t, dir, "flat", content)

	got, err := NewStore(dir).ControlsByCategory("flat")
	if err != nil {
		t.Fatalf("ControlsByCategory() error = %v", err)
	}

	want := map[string][]string{
		"All Controls": {"C-1", "C-2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ControlsByCategory() = %v, want %v (sorted distinct targets)", got, want)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "good", validRuleSet)
	writeRuleSet(t, dir, "bad", "map_id: [unclosed")
	writeRuleSet(t, dir, "incomplete", "map_id: x\nrules: []\n")

	tests := []struct {
		name      string
		path      string
		wantValid bool
		wantErrIn string
	}{
		{"valid file", filepath.Join(dir, "good.yaml"), true, ""},
		{"missing file", filepath.Join(dir, "nope.yaml"), false, "does not exist"},
		{"malformed yaml", filepath.Join(dir, "bad.yaml"), false, "YAML parsing error"},
		{"shape errors", filepath.Join(dir, "incomplete.yaml"), false, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := ValidateFile(tt.path)
			if valid != tt.wantValid {
				t.Fatalf("valid = %v, want %v (errs: %v)", valid, tt.wantValid, errs)
			}
			if tt.wantErrIn != "" {
				if len(errs) == 0 || !strings.Contains(strings.Join(errs, "; "), tt.wantErrIn) {
					t.Errorf("errs = %v, want mention of %q", errs, tt.wantErrIn)
				}
			}
		})
	}
}

func TestRule_SourceKey(t *testing.T) {
	tests := []struct {
		source      string
		wantProduct string
		wantCheck   string
		wantOK      bool
	}{
		{"prowler:check_a", "prowler", "check_a", true},
		{"prowler:aws:iam:check", "prowler", "aws:iam:check", true},
		{"nocolon", "nocolon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			product, check, ok := Rule{Source: tt.source}.SourceKey()
			if ok != tt.wantOK || product != tt.wantProduct || check != tt.wantCheck {
				t.Errorf("SourceKey() = (%q, %q, %v), want (%q, %q, %v)",
					product, check, ok, tt.wantProduct, tt.wantCheck, tt.wantOK)
			}
		})
	}
}

func TestStore_Load_CountsLoads(t *testing.T) {
	collector := metrics.NewInMemoryCollector()
	metrics.SetDefaultCollector(collector)
	t.Cleanup(func() { metrics.SetDefaultCollector(nil) })

	dir := t.TempDir()
	writeRuleSet(t, dir, "cis_aws_14", validRuleSet)
	store := NewStore(dir)

	if _, err := store.Load("cis_aws_14"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := store.Load("cis_aws_14"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := store.Load("missing"); err == nil {
		t.Fatal("Load() error = nil, want not-found")
	}

	if got := collector.GetCounter(metrics.RuleSetLoadsTotal.Name,
		"rule_set", "cis_aws_14", "status", "ok"); got != 2 {
		t.Errorf("ok load counter = %v, want 2 (cache hits count as loads)", got)
	}
	if got := collector.GetCounter(metrics.RuleSetLoadsTotal.Name,
		"rule_set", "missing", "status", "error"); got != 1 {
		t.Errorf("error load counter = %v, want 1", got)
	}
}

func TestStore_Load_StatFailureIsLoadError(t *testing.T) {
	dir := t.TempDir()
	// A regular file in the id's path makes stat fail with ENOTDIR,
	// which must not be reported as not-found.
	if err := os.WriteFile(filepath.Join(dir, "blocker"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(dir)

	_, err := store.Load("blocker/cis_aws_14")
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if errors.IsNotFound(err) {
		t.Errorf("kind = not_found, want load for a stat failure: %v", err)
	}
	if !errors.IsLoad(err) {
		t.Errorf("kind = %v, want load", errors.GetKind(err))
	}
}
