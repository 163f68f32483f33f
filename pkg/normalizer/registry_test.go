package normalizer

import (
	"context"
	"reflect"
	"testing"

	"github.com/postureio/sdk/pkg/ocsf"
)

func TestRegistry_BuiltinOCSF(t *testing.T) {
	r := NewRegistry()

	if got := r.Get("ocsf"); got == nil {
		t.Fatalf("built-in ocsf parser not registered")
	}
	if got := r.List(); !reflect.DeepEqual(got, []string{"ocsf"}) {
		t.Errorf("List() = %v, want [ocsf]", got)
	}
}

func TestRegistry_FindParser(t *testing.T) {
	r := NewRegistry()

	if p := r.FindParser([]byte(`  {"severity":"low"}`)); p == nil {
		t.Errorf("expected a parser for JSON object data")
	}
	if p := r.FindParser([]byte(`[{"a":1}]`)); p == nil {
		t.Errorf("expected a parser for JSON array data")
	}
	if p := r.FindParser([]byte("severity,status\nhigh,fail")); p != nil {
		t.Errorf("expected no parser for CSV data, got %s", p.Name())
	}
}

func TestOCSFParser_Parse(t *testing.T) {
	p := &OCSFParser{}

	findings, err := p.Parse(context.Background(), []byte(`{"severity":"crit"}`), &ParseOptions{
		Source:   "inline",
		Provider: ocsf.ProviderAWS,
		Product:  "prowler",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("len = %d, want 1", len(findings))
	}
	if findings[0].Severity != ocsf.SeverityCritical {
		t.Errorf("severity = %q, want critical", findings[0].Severity)
	}
	if findings[0].Product != "prowler" {
		t.Errorf("product = %q, want prowler", findings[0].Product)
	}
}
