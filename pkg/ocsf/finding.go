// Package ocsf defines the canonical posture-finding model used across the
// SDK. Raw scanner output is normalized into Finding values, enriched with
// compliance-framework references into EnrichedFinding values, and rolled
// up into FindingSummary snapshots. Field names follow the Open
// Cybersecurity Schema Framework where the schema defines them.
package ocsf

import "time"

// Provider identifies the cloud provider a finding was scanned from.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderGCP   Provider = "gcp"
	ProviderAzure Provider = "azure"
)

// Valid reports whether the provider is one of the supported clouds.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAWS, ProviderGCP, ProviderAzure:
		return true
	}
	return false
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Providers returns all supported cloud providers.
func Providers() []Provider {
	return []Provider{ProviderAWS, ProviderGCP, ProviderAzure}
}

// LabelUnknown is the bucket label aggregation uses for findings whose
// severity or status is unset.
const LabelUnknown = "unknown"

// Finding is a single normalized security finding. It is created once by
// the normalizer and never mutated afterward; empty string fields mean
// the value was absent or unrecognized in the raw record.
type Finding struct {
	// Time is the finding timestamp; ingestion time when the raw value
	// was absent or unparsable.
	Time time.Time `json:"time"`

	// Provider and Product are supplied by the caller, not derived from
	// the raw record.
	Provider Provider `json:"provider"`
	Product  string   `json:"product"`

	// ClassUID and ClassName are passthrough OCSF taxonomy identifiers.
	ClassUID  int    `json:"class_uid,omitempty"`
	ClassName string `json:"class_name,omitempty"`

	Severity Severity `json:"severity,omitempty"`
	Status   Status   `json:"status,omitempty"`

	ResourceID string `json:"resource_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	Region     string `json:"region,omitempty"`

	// CheckID is the scanner's rule/check identifier, the lookup key for
	// compliance mapping.
	CheckID string `json:"check_id,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Remediation string `json:"remediation,omitempty"`

	// Raw is the original unmodified record, retained verbatim for
	// audit/appendix use.
	Raw map[string]any `json:"raw"`
}

// Resource holds detailed cloud resource information carried through from
// upstream enrichment; the SDK does not construct it.
type Resource struct {
	UID    string            `json:"uid,omitempty"`
	Type   string            `json:"type,omitempty"`
	Region string            `json:"region,omitempty"`
	Name   string            `json:"name,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Cloud holds detailed cloud environment information carried through from
// upstream enrichment.
type Cloud struct {
	Provider         Provider `json:"provider,omitempty"`
	AccountUID       string   `json:"account_uid,omitempty"`
	Region           string   `json:"region,omitempty"`
	AvailabilityZone string   `json:"availability_zone,omitempty"`
}

// Compliance holds compliance framework information carried through from
// upstream enrichment.
type Compliance struct {
	Requirements []string `json:"requirements,omitempty"`
	Frameworks   []string `json:"frameworks,omitempty"`
}

// EnrichedFinding extends Finding with compliance-mapping results and
// optional structured sub-objects.
type EnrichedFinding struct {
	Finding

	Resource   *Resource   `json:"resource,omitempty"`
	Cloud      *Cloud      `json:"cloud,omitempty"`
	Compliance *Compliance `json:"compliance,omitempty"`

	// FrameworkRefs lists matched framework controls as
	// "<ruleset-id>:<control-id>", in match order. Never nil.
	FrameworkRefs []string `json:"framework_refs"`

	// RiskScore is an externally assigned 0-10 score; the SDK only reads
	// it for aggregation.
	RiskScore *float64 `json:"risk_score,omitempty"`

	Tags map[string]string `json:"tags,omitempty"`

	// Extra carries unknown fields round-tripped from other systems
	// without widening the canonical schema.
	Extra map[string]any `json:"extra,omitempty"`
}

// Enriched returns an enriched projection of the finding with no
// framework references attached.
func (f Finding) Enriched() EnrichedFinding {
	return EnrichedFinding{Finding: f, FrameworkRefs: []string{}}
}

// Enrich converts a batch of findings to enriched projections with empty
// framework references.
func Enrich(findings []Finding) []EnrichedFinding {
	enriched := make([]EnrichedFinding, 0, len(findings))
	for _, f := range findings {
		enriched = append(enriched, f.Enriched())
	}
	return enriched
}
