// Package mapping loads declarative compliance rule sets and resolves
// scanner checks to framework controls. Rule sets are YAML files, one per
// framework/version, validated strictly on load: unknown fields are
// rejected so a typo in a rule file fails loudly instead of silently
// dropping rules.
package mapping

import (
	"fmt"
	"strings"
)

// Rule maps one scanner check to one framework control.
type Rule struct {
	// Source is the scanner check key in "product:check_id" form.
	Source string `yaml:"source" json:"source"`

	// Target is the framework control identifier.
	Target string `yaml:"target" json:"target"`

	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`

	// Severity optionally overrides the severity of findings whose own
	// severity is unset.
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// SourceKey splits the rule source on its first colon.
func (r Rule) SourceKey() (product, checkID string, ok bool) {
	product, checkID, ok = strings.Cut(r.Source, ":")
	return product, checkID, ok
}

// Category groups related framework controls. Categories drive
// control-listing queries only, never enrichment.
type Category struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Controls []string `yaml:"controls" json:"controls"`
}

// RuleSet is a complete compliance framework mapping.
type RuleSet struct {
	// MapID matches the rule set's storage key (file stem).
	MapID string `yaml:"map_id" json:"map_id"`

	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`

	// FrameworkType names the framework family (cis, nist, ...).
	FrameworkType string `yaml:"framework_type" json:"framework_type"`

	// Provider optionally scopes the rule set to one cloud.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	Rules      []Rule     `yaml:"rules" json:"rules"`
	Categories []Category `yaml:"categories,omitempty" json:"categories,omitempty"`

	// Metadata is free-form; unlike the rest of the document it accepts
	// arbitrary keys.
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// validate checks the shape rules a decoded rule set must satisfy.
// Returned messages identify the failing field or rule index.
func (rs *RuleSet) validate() []string {
	var errs []string

	if rs.MapID == "" {
		errs = append(errs, "map_id is required")
	}
	if rs.Name == "" {
		errs = append(errs, "name is required")
	}
	if rs.Version == "" {
		errs = append(errs, "version is required")
	}
	if rs.Description == "" {
		errs = append(errs, "description is required")
	}
	if rs.FrameworkType == "" {
		errs = append(errs, "framework_type is required")
	}
	if rs.Rules == nil {
		errs = append(errs, "rules is required")
	}

	for i, rule := range rs.Rules {
		if rule.Source == "" {
			errs = append(errs, fmt.Sprintf("rules[%d]: source is required", i))
		} else if !strings.Contains(rule.Source, ":") {
			errs = append(errs, fmt.Sprintf("rules[%d]: source %q is not in product:check_id form", i, rule.Source))
		}
		if rule.Target == "" {
			errs = append(errs, fmt.Sprintf("rules[%d]: target is required", i))
		}
		if rule.Title == "" {
			errs = append(errs, fmt.Sprintf("rules[%d]: title is required", i))
		}
		if rule.Description == "" {
			errs = append(errs, fmt.Sprintf("rules[%d]: description is required", i))
		}
	}

	for i, cat := range rs.Categories {
		if cat.ID == "" {
			errs = append(errs, fmt.Sprintf("categories[%d]: id is required", i))
		}
		if cat.Name == "" {
			errs = append(errs, fmt.Sprintf("categories[%d]: name is required", i))
		}
		if cat.Controls == nil {
			errs = append(errs, fmt.Sprintf("categories[%d]: controls is required", i))
		}
	}

	return errs
}
