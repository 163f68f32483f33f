// Package enrich attaches compliance-framework references to normalized
// findings. Rule sets are combined into a single lookup index keyed by
// "product:check_id"; a finding collects one "<ruleset-id>:<control>"
// reference per matching rule, in rule-set order then file order.
package enrich

import (
	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/mapping"
	"github.com/postureio/sdk/pkg/metrics"
	"github.com/postureio/sdk/pkg/ocsf"
)

// match is one resolved rule for a source key.
type match struct {
	ruleSetID   string
	control     string
	title       string
	description string

	// severityOverride applies only to findings whose severity is unset,
	// first match wins.
	severityOverride ocsf.Severity
}

// Enricher applies rule sets from a mapping store to findings.
type Enricher struct {
	store *mapping.Store
}

// New creates an enricher backed by the given rule-set store.
func New(store *mapping.Store) *Enricher {
	return &Enricher{store: store}
}

// Apply enriches a batch of findings with the named rule sets. All rule
// sets are loaded up front; a load failure aborts the whole call so a
// batch is never partially enriched. The input findings are not mutated.
func (e *Enricher) Apply(findings []ocsf.Finding, ruleSetIDs []string) ([]ocsf.EnrichedFinding, error) {
	index, err := e.buildIndex(ruleSetIDs)
	if err != nil {
		return nil, err
	}

	collector := metrics.GetDefaultCollector()

	enriched := make([]ocsf.EnrichedFinding, 0, len(findings))
	for _, finding := range findings {
		ef := finding.Enriched()

		// A finding without a check id has no source key and stays
		// unenriched.
		if finding.CheckID != "" {
			sourceKey := finding.Product + ":" + finding.CheckID
			for _, m := range index[sourceKey] {
				ef.FrameworkRefs = append(ef.FrameworkRefs, m.ruleSetID+":"+m.control)
				if m.severityOverride.IsSet() && !ef.Severity.IsSet() {
					ef.Severity = m.severityOverride
				}
				collector.CounterInc(metrics.EnrichMatchesTotal.Name, "rule_set", m.ruleSetID)
			}
		}

		enriched = append(enriched, ef)
	}

	return enriched, nil
}

// buildIndex loads every named rule set and flattens their rules into a
// source-key index. Iteration order (caller-supplied rule-set order, then
// file order within each set) fixes the order of a finding's references.
func (e *Enricher) buildIndex(ruleSetIDs []string) (map[string][]match, error) {
	index := make(map[string][]match)
	for _, id := range ruleSetIDs {
		ruleSet, err := e.store.Load(id)
		if err != nil {
			return nil, errors.Wrap(err, "enrich.Apply")
		}
		for _, rule := range ruleSet.Rules {
			index[rule.Source] = append(index[rule.Source], match{
				ruleSetID:        id,
				control:          rule.Target,
				title:            rule.Title,
				description:      rule.Description,
				severityOverride: ocsf.NormalizeSeverity(rule.Severity),
			})
		}
	}
	return index, nil
}
