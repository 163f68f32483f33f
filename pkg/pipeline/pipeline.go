// Package pipeline orchestrates a full scan-processing run: parse raw
// scanner output files, apply compliance enrichment, and compute the
// summary rollups. Optionally persists the run to the history store and
// writes a compressed findings bundle.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/postureio/sdk/pkg/bundle"
	"github.com/postureio/sdk/pkg/core"
	"github.com/postureio/sdk/pkg/enrich"
	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/mapping"
	"github.com/postureio/sdk/pkg/metrics"
	"github.com/postureio/sdk/pkg/normalizer"
	"github.com/postureio/sdk/pkg/ocsf"
	"github.com/postureio/sdk/pkg/registry"
	"github.com/postureio/sdk/pkg/store"
	"github.com/postureio/sdk/pkg/summarize"
)

// Config configures a pipeline runner.
type Config struct {
	// RuleSetDir is the directory holding compliance rule set files.
	RuleSetDir string

	// Storage records run history when set.
	Storage *store.Storage

	// BundleDir receives compressed findings archives when set.
	BundleDir string

	// Logger defaults to NopLogger.
	Logger core.Logger

	// Metrics defaults to the global collector.
	Metrics metrics.Collector
}

// Input describes one pipeline run.
type Input struct {
	Files    []string
	Provider ocsf.Provider
	Product  string
	RuleSets []string
}

// Result is the outcome of a pipeline run.
type Result struct {
	RunID              string                                 `json:"run_id"`
	Findings           []ocsf.EnrichedFinding                 `json:"findings"`
	Summary            ocsf.FindingSummary                    `json:"summary"`
	FrameworkScores    map[string]summarize.Score             `json:"framework_scores"`
	ProviderBreakdowns map[string]summarize.ProviderBreakdown `json:"provider_breakdowns"`
	BundlePath         string                                 `json:"bundle_path,omitempty"`
	Duration           time.Duration                          `json:"duration"`
}

// Runner executes pipeline runs.
type Runner struct {
	cfg      Config
	enricher *enrich.Enricher
	logger   core.Logger
	metrics  metrics.Collector
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	collector := cfg.Metrics
	if collector == nil {
		collector = metrics.GetDefaultCollector()
	}

	return &Runner{
		cfg:      cfg,
		enricher: enrich.New(mapping.NewStore(cfg.RuleSetDir)),
		logger:   logger,
		metrics:  collector,
	}
}

// Run parses the input files, enriches the findings against the
// requested rule sets, and summarizes the batch. The first file that
// fails to parse aborts the run.
func (r *Runner) Run(ctx context.Context, input Input) (*Result, error) {
	const op = "pipeline.Run"

	start := time.Now()
	runID := uuid.New().String()

	if len(input.Files) == 0 {
		return nil, errors.E(op, errors.KindInvalidInput, "no input files")
	}
	if err := registry.ValidateSupport(input.Provider, input.Product); err != nil {
		return nil, errors.Wrap(err, op)
	}

	r.logger.Info("run %s: parsing %d file(s) for %s/%s",
		runID, len(input.Files), input.Provider, input.Product)

	var findings []ocsf.Finding
	for _, file := range input.Files {
		if err := ctx.Err(); err != nil {
			return nil, errors.E(op, errors.KindInternal, "run canceled", err)
		}

		timer := metrics.NewTimer(r.metrics, metrics.ParseDuration.Name,
			"provider", input.Provider.String(), "product", input.Product)
		parsed, err := normalizer.ParseFile(file, input.Provider, input.Product)
		timer.ObserveDuration()

		if err != nil {
			r.metrics.CounterInc(metrics.ParseFilesTotal.Name,
				"provider", input.Provider.String(), "product", input.Product, "status", "error")
			r.recordFailure(ctx, runID, input, err)
			return nil, errors.Wrap(err, op)
		}

		r.metrics.CounterInc(metrics.ParseFilesTotal.Name,
			"provider", input.Provider.String(), "product", input.Product, "status", "ok")
		r.metrics.CounterAdd(metrics.ParseFindingsTotal.Name, float64(len(parsed)),
			"provider", input.Provider.String(), "product", input.Product)

		r.logger.Debug("run %s: %s yielded %d finding(s)", runID, file, len(parsed))
		findings = append(findings, parsed...)
	}

	enriched, err := r.enricher.Apply(findings, input.RuleSets)
	if err != nil {
		r.metrics.CounterInc(metrics.EnrichFindingsTotal.Name, "status", "error")
		r.recordFailure(ctx, runID, input, err)
		return nil, errors.Wrap(err, op)
	}
	r.metrics.CounterAdd(metrics.EnrichFindingsTotal.Name, float64(len(enriched)), "status", "ok")

	summary := summarize.Summarize(enriched)

	scores := make(map[string]summarize.Score, len(input.RuleSets))
	for _, ruleSetID := range input.RuleSets {
		scores[ruleSetID] = summarize.FrameworkScore(enriched, ruleSetID)
	}

	result := &Result{
		RunID:              runID,
		Findings:           enriched,
		Summary:            summary,
		FrameworkScores:    scores,
		ProviderBreakdowns: summarize.ByProvider(enriched),
	}

	if r.cfg.BundleDir != "" {
		path := filepath.Join(r.cfg.BundleDir, bundle.DefaultFilename(runID))
		err := bundle.Write(path, &bundle.Bundle{
			RunID:     runID,
			Provider:  input.Provider.String(),
			Product:   input.Product,
			CreatedAt: time.Now().UTC(),
			Findings:  enriched,
			Summary:   summary,
		})
		if err != nil {
			return nil, errors.E(op, errors.KindInternal, "write bundle", err)
		}
		result.BundlePath = path
	}

	if r.cfg.Storage != nil {
		completedAt := time.Now().UTC()
		err := r.cfg.Storage.SaveRun(ctx, &store.Run{
			ID:            runID,
			Provider:      input.Provider.String(),
			Product:       input.Product,
			FindingsCount: len(enriched),
			Status:        store.RunStatusCompleted,
			Summary:       &summary,
			BundlePath:    result.BundlePath,
			CompletedAt:   &completedAt,
		})
		if err != nil {
			r.metrics.CounterInc(metrics.StoreSavesTotal.Name, "status", "error")
			return nil, errors.E(op, errors.KindInternal, "save run", err)
		}
		r.metrics.CounterInc(metrics.StoreSavesTotal.Name, "status", "ok")
	}

	result.Duration = time.Since(start)
	r.metrics.CounterInc(metrics.RunsTotal.Name, "status", "ok")
	r.metrics.HistogramObserve(metrics.RunDuration.Name, result.Duration.Seconds())
	r.metrics.GaugeSet(metrics.RunFindingsGauge.Name, float64(len(enriched)))

	r.logger.Info("run %s: %d finding(s) in %s", runID, len(enriched), result.Duration)

	return result, nil
}

// recordFailure marks the run failed in the history store. Best effort;
// the original error is what the caller sees.
func (r *Runner) recordFailure(ctx context.Context, runID string, input Input, cause error) {
	r.metrics.CounterInc(metrics.RunsTotal.Name, "status", "error")

	if r.cfg.Storage == nil {
		return
	}

	completedAt := time.Now().UTC()
	err := r.cfg.Storage.SaveRun(ctx, &store.Run{
		ID:          runID,
		Provider:    input.Provider.String(),
		Product:     input.Product,
		Status:      store.RunStatusFailed,
		LastError:   cause.Error(),
		CompletedAt: &completedAt,
	})
	if err != nil {
		r.logger.Warn("run %s: failed to record failure: %v", runID, err)
	}
}

// String renders a short human-readable description of the result.
func (r *Result) String() string {
	return fmt.Sprintf("run %s: %d findings across %d provider(s)",
		r.RunID, r.Summary.TotalFindings, len(r.ProviderBreakdowns))
}
