// Package bundle writes enriched findings and their summary to a
// single compressed archive file, and reads them back. Archives use
// zstd by default; gzip is available for tooling that cannot read zstd.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/postureio/sdk/pkg/ocsf"
)

// Bundle is the archived output of a pipeline run.
type Bundle struct {
	RunID     string                 `json:"run_id"`
	Provider  string                 `json:"provider"`
	Product   string                 `json:"product"`
	CreatedAt time.Time              `json:"created_at"`
	Findings  []ocsf.EnrichedFinding `json:"findings"`
	Summary   ocsf.FindingSummary    `json:"summary"`
}

// Write encodes the bundle as JSON and writes it to path, compressed
// according to the file extension (.zst, .gz, or plain .json).
func Write(path string, b *Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}

	compressor := compressorFor(path)
	compressed, err := compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("compress bundle: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}
	if err := os.WriteFile(path, compressed, 0644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// Read loads a bundle from path, decompressing according to the file
// extension.
func Read(path string) (*Bundle, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	compressor := compressorFor(path)
	data, err := compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Findings == nil {
		b.Findings = []ocsf.EnrichedFinding{}
	}
	return &b, nil
}

// DefaultFilename returns the conventional archive name for a run.
func DefaultFilename(runID string) string {
	return runID + ".json.zst"
}

func compressorFor(path string) *Compressor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		return DefaultZSTD
	case ".gz":
		return DefaultGzip
	default:
		return NewCompressor(AlgorithmNone, LevelDefault)
	}
}
