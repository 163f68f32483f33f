package normalizer

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/postureio/sdk/pkg/ocsf"
)

// ParseOptions carries per-batch context for a parser.
type ParseOptions struct {
	// Source identifies the input (usually a file path) in error messages.
	Source string

	// Provider and Product are stamped onto every normalized finding.
	Provider ocsf.Provider
	Product  string
}

// Parser converts one raw output format into canonical findings.
// Implement this interface to ingest formats beyond OCSF JSON.
type Parser interface {
	// Name returns the parser name (e.g., "ocsf")
	Name() string

	// CanParse checks if this parser can handle the data
	CanParse(data []byte) bool

	// Parse converts raw bytes into canonical findings
	Parse(ctx context.Context, data []byte, opts *ParseOptions) ([]ocsf.Finding, error)
}

// Registry manages registered parsers.
type Registry struct {
	parsers map[string]Parser
	mu      sync.RWMutex
}

// NewRegistry creates a new parser registry with built-in parsers.
func NewRegistry() *Registry {
	registry := &Registry{
		parsers: make(map[string]Parser),
	}

	registry.Register(&OCSFParser{})

	return registry
}

// Register adds a parser to the registry.
func (r *Registry) Register(parser Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[parser.Name()] = parser
}

// Get returns a parser by name, or nil.
func (r *Registry) Get(name string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsers[name]
}

// FindParser finds a parser that can handle the given data.
func (r *Registry) FindParser(data []byte) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, parser := range r.parsers {
		if parser.CanParse(data) {
			return parser
		}
	}
	return nil
}

// List returns all registered parser names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OCSFParser is the built-in parser for OCSF-shaped JSON output.
type OCSFParser struct{}

// Name returns the parser name.
func (p *OCSFParser) Name() string {
	return "ocsf"
}

// CanParse checks if this parser can handle the data.
func (p *OCSFParser) CanParse(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Parse converts OCSF JSON into canonical findings.
func (p *OCSFParser) Parse(_ context.Context, data []byte, opts *ParseOptions) ([]ocsf.Finding, error) {
	if opts == nil {
		opts = &ParseOptions{}
	}
	return Parse(data, opts.Source, opts.Provider, opts.Product)
}
