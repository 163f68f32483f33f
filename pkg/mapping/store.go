package mapping

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/metrics"
)

// ruleSetExtensions are the file extensions recognized as rule sets,
// tried in order when resolving an id.
var ruleSetExtensions = []string{".yaml", ".yml"}

// Store loads rule sets from a directory, one file per rule set, the file
// stem being the rule-set id. Parsed rule sets are cached per id and
// revalidated against the file's mtime, so repeated enrichment calls do
// not re-parse unchanged files.
type Store struct {
	dir string

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	ruleSet *RuleSet
	modTime time.Time
}

// NewStore creates a rule-set store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		cache: make(map[string]cacheEntry),
	}
}

// List enumerates known rule-set ids, sorted. A missing directory yields
// an empty list, not an error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.E(errors.KindInternal, "mapping.List",
			fmt.Sprintf("reading rule-set directory %s", s.dir), err)
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		for _, known := range ruleSetExtensions {
			if ext == known {
				id := strings.TrimSuffix(name, ext)
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
				break
			}
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// Load returns the rule set with the given id. A missing id yields a
// not-found error whose message lists the currently available ids; any
// parse or shape failure yields a load error with the id attached.
func (s *Store) Load(id string) (*RuleSet, error) {
	ruleSet, err := s.load(id)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.GetDefaultCollector().CounterInc(metrics.RuleSetLoadsTotal.Name,
		"rule_set", id, "status", status)

	return ruleSet, err
}

func (s *Store) load(id string) (*RuleSet, error) {
	const op = "mapping.Load"

	path, modTime, err := s.resolve(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.cache[id]
	s.mu.RUnlock()
	if ok && entry.modTime.Equal(modTime) {
		return entry.ruleSet, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.KindLoad, op,
			fmt.Sprintf("reading rule set %q", id), err)
	}

	ruleSet, err := parseRuleSet(data, path)
	if err != nil {
		return nil, errors.E(errors.KindLoad, op,
			fmt.Sprintf("loading rule set %q", id), err)
	}

	s.mu.Lock()
	s.cache[id] = cacheEntry{ruleSet: ruleSet, modTime: modTime}
	s.mu.Unlock()

	return ruleSet, nil
}

// ControlsByCategory returns the rule set's controls grouped by category
// name. A rule set without categories yields a single synthesized
// "All Controls" category holding the sorted distinct rule targets.
func (s *Store) ControlsByCategory(id string) (map[string][]string, error) {
	ruleSet, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]string)
	for _, cat := range ruleSet.Categories {
		byCategory[cat.Name] = cat.Controls
	}

	if len(byCategory) == 0 {
		distinct := make(map[string]bool)
		for _, rule := range ruleSet.Rules {
			distinct[rule.Target] = true
		}
		all := make([]string, 0, len(distinct))
		for control := range distinct {
			all = append(all, control)
		}
		sort.Strings(all)
		byCategory["All Controls"] = all
	}

	return byCategory, nil
}

// resolve finds the backing file for id and returns its path and mtime.
// Only absence maps to not-found; any other stat failure (permissions, a
// file where a directory was expected) is a load error.
func (s *Store) resolve(id string) (string, time.Time, error) {
	for _, ext := range ruleSetExtensions {
		path := filepath.Join(s.dir, id+ext)
		info, err := os.Stat(path)
		if err == nil {
			return path, info.ModTime(), nil
		}
		if !os.IsNotExist(err) {
			return "", time.Time{}, errors.E(errors.KindLoad, "mapping.Load",
				fmt.Sprintf("stat rule set %q", id), err)
		}
	}

	available, _ := s.List()
	return "", time.Time{}, errors.E(errors.KindNotFound, "mapping.Load",
		fmt.Sprintf("rule set %q not found. available rule sets: %v", id, available))
}

// ValidateFile is the non-throwing pre-flight check for a rule-set file.
// It returns whether the file is valid and the list of problems found.
func ValidateFile(path string) (bool, []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, []string{fmt.Sprintf("file does not exist: %s", path)}
		}
		return false, []string{fmt.Sprintf("reading file: %v", err)}
	}

	var rs RuleSet
	if err := decodeStrict(data, &rs); err != nil {
		return false, []string{fmt.Sprintf("YAML parsing error: %v", err)}
	}

	if errs := rs.validate(); len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// parseRuleSet decodes and shape-checks a rule-set document. Malformed
// YAML and shape violations come back as distinct kinds so callers can
// tell a syntax error from a schema error.
func parseRuleSet(data []byte, source string) (*RuleSet, error) {
	var rs RuleSet
	if err := decodeStrict(data, &rs); err != nil {
		var typeErr *yaml.TypeError
		if stderrors.As(err, &typeErr) {
			return nil, errors.E(errors.KindShape, "mapping.parseRuleSet",
				fmt.Sprintf("invalid rule-set structure in %s", source), err)
		}
		return nil, errors.E(errors.KindMalformedInput, "mapping.parseRuleSet",
			fmt.Sprintf("invalid YAML in %s", source), err)
	}

	if errs := rs.validate(); len(errs) > 0 {
		return nil, errors.E(errors.KindShape, "mapping.parseRuleSet",
			fmt.Sprintf("invalid rule set in %s: %s", source, strings.Join(errs, "; ")))
	}

	return &rs, nil
}

// decodeStrict decodes YAML rejecting unknown fields. Metadata is exempt
// by virtue of being a plain map.
func decodeStrict(data []byte, out *RuleSet) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return fmt.Errorf("empty document")
		}
		return err
	}
	return nil
}
