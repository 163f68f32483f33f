// Package normalizer converts raw scanner JSON into canonical findings.
// It is tolerant by design: value-level ambiguities (unrecognized
// severities, unparsable timestamps, absent optional fields) normalize to
// unset sentinels, while structural problems (missing file, invalid JSON,
// wrong shape) are reported with enough context to locate the bad input.
package normalizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/ocsf"
)

// timeLayouts are the ISO-8601 shapes accepted for the raw "time" field.
// Zone-less layouts are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// nowUTC is swappable in tests to pin the ingestion-time fallback.
var nowUTC = func() time.Time { return time.Now().UTC() }

// ParseFile reads a raw finding file and normalizes its contents.
// The file may hold a single JSON object or an array of objects.
func ParseFile(path string, provider ocsf.Provider, product string) ([]ocsf.Finding, error) {
	const op = "normalizer.ParseFile"

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.E(errors.KindNotFound, op,
				fmt.Sprintf("raw finding file not found: %s", path))
		}
		return nil, errors.E(errors.KindInternal, op,
			fmt.Sprintf("reading %s", path), err)
	}

	return Parse(data, path, provider, product)
}

// Parse normalizes raw finding JSON. A bare object is treated as a
// single-element list. source identifies the input in error messages.
// Processing is fail-fast: the first bad record aborts the whole batch.
func Parse(data []byte, source string, provider ocsf.Provider, product string) ([]ocsf.Finding, error) {
	const op = "normalizer.Parse"

	if !provider.Valid() {
		return nil, errors.E(errors.KindInvalidInput, op,
			fmt.Sprintf("unsupported provider %q", provider))
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, errors.E(errors.KindMalformedInput, op,
			fmt.Sprintf("invalid JSON in %s", source), err)
	}

	var records []any
	switch v := decoded.(type) {
	case map[string]any:
		records = []any{v}
	case []any:
		records = v
	default:
		return nil, errors.E(errors.KindShape, op,
			fmt.Sprintf("expected JSON object or array in %s, got %T", source, decoded))
	}

	findings := make([]ocsf.Finding, 0, len(records))
	for i, entry := range records {
		record, ok := entry.(map[string]any)
		if !ok {
			return nil, errors.E(errors.KindShape, op,
				fmt.Sprintf("expected JSON object at index %d in %s, got %T", i, source, entry))
		}

		finding, err := Normalize(record, provider, product)
		if err != nil {
			return nil, errors.E(errors.KindShape, op,
				fmt.Sprintf("error parsing finding at index %d in %s", i, source), err)
		}
		findings = append(findings, finding)
	}

	return findings, nil
}

// Normalize converts one raw record into a canonical finding. The raw
// record is retained verbatim on the result.
func Normalize(record map[string]any, provider ocsf.Provider, product string) (ocsf.Finding, error) {
	finding := ocsf.Finding{
		Time:        parseTime(record["time"]),
		Provider:    provider,
		Product:     product,
		Severity:    ocsf.NormalizeSeverity(rawString(record["severity"])),
		Status:      ocsf.NormalizeStatus(rawString(record["status"])),
		ResourceID:  extractResourceID(record),
		AccountID:   extractAccountID(record),
		Region:      extractRegion(record),
		CheckID:     extractCheckID(record),
		Title:       extractTitle(record),
		Description: extractDescription(record),
		Remediation: extractRemediation(record),
		Raw:         record,
	}

	if uid, ok := record["class_uid"].(float64); ok {
		finding.ClassUID = int(uid)
	}
	if name, ok := record["class_name"].(string); ok {
		finding.ClassName = name
	}

	return finding, nil
}

// parseTime reads the raw "time" value. Strings are parsed as ISO-8601;
// on any failure, or when the value is absent or not a string, the
// current UTC time is substituted. This fallback is lossy on purpose.
func parseTime(value any) time.Time {
	s, ok := value.(string)
	if !ok || s == "" {
		return nowUTC()
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return nowUTC()
}

// rawString renders a scalar severity/status value for synonym lookup.
func rawString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
