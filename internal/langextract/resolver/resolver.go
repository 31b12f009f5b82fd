// Package resolver implements component D: interpret the model's raw text
// as a sequence of typed extractions, validating and best-effort coercing
// along the way, while preserving the raw text for forensics no matter what
// happens downstream.
//
// Grounded on the teacher's tolerant-parsing habits (internal/config/config.go
// treats a missing config file as fine, not fatal) generalized to the
// resolver's three-tier JSON parsing policy, and on the original
// implementation's src/resolver.rs shape-detection logic (DESIGN NOTES:
// "Dynamic JSON shapes ... model as a sum type ... parsed once, then
// normalised").
package resolver

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"langextract/internal/langextract/errs"
	"langextract/internal/langextract/types"
)

// RawOutputWriter persists a raw model response for forensics before
// parsing is attempted, so a crash in parse can never lose the body
// (DESIGN NOTES: "Raw-output forensics").
type RawOutputWriter interface {
	Write(raw string) (path string, err error)
}

// Options configures ValidateAndParse.
type Options struct {
	ExpectedClasses  []string
	RequireAllFields bool
	EnableCoercion   bool
	RawWriter        RawOutputWriter
}

// ValidationReport carries forensics and non-fatal signals from a resolve
// attempt; it is always populated even when ValidateAndParse returns an
// error.
type ValidationReport struct {
	RawText       string
	RawOutputPath string
	Warnings      []string
	Errors        []string
}

func (r *ValidationReport) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationReport) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// shape is the sum type DESIGN NOTES calls for: exactly one of these is
// populated after parsing.
type shape struct {
	items []map[string]any // array-of-items or wrapped {data:[...]} / {results:[...]}
	flat  map[string]any   // flat top-level object
}

// ValidateAndParse parses raw model output into extractions, falling back to
// the first-'{'-to-last-'}' substring when raw is not valid JSON, and never
// discarding the raw text.
func ValidateAndParse(raw string, opts Options) ([]types.Extraction, *ValidationReport, error) {
	report := &ValidationReport{RawText: raw}

	if opts.RawWriter != nil {
		path, err := opts.RawWriter.Write(raw)
		if err != nil {
			report.warn("failed to persist raw output: %v", err)
		} else {
			report.RawOutputPath = path
		}
	}

	parsed, perr := parseJSONTolerant(raw)
	if perr != nil {
		report.fail("failed to parse model output as JSON: %v", perr)
		return nil, report, errs.Wrap(errs.KindParsing, "resolver: could not parse model output", perr)
	}

	sh, serr := detectShape(parsed)
	if serr != nil {
		report.fail("%v", serr)
		return nil, report, errs.Wrap(errs.KindParsing, "resolver: unrecognized model output shape", serr)
	}

	extractions := normalize(sh)

	if opts.EnableCoercion {
		for i := range extractions {
			coerce(&extractions[i])
		}
	}

	validate(extractions, opts, report)

	return extractions, report, nil
}

// parseJSONTolerant tries raw as-is, then the substring from the first '{'
// to the last '}' inclusive.
func parseJSONTolerant(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, nil
	}
	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first < 0 || last <= first {
		return nil, fmt.Errorf("no JSON object or array found in output")
	}
	sub := raw[first : last+1]
	if err := json.Unmarshal([]byte(sub), &v); err != nil {
		return nil, fmt.Errorf("fallback substring parse failed: %w", err)
	}
	return v, nil
}

func detectShape(v any) (shape, error) {
	switch t := v.(type) {
	case []any:
		return shape{items: toMapSlice(t)}, nil
	case map[string]any:
		if arr, ok := t["data"].([]any); ok {
			return shape{items: toMapSlice(arr)}, nil
		}
		if arr, ok := t["results"].([]any); ok {
			return shape{items: toMapSlice(arr)}, nil
		}
		return shape{flat: t}, nil
	default:
		return shape{}, fmt.Errorf("top-level JSON value is neither array nor object")
	}
}

func toMapSlice(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// normalize turns a shape into the common "sequence of (class, text,
// group_index?)" representation (DESIGN NOTES).
func normalize(sh shape) []types.Extraction {
	var out []types.Extraction
	if sh.flat != nil {
		for _, k := range sortedKeys(sh.flat) {
			v := sh.flat[k]
			if v == nil {
				continue
			}
			out = append(out, types.Extraction{Class: k, Text: stringify(v)})
		}
		return out
	}
	for idx, item := range sh.items {
		gi := idx
		for _, k := range sortedKeys(item) {
			v := item[k]
			if v == nil {
				continue
			}
			out = append(out, types.Extraction{Class: k, Text: stringify(v), GroupIndex: &gi})
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func validate(extractions []types.Extraction, opts Options, report *ValidationReport) {
	for _, e := range extractions {
		if strings.TrimSpace(e.Text) == "" {
			report.warn("extraction for class %q has empty text", e.Class)
		}
		if len(e.Text) > 1000 {
			report.warn("extraction for class %q exceeds 1000 characters", e.Class)
		}
	}

	if len(opts.ExpectedClasses) > 0 {
		minCount := (len(opts.ExpectedClasses) + 1) / 2 // ceil(n/2)
		if len(extractions) < minCount {
			report.warn("only %d extractions found, expected at least %d (half of %d expected classes)",
				len(extractions), minCount, len(opts.ExpectedClasses))
		}

		if opts.RequireAllFields {
			found := make(map[string]bool, len(extractions))
			for _, e := range extractions {
				found[e.Class] = true
			}
			for _, c := range opts.ExpectedClasses {
				if !found[c] {
					report.fail("missing required field %q", c)
				}
			}
		}
	}
}
