// Package prompting implements component C: render a task description plus
// few-shot examples plus input into a single prompt string for the
// LanguageModel.
//
// Grounded on the original implementation's src/templates.rs /
// src/prompting.rs (fixed sections: instruction, format directive,
// optional context, examples, optional reasoning, input, output header),
// and on the teacher's general "render fixed sections with a Builder"
// style (internal/services/*.go compose requests field by field rather
// than templating strings). SPEC_FULL.md's prompt-builder supplement adds
// an optional custom template override.
package prompting

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"langextract/internal/langextract/types"
)

// FormatType selects how few-shot examples (and the expected output) are
// serialized.
type FormatType string

const (
	FormatJSON FormatType = "json"
	FormatYAML FormatType = "yaml"
)

// Builder renders prompts from a fixed template. The default template
// matches §4.C's fixed sections exactly; WithTemplate overrides it (the
// SUPPLEMENTED FEATURES custom-template extension).
type Builder struct {
	Format       FormatType
	MaxExamples  int // 0 = no cap
	ReasoningMsg string
	template     string
}

// NewBuilder constructs a Builder for the given format. MaxExamples of 0
// disables the cap.
func NewBuilder(format FormatType, maxExamples int) *Builder {
	return &Builder{Format: format, MaxExamples: maxExamples}
}

// WithTemplate overrides the fixed section layout with a custom template
// containing the placeholders {{task}}, {{context}}, {{examples}},
// {{reasoning}}, {{input}}.
func (b *Builder) WithTemplate(tmpl string) *Builder {
	b.template = tmpl
	return b
}

// exampleRecord is the per-example serialized shape:
// {class -> text, class_attributes -> attributes|null}.
type exampleRecord map[string]any

func toRecords(ex types.ExampleData) []exampleRecord {
	recs := make([]exampleRecord, 0, len(ex.Extractions))
	for _, e := range ex.Extractions {
		rec := exampleRecord{e.Class: e.Text}
		attrKey := e.Class + "_attributes"
		if e.Attributes != nil {
			rec[attrKey] = e.Attributes
		} else {
			rec[attrKey] = nil
		}
		recs = append(recs, rec)
	}
	return recs
}

func (b *Builder) serializeExamples(examples []types.ExampleData) (string, error) {
	var sb strings.Builder
	n := len(examples)
	if b.MaxExamples > 0 && n > b.MaxExamples {
		n = b.MaxExamples
	}
	for i := 0; i < n; i++ {
		ex := examples[i]
		recs := toRecords(ex)
		serialized, err := b.serializeRecords(recs)
		if err != nil {
			return "", fmt.Errorf("prompting: serializing example %d: %w", i, err)
		}
		sb.WriteString(fmt.Sprintf("Example input:\n%s\n\nExample output:\n%s\n\n", ex.Text, serialized))
	}
	return sb.String(), nil
}

func (b *Builder) serializeRecords(recs []exampleRecord) (string, error) {
	switch b.Format {
	case FormatYAML:
		out, err := yaml.Marshal(recs)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return marshalJSONArray(recs), nil
	}
}

// Render builds the complete prompt from task, examples, input and an
// optional additional-context block.
func (b *Builder) Render(task string, examples []types.ExampleData, input, additionalContext string) (string, error) {
	if b.template != "" {
		return b.renderCustom(task, examples, input, additionalContext)
	}

	examplesBlock, err := b.serializeExamples(examples)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(task)
	sb.WriteString("\n\n")

	formatName := "JSON"
	if b.Format == FormatYAML {
		formatName = "YAML"
	}
	sb.WriteString(fmt.Sprintf("Respond with a valid %s array of extracted values.\n\n", formatName))

	if additionalContext != "" {
		sb.WriteString("Additional context:\n")
		sb.WriteString(additionalContext)
		sb.WriteString("\n\n")
	}

	if examplesBlock != "" {
		sb.WriteString("Examples:\n\n")
		sb.WriteString(examplesBlock)
	}

	if b.ReasoningMsg != "" {
		sb.WriteString(b.ReasoningMsg)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Input:\n")
	sb.WriteString(input)
	sb.WriteString("\n\nOutput:\n")

	return sb.String(), nil
}

func (b *Builder) renderCustom(task string, examples []types.ExampleData, input, additionalContext string) (string, error) {
	examplesBlock, err := b.serializeExamples(examples)
	if err != nil {
		return "", err
	}
	out := b.template
	out = strings.ReplaceAll(out, "{{task}}", task)
	out = strings.ReplaceAll(out, "{{context}}", additionalContext)
	out = strings.ReplaceAll(out, "{{examples}}", examplesBlock)
	out = strings.ReplaceAll(out, "{{reasoning}}", b.ReasoningMsg)
	out = strings.ReplaceAll(out, "{{input}}", input)
	return out, nil
}

// marshalJSONArray renders records as a minimal, stable JSON array without
// pulling in encoding/json's map-key-sorting surprises for display purposes;
// we want deterministic, example-shaped output for the prompt text.
func marshalJSONArray(recs []exampleRecord) string {
	var sb strings.Builder
	sb.WriteString("[\n")
	for i, rec := range recs {
		sb.WriteString("  {")
		var classKey, attrKey string
		for k := range rec {
			if strings.HasSuffix(k, "_attributes") {
				attrKey = k
			} else {
				classKey = k
			}
		}
		for i, k := range []string{classKey, attrKey} {
			if k == "" {
				continue
			}
			if i > 0 && classKey != "" {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%q: ", k))
			switch val := rec[k].(type) {
			case nil:
				sb.WriteString("null")
			case string:
				sb.WriteString(fmt.Sprintf("%q", val))
			default:
				sb.WriteString(fmt.Sprintf("%v", val))
			}
		}
		sb.WriteString("}")
		if i < len(recs)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]")
	return sb.String()
}

// StripFence removes a surrounding ```[lang]\n ... \n``` code fence from raw
// model output, when requiresFence is true. If no fence is present, raw is
// returned unchanged.
func StripFence(raw string, requiresFence bool) string {
	if !requiresFence {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return raw
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		// Drop the language hint on the fence's opening line, if any.
		trimmed = trimmed[nl+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
