// Package langextract is the public entry point described in spec.md §6:
// a single Extract call wiring the URL-loader, tokenizer/chunker, annotator,
// multi-pass controller and the caller's LanguageModel together, returning a
// fully aligned AnnotatedDocument.
//
// Grounded on the teacher's top-level service constructors
// (internal/services/content_service.go) that accept their collaborators
// explicitly rather than reaching into globals; Extract does the same for
// its model.LanguageModel, progress.Handler and resolver.RawOutputWriter.
package langextract

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"langextract/internal/langextract/alignment"
	"langextract/internal/langextract/annotate"
	"langextract/internal/langextract/errs"
	"langextract/internal/langextract/model"
	"langextract/internal/langextract/multipass"
	"langextract/internal/langextract/progress"
	"langextract/internal/langextract/prompting"
	"langextract/internal/langextract/resolver"
	"langextract/internal/langextract/types"
	"langextract/internal/urlloader"
)

// Re-export the data model so callers never need to import the internal
// types package directly.
type (
	AnnotatedDocument = types.AnnotatedDocument
	Extraction        = types.Extraction
	ExampleData       = types.ExampleData
	CharInterval      = types.CharInterval
	AlignmentStatus   = types.AlignmentStatus
)

// Config holds every tunable named in spec.md §6, with Default() supplying
// the documented values.
type Config struct {
	MaxCharBuffer             int
	BatchLength               int
	MaxWorkers                int
	Temperature               float64
	FormatType                prompting.FormatType
	FenceOutput               *bool
	ExtractionPasses          int
	EnableMultipass           bool
	MultipassMinExtractions   int
	MultipassQualityThreshold float64
	AdditionalContext         string
	ExpectedClasses           []string
	RequireAllFields          bool
	EnableCoercion            bool
	RawOutputWriter           resolver.RawOutputWriter
	AlignOptions              alignment.Options
	MaxExamples               int
	Progress                  progress.Handler
}

// Default returns the config defaults documented in spec.md §6.
func Default() Config {
	return Config{
		MaxCharBuffer:             1000,
		BatchLength:               10,
		MaxWorkers:                10,
		Temperature:               0.5,
		FormatType:                prompting.FormatJSON,
		ExtractionPasses:          1,
		MultipassMinExtractions:   1,
		MultipassQualityThreshold: 0.3,
		EnableCoercion:            true,
		AlignOptions:              alignment.DefaultOptions(),
	}
}

// Extract runs the full pipeline over textOrURL (fetched first if it looks
// like a URL, per the urlloader collaborator) using m for inference, and
// returns the aggregated, aligned AnnotatedDocument.
//
// Validation mirrors §7: examples must be non-empty (KindInvalidInput
// otherwise); a batch_length below max_workers is not an error, with
// batch_length taking effect as the real parallelism ceiling (handled
// inside annotate.processChunks). The only notice of it is a debug-level
// progress event (EventDebug); no warning is logged.
func Extract(ctx context.Context, textOrURL, taskDescription string, examples []types.ExampleData, m model.LanguageModel, cfg Config) (types.AnnotatedDocument, error) {
	if len(examples) == 0 {
		return types.AnnotatedDocument{}, errs.New(errs.KindInvalidInput, "langextract: at least one example is required")
	}
	if m == nil {
		return types.AnnotatedDocument{}, errs.New(errs.KindConfiguration, "langextract: a LanguageModel is required")
	}

	handler := cfg.Progress
	if handler == nil {
		handler = progress.Silent{}
	}

	loader := urlloader.New()
	text, err := urlloader.Resolve(ctx, loader, textOrURL)
	if err != nil {
		return types.AnnotatedDocument{}, err
	}

	docID, err := newDocumentID()
	if err != nil {
		return types.AnnotatedDocument{}, errs.Wrap(errs.KindProcessing, "langextract: generating document id", err)
	}

	annotatorCfg := annotate.Config{
		MaxCharBuffer:     cfg.MaxCharBuffer,
		BatchSize:         cfg.BatchLength,
		Workers:           cfg.MaxWorkers,
		Temperature:       cfg.Temperature,
		Format:            cfg.FormatType,
		FenceOutput:       cfg.FenceOutput,
		AdditionalContext: cfg.AdditionalContext,
		RequireAllFields:  cfg.RequireAllFields,
		EnableCoercion:    cfg.EnableCoercion,
		ExpectedClasses:   cfg.ExpectedClasses,
		RawWriter:         cfg.RawOutputWriter,
		AlignOptions:      cfg.AlignOptions,
		MaxExamples:       cfg.MaxExamples,
	}

	annotator := annotate.New(m, taskDescription, examples, annotatorCfg, handler)

	if !cfg.EnableMultipass || cfg.ExtractionPasses <= 1 {
		return annotator.Annotate(ctx, text, docID)
	}

	mpCfg := multipass.Config{
		MaxPasses:              cfg.ExtractionPasses,
		MinExtractionsPerChunk: cfg.MultipassMinExtractions,
		QualityThreshold:       cfg.MultipassQualityThreshold,
	}
	controller := multipass.New(annotator, mpCfg, handler)
	doc, _, err := controller.ExtractMultipass(ctx, text, cfg.AdditionalContext, docID)
	return doc, err
}

// newDocumentID builds a "doc_" + 8 hex char id from 4 bytes read from
// crypto/rand; no UUID is generated.
func newDocumentID() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("doc_%s", hex.EncodeToString(b[:])), nil
}
