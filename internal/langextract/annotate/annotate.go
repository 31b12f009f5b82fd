// Package annotate implements component F: the single-pass orchestrator —
// chunk -> batch -> infer -> parse -> align -> aggregate.
//
// Concurrency is bounded per §5: within one batch, up to min(workers,
// batch_size) concurrent Infer calls; batches are strictly sequential
// (backpressure). Grounded on the other_examples pipeline
// (sells-group-research-cli/internal/pipeline/extract.go), which bounds
// concurrent model calls with a constant and golang.org/x/sync/errgroup —
// we use errgroup.Group.SetLimit the same way instead of a hand-rolled
// semaphore.
package annotate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"langextract/internal/langextract/aggregate"
	"langextract/internal/langextract/alignment"
	"langextract/internal/langextract/chunking"
	"langextract/internal/langextract/errs"
	"langextract/internal/langextract/model"
	"langextract/internal/langextract/progress"
	"langextract/internal/langextract/prompting"
	"langextract/internal/langextract/resolver"
	"langextract/internal/langextract/tokenizer"
	"langextract/internal/langextract/types"
)

// Config holds the tunables named in §6 that govern a single annotate pass.
type Config struct {
	MaxCharBuffer     int
	BatchSize         int
	Workers           int
	Temperature       float64
	Format            prompting.FormatType
	FenceOutput       *bool // nil = ask the model
	AdditionalContext string
	RequireAllFields  bool
	EnableCoercion    bool
	ExpectedClasses   []string
	RawWriter         resolver.RawOutputWriter
	AlignOptions      alignment.Options
	MaxExamples       int
}

// Annotator drives one complete pass over a document.
type Annotator struct {
	Model    model.LanguageModel
	Task     string
	Examples []types.ExampleData
	Config   Config
	Progress progress.Handler
}

// New builds an Annotator, applying the model's fence-output requirement if
// Config.FenceOutput was left unset.
func New(m model.LanguageModel, task string, examples []types.ExampleData, cfg Config, handler progress.Handler) *Annotator {
	if cfg.FenceOutput == nil {
		v := m.RequiresFenceOutput()
		cfg.FenceOutput = &v
	}
	if handler == nil {
		handler = progress.Silent{}
	}
	return &Annotator{Model: m, Task: task, Examples: examples, Config: cfg, Progress: handler}
}

// Annotate runs a single complete pass over text and returns the aggregated
// document. docID may be empty, in which case one is assigned downstream.
func (a *Annotator) Annotate(ctx context.Context, text string, docID string) (types.AnnotatedDocument, error) {
	doc, _, err := a.AnnotateDetailed(ctx, text, docID)
	return doc, err
}

// AnnotateDetailed is Annotate plus the per-chunk results, which the
// multi-pass controller (component H) needs in order to select low-yield
// chunks for reprocessing.
func (a *Annotator) AnnotateDetailed(ctx context.Context, text string, docID string) (types.AnnotatedDocument, []types.ChunkResult, error) {
	progress.Emit(a.Progress, progress.EventProcessingStarted, progress.Fields{"doc_id": docID, "text_len": len(text)})

	if len(text) <= a.Config.MaxCharBuffer {
		doc, cr, err := a.annotateSingleDetailed(ctx, text, docID)
		return doc, []types.ChunkResult{cr}, err
	}
	return a.annotateChunkedDetailed(ctx, text, docID)
}

// annotateSingleDetailed handles the non-chunked path: one prompt, one parse, one
// align. A single inference failure propagates directly to the caller
// (§7: "The non-chunked path ... propagates a single inference failure").
func (a *Annotator) annotateSingleDetailed(ctx context.Context, text, docID string) (types.AnnotatedDocument, types.ChunkResult, error) {
	cr := a.runChunk(ctx, 0, 0, len(text), text)
	if !cr.Success {
		progress.Errorf(a.Progress, "inference failed: %s", cr.ErrorMessage)
		return types.AnnotatedDocument{}, cr, errs.Wrap(errs.KindInference, "annotate: single-prompt inference failed", fmt.Errorf("%s", cr.ErrorMessage))
	}
	progress.Emit(a.Progress, progress.EventAggregationStarted, progress.Fields{"chunks": 1})
	doc := aggregate.Aggregate([]types.ChunkResult{cr}, text, docID)
	progress.Emit(a.Progress, progress.EventProcessingCompleted, progress.Fields{"extractions": len(doc.Extractions)})
	return doc, cr, nil
}

// annotateChunkedDetailed drives the full chunk -> batch -> infer -> parse -> align
// pipeline. A chunk's inference failure is recorded but never aborts the
// run (§7).
func (a *Annotator) annotateChunkedDetailed(ctx context.Context, text, docID string) (types.AnnotatedDocument, []types.ChunkResult, error) {
	progress.Emit(a.Progress, progress.EventChunkingStarted, progress.Fields{"max_char_buffer": a.Config.MaxCharBuffer})

	tt := tokenizer.Tokenize(text)
	chunks, err := chunking.Collect(tt, a.Config.MaxCharBuffer)
	if err != nil {
		return types.AnnotatedDocument{}, nil, errs.Wrap(errs.KindChunking, "annotate: chunking failed", err)
	}

	results, err := a.processChunks(ctx, text, chunks)
	if err != nil {
		return types.AnnotatedDocument{}, nil, err
	}

	progress.Emit(a.Progress, progress.EventAggregationStarted, progress.Fields{"chunks": len(results)})
	doc := aggregate.Aggregate(results, text, docID)
	progress.Emit(a.Progress, progress.EventProcessingCompleted, progress.Fields{"extractions": len(doc.Extractions)})
	return doc, results, nil
}

// processChunks runs the batch loop described in §4.F step 3, returning a
// ChunkResult per chunk, ordered by chunk id. ctx cancellation aborts
// scheduling of new batches; in-flight work may finish but its results are
// dropped (§5 Cancellation).
func (a *Annotator) processChunks(ctx context.Context, source string, chunks []types.TokenChunk) ([]types.ChunkResult, error) {
	results := make([]types.ChunkResult, len(chunks))

	batchSize := a.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	workers := a.Config.Workers
	if workers <= 0 {
		workers = 10
	}
	limit := workers
	if batchSize < limit {
		limit = batchSize
		progress.Emit(a.Progress, progress.EventDebug, progress.Fields{
			"message": "batch_length < max_workers, using batch_length as effective parallelism",
		})
	}

	for batchStart := 0; batchStart < len(chunks); batchStart += batchSize {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.KindProcessing, "annotate: cancelled", ctx.Err())
		}
		batchEnd := batchStart + batchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		progress.Emit(a.Progress, progress.EventBatchProgress, progress.Fields{
			"batch_start": batchStart, "batch_end": batchEnd, "total": len(chunks),
		})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for idx := batchStart; idx < batchEnd; idx++ {
			idx := idx
			chunk := chunks[idx]
			g.Go(func() error {
				chunkText := source[chunk.CharStart:chunk.CharEnd]
				results[idx] = a.runChunk(gctx, idx, chunk.CharStart, chunk.CharEnd-chunk.CharStart, chunkText)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, errs.Wrap(errs.KindProcessing, "annotate: batch processing failed", err)
		}
		if ctx.Err() != nil {
			// Cancellation landed mid-batch: in-flight results must not
			// surface to the caller.
			return nil, errs.Wrap(errs.KindProcessing, "annotate: cancelled", ctx.Err())
		}
	}

	return results, nil
}

// runChunk performs infer -> parse -> align for a single chunk, returning a
// ChunkResult that records success or failure but never panics.
func (a *Annotator) runChunk(ctx context.Context, chunkID, charOffset, charLength int, chunkText string) types.ChunkResult {
	start := time.Now()

	builder := prompting.NewBuilder(a.Config.Format, a.Config.MaxExamples)
	prompt, err := builder.Render(a.Task, a.Examples, chunkText, a.Config.AdditionalContext)
	if err != nil {
		return failedChunk(chunkID, charOffset, charLength, start, fmt.Sprintf("prompt render failed: %v", err))
	}

	progress.Emit(a.Progress, progress.EventModelCall, progress.Fields{"chunk_id": chunkID})
	kwargs := model.Kwargs{"temperature": a.Config.Temperature}
	batches, err := a.Model.Infer(ctx, []string{prompt}, kwargs)
	if err != nil {
		return failedChunk(chunkID, charOffset, charLength, start, fmt.Sprintf("inference error: %v", err))
	}
	if len(batches) == 0 || len(batches[0]) == 0 {
		return failedChunk(chunkID, charOffset, charLength, start, "model returned no candidates")
	}
	raw := batches[0][0].Text
	progress.Emit(a.Progress, progress.EventModelResponse, progress.Fields{"chunk_id": chunkID, "response_len": len(raw)})

	stripped := prompting.StripFence(raw, *a.Config.FenceOutput)

	progress.Emit(a.Progress, progress.EventValidationStarted, progress.Fields{"chunk_id": chunkID})
	extractions, report, err := resolver.ValidateAndParse(stripped, resolver.Options{
		ExpectedClasses:  a.Config.ExpectedClasses,
		RequireAllFields: a.Config.RequireAllFields,
		EnableCoercion:   a.Config.EnableCoercion,
		RawWriter:        a.Config.RawWriter,
	})
	if err != nil {
		progress.Emit(a.Progress, progress.EventError, progress.Fields{"chunk_id": chunkID, "message": err.Error()})
		return failedChunk(chunkID, charOffset, charLength, start, err.Error())
	}
	progress.Emit(a.Progress, progress.EventValidationCompleted, progress.Fields{
		"chunk_id": chunkID, "warnings": len(report.Warnings), "extractions": len(extractions),
	})

	alignment.AlignBatch(extractions, chunkText, charOffset, a.Config.AlignOptions)

	return types.ChunkResult{
		ChunkID:      chunkID,
		CharOffset:   charOffset,
		CharLength:   charLength,
		Success:      true,
		Extractions:  extractions,
		ProcessingMS: time.Since(start).Milliseconds(),
	}
}

func failedChunk(chunkID, charOffset, charLength int, start time.Time, msg string) types.ChunkResult {
	return types.ChunkResult{
		ChunkID:      chunkID,
		CharOffset:   charOffset,
		CharLength:   charLength,
		Success:      false,
		ErrorMessage: msg,
		ProcessingMS: time.Since(start).Milliseconds(),
	}
}
