// Package multipass implements component H: re-run the annotator over the
// whole text each pass (re-chunking it), build refinement context from prior
// extractions, and score/filter extractions across passes. Low-yield chunks
// are counted to decide whether another pass runs; they are not re-issued on
// their own.
//
// Grounded on the original implementation's src/multipass.rs pass-loop
// shape (per-pass stats, quality histogram, alignment distribution), driven
// through the annotator (component F) the way the teacher's
// FallbackEmbeddingService drives an inner provider loop with explicit
// retry/switch bookkeeping (internal/services/embedding_service.go).
package multipass

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neurosnap/sentences"

	"langextract/internal/langextract/annotate"
	"langextract/internal/langextract/progress"
	"langextract/internal/langextract/types"
)

// contextTokenBudget bounds how much of the carried-over base context is
// kept verbatim between passes, trimmed to a sentence boundary rather than
// a mid-sentence cutoff.
const contextTokenBudget = 200

// Config holds the multi-pass tunables of §4.H, with their documented
// defaults.
type Config struct {
	MaxPasses                 int
	MinExtractionsPerChunk    int
	MaxReprocessChunks        int
	QualityThreshold          float64
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxPasses:              1,
		MinExtractionsPerChunk: 1,
		MaxReprocessChunks:     10,
		QualityThreshold:       0.3,
	}
}

// PassStats records what happened in one pass.
type PassStats struct {
	PassIndex        int
	ExtractionsAdded int
	ChunksRequeued   int
	WallTime         time.Duration
}

// QualityHistogram buckets final extractions by quality score.
type QualityHistogram struct {
	High   int // score >= 0.7
	Medium int // 0.3 <= score < 0.7
	Low    int // score < 0.3
}

// MultiPassStats is the full statistics surface returned alongside the
// final AnnotatedDocument.
type MultiPassStats struct {
	Passes             []PassStats
	AlignmentExact     int
	AlignmentFuzzy     int
	AlignmentLesser    int
	AlignmentGreater   int
	AlignmentUnaligned int
	Quality            QualityHistogram
	FilteredDuplicates int
}

// Controller drives multiple annotate passes over the same document.
type Controller struct {
	Annotator *annotate.Annotator
	Config    Config
	Progress  progress.Handler
}

// New builds a Controller with defaults applied for zero-valued fields.
func New(a *annotate.Annotator, cfg Config, handler progress.Handler) *Controller {
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = 1
	}
	if cfg.MinExtractionsPerChunk <= 0 {
		cfg.MinExtractionsPerChunk = 1
	}
	if cfg.MaxReprocessChunks <= 0 {
		cfg.MaxReprocessChunks = 10
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 0.3
	}
	if handler == nil {
		handler = progress.Silent{}
	}
	return &Controller{Annotator: a, Config: cfg, Progress: handler}
}

// ExtractMultipass runs up to Config.MaxPasses passes, early-terminating
// when a pass adds nothing new or there is nothing left to reprocess.
func (c *Controller) ExtractMultipass(ctx context.Context, text, baseContext, docID string) (types.AnnotatedDocument, MultiPassStats, error) {
	var (
		kept       []types.Extraction
		seenText   = map[string]bool{}
		stats      MultiPassStats
		lastResult []types.ChunkResult
	)

	for pass := 1; pass <= c.Config.MaxPasses; pass++ {
		passStart := time.Now()

		addCtx := baseContext
		if pass >= 2 {
			addCtx = buildEnhancedContext(baseContext, kept)
		}
		c.Annotator.Config.AdditionalContext = addCtx

		doc, chunkResults, err := c.Annotator.AnnotateDetailed(ctx, text, docID)
		if err != nil {
			return types.AnnotatedDocument{}, stats, err
		}
		lastResult = chunkResults

		added := 0
		for _, ex := range doc.Extractions {
			key := normalizeKey(ex.Text)
			score := qualityScore(ex)
			if score < c.Config.QualityThreshold {
				continue
			}
			if seenText[key] {
				continue
			}
			seenText[key] = true
			kept = append(kept, ex)
			added++
		}

		requeue := selectReprocessChunks(chunkResults, c.Config.MinExtractionsPerChunk, c.Config.MaxReprocessChunks)

		stats.Passes = append(stats.Passes, PassStats{
			PassIndex:        pass,
			ExtractionsAdded: added,
			ChunksRequeued:   len(requeue),
			WallTime:         time.Since(passStart),
		})

		progress.Emit(c.Progress, progress.EventDebug, progress.Fields{
			"pass": pass, "added": added, "requeued": len(requeue),
		})

		if added == 0 || len(requeue) == 0 {
			break
		}
	}

	beforeDedup := len(kept)
	kept = finalDedup(kept)
	stats.FilteredDuplicates = beforeDedup - len(kept)
	finalizeStats(&stats, kept)
	_ = lastResult

	return types.AnnotatedDocument{DocumentID: docID, Text: text, Extractions: kept}, stats, nil
}

// normalizeKey is the final-dedup key: case-insensitive, whitespace-trimmed
// exact text match (§4.H "Final deduplication").
func normalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func finalDedup(extractions []types.Extraction) []types.Extraction {
	seen := map[string]bool{}
	var out []types.Extraction
	for _, ex := range extractions {
		key := normalizeKey(ex.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ex)
	}
	return out
}

// qualityScore implements the scoring rule of §4.H exactly.
func qualityScore(ex types.Extraction) float64 {
	score := 0.5

	n := len(ex.Text)
	switch {
	case n >= 2 && n <= 100:
		score += 0.2
	case n > 100:
		score -= 0.1
	case n <= 1:
		score -= 0.3
	}

	switch ex.AlignmentStatus {
	case types.AlignmentExact:
		score += 0.3
	case types.AlignmentFuzzy:
		score += 0.1
	case types.AlignmentLesser:
		score += 0.05
	case types.AlignmentGreater:
		score -= 0.05
	case "":
		score -= 0.2
	}

	if containsLetter(ex.Text) {
		score += 0.1
	}
	if containsDigit(ex.Text) {
		score += 0.05
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// selectReprocessChunks collects chunks whose extraction count is below
// the threshold, capped at maxReprocess, in ascending chunk id order.
func selectReprocessChunks(results []types.ChunkResult, minPerChunk, maxReprocess int) []int {
	var low []int
	sorted := make([]types.ChunkResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChunkID < sorted[j].ChunkID })

	for _, cr := range sorted {
		if len(cr.Extractions) < minPerChunk {
			low = append(low, cr.ChunkID)
		}
		if len(low) >= maxReprocess {
			break
		}
	}
	return low
}

// buildEnhancedContext appends a summary of prior extractions and a request
// for missed entities, as described in §4.H step 1. The carried-over base
// context is trimmed to its last contextTokenBudget tokens at a sentence
// boundary first, so it cannot grow without bound across passes.
func buildEnhancedContext(base string, priorExtractions []types.Extraction) string {
	byClass := map[string][]string{}
	var classOrder []string
	for _, ex := range priorExtractions {
		if _, ok := byClass[ex.Class]; !ok {
			classOrder = append(classOrder, ex.Class)
		}
		byClass[ex.Class] = append(byClass[ex.Class], ex.Text)
	}

	var sb strings.Builder
	if trimmed := trimContextTail(base, contextTokenBudget); trimmed != "" {
		sb.WriteString(trimmed)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Previous extractions: ")
	for i, class := range classOrder {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", class, strings.Join(byClass[class], ", ")))
	}
	sb.WriteString(". Please find any entities that were missed in previous passes.")
	return sb.String()
}

// trimContextTail keeps the last maxTokens words' worth of text, backing up
// to a sentence boundary using github.com/neurosnap/sentences the way the
// teacher's calculateSentenceOverlap walks a text's sentences backwards
// accumulating a token budget (internal/chunking/strategies.go), so that a
// long-running multi-pass context never gets cut off mid-sentence.
func trimContextTail(text string, maxTokens int) string {
	if text == "" || maxTokens <= 0 {
		return ""
	}

	tokenizer := sentences.NewSentenceTokenizer(nil)
	sents := tokenizer.Tokenize(text)
	if len(sents) == 0 {
		return ""
	}

	var kept []string
	accumulated := 0
	for i := len(sents) - 1; i >= 0; i-- {
		sentenceText := strings.TrimSpace(sents[i].Text)
		if sentenceText == "" {
			continue
		}
		n := len(strings.Fields(sentenceText))
		if accumulated+n <= maxTokens {
			kept = append([]string{sentenceText}, kept...)
			accumulated += n
			continue
		}
		if len(kept) == 0 {
			kept = append(kept, sentenceText)
		}
		break
	}
	return strings.Join(kept, " ")
}

func finalizeStats(stats *MultiPassStats, kept []types.Extraction) {
	for _, ex := range kept {
		switch ex.AlignmentStatus {
		case types.AlignmentExact:
			stats.AlignmentExact++
		case types.AlignmentFuzzy:
			stats.AlignmentFuzzy++
		case types.AlignmentLesser:
			stats.AlignmentLesser++
		case types.AlignmentGreater:
			stats.AlignmentGreater++
		default:
			stats.AlignmentUnaligned++
		}

		score := qualityScore(ex)
		switch {
		case score >= 0.7:
			stats.Quality.High++
		case score >= 0.3:
			stats.Quality.Medium++
		default:
			stats.Quality.Low++
		}
	}
}
