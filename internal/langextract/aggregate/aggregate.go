// Package aggregate implements component G: merge all successful chunks'
// extractions (positions already absolute) and deduplicate, first
// occurrence wins, preserving first-occurrence order.
//
// Grounded on DESIGN NOTES "Cross-chunk deduplication: do not attempt to
// align extractions between chunks; deduplicate after aggregation using the
// class + similarity rule."
package aggregate

import (
	"strings"

	"github.com/google/uuid"

	"langextract/internal/langextract/types"
)

const jaccardDuplicateThreshold = 0.8

// Aggregate merges chunk_results (in ascending chunk id order) into a final
// AnnotatedDocument, deduplicating as it goes. Pure function of its inputs
// per §8 ("Determinism of aggregation").
func Aggregate(results []types.ChunkResult, source string, docID string) types.AnnotatedDocument {
	ordered := make([]types.ChunkResult, len(results))
	copy(ordered, results)
	sortByChunkID(ordered)

	var kept []types.Extraction
	for _, cr := range ordered {
		if !cr.Success {
			continue
		}
		for _, ex := range cr.Extractions {
			if isDuplicate(ex, kept) {
				continue
			}
			kept = append(kept, ex)
		}
	}

	if docID == "" {
		docID = "doc_" + uuid.New().String()[:8]
	}

	return types.AnnotatedDocument{
		DocumentID:  docID,
		Text:        source,
		Extractions: kept,
	}
}

func sortByChunkID(results []types.ChunkResult) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j-1].ChunkID > results[j].ChunkID {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}

// isDuplicate reports whether ex duplicates any already-kept extraction:
// same class and word-Jaccard similarity >= 0.8, OR overlapping char
// intervals with word-Jaccard similarity >= 0.8.
func isDuplicate(ex types.Extraction, kept []types.Extraction) bool {
	for _, k := range kept {
		sim := jaccard(ex.Text, k.Text)
		if ex.Class == k.Class && sim >= jaccardDuplicateThreshold {
			return true
		}
		if ex.CharInterval != nil && k.CharInterval != nil &&
			ex.CharInterval.Overlaps(*k.CharInterval) && sim >= jaccardDuplicateThreshold {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// jaccard computes word-set Jaccard similarity between two texts.
func jaccard(a, b string) float64 {
	as, bs := wordSet(a), wordSet(b)
	if len(as) == 0 && len(bs) == 0 {
		return 1
	}
	inter := 0
	for w := range as {
		if bs[w] {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
