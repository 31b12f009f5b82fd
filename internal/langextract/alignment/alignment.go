// Package alignment implements component E: map each extraction back to a
// [start,end) char interval in the source, exact -> lesser -> fuzzy, adding
// the chunk's offset so callers always get positions in the original
// document.
//
// Grounded on the original implementation's src/alignment.rs coverage-
// similarity scheme, expressed in the teacher's style of small, single-
// purpose exported functions returning (value, ok)/(value, error) rather
// than exceptions (cf. internal/services/utils.go helpers).
package alignment

import (
	"strings"

	"langextract/internal/langextract/types"
)

// Options tunes the fuzzy matcher.
type Options struct {
	CaseSensitive    bool
	FuzzyThreshold   float64 // default 0.4
	MaxSearchWindow  int     // default 100, in words
}

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() Options {
	return Options{CaseSensitive: false, FuzzyThreshold: 0.4, MaxSearchWindow: 100}
}

// Stats tracks per-status counts across a batch of alignment attempts.
type Stats struct {
	Exact     int
	Fuzzy     int
	Lesser    int
	Greater   int
	Unaligned int
}

// Total returns the number of attempts recorded.
func (s Stats) Total() int {
	return s.Exact + s.Fuzzy + s.Lesser + s.Greater + s.Unaligned
}

// SuccessRate returns (total - unaligned) / total, or 0 if total is 0.
func (s Stats) SuccessRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(total-s.Unaligned) / float64(total)
}

func (s *Stats) record(status types.AlignmentStatus) {
	switch status {
	case types.AlignmentExact:
		s.Exact++
	case types.AlignmentFuzzy:
		s.Fuzzy++
	case types.AlignmentLesser:
		s.Lesser++
	case types.AlignmentGreater:
		s.Greater++
	default:
		s.Unaligned++
	}
}

// AlignSingle attempts to locate ex.Text within source and mutates ex's
// CharInterval/AlignmentStatus in place. offset is added to any positions
// found, so the result is always expressed in the coordinate space of the
// original (un-chunked) document. Returns the resulting status (empty if
// unaligned).
func AlignSingle(ex *types.Extraction, source string, offset int, opts Options) types.AlignmentStatus {
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = 0.4
	}
	if opts.MaxSearchWindow <= 0 {
		opts.MaxSearchWindow = 100
	}

	if iv, ok := tryExact(ex.Text, source, opts.CaseSensitive); ok {
		applyOffset(&iv, offset)
		ex.CharInterval = &iv
		ex.AlignmentStatus = types.AlignmentExact
		return types.AlignmentExact
	}

	if iv, ok := tryLesser(ex.Text, source, opts.CaseSensitive); ok {
		applyOffset(&iv, offset)
		ex.CharInterval = &iv
		ex.AlignmentStatus = types.AlignmentLesser
		return types.AlignmentLesser
	}

	if iv, ok := tryFuzzy(ex.Text, source, opts); ok {
		applyOffset(&iv, offset)
		ex.CharInterval = &iv
		ex.AlignmentStatus = types.AlignmentFuzzy
		return types.AlignmentFuzzy
	}

	ex.CharInterval = nil
	ex.AlignmentStatus = ""
	return ""
}

// AlignBatch aligns every extraction in place and returns aggregate stats.
func AlignBatch(extractions []types.Extraction, source string, offset int, opts Options) Stats {
	var stats Stats
	for i := range extractions {
		status := AlignSingle(&extractions[i], source, offset, opts)
		stats.record(status)
	}
	return stats
}

func applyOffset(iv *types.CharInterval, offset int) {
	iv.Start += offset
	iv.End += offset
}

func foldCase(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// tryExact finds the first occurrence of text in source (case-insensitive
// by default).
func tryExact(text, source string, caseSensitive bool) (types.CharInterval, bool) {
	if text == "" {
		return types.CharInterval{}, false
	}
	idx := strings.Index(foldCase(source, caseSensitive), foldCase(text, caseSensitive))
	if idx < 0 {
		return types.CharInterval{}, false
	}
	return types.CharInterval{Start: idx, End: idx + len(text)}, true
}

// tryLesser handles multi-word text by locating the first word's first
// occurrence and the last word's first occurrence after it, accepting the
// span only if it is tighter than 2x the text length.
func tryLesser(text, source string, caseSensitive bool) (types.CharInterval, bool) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return types.CharInterval{}, false
	}
	folded := foldCase(source, caseSensitive)
	first := foldCase(words[0], caseSensitive)
	last := foldCase(words[len(words)-1], caseSensitive)

	firstIdx := strings.Index(folded, first)
	if firstIdx < 0 {
		return types.CharInterval{}, false
	}
	searchFrom := firstIdx + len(first)
	if searchFrom > len(folded) {
		return types.CharInterval{}, false
	}
	lastIdx := strings.Index(folded[searchFrom:], last)
	if lastIdx < 0 {
		return types.CharInterval{}, false
	}
	lastIdx += searchFrom
	end := lastIdx + len(last)

	span := end - firstIdx
	if span >= 2*len(text) {
		return types.CharInterval{}, false
	}
	return types.CharInterval{Start: firstIdx, End: end}, true
}

// wordSpan pairs a source word with its char interval, to support
// window-based fuzzy search.
type wordSpan struct {
	text     string
	interval types.CharInterval
}

func splitWords(s string) []wordSpan {
	var spans []wordSpan
	inWord := false
	start := 0
	for i, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if !isSpace && !inWord {
			start = i
			inWord = true
		} else if isSpace && inWord {
			spans = append(spans, wordSpan{text: s[start:i], interval: types.CharInterval{Start: start, End: i}})
			inWord = false
		}
	}
	if inWord {
		spans = append(spans, wordSpan{text: s[start:], interval: types.CharInterval{Start: start, End: len(s)}})
	}
	return spans
}

// tryFuzzy slides a window of increasing size over the source's words,
// computing coverage similarity (#ex_words present in window / #ex_words),
// accepting the first window at or above FuzzyThreshold, then continuing to
// search within that window size for a higher score before stopping.
func tryFuzzy(text, source string, opts Options) (types.CharInterval, bool) {
	exWords := strings.Fields(text)
	if len(exWords) == 0 {
		return types.CharInterval{}, false
	}
	exSet := make(map[string]bool, len(exWords))
	for _, w := range exWords {
		exSet[foldCase(w, opts.CaseSensitive)] = true
	}

	srcWords := splitWords(source)
	if len(srcWords) == 0 {
		return types.CharInterval{}, false
	}

	maxWindow := len(srcWords)
	if opts.MaxSearchWindow < maxWindow {
		maxWindow = opts.MaxSearchWindow
	}

	minWindow := len(exWords)
	if minWindow > maxWindow {
		minWindow = maxWindow
	}

	for windowSize := minWindow; windowSize <= maxWindow; windowSize++ {
		bestScore := -1.0
		bestStart, bestEnd := -1, -1
		found := false
		for start := 0; start+windowSize <= len(srcWords); start++ {
			matches := 0
			seen := make(map[string]bool, windowSize)
			for i := start; i < start+windowSize; i++ {
				w := foldCase(srcWords[i].text, opts.CaseSensitive)
				w = strings.Trim(w, ".,!?;:\"'()[]{}")
				if exSet[w] && !seen[w] {
					seen[w] = true
					matches++
				}
			}
			score := float64(matches) / float64(len(exWords))
			if score >= opts.FuzzyThreshold {
				found = true
				if score > bestScore {
					bestScore = score
					bestStart, bestEnd = start, start+windowSize-1
				}
			}
		}
		if found {
			iv := types.CharInterval{
				Start: srcWords[bestStart].interval.Start,
				End:   srcWords[bestEnd].interval.End,
			}
			return iv, true
		}
	}

	return types.CharInterval{}, false
}
