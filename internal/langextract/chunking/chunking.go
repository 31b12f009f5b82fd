// Package chunking implements component B: a token-aware cut of a document
// into buffer-sized pieces respecting sentence/newline boundaries.
//
// The teacher's internal/chunking package picks a strategy by content type
// (FallbackChunker / MarkdownChunker / HTMLChunker) behind a Chunker
// interface and drives a paragraph/line/word cascade with sentence-based
// overlap (internal/chunking/strategies.go, calculateSentenceOverlap). The
// spec's token-based chunker plays the same role as the teacher's
// FallbackChunker — a single default, token-boundary-respecting strategy —
// but the cut points are sentence/newline/token boundaries over an actual
// tokenizer instead of whitespace-split words, and it is a lazy iterator
// rather than an eager slice builder (DESIGN NOTES: "stateful
// sentence/chunk iterators... lazy sequences with explicit cursor state").
package chunking

import (
	"langextract/internal/langextract/errs"
	"langextract/internal/langextract/tokenizer"
	"langextract/internal/langextract/types"
)

// Iterator lazily produces TokenChunks from a TokenizedText. Tokens and
// Source are held by immutable reference (DESIGN NOTES: "do not share the
// underlying TokenizedText mutably").
type Iterator struct {
	tt            types.TokenizedText
	maxCharBuffer int
	cursor        int // next token index not yet assigned to a chunk
	done          bool
}

// NewIterator builds a chunk iterator over tt with the given buffer size.
func NewIterator(tt types.TokenizedText, maxCharBuffer int) (*Iterator, error) {
	if maxCharBuffer <= 0 {
		return nil, errs.New(errs.KindChunking, "max_char_buffer must be positive")
	}
	return &Iterator{tt: tt, maxCharBuffer: maxCharBuffer}, nil
}

// Next produces the next chunk, or (zero, false) once the token stream is
// exhausted. Empty input yields false immediately.
func (it *Iterator) Next() (types.TokenChunk, bool) {
	if it.done || it.cursor >= len(it.tt.Tokens) {
		return types.TokenChunk{}, false
	}

	tokens := it.tt.Tokens
	start := it.cursor

	// Single oversized token: its own chunk (edge case).
	if tokenCharLen(tokens[start]) > it.maxCharBuffer {
		chunk := it.emit(start, start+1)
		it.cursor = start + 1
		return chunk, true
	}

	// Walk sentences from the cursor, extending the chunk while it still
	// fits the buffer.
	sentIter := tokenizer.Sentences(it.tt, start)
	end := start // exclusive end token index of the tentative chunk
	lastNewlineBoundary := -1

	for {
		sent, ok := sentIter.Next()
		if !ok {
			break
		}
		// Track any newline-boundary tokens inside this candidate sentence,
		// strictly after the chunk's start, in case we must break early.
		for ti := sent.StartIndex; ti < sent.EndIndex; ti++ {
			if ti > start && tokens[ti].FirstTokenAfterNewline {
				lastNewlineBoundary = ti
			}
		}

		candidateEnd := sent.EndIndex
		if charSpan(tokens, start, candidateEnd) <= it.maxCharBuffer {
			end = candidateEnd
			continue
		}

		// Overflow: this whole sentence doesn't fit appended to what we
		// already have. If nothing has been retained yet (end == start),
		// fall back to token-by-token extension within this sentence.
		if end == start {
			end = it.extendTokenByToken(start, sent.StartIndex, sent.EndIndex, lastNewlineBoundary)
		}
		break
	}

	if end == start {
		// Couldn't even fit the first sentence's first token combination;
		// extend at least one token to guarantee progress.
		end = start + 1
	}

	chunk := it.emit(start, end)
	it.cursor = end
	return chunk, true
}

// extendTokenByToken grows the chunk token-by-token within [sentStart,sentEnd)
// starting from the chunk's start, stopping at the buffer limit. If a
// newline-boundary token index was seen strictly after start, break there;
// otherwise break at the last token that still fits.
func (it *Iterator) extendTokenByToken(start, sentStart, sentEnd, lastNewlineBoundary int) int {
	tokens := it.tt.Tokens
	lastFitting := start
	for ti := sentStart; ti < sentEnd; ti++ {
		if charSpan(tokens, start, ti+1) > it.maxCharBuffer {
			break
		}
		lastFitting = ti + 1
	}
	if lastNewlineBoundary > start && lastNewlineBoundary <= lastFitting {
		return lastNewlineBoundary
	}
	if lastFitting > start {
		return lastFitting
	}
	return start + 1
}

// emit builds the TokenChunk for token range [start,end), extending its
// CharEnd up to the start of the next retained token (or end of source) so
// adjacent chunks touch (no gap, per §4.B invariant 4).
func (it *Iterator) emit(start, end int) types.TokenChunk {
	tokens := it.tt.Tokens
	charStart := tokens[start].Interval.Start
	var charEnd int
	if end < len(tokens) {
		charEnd = tokens[end].Interval.Start
	} else {
		charEnd = len(it.tt.Source)
	}
	return types.TokenChunk{
		Tokens:    types.TokenInterval{StartIndex: start, EndIndex: end},
		CharStart: charStart,
		CharEnd:   charEnd,
	}
}

func tokenCharLen(t types.Token) int {
	return t.Interval.End - t.Interval.Start
}

// charSpan returns the character length that tokens[start:end] would occupy
// if reconstructed from the source (i.e. tokens[end-1].End - tokens[start].Start).
func charSpan(tokens []types.Token, start, end int) int {
	if end <= start {
		return 0
	}
	return tokens[end-1].Interval.End - tokens[start].Interval.Start
}

// Collect drains an Iterator into an ordered slice. Convenience for callers
// that don't need the lazy interface (e.g. the annotator's non-streaming
// single pass).
func Collect(tt types.TokenizedText, maxCharBuffer int) ([]types.TokenChunk, error) {
	it, err := NewIterator(tt, maxCharBuffer)
	if err != nil {
		return nil, err
	}
	var chunks []types.TokenChunk
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
