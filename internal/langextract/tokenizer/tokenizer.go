// Package tokenizer implements component A: regex-based word/number/
// punctuation/acronym tokens, plus abbreviation-aware sentence boundaries.
//
// The teacher's chunking layer reaches for github.com/neurosnap/sentences
// for sentence splitting (internal/chunking/strategies.go), but that
// library's Punkt-trained locale data doesn't expose the closed
// abbreviation list the spec requires, so sentence boundaries here are
// hand-rolled against that exact list — see DESIGN.md.
package tokenizer

import (
	"fmt"
	"regexp"
	"strings"

	"langextract/internal/langextract/errs"
	"langextract/internal/langextract/types"
)

// tokenPattern matches, in priority order: acronym, word, number, punctuation.
// Order matters — acronym must be tried before word/number since it is a
// strict superset shape (e.g. "km/h" would otherwise tokenize as "km" then
// "/" then "h"). Dotted forms such as "U.S" are not acronyms here; they
// tokenize as "U", ".", "S".
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+(?:/[A-Za-z0-9]+)+|[A-Za-z]+|[0-9]+|[^A-Za-z0-9\s]+`)

// abbreviations is the closed list from §4.A. Matching is exact against the
// source text spanned by the 2 to 4 tokens ending at the candidate
// sentence-ending punctuation token.
var abbreviations = map[string]bool{
	"Mr.": true, "Mrs.": true, "Ms.": true, "Dr.": true, "Prof.": true,
	"St.": true, "Ave.": true, "Blvd.": true, "Rd.": true, "Ltd.": true,
	"Inc.": true, "Corp.": true, "vs.": true, "etc.": true, "et al.": true,
	"i.e.": true, "e.g.": true, "cf.": true, "a.m.": true, "p.m.": true,
	"U.S.": true, "U.K.": true, "Ph.D.": true,
}

var sentenceEndPunct = regexp.MustCompile(`[.?!]$`)

func classify(s string) types.TokenKind {
	switch {
	case strings.Contains(s, "/"):
		return types.TokenAcronym
	case isAllLetters(s):
		return types.TokenWord
	case isAllDigits(s):
		return types.TokenNumber
	default:
		return types.TokenPunctuation
	}
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return len(s) > 0
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Tokenize scans s and returns its TokenizedText. Tokenizing the same string
// twice always yields an equal result (idempotence, §8).
func Tokenize(s string) types.TokenizedText {
	matches := tokenPattern.FindAllStringIndex(s, -1)
	tokens := make([]types.Token, 0, len(matches))

	prevEnd := 0
	for i, m := range matches {
		start, end := m[0], m[1]
		gap := s[prevEnd:start]
		tok := types.Token{
			Index:                  i,
			Kind:                   classify(s[start:end]),
			Interval:               types.CharInterval{Start: start, End: end},
			FirstTokenAfterNewline: strings.ContainsAny(gap, "\n\r"),
		}
		tokens = append(tokens, tok)
		prevEnd = end
	}

	return types.TokenizedText{Source: s, Tokens: tokens}
}

// endsSentence reports whether token i (a punctuation token matching
// [.?!]$) actually ends a sentence, i.e. it does not complete a known
// abbreviation formed with the one to three tokens before it.
func endsSentence(tt types.TokenizedText, i int) bool {
	tok := tt.Tokens[i]
	if tok.Kind != types.TokenPunctuation {
		return false
	}
	text := tok.Text(tt.Source)
	if !sentenceEndPunct.MatchString(text) {
		return false
	}
	if i == 0 {
		return true
	}
	// Check growing windows ending at this token, sliced straight from the
	// source so inter-token whitespace (e.g. the space in "et al.") is
	// preserved exactly as written, rather than reassembled by hand.
	for k := 2; k <= 4 && i-k+1 >= 0; k++ {
		start := tt.Tokens[i-k+1].Interval.Start
		candidate := tt.Source[start:tok.Interval.End]
		if abbreviations[candidate] {
			return false
		}
	}
	return true
}

// newlineSplits reports whether a newline between token i-1 and token i ends
// a sentence: the gap contains a newline AND token i starts with an
// uppercase letter.
func newlineSplits(tt types.TokenizedText, i int) bool {
	if i == 0 || !tt.Tokens[i].FirstTokenAfterNewline {
		return false
	}
	text := tt.Tokens[i].Text(tt.Source)
	r := rune(text[0])
	return r >= 'A' && r <= 'Z'
}

// SentenceRange returns the token interval of the sentence starting at token
// index i. If i is the last token, it returns a single-token range rather
// than failing.
func SentenceRange(tt types.TokenizedText, i int) (types.TokenInterval, error) {
	if i < 0 || i >= len(tt.Tokens) {
		return types.TokenInterval{}, errs.New(errs.KindInvalidInput,
			fmt.Sprintf("sentence_range: token index %d out of bounds (len=%d)", i, len(tt.Tokens)))
	}
	if i == len(tt.Tokens)-1 {
		return types.TokenInterval{StartIndex: i, EndIndex: i + 1}, nil
	}
	for j := i; j < len(tt.Tokens); j++ {
		if j > i && newlineSplits(tt, j) {
			return types.TokenInterval{StartIndex: i, EndIndex: j}, nil
		}
		if endsSentence(tt, j) {
			return types.TokenInterval{StartIndex: i, EndIndex: j + 1}, nil
		}
	}
	return types.TokenInterval{StartIndex: i, EndIndex: len(tt.Tokens)}, nil
}

// Sentences returns a lazy sequence of TokenInterval, starting the first
// sentence at token index `from`, expressed as a cursor-driven iterator per
// DESIGN NOTES ("stateful sentence/chunk iterators ... lazy sequences with
// explicit cursor state").
type SentenceIter struct {
	tt     types.TokenizedText
	cursor int
}

// Sentences builds an iterator over sentences starting at token index from.
func Sentences(tt types.TokenizedText, from int) *SentenceIter {
	return &SentenceIter{tt: tt, cursor: from}
}

// Next returns the next sentence's TokenInterval and true, or a zero value
// and false once the token stream is exhausted.
func (it *SentenceIter) Next() (types.TokenInterval, bool) {
	if it.cursor >= len(it.tt.Tokens) {
		return types.TokenInterval{}, false
	}
	rng, err := SentenceRange(it.tt, it.cursor)
	if err != nil {
		return types.TokenInterval{}, false
	}
	it.cursor = rng.EndIndex
	return rng, true
}

// Reconstruct returns the substring spanning a token interval, i.e.
// source[tokens[a].Start .. tokens[b-1].End) — the round-trip property of §8.
func Reconstruct(tt types.TokenizedText, iv types.TokenInterval) (string, error) {
	if !iv.Valid() || iv.StartIndex < 0 || iv.EndIndex > len(tt.Tokens) {
		return "", errs.New(errs.KindInvalidInput, "reconstruct: invalid token interval")
	}
	start := tt.Tokens[iv.StartIndex].Interval.Start
	end := tt.Tokens[iv.EndIndex-1].Interval.End
	return tt.Source[start:end], nil
}
