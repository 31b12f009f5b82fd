// Package model defines component K: the LanguageModel capability surface
// used by the annotator (F) and multi-pass controller (H). The core only
// ever sees this thin interface — concrete provider transports are external
// collaborators (see internal/providers/openai for the reference adapter),
// per spec.md §1.
package model

import "context"

// Kwargs carries provider-specific call parameters. The core recognizes
// "temperature" and "max_tokens"; anything else passes through untouched.
type Kwargs map[string]any

// Candidate is one scored completion for a prompt. Score is optional.
type Candidate struct {
	Text  string
	Score *float64
}

// LanguageModel is the sole capability the core depends on to talk to a
// model. The core never retries Infer itself — that is the implementation's
// contract (§5 Retries).
type LanguageModel interface {
	// Infer runs inference over an ordered sequence of prompts and returns,
	// for each prompt (same order), an ordered sequence of candidate
	// completions.
	Infer(ctx context.Context, prompts []string, kwargs Kwargs) ([][]Candidate, error)

	// RequiresFenceOutput reports whether this model's raw text may be
	// wrapped in a code fence that must be stripped before parsing.
	RequiresFenceOutput() bool

	ModelID() string
	ProviderName() string
}
