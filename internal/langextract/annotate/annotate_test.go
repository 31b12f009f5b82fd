package annotate_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langextract/internal/langextract/alignment"
	"langextract/internal/langextract/annotate"
	"langextract/internal/langextract/model"
	"langextract/internal/langextract/prompting"
	"langextract/internal/langextract/types"
)

// fakeModel returns one canned JSON response per call, or an error on the
// failOnCall-th call only.
type fakeModel struct {
	response   string
	failOnCall int // 0 = never fail
	calls      int32
}

func (f *fakeModel) Infer(ctx context.Context, prompts []string, kwargs model.Kwargs) ([][]model.Candidate, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.failOnCall > 0 && int(n) == f.failOnCall {
		return nil, fmt.Errorf("simulated inference failure")
	}
	out := make([][]model.Candidate, len(prompts))
	for i := range prompts {
		out[i] = []model.Candidate{{Text: f.response}}
	}
	return out, nil
}

func (f *fakeModel) RequiresFenceOutput() bool { return false }
func (f *fakeModel) ModelID() string           { return "fake-model" }
func (f *fakeModel) ProviderName() string      { return "fake" }

func baseConfig() annotate.Config {
	v := false
	return annotate.Config{
		MaxCharBuffer:  1000,
		BatchSize:      10,
		Workers:        10,
		Temperature:    0.5,
		Format:         prompting.FormatJSON,
		FenceOutput:    &v,
		EnableCoercion: false,
		AlignOptions:   alignment.DefaultOptions(),
	}
}

func TestAnnotate_SinglePromptPath(t *testing.T) {
	m := &fakeModel{response: `{"organization": "Acme Corp"}`}
	a := annotate.New(m, "Extract organizations", nil, baseConfig(), nil)

	doc, err := a.Annotate(context.Background(), "Acme Corp is a company.", "doc_1")
	require.NoError(t, err)
	require.Len(t, doc.Extractions, 1)
	assert.Equal(t, "Acme Corp", doc.Extractions[0].Text)
	assert.Equal(t, types.AlignmentExact, doc.Extractions[0].AlignmentStatus)
}

func TestAnnotate_SinglePromptPropagatesInferenceFailure(t *testing.T) {
	m := &fakeModel{response: `{}`, failOnCall: 1}
	a := annotate.New(m, "task", nil, baseConfig(), nil)

	_, err := a.Annotate(context.Background(), "short text", "doc_1")
	assert.Error(t, err)
}

func TestAnnotate_ChunkedPathToleratesOneFailedChunk(t *testing.T) {
	m := &fakeModel{response: `{"organization": "Acme Corp"}`, failOnCall: 2}
	cfg := baseConfig()
	cfg.MaxCharBuffer = 20
	cfg.BatchSize = 1
	cfg.Workers = 1

	text := strings.Repeat("Acme Corp runs the business. ", 10)
	a := annotate.New(m, "task", nil, cfg, nil)

	doc, cr, err := a.AnnotateDetailed(context.Background(), text, "doc_1")
	require.NoError(t, err)
	assert.Greater(t, len(cr), 1)

	failed := 0
	for _, c := range cr {
		if !c.Success {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.NotEmpty(t, doc.Extractions)
}

func TestAnnotate_ChunkedPathDedupesAcrossChunks(t *testing.T) {
	m := &fakeModel{response: `{"organization": "Acme Corp"}`}
	cfg := baseConfig()
	cfg.MaxCharBuffer = 30
	cfg.BatchSize = 2
	cfg.Workers = 2

	text := strings.Repeat("Acme Corp runs the business. ", 6)
	a := annotate.New(m, "task", nil, cfg, nil)

	doc, _, err := a.AnnotateDetailed(context.Background(), text, "doc_1")
	require.NoError(t, err)
	assert.Len(t, doc.Extractions, 1)
}
